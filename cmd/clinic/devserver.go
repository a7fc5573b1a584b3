package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"clinic-console/internal/backend"
	"clinic-console/internal/handler"
	"clinic-console/internal/middleware"
)

func devserverCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "devserver",
		Short:       "Run an in-memory clinic API to develop against",
		Annotations: map[string]string{"standalone": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			port, _ := cmd.Flags().GetString("port")
			if port == "" {
				port = a.cfg.DevPort
			}
			seed, _ := cmd.Flags().GetBool("seed")
			return runDevServer(cmd.Context(), a, port, seed)
		},
	}
	cmd.Flags().String("port", "", "listen port (default DEV_PORT)")
	cmd.Flags().Bool("seed", true, "load demo accounts and records")
	return cmd
}

func runDevServer(ctx context.Context, a *app, port string, seed bool) error {
	log := a.log.With().Str("component", "devserver").Logger()

	clinic := backend.New()
	if seed {
		if err := backend.Seed(clinic, time.Now()); err != nil {
			return err
		}
		log.Info().Str("password", backend.SeedPassword).Msg("seeded demo accounts")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
	}))

	limiter := middleware.NewRateLimiter(ctx, a.cfg.AuthRateRPS, a.cfg.AuthRateBurst)
	handler.New(clinic, a.cfg.JWTSecret, log).Register(e, limiter)

	go func() {
		log.Info().Str("port", port).Msg("listening")
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
