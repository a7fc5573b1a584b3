// Package handler serves the clinic REST API from the in-memory backend.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"clinic-console/internal/auth"
	"clinic-console/internal/backend"
	"clinic-console/internal/middleware"
	"clinic-console/internal/model"
)

type Handler struct {
	clinic *backend.Clinic
	secret string
	log    zerolog.Logger
}

func New(c *backend.Clinic, secret string, log zerolog.Logger) *Handler {
	return &Handler{clinic: c, secret: secret, log: log.With().Str("component", "handler").Logger()}
}

var (
	staff     = []model.Role{model.RoleDoctor, model.RoleReceptionist}
	clinical  = []model.Role{model.RoleDoctor, model.RoleReceptionist, model.RolePharmacist}
	dispenser = []model.Role{model.RolePharmacist, model.RoleDoctor}
)

// Register mounts every route on e. limiter guards sign-in and sign-up.
func (h *Handler) Register(e *echo.Echo, limiter *middleware.RateLimiter) {
	e.HTTPErrorHandler = h.errorHandler

	open := e.Group("/auth")
	open.POST("/register", h.SignUp, middleware.RateLimit(limiter))
	open.POST("/login", h.Login, middleware.RateLimit(limiter))

	g := e.Group("", middleware.Auth(h.secret, h.clinic))
	role := middleware.RequireRole

	g.POST("/auth/logout", h.Logout)
	g.GET("/auth/me", h.Me)

	g.GET("/users", h.ListUsers, role(model.RoleAdmin))
	g.GET("/users/:id", h.GetUser, role(model.RoleAdmin))
	g.PUT("/users/:id", h.UpdateUser, role(model.RoleAdmin))
	g.DELETE("/users/:id", h.DeleteUser, role(model.RoleAdmin))

	g.GET("/appointments", h.ListAppointments, role(staff...))
	g.GET("/appointments/available-slots", h.AvailableSlots)
	g.GET("/appointments/doctor/:id", h.AppointmentsByDoctor, role(staff...))
	g.GET("/appointments/patient/:id", h.AppointmentsByPatient)
	g.GET("/appointments/:id", h.GetAppointment)
	g.POST("/appointments", h.CreateAppointment)
	g.PUT("/appointments/:id", h.UpdateAppointment, role(staff...))
	g.PATCH("/appointments/:id/cancel", h.CancelAppointment)
	g.PATCH("/appointments/:id/status", h.SetAppointmentStatus, role(staff...))

	g.GET("/doctors", h.ListDoctors)
	g.GET("/doctors/:id", h.GetDoctor)
	g.GET("/patients", h.ListPatients, role(clinical...))
	g.GET("/patients/:id", h.GetPatient, role(clinical...))

	g.GET("/medicines", h.ListMedicines)
	g.GET("/medicines/:id", h.GetMedicine)
	g.POST("/medicines", h.CreateMedicine, role(model.RolePharmacist))
	g.PUT("/medicines/:id", h.UpdateMedicine, role(model.RolePharmacist))
	g.DELETE("/medicines/:id", h.DeleteMedicine, role(model.RolePharmacist))

	g.GET("/prescriptions", h.ListPrescriptions)
	g.GET("/prescriptions/:id", h.GetPrescription)
	g.POST("/prescriptions", h.CreatePrescription, role(model.RoleDoctor))
	g.PATCH("/prescriptions/:id/status", h.SetPrescriptionStatus, role(dispenser...))

	g.GET("/inventory", h.Inventory, role(model.RolePharmacist))
	g.PATCH("/inventory/:id", h.SetStock, role(model.RolePharmacist))
}

// errorHandler answers every failure with {"message": ...}.
func (h *Handler) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := "internal error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if s, ok := he.Message.(string); ok {
			msg = s
		} else {
			msg = http.StatusText(code)
		}
	} else {
		h.log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
	}
	if err := c.JSON(code, map[string]string{"message": msg}); err != nil {
		h.log.Warn().Err(err).Msg("write error response")
	}
}

// fail converts a backend error into an HTTP error.
func fail(err error) error {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		msg = msg[i+2:]
	}
	switch {
	case errors.Is(err, backend.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, msg)
	case errors.Is(err, backend.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, msg)
	case errors.Is(err, backend.ErrInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, msg)
	}
	return err
}

func caller(ctx context.Context) *auth.Claims {
	c, _ := middleware.ClaimsFrom(ctx)
	return c
}

func has(c *auth.Claims, roles ...model.Role) bool {
	for _, r := range c.Roles {
		for _, want := range roles {
			if r == string(want) {
				return true
			}
		}
	}
	return false
}

func idParam(c echo.Context) model.ID { return model.ID(c.Param("id")) }

func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	return nil
}

func message(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"message": msg})
}
