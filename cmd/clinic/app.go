package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"clinic-console/internal/api"
	"clinic-console/internal/authz"
	"clinic-console/internal/config"
	"clinic-console/internal/logging"
	"clinic-console/internal/model"
	"clinic-console/internal/notify"
	"clinic-console/internal/router"
	"clinic-console/internal/session"
	"clinic-console/internal/state"
	"clinic-console/internal/store"
	"clinic-console/internal/transport"
	"clinic-console/internal/view"
)

// app holds everything one command invocation needs.
type app struct {
	cfg *config.Config
	log zerolog.Logger
	out io.Writer

	pool  *pgxpool.Pool
	sess  *session.Manager
	auth  *state.Auth
	appts *state.Appointments
	pharm *state.Pharmacy
	users *state.Users
	nav   *router.Navigator
	queue *notify.Queue
}

func (a *app) configure() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logging.New(os.Stderr, cfg.LogLevel, cfg.IsDev())
	return nil
}

func (a *app) tokens(ctx context.Context) (store.TokenStore, error) {
	switch a.cfg.TokenStore {
	case config.TokenStoreMemory:
		return store.NewMemory(""), nil
	case config.TokenStorePostgres:
		pool, err := pgxpool.New(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("db ping: %w", err)
		}
		a.pool = pool
		st := store.NewPostgres(pool, a.cfg.Profile)
		if err := st.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("token table: %w", err)
		}
		return st, nil
	}
	key, err := a.cfg.TokenKeyBytes()
	if err != nil {
		return nil, err
	}
	return store.NewFile(a.cfg.TokenFile, key)
}

// start wires the stores and restores any saved session.
func (a *app) start(ctx context.Context) error {
	if err := a.configure(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	tokens, err := a.tokens(ctx)
	if err != nil {
		return err
	}
	if err := a.connect(tokens); err != nil {
		return err
	}
	if err := a.auth.Restore(ctx); err != nil {
		a.log.Debug().Err(err).Msg("restore session")
	}
	return nil
}

// connect builds the session, the API client, the stores and the navigator
// on top of tokens.
func (a *app) connect(tokens store.TokenStore) error {
	a.sess = session.New(tokens, a.log)
	tc, err := transport.New(transport.Options{
		BaseURL:   a.cfg.APIBaseURL,
		Timeout:   a.cfg.APITimeout,
		AuthRPS:   a.cfg.AuthRateRPS,
		AuthBurst: a.cfg.AuthRateBurst,
	}, a.sess, a.log)
	if err != nil {
		return err
	}
	c := api.New(tc)

	a.queue = &notify.Queue{}
	var n notify.Notifier = a.queue
	if a.log.GetLevel() <= zerolog.DebugLevel {
		n = notify.Multi{a.queue, notify.NewLog(a.log)}
	}
	a.auth = state.NewAuth(c.Auth, a.sess, n, a.log)
	a.appts = state.NewAppointments(c.Appointments, c.Directory, n, a.log)
	a.pharm = state.NewPharmacy(c.Pharmacy, n, a.log)
	a.users = state.NewUsers(c.Users, n, a.log)
	a.nav = router.NewNavigator(router.NewGuard(a.auth), a.sess, a.log)
	return nil
}

func (a *app) flush() {
	if a.queue != nil {
		view.Notices(a.out, a.queue.Drain())
	}
}

func (a *app) close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// enter navigates to screen and fails unless it renders.
func (a *app) enter(screen string) error {
	d := a.nav.Navigate(screen)
	switch {
	case d.Kind == router.Render && d.Path == router.Clean(screen):
		return nil
	case d.Kind == router.Render && d.Path == router.Login:
		return fmt.Errorf("not signed in, run: clinic login")
	case d.Kind == router.Render && d.Path == router.Unauthorized:
		return fmt.Errorf("your role cannot open %s", screen)
	}
	return fmt.Errorf("cannot open %s (%s %s)", screen, d.Kind, d.Path)
}

func (a *app) me() model.Session {
	s, _ := a.auth.Session()
	return s
}

// isStaff reports whether the signed-in user holds one of roles.
func (a *app) isStaff(roles ...model.Role) bool {
	return authz.HasAnyRole(a.me(), roles...) && len(roles) > 0
}

func today() string { return time.Now().Format("2006-01-02") }
