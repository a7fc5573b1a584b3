package state

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"clinic-console/internal/api"
	"clinic-console/internal/model"
	"clinic-console/internal/notify"
	"clinic-console/internal/session"
)

type AuthAPI interface {
	Register(ctx context.Context, in api.Registration) (*api.AuthResponse, error)
	Login(ctx context.Context, in api.Credentials) (*api.AuthResponse, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (model.Session, error)
}

type AuthStatus int

const (
	AuthUnknown AuthStatus = iota
	AuthChecking
	Authenticated
	Unauthenticated
)

// Resolved reports whether the frontend knows if anyone is signed in.
func (s AuthStatus) Resolved() bool {
	return s == Authenticated || s == Unauthenticated
}

var errNoToken = errors.New("auth response carried no token")

// Auth is the single authentication-state provider. It is the only store
// that starts sessions; teardowns from any source land here through the
// session manager.
type Auth struct {
	*base
	api    AuthAPI
	sess   *session.Manager
	status AuthStatus
	user   *model.Session
}

func NewAuth(a AuthAPI, sess *session.Manager, n notify.Notifier, log zerolog.Logger) *Auth {
	s := &Auth{
		base: newBase("auth", n, log),
		api:  a,
		sess: sess,
	}
	sess.OnTeardown(func(reason string) {
		s.mu.Lock()
		s.user = nil
		s.status = Unauthenticated
		s.mu.Unlock()
	})
	return s
}

func (s *Auth) Status() AuthStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Auth) IsAuthenticated() bool { return s.Status() == Authenticated }

// Session returns the signed-in user.
func (s *Auth) Session() (model.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneOne(s.user)
}

func (s *Auth) setStatus(st AuthStatus) {
	s.mu.Lock()
	s.status = st
	if st != Authenticated {
		s.user = nil
	}
	s.mu.Unlock()
}

// start installs the token from an auth response.
func (s *Auth) start(ctx context.Context, resp *api.AuthResponse) (*api.AuthResponse, error) {
	if resp.Token == "" {
		return nil, errNoToken
	}
	if _, err := s.sess.Begin(ctx, resp.Token); err != nil {
		s.log.Warn().Err(err).Msg("token not persisted")
	}
	return resp, nil
}

func (s *Auth) signedIn(resp *api.AuthResponse) {
	u := resp.User
	u.Token = resp.Token
	s.user = &u
	s.status = Authenticated
}

func (s *Auth) Login(ctx context.Context, email, password string) error {
	_, err := run(ctx, s.base, op{name: "login", fallback: "Login failed", success: "Login successful"},
		func(ctx context.Context) (*api.AuthResponse, error) {
			resp, err := s.api.Login(ctx, api.Credentials{Email: email, Password: password})
			if err != nil {
				return nil, err
			}
			return s.start(ctx, resp)
		}, s.signedIn)
	return err
}

// Register creates the account. When the backend answers with a token the
// new user is signed in straight away.
func (s *Auth) Register(ctx context.Context, in api.Registration) error {
	_, err := run(ctx, s.base, op{name: "register", fallback: "Registration failed", success: "Registration successful"},
		func(ctx context.Context) (*api.AuthResponse, error) {
			resp, err := s.api.Register(ctx, in)
			if err != nil {
				return nil, err
			}
			if resp.Token == "" {
				return resp, nil
			}
			return s.start(ctx, resp)
		}, func(resp *api.AuthResponse) {
			if resp.Token != "" {
				s.signedIn(resp)
			}
		})
	return err
}

// Logout always ends the local session; the server call is best effort.
func (s *Auth) Logout(ctx context.Context) error {
	return exec(ctx, s.base, op{name: "logout", success: "Logged out"}, func(ctx context.Context) error {
		if s.sess.HasToken() {
			if err := s.api.Logout(ctx); err != nil {
				s.log.Debug().Err(err).Msg("server logout failed")
			}
		}
		s.sess.Teardown(ctx, session.ReasonLogout)
		return nil
	}, nil)
}

// CheckAuth resolves the current token into a user through GET /auth/me.
// Any failure leaves the frontend signed out. Only a 401 discards the stored
// token, so a network failure does not cost the user their session.
func (s *Auth) CheckAuth(ctx context.Context) error {
	if !s.sess.HasToken() {
		s.setStatus(Unauthenticated)
		return nil
	}
	s.setStatus(AuthChecking)
	_, err := run(ctx, s.base, op{name: "checkAuth", fallback: "Session expired, please sign in again", quiet: true},
		s.api.Me, func(u model.Session) {
			u.Token, _ = s.sess.Token()
			s.user = &u
			s.status = Authenticated
		})
	if err == nil {
		return nil
	}
	var oe *OpError
	if errors.As(err, &oe) {
		s.setStatus(Unauthenticated)
	}
	return err
}

// Restore picks up a persisted token at startup and verifies it.
func (s *Auth) Restore(ctx context.Context) error {
	s.setStatus(AuthChecking)
	ok, err := s.sess.Restore(ctx)
	if err != nil {
		s.setStatus(Unauthenticated)
		return err
	}
	if !ok {
		s.setStatus(Unauthenticated)
		return nil
	}
	return s.CheckAuth(ctx)
}
