// Package session holds the bearer token for the running frontend and the
// generation counter that lets in-flight responses detect that the session
// they were issued under is gone.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"clinic-console/internal/auth"
	"clinic-console/internal/store"
)

// Teardown reasons.
const (
	ReasonLogout       = "logout"
	ReasonUnauthorized = "unauthorized"
	ReasonExpired      = "expired"
)

// Manager is the single owner of the session token. The HTTP adapter reads
// it, the auth store and the 401 handler write it. Every Begin and Teardown
// advances the generation.
type Manager struct {
	mu        sync.RWMutex
	tokens    store.TokenStore
	token     string
	gen       uint64
	listeners []func(reason string)
	log       zerolog.Logger
	now       func() time.Time
}

func New(tokens store.TokenStore, log zerolog.Logger) *Manager {
	return &Manager{
		tokens: tokens,
		log:    log.With().Str("component", "session").Logger(),
		now:    time.Now,
	}
}

// Restore loads the persisted token. A JWT whose exp has passed is cleared
// from storage and reported as absent.
func (m *Manager) Restore(ctx context.Context) (bool, error) {
	tok, err := m.tokens.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("restore session: %w", err)
	}
	if tok != "" && auth.Expired(tok, m.now()) {
		m.log.Info().Msg("stored token expired")
		if err := m.tokens.Clear(ctx); err != nil {
			m.log.Warn().Err(err).Msg("clear expired token")
		}
		tok = ""
	}

	m.mu.Lock()
	m.token = tok
	m.mu.Unlock()
	return tok != "", nil
}

// Token returns the current token and the generation it belongs to.
func (m *Manager) Token() (string, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.gen
}

func (m *Manager) Generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gen
}

func (m *Manager) HasToken() bool {
	tok, _ := m.Token()
	return tok != ""
}

// Begin installs a freshly issued token. The token is usable even when
// persisting it fails; the error is still returned so callers can report it.
func (m *Manager) Begin(ctx context.Context, token string) (uint64, error) {
	m.mu.Lock()
	m.token = token
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	m.log.Debug().Uint64("generation", gen).Msg("session started")
	if err := m.tokens.Save(ctx, token); err != nil {
		return gen, fmt.Errorf("persist token: %w", err)
	}
	return gen, nil
}

// Teardown drops the session unconditionally and notifies listeners.
func (m *Manager) Teardown(ctx context.Context, reason string) {
	m.mu.Lock()
	gen, listeners := m.teardownLocked()
	m.mu.Unlock()
	m.ended(ctx, reason, gen, listeners)
}

// TeardownIf tears the session down only while it is still at generation
// gen. A rejection that belongs to an older session must not end a newer
// one, and concurrent rejections of the same session end it once.
func (m *Manager) TeardownIf(ctx context.Context, gen uint64, reason string) bool {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return false
	}
	next, listeners := m.teardownLocked()
	m.mu.Unlock()
	m.ended(ctx, reason, next, listeners)
	return true
}

// teardownLocked must be called with mu held.
func (m *Manager) teardownLocked() (uint64, []func(string)) {
	m.token = ""
	m.gen++
	return m.gen, append([]func(string){}, m.listeners...)
}

func (m *Manager) ended(ctx context.Context, reason string, gen uint64, listeners []func(string)) {
	if err := m.tokens.Clear(ctx); err != nil {
		m.log.Warn().Err(err).Msg("clear token")
	}
	m.log.Info().Str("reason", reason).Uint64("generation", gen).Msg("session ended")
	for _, fn := range listeners {
		fn(reason)
	}
}

// OnTeardown registers fn to run after every teardown, outside the lock.
func (m *Manager) OnTeardown(fn func(reason string)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}
