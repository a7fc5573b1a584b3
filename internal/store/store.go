// Package store persists the session token across runs. Absence of a token
// means the user is signed out.
package store

import (
	"context"
	"sync"
)

// TokenStore is durable client storage for the bearer token. Load returns an
// empty string when nothing is stored.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Memory keeps the token for the life of the process.
type Memory struct {
	mu    sync.Mutex
	token string
}

func NewMemory(token string) *Memory {
	return &Memory{token: token}
}

func (m *Memory) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *Memory) Save(_ context.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(context.Context) error {
	return m.Save(context.Background(), "")
}
