package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `CREATE TABLE IF NOT EXISTS client_tokens (
	profile    TEXT PRIMARY KEY,
	token      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Postgres keeps one token per profile, so a shared front-desk machine can
// hold separate sign-ins.
type Postgres struct {
	pool    *pgxpool.Pool
	profile string
}

func NewPostgres(pool *pgxpool.Pool, profile string) *Postgres {
	return &Postgres{pool: pool, profile: profile}
}

func (s *Postgres) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *Postgres) Load(ctx context.Context) (string, error) {
	var tok string
	err := s.pool.QueryRow(ctx,
		`SELECT token FROM client_tokens WHERE profile = $1`, s.profile,
	).Scan(&tok)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return tok, err
}

func (s *Postgres) Save(ctx context.Context, token string) error {
	if token == "" {
		return s.Clear(ctx)
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO client_tokens (profile, token) VALUES ($1,$2)
		 ON CONFLICT (profile) DO UPDATE SET token = EXCLUDED.token, updated_at = NOW()`,
		s.profile, token,
	)
	return err
}

func (s *Postgres) Clear(ctx context.Context) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM client_tokens WHERE profile = $1`, s.profile,
	)
	return err
}
