package alerted

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PostgresSet persists the alerted set in a single-writer table for hosts
// that want suppression to survive restarts without Redis. Expired rows are
// filtered on read and lazily reaped on write.
type PostgresSet struct {
	db *sqlx.DB
}

const alertedSchema = `
CREATE TABLE IF NOT EXISTS alerted_tokens (
    token_key  TEXT PRIMARY KEY,
    expires_at TIMESTAMPTZ NOT NULL
)`

// NewPostgresSet opens the store against an existing connection and ensures
// the table exists.
func NewPostgresSet(db *sqlx.DB) (*PostgresSet, error) {
	if _, err := db.Exec(alertedSchema); err != nil {
		return nil, err
	}
	return &PostgresSet{db: db}, nil
}

// OpenPostgresSet connects with the given DSN and prepares the store.
func OpenPostgresSet(dsn string) (*PostgresSet, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, err
	}
	return NewPostgresSet(db)
}

func (s *PostgresSet) Contains(ctx context.Context, tokenKey string) bool {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM alerted_tokens WHERE token_key = $1 AND expires_at > NOW()`, tokenKey)
	return err == nil && n > 0
}

func (s *PostgresSet) Add(ctx context.Context, tokenKey string, ttl time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alerted_tokens (token_key, expires_at) VALUES ($1, $2)
		 ON CONFLICT (token_key) DO UPDATE SET expires_at = EXCLUDED.expires_at`,
		tokenKey, time.Now().Add(ttl))
	if err != nil {
		return err
	}
	_, _ = s.db.ExecContext(ctx, `DELETE FROM alerted_tokens WHERE expires_at <= NOW()`)
	return nil
}
