package alerted

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// BreakerJournal is the optional single-writer record of circuit-breaker
// state per provider, upserted at cycle end so a restarted host can see which
// providers were unhealthy.
type BreakerJournal struct {
	db *sqlx.DB
}

const breakerSchema = `
CREATE TABLE IF NOT EXISTS breaker_state (
    provider      TEXT PRIMARY KEY,
    state         TEXT NOT NULL,
    failure_count INTEGER NOT NULL,
    recorded_at   TIMESTAMPTZ NOT NULL
)`

// NewBreakerJournal prepares the journal table on an existing connection.
func NewBreakerJournal(db *sqlx.DB) (*BreakerJournal, error) {
	if _, err := db.Exec(breakerSchema); err != nil {
		return nil, err
	}
	return &BreakerJournal{db: db}, nil
}

// Record upserts one provider's breaker state.
func (j *BreakerJournal) Record(ctx context.Context, provider, state string, failures uint32) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO breaker_state (provider, state, failure_count, recorded_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (provider) DO UPDATE
		 SET state = EXCLUDED.state, failure_count = EXCLUDED.failure_count,
		     recorded_at = EXCLUDED.recorded_at`,
		provider, state, int(failures), time.Now())
	return err
}

// LastStates loads the journal for startup reporting.
func (j *BreakerJournal) LastStates(ctx context.Context) (map[string]string, error) {
	var rows []struct {
		Provider string `db:"provider"`
		State    string `db:"state"`
	}
	if err := j.db.SelectContext(ctx, &rows, `SELECT provider, state FROM breaker_state`); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Provider] = r.State
	}
	return out, nil
}
