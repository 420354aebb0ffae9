package aiusage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store handles llm_usage persistence.
type Store struct {
	db        *pgxpool.Pool
	allowance int
	now       func() time.Time
}

// NewStore returns a Store granting allowance calls per session per day.
func NewStore(db *pgxpool.Pool, allowance int) *Store {
	if allowance <= 0 {
		allowance = DefaultDailyCalls
	}
	return &Store{db: db, allowance: allowance, now: time.Now}
}

// UseCall atomically checks the daily allowance and deducts one call.
// It resets the counter when period is behind today.
// Returns ErrInsufficientCalls when 0 rows are updated (allowance exhausted or session absent).
func (s *Store) UseCall(ctx context.Context, sessionID string) error {
	today := s.now().UTC().Format(periodLayout)

	tag, err := s.db.Exec(ctx, `
		UPDATE llm_usage SET
			calls_remaining = CASE WHEN period != $1 THEN $2 - 1 ELSE calls_remaining - 1 END,
			period = $1
		WHERE session_id = $3 AND (period < $1 OR calls_remaining > 0)
	`, today, s.allowance, sessionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientCalls
	}
	return nil
}

// EnsureSession inserts a new llm_usage row with the full allowance.
// If the row already exists the insert is silently skipped.
func (s *Store) EnsureSession(ctx context.Context, sessionID string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO llm_usage (session_id, calls_remaining, period)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id) DO NOTHING
	`, sessionID, s.allowance, s.now().UTC().Format(periodLayout))
	return err
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM llm_usage WHERE session_id = $1`, sessionID)
	return err
}
