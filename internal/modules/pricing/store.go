// README: Pricing store backed by PostgreSQL (destination tier overrides).
package pricing

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// LoadDestinations returns the destination -> tier rows from destination_tiers.
func (s *Store) LoadDestinations(ctx context.Context) (map[string]Tier, error) {
	rows, err := s.db.Query(ctx, `SELECT name, tier FROM destination_tiers`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]Tier)
	for rows.Next() {
		var name, tier string
		if err := rows.Scan(&name, &tier); err != nil {
			return nil, err
		}
		out[normalizePlace(name)] = Tier(strings.ToLower(tier))
	}
	return out, rows.Err()
}

// WithDestinations returns a copy of t with extra destinations merged in.
// Entries naming an unknown tier are skipped.
func (t Table) WithDestinations(extra map[string]Tier) Table {
	merged := make(map[string]Tier, len(t.Destinations)+len(extra))
	for k, v := range t.Destinations {
		merged[k] = v
	}
	for k, v := range extra {
		if _, ok := t.Tiers[v]; ok && k != "" {
			merged[k] = v
		}
	}
	t.Destinations = merged
	return t
}
