// README: Booking store backed by PostgreSQL.
package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, b *Booking) error {
	fields, err := json.Marshal(b.Fields)
	if err != nil {
		return err
	}
	cost, err := json.Marshal(b.Cost)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO bookings (
			reference, session_id, traveler_name, traveler_email, destination,
			departure_date, return_date, fields, cost, total_cost, currency,
			payment_status, transaction_id, payment_message, status, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16
		)`,
		b.Reference, b.SessionID, b.TravelerName, b.TravelerEmail, b.Destination,
		b.DepartureDate, nullIfEmpty(b.ReturnDate), string(fields), string(cost), b.Cost.TotalCost, b.Cost.Currency,
		string(b.Payment.Status), b.Payment.TransactionID, b.Payment.Message, string(b.Status), b.CreatedAt,
	)
	return err
}

const selectBooking = `
	SELECT reference, session_id, traveler_name, traveler_email, destination,
	       departure_date, COALESCE(return_date, ''), fields, cost,
	       payment_status, transaction_id, payment_message, status, created_at, cancelled_at
	FROM bookings`

func (s *Store) Get(ctx context.Context, ref string) (*Booking, error) {
	row := s.db.QueryRow(ctx, selectBooking+` WHERE reference = $1`, ref)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *Store) ListByEmail(ctx context.Context, email string) ([]Booking, error) {
	rows, err := s.db.Query(ctx, selectBooking+` WHERE lower(traveler_email) = lower($1) ORDER BY created_at DESC`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// UpdateStatus moves a booking from one status to another. It reports false
// when the row was no longer in the expected status.
func (s *Store) UpdateStatus(ctx context.Context, ref string, from, to Status) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = $1,
		    cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END
		WHERE reference = $2 AND status = $3`,
		string(to), ref, string(from),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var fields, cost []byte
	var paymentStatus, status string
	err := row.Scan(
		&b.Reference, &b.SessionID, &b.TravelerName, &b.TravelerEmail, &b.Destination,
		&b.DepartureDate, &b.ReturnDate, &fields, &cost,
		&paymentStatus, &b.Payment.TransactionID, &b.Payment.Message, &status, &b.CreatedAt, &b.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(fields, &b.Fields); err != nil {
		return nil, fmt.Errorf("decode booking fields: %w", err)
	}
	if err := json.Unmarshal(cost, &b.Cost); err != nil {
		return nil, fmt.Errorf("decode booking cost: %w", err)
	}
	b.Payment.Status = PaymentStatus(paymentStatus)
	b.Status = Status(status)
	return &b, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
