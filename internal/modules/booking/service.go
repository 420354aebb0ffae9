// README: Booking service creates, lists and cancels trip bookings.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tripbot/internal/modules/conversation"
	"tripbot/internal/modules/pricing"
	"tripbot/internal/types"
)

var (
	ErrInvalidState = errors.New("invalid state transition")
	ErrNotFound     = errors.New("booking not found")
	ErrConflict     = errors.New("booking state conflict")
	ErrBadRequest   = errors.New("bad request")
)

type Repository interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, ref string) (*Booking, error)
	ListByEmail(ctx context.Context, email string) ([]Booking, error)
	UpdateStatus(ctx context.Context, ref string, from, to Status) (bool, error)
}

type Service struct {
	repo     Repository
	payments PaymentGateway
	logger   *zap.Logger
	now      func() time.Time
	newRef   func() string
}

func NewService(repo Repository, payments PaymentGateway, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		payments: payments,
		logger:   logger,
		now:      time.Now,
		newRef:   newReference,
	}
}

type CreateCommand struct {
	SessionID string
	Fields    map[string]string
	Cost      pricing.CostBreakdown
}

// Create snapshots the collected fields, charges the mock gateway and stores
// the booking. A declined payment is stored with StatusPaymentFailed.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Booking, error) {
	email := cmd.Fields[conversation.FieldTravelerEmail]
	if cmd.SessionID == "" || email == "" || cmd.Fields[conversation.FieldDestination] == "" {
		return nil, ErrBadRequest
	}

	fields := make(map[string]string, len(cmd.Fields))
	for k, v := range cmd.Fields {
		fields[k] = v
	}
	b := &Booking{
		Reference:     s.newRef(),
		SessionID:     cmd.SessionID,
		TravelerName:  fields[conversation.FieldTravelerName],
		TravelerEmail: email,
		Destination:   fields[conversation.FieldDestination],
		DepartureDate: fields[conversation.FieldDepartureDate],
		ReturnDate:    fields[conversation.FieldReturnDate],
		Fields:        fields,
		Cost:          cmd.Cost,
		CreatedAt:     s.now().UTC(),
	}

	amount := types.NewMoney(decimal.NewFromFloat(cmd.Cost.TotalCost), cmd.Cost.Currency)
	payment, err := s.payments.Charge(ctx, PaymentRequest{Reference: b.Reference, Email: email, Amount: amount})
	if err != nil {
		return nil, fmt.Errorf("charge booking %s: %w", b.Reference, err)
	}
	b.Payment = payment
	b.Status = StatusConfirmed
	if payment.Status != PaymentSuccess {
		b.Status = StatusPaymentFailed
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	s.logger.Info("booking created",
		zap.String("reference", b.Reference),
		zap.String("session_id", b.SessionID),
		zap.String("status", string(b.Status)),
		zap.Float64("total_cost", b.Cost.TotalCost),
	)
	return b, nil
}

func (s *Service) Get(ctx context.Context, ref string) (*Booking, error) {
	return s.repo.Get(ctx, strings.ToUpper(strings.TrimSpace(ref)))
}

func (s *Service) ListByEmail(ctx context.Context, email string) ([]Booking, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrBadRequest
	}
	return s.repo.ListByEmail(ctx, email)
}

func (s *Service) Cancel(ctx context.Context, ref string) (*Booking, error) {
	b, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !CanTransition(b.Status, StatusCancelled) {
		return nil, ErrInvalidState
	}
	ok, err := s.repo.UpdateStatus(ctx, b.Reference, b.Status, StatusCancelled)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	now := s.now().UTC()
	b.Status = StatusCancelled
	b.CancelledAt = &now
	s.logger.Info("booking cancelled", zap.String("reference", b.Reference))
	return b, nil
}

func newReference() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "TRP-" + strings.ToUpper(id[:8])
}
