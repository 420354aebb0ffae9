package aiusage

import (
	"context"
	"errors"
)

// Service orchestrates LLM call accounting per chat session.
type Service struct {
	store *Store
}

// NewService creates a Service backed by the given Store.
func NewService(store *Store) *Service {
	return &Service{store: store}
}

// UseCall deducts one call from the session's daily allowance.
// If the session row does not exist yet it is initialised and the call is immediately consumed.
// Returns ErrInsufficientCalls when today's allowance is exhausted.
func (s *Service) UseCall(ctx context.Context, sessionID string) error {
	err := s.store.UseCall(ctx, sessionID)
	if !errors.Is(err, ErrInsufficientCalls) {
		return err
	}

	// Row may be missing: try to create it, then retry the deduction once.
	if initErr := s.store.EnsureSession(ctx, sessionID); initErr != nil {
		return initErr
	}
	return s.store.UseCall(ctx, sessionID)
}

// Forget drops the session's usage row, used when a session is reset.
func (s *Service) Forget(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID)
}
