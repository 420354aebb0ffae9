// README: In-process booking repository for the terminal demo and tests.
package booking

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type MemoryStore struct {
	mu   sync.Mutex
	rows map[string]Booking
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: map[string]Booking{}}
}

func (s *MemoryStore) Create(_ context.Context, b *Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[b.Reference] = *b
	return nil
}

func (s *MemoryStore) Get(_ context.Context, ref string) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[ref]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (s *MemoryStore) ListByEmail(_ context.Context, email string) ([]Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Booking
	for _, b := range s.rows {
		if strings.EqualFold(b.TravelerEmail, email) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, ref string, from, to Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[ref]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	s.rows[ref] = b
	return true, nil
}
