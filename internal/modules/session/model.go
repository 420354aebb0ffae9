// README: Chat session aggregate (step, collected fields, message history).
package session

import (
	"context"
	"errors"
	"time"

	"tripbot/internal/modules/conversation"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrBusy     = errors.New("session is handling another message")
)

type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Session struct {
	ID         string            `json:"session_id"`
	Step       conversation.Step `json:"current_step"`
	Fields     map[string]string `json:"collected_fields"`
	History    []Message         `json:"history"`
	BookingRef string            `json:"booking_ref,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// New returns a fresh session positioned at the greeting step.
func New(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Step:      conversation.StepGreeting,
		Fields:    map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) Append(role, content string, at time.Time) {
	s.History = append(s.History, Message{Role: role, Content: content, CreatedAt: at})
}

// Trim drops all but the last n history entries. n <= 0 keeps everything.
func (s *Session) Trim(n int) {
	if n <= 0 || len(s.History) <= n {
		return
	}
	s.History = append([]Message(nil), s.History[len(s.History)-n:]...)
}

// Recent returns at most n trailing history entries.
func (s *Session) Recent(n int) []Message {
	if n <= 0 || len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// Store persists sessions. Lock must be held around a Get/Save pair so turns
// on one session never interleave.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
	Lock(ctx context.Context, id string) (unlock func(), err error)
}
