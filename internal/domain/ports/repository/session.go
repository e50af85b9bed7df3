package repository

import (
	"context"
	"time"

	"telegram-marketplace-bot/internal/domain/flow"
)

// Session holds a user's progress through a multi-step conversation.
// A zero FlowName means the user is idle at the menu.
type Session struct {
	FlowName  flow.Name         `json:"flow"`
	StepIndex int               `json:"step"`
	Data      map[string]string `json:"data"`
	Retries   int               `json:"retries"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Active reports whether the user is inside a flow.
func (s *Session) Active() bool { return s != nil && s.FlowName != flow.None }

// Value returns a collected field, tolerating a nil data map.
func (s *Session) Value(key string) string {
	if s == nil || s.Data == nil {
		return ""
	}
	return s.Data[key]
}

// Set stores a collected field, allocating the data map on first use.
func (s *Session) Set(key, value string) {
	if s.Data == nil {
		s.Data = make(map[string]string)
	}
	s.Data[key] = value
}

// SessionRepository is the port for per-user conversational state.
// Get returns (nil, nil) when the user has no session.
type SessionRepository interface {
	Get(ctx context.Context, tgID int64) (*Session, error)
	Put(ctx context.Context, tgID int64, s *Session) error
	Clear(ctx context.Context, tgID int64) error
}
