package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SessionState represents the lifecycle state of a relay session
type SessionState string

const (
	SessionStateUninitialized      SessionState = "uninitialized"
	SessionStateConnectingUpstream SessionState = "connecting_upstream"
	SessionStateActive             SessionState = "active"
	SessionStateClosing            SessionState = "closing"
	SessionStateClosed             SessionState = "closed"
)

// RelayConfig holds per-session audio configuration. It is immutable once
// the session connects upstream.
type RelayConfig struct {
	Language   string `json:"language"`
	Voice      string `json:"voice"`
	SampleRate int    `json:"sample_rate"`
	Format     string `json:"format"`
}

// RelaySession identifies one client's live audio round trip.
type RelaySession struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id,omitempty"`
	Config    RelayConfig `json:"config"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewRelaySession creates a relay session with a generated id.
func NewRelaySession(userID string, config RelayConfig) *RelaySession {
	return &RelaySession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Config:    config,
		CreatedAt: time.Now(),
	}
}

// CanTransition reports whether moving from the current state to next is a
// legal lifecycle transition.
func (s SessionState) CanTransition(next SessionState) bool {
	switch s {
	case SessionStateUninitialized:
		return next == SessionStateConnectingUpstream || next == SessionStateClosed
	case SessionStateConnectingUpstream:
		return next == SessionStateActive || next == SessionStateClosed
	case SessionStateActive:
		return next == SessionStateClosing || next == SessionStateClosed
	case SessionStateClosing:
		return next == SessionStateClosed
	default:
		return false
	}
}

// Validate validates the session data
func (s *RelaySession) Validate() error {
	if s.ID == "" {
		return errors.New("session id is required")
	}
	return nil
}
