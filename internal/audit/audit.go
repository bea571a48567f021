// Package audit emits security-relevant workflow events to a Kafka topic
// for downstream monitoring. Publishing is fire-and-forget: a broker
// outage never blocks or fails the workflow that produced the event.
package audit

import (
	"context"
	"time"
)

// Action names the workflow step an event records.
type Action string

const (
	ActionUserCreated        Action = "user_created"
	ActionChallengeIssued    Action = "verification_challenge_issued"
	ActionEmailVerified      Action = "email_verified"
	ActionParentApproved     Action = "parent_permission_granted"
	ActionAPIKeyIssued       Action = "api_key_issued"
	ActionAPIKeyCancelled    Action = "api_key_cancelled"
	ActionPasswordResetBegun Action = "password_reset_requested"
	ActionPasswordChanged    Action = "password_changed"
)

// Event captures one completed workflow action. Raw secrets never appear
// here; key material is referenced by hash only.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	UserID    int64     `json:"user_id,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	KeyHash   string    `json:"key_hash,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// Publisher delivers events to the audit sink.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
	Close()
}

// Noop discards all events. Used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(ctx context.Context, ev Event) {}
func (Noop) Close()                                {}
