package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ChatSession represents one conversation thread scoped to a single audit.
// The audit binding never changes for the lifetime of the session; only
// UpdatedAt moves when a message is appended.
type ChatSession struct {
	ID        uuid.UUID `json:"id"`
	AuditID   uuid.UUID `json:"audit_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionRepository defines the interface for session storage
type SessionRepository interface {
	Create(ctx context.Context, session *ChatSession) error
	// Get returns ErrNotFound when the id does not resolve; the chat
	// orchestrator treats that as "create a new session", not a failure.
	Get(ctx context.Context, id uuid.UUID) (*ChatSession, error)
	ListByAudit(ctx context.Context, auditID uuid.UUID, limit, offset int) ([]ChatSession, error)
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
}
