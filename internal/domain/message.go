package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MessageRole represents the sender of a message
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message represents one turn in a conversation. Messages are append-only
// and immutable; within a session they are totally ordered by CreatedAt.
type Message struct {
	ID        uuid.UUID   `json:"id"`
	SessionID uuid.UUID   `json:"session_id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// MessageRepository defines the interface for message storage
type MessageRepository interface {
	// Create persists the message durably before returning and touches the
	// owning session's updated_at timestamp.
	Create(ctx context.Context, message *Message) error
	// ListBySession returns the most recent `limit` messages of the session
	// in chronological (oldest-first) order.
	ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]Message, error)
}
