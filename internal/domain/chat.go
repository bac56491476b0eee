package domain

import (
	"encoding/json"

	"github.com/google/uuid"
)

// ChatRequest is the body of POST /chat
type ChatRequest struct {
	AuditID   string `json:"audit_id" validate:"required,uuid4"`
	Message   string `json:"message" validate:"required"`
	SessionID string `json:"session_id,omitempty"`
	Provider  string `json:"provider,omitempty"`
	Model     string `json:"model,omitempty"`
}

// RetrievedChunk is a passage returned by the vector store for a query.
// It lives only for the duration of one chat turn and is never persisted.
type RetrievedChunk struct {
	DocumentID string
	Filename   string
	ChunkIndex int
	Score      float64
	Text       string
}

// Source describes one retrieved chunk in the metadata event, with its
// positional citation label ("[1]", "[2]", ...)
type Source struct {
	Label    string `json:"label"`
	Filename string `json:"filename"`
	Snippet  string `json:"snippet"`
}

// EventType discriminates chat stream events
type EventType string

const (
	EventMetadata EventType = "metadata"
	EventContent  EventType = "content"
)

// ChatEvent is one line of the NDJSON chat response stream
type ChatEvent struct {
	Type      EventType
	SessionID uuid.UUID
	Sources   []Source
	Chunk     string
}

// MetadataEvent builds the first event of a turn. Sources may be empty but
// is always serialized, so degraded-retrieval turns emit "sources": [].
func MetadataEvent(sessionID uuid.UUID, sources []Source) ChatEvent {
	if sources == nil {
		sources = []Source{}
	}
	return ChatEvent{Type: EventMetadata, SessionID: sessionID, Sources: sources}
}

// ContentEvent builds one streamed content fragment event
func ContentEvent(chunk string) ChatEvent {
	return ChatEvent{Type: EventContent, Chunk: chunk}
}

// MarshalJSON keeps the wire shape per event type: metadata events carry
// session_id and sources (sources always present), content events carry
// only the chunk.
func (e ChatEvent) MarshalJSON() ([]byte, error) {
	if e.Type == EventMetadata {
		sources := e.Sources
		if sources == nil {
			sources = []Source{}
		}
		return json.Marshal(struct {
			Type      EventType `json:"type"`
			SessionID uuid.UUID `json:"session_id"`
			Sources   []Source  `json:"sources"`
		}{e.Type, e.SessionID, sources})
	}
	return json.Marshal(struct {
		Type  EventType `json:"type"`
		Chunk string    `json:"chunk"`
	}{e.Type, e.Chunk})
}
