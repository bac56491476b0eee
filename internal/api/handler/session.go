package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/audithq/audit-assist/internal/api/response"
	"github.com/audithq/audit-assist/internal/domain"
)

// SessionHandler exposes session history
type SessionHandler struct {
	messageRepo domain.MessageRepository
	sessionRepo domain.SessionRepository
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionRepo domain.SessionRepository, messageRepo domain.MessageRepository) *SessionHandler {
	return &SessionHandler{messageRepo: messageRepo, sessionRepo: sessionRepo}
}

// Messages handles GET /sessions/{id}/messages, chronological order
func (h *SessionHandler) Messages(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid session id")
		return
	}

	if _, err := h.sessionRepo.Get(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(w, "session not found")
			return
		}
		response.InternalError(w, "failed to load session")
		return
	}

	limit, _ := pagination(r, 50)
	messages, err := h.messageRepo.ListBySession(r.Context(), id, limit)
	if err != nil {
		response.InternalError(w, "failed to list messages")
		return
	}
	response.OK(w, messages)
}
