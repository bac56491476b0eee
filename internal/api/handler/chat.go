package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/audithq/audit-assist/internal/api/response"
	"github.com/audithq/audit-assist/internal/domain"
	"github.com/audithq/audit-assist/internal/service"
)

var validate = validator.New()

// ChatHandler handles the streaming chat endpoint
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Stream handles POST /chat. The response is newline-delimited JSON: one
// metadata event, then content events carrying answer fragments. Errors
// before the first event are plain JSON errors; once streaming has begun
// the error travels in-band.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			errors := make(map[string]string)
			for _, e := range validationErrors {
				field := e.Field()
				switch e.Tag() {
				case "required":
					errors[field] = "field is required"
				case "uuid4":
					errors[field] = "must be a valid UUID"
				default:
					errors[field] = "validation failed on " + e.Tag()
				}
			}
			response.BadRequest(w, errors)
			return
		}
		response.BadRequest(w, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalError(w, "streaming not supported")
		return
	}

	streaming := false
	encoder := json.NewEncoder(w)

	err := h.chatService.StreamChat(r.Context(), req, func(event domain.ChatEvent) error {
		if !streaming {
			w.Header().Set("Content-Type", "application/x-ndjson")
			w.Header().Set("Cache-Control", "no-cache")
			w.WriteHeader(http.StatusOK)
			streaming = true
		}
		if err := encoder.Encode(event); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})

	if err != nil {
		if streaming {
			// headers are gone, the client sees a truncated stream
			log.Warn().Err(err).Msg("chat stream interrupted")
			return
		}
		switch {
		case errors.Is(err, domain.ErrNotFound):
			response.NotFound(w, "audit not found")
		case strings.HasPrefix(err.Error(), "failed to"):
			log.Error().Err(err).Msg("chat request failed")
			response.InternalError(w, "chat request failed")
		default:
			response.BadRequest(w, err.Error())
		}
	}
}
