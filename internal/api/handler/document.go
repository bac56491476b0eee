package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/audithq/audit-assist/internal/api/response"
	"github.com/audithq/audit-assist/internal/service"
)

// DocumentHandler handles document ingestion for retrieval
type DocumentHandler struct {
	documentService *service.DocumentService
}

// NewDocumentHandler creates a new document handler. documentService may be
// nil when no vector store is configured.
func NewDocumentHandler(documentService *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

type ingestRequest struct {
	Filename string `json:"filename" validate:"required"`
	Text     string `json:"text" validate:"required"`
}

// Ingest handles POST /audits/{id}/documents
func (h *DocumentHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	if h.documentService == nil {
		response.ServiceUnavailable(w, "document ingestion requires a vector store")
		return
	}

	auditID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid audit id")
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result, err := h.documentService.IngestText(r.Context(), auditID, req.Filename, req.Text)
	if err != nil {
		response.InternalError(w, "failed to ingest document")
		return
	}
	response.Created(w, result)
}
