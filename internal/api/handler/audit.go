package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/audithq/audit-assist/internal/api/response"
	"github.com/audithq/audit-assist/internal/domain"
	"github.com/audithq/audit-assist/internal/service"
)

// AuditHandler handles audit CRUD endpoints
type AuditHandler struct {
	auditService *service.AuditService
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// Create handles POST /audits
func (h *AuditHandler) Create(w http.ResponseWriter, r *http.Request) {
	var audit domain.Audit
	if err := json.NewDecoder(r.Body).Decode(&audit); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if audit.Title == "" {
		response.BadRequest(w, map[string]string{"title": "field is required"})
		return
	}

	if err := h.auditService.Create(r.Context(), &audit); err != nil {
		handleAuditError(w, err)
		return
	}
	response.Created(w, audit)
}

// Get handles GET /audits/{id}
func (h *AuditHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid audit id")
		return
	}

	audit, err := h.auditService.Get(r.Context(), id)
	if err != nil {
		handleAuditError(w, err)
		return
	}
	response.OK(w, audit)
}

// List handles GET /audits
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 20)

	audits, err := h.auditService.List(r.Context(), limit, offset)
	if err != nil {
		response.InternalError(w, "failed to list audits")
		return
	}
	response.OK(w, audits)
}

// Update handles PATCH /audits/{id}
func (h *AuditHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid audit id")
		return
	}

	var update domain.AuditUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	audit, err := h.auditService.Update(r.Context(), id, update)
	if err != nil {
		handleAuditError(w, err)
		return
	}
	response.OK(w, audit)
}

// ListSessions handles GET /audits/{id}/sessions
func (h *AuditHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid audit id")
		return
	}
	limit, offset := pagination(r, 20)

	sessions, err := h.auditService.ListSessions(r.Context(), id, limit, offset)
	if err != nil {
		handleAuditError(w, err)
		return
	}
	response.OK(w, sessions)
}

func handleAuditError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(w, "audit not found")
	case strings.HasPrefix(err.Error(), "invalid"):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, "audit operation failed")
	}
}

func pagination(r *http.Request, defaultLimit int) (int, int) {
	limit := defaultLimit
	offset := 0

	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}
