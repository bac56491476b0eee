package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/audithq/audit-assist/internal/domain"
	"github.com/audithq/audit-assist/internal/repository/redis"
)

// AuditService handles audit CRUD and provides the audit context string
// injected into chat prompts.
type AuditService struct {
	auditRepo    domain.AuditRepository
	sessionRepo  domain.SessionRepository
	contextCache *redis.AuditContextCache
}

// NewAuditService creates a new audit service. contextCache may be nil when
// Redis is not available.
func NewAuditService(auditRepo domain.AuditRepository, sessionRepo domain.SessionRepository, contextCache *redis.AuditContextCache) *AuditService {
	return &AuditService{
		auditRepo:    auditRepo,
		sessionRepo:  sessionRepo,
		contextCache: contextCache,
	}
}

// Create stores a new audit
func (s *AuditService) Create(ctx context.Context, audit *domain.Audit) error {
	if audit.ID == uuid.Nil {
		audit.ID = uuid.New()
	}
	now := time.Now().UTC()
	audit.CreatedAt = now
	audit.UpdatedAt = now
	if audit.Status == "" {
		audit.Status = domain.StatusPlanning
	}
	if !audit.Status.Valid() {
		return fmt.Errorf("invalid audit status: %s", audit.Status)
	}
	return s.auditRepo.Create(ctx, audit)
}

// Get returns one audit
func (s *AuditService) Get(ctx context.Context, id uuid.UUID) (*domain.Audit, error) {
	return s.auditRepo.Get(ctx, id)
}

// List returns a page of audits
func (s *AuditService) List(ctx context.Context, limit, offset int) ([]domain.Audit, error) {
	return s.auditRepo.List(ctx, limit, offset)
}

// Update applies a partial update and invalidates the cached context
func (s *AuditService) Update(ctx context.Context, id uuid.UUID, update domain.AuditUpdate) (*domain.Audit, error) {
	if update.Status != nil && !update.Status.Valid() {
		return nil, fmt.Errorf("invalid audit status: %s", *update.Status)
	}

	audit, err := s.auditRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	applyAuditUpdate(audit, update)
	audit.UpdatedAt = time.Now().UTC()

	if err := s.auditRepo.Update(ctx, audit); err != nil {
		return nil, err
	}

	if s.contextCache != nil {
		if err := s.contextCache.Invalidate(ctx, id); err != nil {
			log.Warn().Err(err).Str("audit_id", id.String()).Msg("failed to invalidate audit context cache")
		}
	}
	return audit, nil
}

// ListSessions returns the chat sessions of one audit, most recent first
func (s *AuditService) ListSessions(ctx context.Context, auditID uuid.UUID, limit, offset int) ([]domain.ChatSession, error) {
	if _, err := s.auditRepo.Get(ctx, auditID); err != nil {
		return nil, err
	}
	return s.sessionRepo.ListByAudit(ctx, auditID, limit, offset)
}

// AuditContext returns the formatted audit summary used in chat prompts,
// served from cache when possible.
func (s *AuditService) AuditContext(ctx context.Context, auditID uuid.UUID) (string, error) {
	if s.contextCache != nil {
		if cached, err := s.contextCache.Get(ctx, auditID); err == nil && cached != "" {
			return cached, nil
		}
	}

	audit, err := s.auditRepo.Get(ctx, auditID)
	if err != nil {
		return "", err
	}

	text := formatAuditContext(audit)

	if s.contextCache != nil {
		if err := s.contextCache.Set(ctx, auditID, text); err != nil {
			log.Warn().Err(err).Str("audit_id", auditID.String()).Msg("failed to cache audit context")
		}
	}
	return text, nil
}

func applyAuditUpdate(audit *domain.Audit, update domain.AuditUpdate) {
	if update.Title != nil {
		audit.Title = *update.Title
	}
	if update.Description != nil {
		audit.Description = *update.Description
	}
	if update.Status != nil {
		audit.Status = *update.Status
	}
	if update.AuditType != nil {
		audit.AuditType = *update.AuditType
	}
	if update.Scope != nil {
		audit.Scope = *update.Scope
	}
	if update.Objectives != nil {
		audit.Objectives = *update.Objectives
	}
	if update.Responsible != nil {
		audit.Responsible = *update.Responsible
	}
}

func formatAuditContext(audit *domain.Audit) string {
	var lines []string
	lines = append(lines, "Title: "+audit.Title)
	if audit.AuditType != "" {
		lines = append(lines, "Type: "+audit.AuditType)
	}
	lines = append(lines, "Status: "+string(audit.Status))
	if audit.Description != "" {
		lines = append(lines, "Description: "+audit.Description)
	}
	if audit.Scope != "" {
		lines = append(lines, "Scope: "+audit.Scope)
	}
	if audit.Objectives != "" {
		lines = append(lines, "Objectives: "+audit.Objectives)
	}
	if audit.Responsible != "" {
		lines = append(lines, "Responsible: "+audit.Responsible)
	}
	if audit.StartDate != nil {
		period := "Period: " + audit.StartDate.Format("2006-01-02")
		if audit.EndDate != nil {
			period += " to " + audit.EndDate.Format("2006-01-02")
		}
		lines = append(lines, period)
	}
	return strings.Join(lines, "\n")
}
