package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditStatus represents the phase an audit engagement is in
type AuditStatus string

const (
	StatusPlanning  AuditStatus = "PLANNING"
	StatusFieldwork AuditStatus = "FIELDWORK"
	StatusReporting AuditStatus = "REPORTING"
	StatusFollowUp  AuditStatus = "FOLLOW_UP"
)

// Valid reports whether the status is one of the known phases
func (s AuditStatus) Valid() bool {
	switch s {
	case StatusPlanning, StatusFieldwork, StatusReporting, StatusFollowUp:
		return true
	}
	return false
}

// Audit represents one audit engagement, the scope that partitions
// sessions, messages and retrievable documents
type Audit struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Status      AuditStatus `json:"status"`
	AuditType   string      `json:"audit_type,omitempty"` // COMPLIANCE, OPERATIONAL, FINANCIAL, IT
	Scope       string      `json:"scope,omitempty"`
	Objectives  string      `json:"objectives,omitempty"`
	StartDate   *time.Time  `json:"start_date,omitempty"`
	EndDate     *time.Time  `json:"end_date,omitempty"`
	Responsible string      `json:"responsible_person,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// AuditUpdate carries the mutable fields of an audit; nil means unchanged
type AuditUpdate struct {
	Title       *string      `json:"title,omitempty"`
	Description *string      `json:"description,omitempty"`
	Status      *AuditStatus `json:"status,omitempty"`
	AuditType   *string      `json:"audit_type,omitempty"`
	Scope       *string      `json:"scope,omitempty"`
	Objectives  *string      `json:"objectives,omitempty"`
	Responsible *string      `json:"responsible_person,omitempty"`
}

// AuditRepository defines the interface for audit storage
type AuditRepository interface {
	Create(ctx context.Context, audit *Audit) error
	Get(ctx context.Context, id uuid.UUID) (*Audit, error)
	List(ctx context.Context, limit, offset int) ([]Audit, error)
	Update(ctx context.Context, audit *Audit) error
}
