package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/audithq/audit-assist/internal/domain"
)

// AuditRepository implements domain.AuditRepository on sqlite
type AuditRepository struct {
	db *DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, audit *domain.Audit) error {
	query := `
		INSERT INTO audits (id, title, description, status, audit_type, scope, objectives,
			start_date, end_date, responsible_person, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.SQL.ExecContext(ctx, query,
		audit.ID.String(),
		audit.Title,
		audit.Description,
		string(audit.Status),
		audit.AuditType,
		audit.Scope,
		audit.Objectives,
		audit.StartDate,
		audit.EndDate,
		audit.Responsible,
		audit.CreatedAt,
		audit.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit: %w", err)
	}
	return nil
}

func (r *AuditRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Audit, error) {
	query := `
		SELECT id, title, description, status, audit_type, scope, objectives,
			start_date, end_date, responsible_person, created_at, updated_at
		FROM audits
		WHERE id = ?
	`
	a, err := scanAudit(r.db.SQL.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get audit: %w", err)
	}
	return a, nil
}

func (r *AuditRepository) List(ctx context.Context, limit, offset int) ([]domain.Audit, error) {
	query := `
		SELECT id, title, description, status, audit_type, scope, objectives,
			start_date, end_date, responsible_person, created_at, updated_at
		FROM audits
		ORDER BY updated_at DESC
		LIMIT ? OFFSET ?
	`
	rows, err := r.db.SQL.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list audits: %w", err)
	}
	defer rows.Close()

	var audits []domain.Audit
	for rows.Next() {
		a, err := scanAudit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit: %w", err)
		}
		audits = append(audits, *a)
	}
	return audits, rows.Err()
}

func (r *AuditRepository) Update(ctx context.Context, audit *domain.Audit) error {
	query := `
		UPDATE audits
		SET title = ?, description = ?, status = ?, audit_type = ?, scope = ?,
			objectives = ?, responsible_person = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.SQL.ExecContext(ctx, query,
		audit.Title,
		audit.Description,
		string(audit.Status),
		audit.AuditType,
		audit.Scope,
		audit.Objectives,
		audit.Responsible,
		audit.UpdatedAt,
		audit.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update audit: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAudit(row rowScanner) (*domain.Audit, error) {
	var a domain.Audit
	var idStr, status string
	if err := row.Scan(
		&idStr,
		&a.Title,
		&a.Description,
		&status,
		&a.AuditType,
		&a.Scope,
		&a.Objectives,
		&a.StartDate,
		&a.EndDate,
		&a.Responsible,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse audit id: %w", err)
	}
	a.ID = id
	a.Status = domain.AuditStatus(status)
	return &a, nil
}
