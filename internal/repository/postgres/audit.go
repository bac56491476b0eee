package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/audithq/audit-assist/internal/domain"
)

// AuditRepository implements domain.AuditRepository
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.Pool.Exec(ctx, query,
		audit.ID,
		audit.Title,
		audit.Description,
		audit.Status,
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
		WHERE id = $1
	`
	var a domain.Audit
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&a.ID,
		&a.Title,
		&a.Description,
		&a.Status,
		&a.AuditType,
		&a.Scope,
		&a.Objectives,
		&a.StartDate,
		&a.EndDate,
		&a.Responsible,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get audit: %w", err)
	}
	return &a, nil
}

func (r *AuditRepository) List(ctx context.Context, limit, offset int) ([]domain.Audit, error) {
	query := `
		SELECT id, title, description, status, audit_type, scope, objectives,
			start_date, end_date, responsible_person, created_at, updated_at
		FROM audits
		ORDER BY updated_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list audits: %w", err)
	}
	defer rows.Close()

	var audits []domain.Audit
	for rows.Next() {
		var a domain.Audit
		if err := rows.Scan(
			&a.ID, &a.Title, &a.Description, &a.Status, &a.AuditType, &a.Scope,
			&a.Objectives, &a.StartDate, &a.EndDate, &a.Responsible, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit: %w", err)
		}
		audits = append(audits, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list audits: %w", err)
	}
	return audits, nil
}

func (r *AuditRepository) Update(ctx context.Context, audit *domain.Audit) error {
	query := `
		UPDATE audits
		SET title = $1, description = $2, status = $3, audit_type = $4, scope = $5,
			objectives = $6, responsible_person = $7, updated_at = $8
		WHERE id = $9
	`
	_, err := r.db.Pool.Exec(ctx, query,
		audit.Title,
		audit.Description,
		audit.Status,
		audit.AuditType,
		audit.Scope,
		audit.Objectives,
		audit.Responsible,
		audit.UpdatedAt,
		audit.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update audit: %w", err)
	}
	return nil
}
