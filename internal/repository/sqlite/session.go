package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/audithq/audit-assist/internal/domain"
)

// SessionRepository implements domain.SessionRepository on sqlite
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.ChatSession) error {
	query := `
		INSERT INTO chat_sessions (id, audit_id, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`
	_, err := r.db.SQL.ExecContext(ctx, query,
		session.ID.String(),
		session.AuditID.String(),
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, id uuid.UUID) (*domain.ChatSession, error) {
	query := `
		SELECT id, audit_id, created_at, updated_at
		FROM chat_sessions
		WHERE id = ?
	`
	var s domain.ChatSession
	var idStr, auditIDStr string
	err := r.db.SQL.QueryRowContext(ctx, query, id.String()).Scan(
		&idStr,
		&auditIDStr,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if s.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("failed to parse session id: %w", err)
	}
	if s.AuditID, err = uuid.Parse(auditIDStr); err != nil {
		return nil, fmt.Errorf("failed to parse audit id: %w", err)
	}
	return &s, nil
}

func (r *SessionRepository) ListByAudit(ctx context.Context, auditID uuid.UUID, limit, offset int) ([]domain.ChatSession, error) {
	query := `
		SELECT id, audit_id, created_at, updated_at
		FROM chat_sessions
		WHERE audit_id = ?
		ORDER BY updated_at DESC
		LIMIT ? OFFSET ?
	`
	rows, err := r.db.SQL.QueryContext(ctx, query, auditID.String(), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.ChatSession
	for rows.Next() {
		var s domain.ChatSession
		var idStr, auditIDStr string
		if err := rows.Scan(&idStr, &auditIDStr, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if s.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("failed to parse session id: %w", err)
		}
		if s.AuditID, err = uuid.Parse(auditIDStr); err != nil {
			return nil, fmt.Errorf("failed to parse audit id: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *SessionRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE chat_sessions SET updated_at = ? WHERE id = ?`
	if _, err := r.db.SQL.ExecContext(ctx, query, at, id.String()); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}
