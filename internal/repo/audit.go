package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rentpoint/backend/internal/audit"
)

// pgAuditRepo writes audit events to the append-only audit_log table.
// It is the default audit sink when no message broker is configured.
// Rows are never updated or deleted.
type pgAuditRepo struct {
	db db
}

// NewAuditRepo constructs an audit.Recorder backed by the provided db connection.
func NewAuditRepo(db db) audit.Recorder {
	return &pgAuditRepo{db: db}
}

func (r *pgAuditRepo) Record(ctx context.Context, e audit.Event) error {
	details, err := json.Marshal(e.Details)
	if err != nil {
		return fmt.Errorf("repo.AuditRepo.Record: marshal details: %w", err)
	}

	const q = `
		INSERT INTO audit_log (id, user_id, admin_id, session_id, action, details)
		VALUES (@id, @user_id, @admin_id, @session_id, @action, @details)`

	args := pgx.NamedArgs{
		"id":         uuid.New(),
		"user_id":    e.UserID,
		"admin_id":   e.AdminID,
		"session_id": e.SessionID,
		"action":     string(e.Action),
		"details":    details,
	}

	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.AuditRepo.Record: %w", err)
	}
	return nil
}
