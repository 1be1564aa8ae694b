package repo

import (
	"context"

	"github.com/good-deeds/board/internal/db"
	"github.com/good-deeds/board/internal/models"
)

// AuditRepo persists audit log entries.
type AuditRepo struct {
	db db.DBTX
}

// NewAuditRepo returns a new AuditRepo.
func NewAuditRepo(dbtx db.DBTX) *AuditRepo {
	return &AuditRepo{db: dbtx}
}

// Log records an audit entry. action is create|update|delete; resourceType is marker|comment.
func (r *AuditRepo) Log(ctx context.Context, userID int, action, resourceType string, resourceID int, details string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (user_id, action, resource_type, resource_id, details) VALUES ($1, $2, $3, $4, $5)`,
		userID, action, resourceType, resourceID, details,
	)
	return dbErr("write audit log", err)
}

// List returns recent audit entries, newest first.
func (r *AuditRepo) List(ctx context.Context, limit, offset int) ([]models.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, action, resource_type, resource_id, COALESCE(details,''), created_at
		 FROM audit_log ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, dbErr("list audit log", err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.ResourceType, &e.ResourceID, &e.Details, &e.CreatedAt); err != nil {
			return nil, dbErr("list audit log", err)
		}
		entries = append(entries, e)
	}
	return entries, dbErr("list audit log", rows.Err())
}
