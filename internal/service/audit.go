package service

import (
	"context"

	"github.com/good-deeds/board/internal/models"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

// AuditLog pages through recorded changes, newest first. Limits outside
// 1..200 fall back to 50; a negative offset is treated as 0.
func (s *Service) AuditLog(ctx context.Context, limit, offset int) ([]models.AuditEntry, error) {
	if limit <= 0 || limit > maxAuditLimit {
		limit = defaultAuditLimit
	}
	offset = max(offset, 0)
	return s.store.ListAudit(ctx, limit, offset)
}

// Ready reports whether the store answers.
func (s *Service) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}
