package repo

import (
	"context"

	"github.com/good-deeds/board/internal/db"
	"github.com/good-deeds/board/internal/models"
)

// CommentRepo persists comments on markers.
type CommentRepo struct {
	DB db.DBTX
}

// NewCommentRepo returns a new CommentRepo.
func NewCommentRepo(dbtx db.DBTX) *CommentRepo {
	return &CommentRepo{DB: dbtx}
}

// Create inserts c and sets its id and creation time.
func (r *CommentRepo) Create(ctx context.Context, c *models.Comment) error {
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO comments (marker_id, user_id, text) VALUES ($1, $2, $3) RETURNING id, created_at`,
		c.MarkerID, c.UserID, c.Text,
	).Scan(&c.ID, &c.CreatedAt)
	return dbErr("create comment", err)
}

// ListByMarker returns the comments of one marker in creation order, with author names.
func (r *CommentRepo) ListByMarker(ctx context.Context, markerID int) ([]models.Comment, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT c.id, c.marker_id, c.user_id, u.username, c.text, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.marker_id = $1
		ORDER BY c.created_at, c.id
	`, markerID)
	if err != nil {
		return nil, dbErr("list comments", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.MarkerID, &c.UserID, &c.Username, &c.Text, &c.CreatedAt); err != nil {
			return nil, dbErr("list comments", err)
		}
		comments = append(comments, c)
	}
	return comments, dbErr("list comments", rows.Err())
}

// DeleteByMarker removes every comment of a marker and reports how many were removed.
func (r *CommentRepo) DeleteByMarker(ctx context.Context, markerID int) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM comments WHERE marker_id = $1`, markerID)
	if err != nil {
		return 0, dbErr("delete comments", err)
	}
	n, err := res.RowsAffected()
	return n, dbErr("delete comments", err)
}
