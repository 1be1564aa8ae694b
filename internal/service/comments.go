package service

import (
	"context"

	"github.com/good-deeds/board/internal/models"
)

const maxCommentLen = 1000

// AddComment attaches text to a marker. Expired markers accept comments too.
func (s *Service) AddComment(ctx context.Context, userID, markerID int, text string) (*models.Comment, error) {
	v := newValidation()
	c := &models.Comment{
		MarkerID: markerID,
		UserID:   userID,
		Text:     v.required("text", text, maxCommentLen),
	}
	if err := v.err(); err != nil {
		return nil, err
	}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
