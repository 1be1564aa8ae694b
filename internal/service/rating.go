package service

import (
	"context"

	"github.com/good-deeds/board/internal/models"
)

// Rating holds the three leaderboards, each at most RatingLimit rows long.
type Rating struct {
	ByMarkers  []models.UserCount     `json:"by_markers"`
	ByComments []models.UserCount     `json:"by_comments"`
	Locations  []models.LocationCount `json:"locations"`
}

func (s *Service) Rating(ctx context.Context) (*Rating, error) {
	var (
		r   Rating
		err error
	)
	if r.ByMarkers, err = s.store.TopUsersByMarkers(ctx, RatingLimit); err != nil {
		return nil, err
	}
	if r.ByComments, err = s.store.TopUsersByComments(ctx, RatingLimit); err != nil {
		return nil, err
	}
	if r.Locations, err = s.store.TopLocations(ctx, RatingLimit); err != nil {
		return nil, err
	}
	return &r, nil
}
