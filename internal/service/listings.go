package service

import (
	"context"

	"github.com/good-deeds/board/internal/models"
)

// SearchResult is the cross search of users and markers.
type SearchResult struct {
	Query   string          `json:"query"`
	Users   []models.User   `json:"users"`
	Markers []models.Marker `json:"markers"`
}

// ActiveMarkers lists markers with a deadline of today or later. A non-empty
// q keeps those whose location or help text contains it, ignoring case.
func (s *Service) ActiveMarkers(ctx context.Context, q string) ([]models.Marker, error) {
	return s.store.ActiveMarkers(ctx, s.Today(), clean(q))
}

// CountActiveMarkers reports how many markers ActiveMarkers would return unfiltered.
func (s *Service) CountActiveMarkers(ctx context.Context) (int, error) {
	return s.store.CountActiveMarkers(ctx, s.Today())
}

// Search matches usernames and marker locations by substring. Deadlines are
// ignored. An empty query matches every user and marker.
func (s *Service) Search(ctx context.Context, q string) (*SearchResult, error) {
	res := &SearchResult{Query: clean(q)}

	var err error
	if res.Users, err = s.store.SearchUsers(ctx, res.Query); err != nil {
		return nil, err
	}
	if res.Markers, err = s.store.SearchMarkersByLocation(ctx, res.Query); err != nil {
		return nil, err
	}
	return res, nil
}
