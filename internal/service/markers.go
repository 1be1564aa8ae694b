package service

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/good-deeds/board/internal/apperr"
	"github.com/good-deeds/board/internal/models"
)

// Field limits, matching the column sizes of the markers table.
const (
	maxHelpLen     = 200
	maxOfferLen    = 200
	maxLocationLen = 200
	maxContactLen  = 100
)

// MarkerInput is the payload of a new marker. Lat and Lng are pointers so a
// missing coordinate can be told apart from zero.
type MarkerInput struct {
	HelpNeeded string
	Offer      string
	Location   string
	Deadline   string
	Contact    string
	Lat        *float64
	Lng        *float64
}

// MarkerEdit is a partial update; nil fields are left as they are.
type MarkerEdit struct {
	HelpNeeded *string
	Offer      *string
	Location   *string
	Deadline   *string
	Contact    *string
	Lat        *float64
	Lng        *float64
}

// MarkerDetail is a marker with its comments in creation order.
type MarkerDetail struct {
	Marker   *models.Marker   `json:"marker"`
	Comments []models.Comment `json:"comments"`
}

// CreateMarker validates in and stores it as a marker owned by userID.
func (s *Service) CreateMarker(ctx context.Context, userID int, in MarkerInput) (*models.Marker, error) {
	v := newValidation()
	m := &models.Marker{
		UserID:       &userID,
		HelpNeeded:   v.required("help_needed", in.HelpNeeded, maxHelpLen),
		Offer:        v.optional("offer", in.Offer, maxOfferLen),
		LocationText: v.required("location", in.Location, maxLocationLen),
		Contact:      v.required("contact", in.Contact, maxContactLen),
		Deadline:     v.date("deadline", in.Deadline),
		Latitude:     v.coordinate("lat", in.Lat, 90),
		Longitude:    v.coordinate("lng", in.Lng, 180),
	}
	if err := v.err(); err != nil {
		return nil, err
	}
	if err := s.store.CreateMarker(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// EditMarker applies in to the marker when userID owns it. The stored record
// is untouched when validation or the ownership check fails.
func (s *Service) EditMarker(ctx context.Context, userID, markerID int, in MarkerEdit) (*models.Marker, error) {
	patch, err := in.patch()
	if err != nil {
		return nil, err
	}
	return s.store.UpdateMarker(ctx, markerID, func(m *models.Marker) error {
		if err := requireOwner(m, userID); err != nil {
			return err
		}
		patch.Apply(m)
		return nil
	})
}

// DeleteMarker removes the marker and its comments when userID owns it.
func (s *Service) DeleteMarker(ctx context.Context, userID, markerID int) error {
	return s.store.DeleteMarker(ctx, markerID, func(m *models.Marker) error {
		return requireOwner(m, userID)
	})
}

// Marker returns a marker by id whatever its deadline.
func (s *Service) Marker(ctx context.Context, id int) (*models.Marker, error) {
	return s.store.MarkerByID(ctx, id)
}

// MarkerDetail returns a marker with its comments.
func (s *Service) MarkerDetail(ctx context.Context, id int) (*MarkerDetail, error) {
	m, err := s.store.MarkerByID(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.CommentsByMarker(ctx, id)
	if err != nil {
		return nil, err
	}
	return &MarkerDetail{Marker: m, Comments: comments}, nil
}

func requireOwner(m *models.Marker, userID int) error {
	if !m.OwnedBy(userID) {
		return fmt.Errorf("marker %d: %w", m.ID, apperr.ErrForbidden)
	}
	return nil
}

func (in MarkerEdit) patch() (models.MarkerPatch, error) {
	v := newValidation()
	var p models.MarkerPatch
	if in.HelpNeeded != nil {
		s := v.required("help_needed", *in.HelpNeeded, maxHelpLen)
		p.HelpNeeded = &s
	}
	if in.Offer != nil {
		s := v.optional("offer", *in.Offer, maxOfferLen)
		p.Offer = &s
	}
	if in.Location != nil {
		s := v.required("location", *in.Location, maxLocationLen)
		p.LocationText = &s
	}
	if in.Contact != nil {
		s := v.required("contact", *in.Contact, maxContactLen)
		p.Contact = &s
	}
	if in.Deadline != nil {
		d := v.date("deadline", *in.Deadline)
		p.Deadline = &d
	}
	if in.Lat != nil {
		f := v.coordinate("lat", in.Lat, 90)
		p.Latitude = &f
	}
	if in.Lng != nil {
		f := v.coordinate("lng", in.Lng, 180)
		p.Longitude = &f
	}
	return p, v.err()
}

// validation collects per-field problems into one apperr.ValidationError.
type validation struct {
	fields map[string]string
}

func newValidation() *validation {
	return &validation{fields: make(map[string]string)}
}

func (v *validation) fail(field, msg string) {
	if _, ok := v.fields[field]; !ok {
		v.fields[field] = msg
	}
}

func (v *validation) required(field, value string, maxLen int) string {
	value = clean(value)
	if value == "" {
		v.fail(field, "is required")
	}
	return v.optional(field, value, maxLen)
}

func (v *validation) optional(field, value string, maxLen int) string {
	value = clean(value)
	if utf8.RuneCountInString(value) > maxLen {
		v.fail(field, fmt.Sprintf("must be at most %d characters", maxLen))
	}
	return value
}

func (v *validation) date(field, value string) models.Date {
	value = clean(value)
	if value == "" {
		v.fail(field, "is required")
		return models.Date{}
	}
	d, err := models.ParseDate(value)
	if err != nil {
		v.fail(field, "must be a date in YYYY-MM-DD format")
	}
	return d
}

func (v *validation) coordinate(field string, value *float64, limit float64) float64 {
	if value == nil {
		v.fail(field, "is required")
		return 0
	}
	if *value < -limit || *value > limit {
		v.fail(field, fmt.Sprintf("must be between %g and %g", -limit, limit))
	}
	return *value
}

func (v *validation) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &apperr.ValidationError{Fields: v.fields}
}
