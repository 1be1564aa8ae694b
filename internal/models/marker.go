package models

import "time"

// Marker is a help request or offer pinned to the map. UserID is nil for
// markers that have no owner; those cannot be edited or deleted.
type Marker struct {
	ID           int       `json:"id"`
	UserID       *int      `json:"user_id,omitempty"`
	Username     string    `json:"username,omitempty"`
	HelpNeeded   string    `json:"help_needed"`
	Offer        string    `json:"offer"`
	LocationText string    `json:"location"`
	Deadline     Date      `json:"deadline"`
	Contact      string    `json:"contact"`
	Latitude     float64   `json:"lat"`
	Longitude    float64   `json:"lng"`
	CreatedAt    time.Time `json:"created_at"`
}

// ActiveOn reports whether the marker is still visible on the given day.
func (m *Marker) ActiveOn(today Date) bool {
	return !m.Deadline.Before(today)
}

// OwnedBy reports whether userID owns the marker.
func (m *Marker) OwnedBy(userID int) bool {
	return m.UserID != nil && *m.UserID == userID
}

// MarkerPatch holds the fields of an edit; nil fields are left unchanged.
type MarkerPatch struct {
	HelpNeeded   *string
	Offer        *string
	LocationText *string
	Deadline     *Date
	Contact      *string
	Latitude     *float64
	Longitude    *float64
}

// Apply copies every non-nil field of p onto m.
func (p MarkerPatch) Apply(m *Marker) {
	if p.HelpNeeded != nil {
		m.HelpNeeded = *p.HelpNeeded
	}
	if p.Offer != nil {
		m.Offer = *p.Offer
	}
	if p.LocationText != nil {
		m.LocationText = *p.LocationText
	}
	if p.Deadline != nil {
		m.Deadline = *p.Deadline
	}
	if p.Contact != nil {
		m.Contact = *p.Contact
	}
	if p.Latitude != nil {
		m.Latitude = *p.Latitude
	}
	if p.Longitude != nil {
		m.Longitude = *p.Longitude
	}
}
