package models

import "time"

// User is a registered account. City, Lat and Lng are set once a location
// has been resolved, at registration or through the location page.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	City         string    `json:"city,omitempty"`
	Lat          *float64  `json:"lat,omitempty"`
	Lng          *float64  `json:"lng,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasLocation reports whether both coordinates are set.
func (u *User) HasLocation() bool {
	return u.Lat != nil && u.Lng != nil
}
