package models

import "time"

// Comment is append-only text attached to a marker.
type Comment struct {
	ID        int       `json:"id"`
	MarkerID  int       `json:"marker_id"`
	UserID    int       `json:"user_id"`
	Username  string    `json:"username,omitempty"` // author, filled by joins
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
