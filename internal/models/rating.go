package models

// UserCount is one row of a per-user leaderboard.
type UserCount struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Count    int    `json:"count"`
}

// LocationCount is one row of the per-location leaderboard. Location is normalized.
type LocationCount struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}
