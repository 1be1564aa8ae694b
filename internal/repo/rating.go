package repo

import (
	"context"

	"github.com/good-deeds/board/internal/db"
	"github.com/good-deeds/board/internal/models"
)

// RatingRepo runs the leaderboard aggregations. Ties are broken by ascending
// user id, or by the first marker id of a location group.
type RatingRepo struct {
	DB db.DBTX
}

// NewRatingRepo returns a new RatingRepo.
func NewRatingRepo(dbtx db.DBTX) *RatingRepo {
	return &RatingRepo{DB: dbtx}
}

// TopUsersByMarkers counts markers per user, users without markers included.
func (r *RatingRepo) TopUsersByMarkers(ctx context.Context, limit int) ([]models.UserCount, error) {
	return r.userCounts(ctx, "rate users by markers", `
		SELECT u.id, u.username, COUNT(m.id) AS n
		FROM users u
		LEFT JOIN markers m ON m.user_id = u.id
		GROUP BY u.id, u.username
		ORDER BY n DESC, u.id ASC
		LIMIT $1
	`, limit)
}

// TopUsersByComments counts comments per user, users without comments included.
func (r *RatingRepo) TopUsersByComments(ctx context.Context, limit int) ([]models.UserCount, error) {
	return r.userCounts(ctx, "rate users by comments", `
		SELECT u.id, u.username, COUNT(c.id) AS n
		FROM users u
		LEFT JOIN comments c ON c.user_id = u.id
		GROUP BY u.id, u.username
		ORDER BY n DESC, u.id ASC
		LIMIT $1
	`, limit)
}

// TopLocations counts markers per trimmed, lower-cased location text.
func (r *RatingRepo) TopLocations(ctx context.Context, limit int) ([]models.LocationCount, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT LOWER(TRIM(location_text)) AS loc, COUNT(*) AS n
		FROM markers
		GROUP BY loc
		ORDER BY n DESC, MIN(id) ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, dbErr("rate locations", err)
	}
	defer rows.Close()

	var out []models.LocationCount
	for rows.Next() {
		var lc models.LocationCount
		if err := rows.Scan(&lc.Location, &lc.Count); err != nil {
			return nil, dbErr("rate locations", err)
		}
		out = append(out, lc)
	}
	return out, dbErr("rate locations", rows.Err())
}

func (r *RatingRepo) userCounts(ctx context.Context, op, query string, limit int) ([]models.UserCount, error) {
	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, dbErr(op, err)
	}
	defer rows.Close()

	var out []models.UserCount
	for rows.Next() {
		var uc models.UserCount
		if err := rows.Scan(&uc.UserID, &uc.Username, &uc.Count); err != nil {
			return nil, dbErr(op, err)
		}
		out = append(out, uc)
	}
	return out, dbErr(op, rows.Err())
}
