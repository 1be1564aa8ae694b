package repo

import (
	"context"

	"github.com/good-deeds/board/internal/db"
	"github.com/good-deeds/board/internal/models"
)

// ========================
// REPOSITORY STRUCT
// ========================

type MarkerRepo struct {
	DB db.DBTX
}

func NewMarkerRepo(dbtx db.DBTX) *MarkerRepo {
	return &MarkerRepo{DB: dbtx}
}

const markerSelect = `
	SELECT m.id, m.user_id, COALESCE(u.username, ''), m.help_needed, m.offer, m.location_text,
	       m.deadline, m.contact, m.latitude, m.longitude, m.created_at
	FROM markers m
	LEFT JOIN users u ON u.id = m.user_id`

// ========================
// CREATE MARKER
// ========================

func (r *MarkerRepo) Create(ctx context.Context, m *models.Marker) error {
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO markers (user_id, help_needed, offer, location_text, deadline, contact, latitude, longitude)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		m.UserID, m.HelpNeeded, m.Offer, m.LocationText, m.Deadline, m.Contact, m.Latitude, m.Longitude,
	).Scan(&m.ID, &m.CreatedAt)
	return dbErr("create marker", err)
}

// ========================
// GET MARKER BY ID
// ========================

func (r *MarkerRepo) GetByID(ctx context.Context, id int) (*models.Marker, error) {
	m, err := scanMarker(r.DB.QueryRowContext(ctx, markerSelect+` WHERE m.id = $1`, id))
	if err != nil {
		return nil, dbErr("get marker", err)
	}
	return m, nil
}

// ========================
// LOCK MARKER FOR UPDATE
// ========================

// GetForUpdate loads a marker and locks its row until the surrounding transaction ends.
func (r *MarkerRepo) GetForUpdate(ctx context.Context, id int) (*models.Marker, error) {
	m, err := scanMarker(r.DB.QueryRowContext(ctx, markerSelect+` WHERE m.id = $1 FOR UPDATE OF m`, id))
	if err != nil {
		return nil, dbErr("lock marker", err)
	}
	return m, nil
}

// LockShared fails with apperr.ErrNotFound when the marker is missing and
// otherwise blocks its deletion until the transaction ends.
func (r *MarkerRepo) LockShared(ctx context.Context, id int) error {
	var one int
	err := r.DB.QueryRowContext(ctx, `SELECT 1 FROM markers WHERE id = $1 FOR KEY SHARE`, id).Scan(&one)
	return dbErr("lock marker", err)
}

// ========================
// UPDATE MARKER
// ========================

func (r *MarkerRepo) Update(ctx context.Context, m *models.Marker) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE markers
		 SET help_needed = $1, offer = $2, location_text = $3, deadline = $4, contact = $5,
		     latitude = $6, longitude = $7
		 WHERE id = $8`,
		m.HelpNeeded, m.Offer, m.LocationText, m.Deadline, m.Contact, m.Latitude, m.Longitude, m.ID,
	)
	if err != nil {
		return dbErr("update marker", err)
	}
	return requireRow("update marker", res)
}

// ========================
// DELETE MARKER BY ID
// ========================

func (r *MarkerRepo) Delete(ctx context.Context, id int) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM markers WHERE id = $1`, id)
	if err != nil {
		return dbErr("delete marker", err)
	}
	return requireRow("delete marker", res)
}

// ========================
// LIST ACTIVE MARKERS
// ========================

// ListActive returns markers whose deadline is on or after today. A non-empty q
// keeps only markers whose location or help text contains q, ignoring case.
func (r *MarkerRepo) ListActive(ctx context.Context, today models.Date, q string) ([]models.Marker, error) {
	if q == "" {
		return r.list(ctx, "list active markers",
			markerSelect+` WHERE m.deadline >= $1 ORDER BY m.id`, today)
	}
	return r.list(ctx, "list active markers",
		markerSelect+` WHERE m.deadline >= $1 AND (m.location_text ILIKE $2 OR m.help_needed ILIKE $2) ORDER BY m.id`,
		today, containsPattern(q))
}

// CountActive returns how many markers are visible on today.
func (r *MarkerRepo) CountActive(ctx context.Context, today models.Date) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM markers WHERE deadline >= $1`, today).Scan(&n)
	return n, dbErr("count active markers", err)
}

// ========================
// SEARCH BY LOCATION
// ========================

// SearchByLocation matches location text regardless of deadline.
func (r *MarkerRepo) SearchByLocation(ctx context.Context, q string) ([]models.Marker, error) {
	return r.list(ctx, "search markers",
		markerSelect+` WHERE m.location_text ILIKE $1 ORDER BY m.id`, containsPattern(q))
}

func (r *MarkerRepo) list(ctx context.Context, op, query string, args ...any) ([]models.Marker, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbErr(op, err)
	}
	defer rows.Close()

	var markers []models.Marker
	for rows.Next() {
		m, err := scanMarker(rows)
		if err != nil {
			return nil, dbErr(op, err)
		}
		markers = append(markers, *m)
	}
	return markers, dbErr(op, rows.Err())
}

func scanMarker(row rowScanner) (*models.Marker, error) {
	m := &models.Marker{}
	err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.Username,
		&m.HelpNeeded,
		&m.Offer,
		&m.LocationText,
		&m.Deadline,
		&m.Contact,
		&m.Latitude,
		&m.Longitude,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}
