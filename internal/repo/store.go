package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/good-deeds/board/internal/db"
	"github.com/good-deeds/board/internal/geo"
	"github.com/good-deeds/board/internal/models"
)

// Store is the postgres-backed store. Reads go straight to the pool; every
// write that touches more than one row runs in a single transaction.
type Store struct {
	db *sql.DB

	users    *UserRepo
	markers  *MarkerRepo
	comments *CommentRepo
	ratings  *RatingRepo
	audit    *AuditRepo
}

func NewStore(sqlDB *sql.DB) *Store {
	return &Store{
		db:       sqlDB,
		users:    NewUserRepo(sqlDB),
		markers:  NewMarkerRepo(sqlDB),
		comments: NewCommentRepo(sqlDB),
		ratings:  NewRatingRepo(sqlDB),
		audit:    NewAuditRepo(sqlDB),
	}
}

// ========================
// USERS
// ========================

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return s.users.Create(ctx, u)
}

func (s *Store) UserByID(ctx context.Context, id int) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.users.GetByUsername(ctx, username)
}

func (s *Store) UpdateUserLocation(ctx context.Context, id int, city string, c geo.Coordinates) error {
	return s.users.UpdateLocation(ctx, id, city, c.Lat, c.Lng)
}

func (s *Store) SearchUsers(ctx context.Context, q string) ([]models.User, error) {
	return s.users.Search(ctx, q)
}

// ========================
// MARKERS
// ========================

func (s *Store) CreateMarker(ctx context.Context, m *models.Marker) error {
	return db.WithTx(ctx, s.db, func(tx db.DBTX) error {
		if err := NewMarkerRepo(tx).Create(ctx, m); err != nil {
			return err
		}
		return NewAuditRepo(tx).Log(ctx, actor(m), models.AuditCreate, models.ResourceMarker, m.ID, m.LocationText)
	})
}

func (s *Store) MarkerByID(ctx context.Context, id int) (*models.Marker, error) {
	return s.markers.GetByID(ctx, id)
}

func (s *Store) UpdateMarker(ctx context.Context, id int, fn func(m *models.Marker) error) (*models.Marker, error) {
	var updated *models.Marker
	err := db.WithTx(ctx, s.db, func(tx db.DBTX) error {
		markers := NewMarkerRepo(tx)
		m, err := markers.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
		m.ID = id
		if err := markers.Update(ctx, m); err != nil {
			return err
		}
		updated = m
		return NewAuditRepo(tx).Log(ctx, actor(m), models.AuditUpdate, models.ResourceMarker, id, m.LocationText)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) DeleteMarker(ctx context.Context, id int, check func(m *models.Marker) error) error {
	return db.WithTx(ctx, s.db, func(tx db.DBTX) error {
		markers := NewMarkerRepo(tx)
		m, err := markers.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := check(m); err != nil {
			return err
		}
		n, err := NewCommentRepo(tx).DeleteByMarker(ctx, id)
		if err != nil {
			return err
		}
		if err := markers.Delete(ctx, id); err != nil {
			return err
		}
		return NewAuditRepo(tx).Log(ctx, actor(m), models.AuditDelete, models.ResourceMarker, id,
			fmt.Sprintf("comments removed: %d", n))
	})
}

func (s *Store) ActiveMarkers(ctx context.Context, today models.Date, q string) ([]models.Marker, error) {
	return s.markers.ListActive(ctx, today, q)
}

func (s *Store) CountActiveMarkers(ctx context.Context, today models.Date) (int, error) {
	return s.markers.CountActive(ctx, today)
}

func (s *Store) SearchMarkersByLocation(ctx context.Context, q string) ([]models.Marker, error) {
	return s.markers.SearchByLocation(ctx, q)
}

// ========================
// COMMENTS
// ========================

// CreateComment holds a key-share lock on the marker so it cannot be deleted
// between the existence check and the insert.
func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	return db.WithTx(ctx, s.db, func(tx db.DBTX) error {
		if err := NewMarkerRepo(tx).LockShared(ctx, c.MarkerID); err != nil {
			return err
		}
		if err := NewCommentRepo(tx).Create(ctx, c); err != nil {
			return err
		}
		return NewAuditRepo(tx).Log(ctx, c.UserID, models.AuditCreate, models.ResourceComment, c.ID,
			fmt.Sprintf("marker %d", c.MarkerID))
	})
}

func (s *Store) CommentsByMarker(ctx context.Context, markerID int) ([]models.Comment, error) {
	return s.comments.ListByMarker(ctx, markerID)
}

// ========================
// RATINGS, AUDIT, HEALTH
// ========================

func (s *Store) TopUsersByMarkers(ctx context.Context, limit int) ([]models.UserCount, error) {
	return s.ratings.TopUsersByMarkers(ctx, limit)
}

func (s *Store) TopUsersByComments(ctx context.Context, limit int) ([]models.UserCount, error) {
	return s.ratings.TopUsersByComments(ctx, limit)
}

func (s *Store) TopLocations(ctx context.Context, limit int) ([]models.LocationCount, error) {
	return s.ratings.TopLocations(ctx, limit)
}

func (s *Store) ListAudit(ctx context.Context, limit, offset int) ([]models.AuditEntry, error) {
	return s.audit.List(ctx, limit, offset)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func actor(m *models.Marker) int {
	if m.UserID == nil {
		return 0
	}
	return *m.UserID
}
