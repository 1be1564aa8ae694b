package service

import (
	"context"
	"time"

	"github.com/good-deeds/board/internal/geo"
	"github.com/good-deeds/board/internal/models"
)

// Store is the persistence the services need. repo.Store implements it over
// postgres and memory.Store in process. Lookups of missing records return
// apperr.ErrNotFound, duplicate usernames apperr.ErrConflict.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id int) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUserLocation(ctx context.Context, id int, city string, c geo.Coordinates) error
	SearchUsers(ctx context.Context, q string) ([]models.User, error)

	CreateMarker(ctx context.Context, m *models.Marker) error
	MarkerByID(ctx context.Context, id int) (*models.Marker, error)
	// UpdateMarker loads the marker, lets fn modify it and saves the result.
	// The marker stays locked while fn runs; an error from fn aborts the write.
	UpdateMarker(ctx context.Context, id int, fn func(m *models.Marker) error) (*models.Marker, error)
	// DeleteMarker removes the marker and its comments once check passes.
	DeleteMarker(ctx context.Context, id int, check func(m *models.Marker) error) error
	ActiveMarkers(ctx context.Context, today models.Date, q string) ([]models.Marker, error)
	CountActiveMarkers(ctx context.Context, today models.Date) (int, error)
	SearchMarkersByLocation(ctx context.Context, q string) ([]models.Marker, error)

	CreateComment(ctx context.Context, c *models.Comment) error
	CommentsByMarker(ctx context.Context, markerID int) ([]models.Comment, error)

	TopUsersByMarkers(ctx context.Context, limit int) ([]models.UserCount, error)
	TopUsersByComments(ctx context.Context, limit int) ([]models.UserCount, error)
	TopLocations(ctx context.Context, limit int) ([]models.LocationCount, error)

	ListAudit(ctx context.Context, limit, offset int) ([]models.AuditEntry, error)
	Ping(ctx context.Context) error
}

// Clock returns the current time. Services derive "today" from it.
type Clock func() time.Time
