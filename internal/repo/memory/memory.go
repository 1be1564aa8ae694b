// Package memory is an in-process store for development and tests. All state
// lives behind one RWMutex; reads return copies.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/good-deeds/board/internal/apperr"
	"github.com/good-deeds/board/internal/geo"
	"github.com/good-deeds/board/internal/models"
)

type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	users    []models.User
	markers  []models.Marker
	comments []models.Comment
	audit    []models.AuditEntry

	nextUser, nextMarker, nextComment, nextAudit int
}

// New returns an empty store stamping records with time.Now.
func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock returns an empty store stamping records with now.
func NewWithClock(now func() time.Time) *Store {
	return &Store{now: now}
}

// ========================
// USERS
// ========================

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.userIndex(func(x *models.User) bool { return x.Username == u.Username }); ok {
		return fmt.Errorf("create user: %w", apperr.ErrConflict)
	}
	s.nextUser++
	u.ID = s.nextUser
	u.CreatedAt = s.now()
	s.users = append(s.users, cloneUser(*u))
	return nil
}

func (s *Store) UserByID(ctx context.Context, id int) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.userIndex(func(x *models.User) bool { return x.ID == id })
	if !ok {
		return nil, fmt.Errorf("get user: %w", apperr.ErrNotFound)
	}
	u := cloneUser(s.users[i])
	return &u, nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.userIndex(func(x *models.User) bool { return x.Username == username })
	if !ok {
		return nil, fmt.Errorf("get user by username: %w", apperr.ErrNotFound)
	}
	u := cloneUser(s.users[i])
	return &u, nil
}

func (s *Store) UpdateUserLocation(ctx context.Context, id int, city string, c geo.Coordinates) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.userIndex(func(x *models.User) bool { return x.ID == id })
	if !ok {
		return fmt.Errorf("update user location: %w", apperr.ErrNotFound)
	}
	lat, lng := c.Lat, c.Lng
	s.users[i].City = city
	s.users[i].Lat = &lat
	s.users[i].Lng = &lng
	return nil
}

func (s *Store) SearchUsers(ctx context.Context, q string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.User
	for _, u := range s.users {
		if containsFold(u.Username, q) {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

// ========================
// MARKERS
// ========================

func (s *Store) CreateMarker(ctx context.Context, m *models.Marker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextMarker++
	m.ID = s.nextMarker
	m.CreatedAt = s.now()
	m.Username = s.usernameOf(m.UserID)
	s.markers = append(s.markers, cloneMarker(*m))
	s.record(actor(m), models.AuditCreate, models.ResourceMarker, m.ID, m.LocationText)
	return nil
}

func (s *Store) MarkerByID(ctx context.Context, id int) (*models.Marker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.markerIndex(id)
	if !ok {
		return nil, fmt.Errorf("get marker: %w", apperr.ErrNotFound)
	}
	m := s.readMarker(i)
	return &m, nil
}

// UpdateMarker runs fn on a copy; the stored record is replaced only when fn succeeds.
func (s *Store) UpdateMarker(ctx context.Context, id int, fn func(m *models.Marker) error) (*models.Marker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.markerIndex(id)
	if !ok {
		return nil, fmt.Errorf("update marker: %w", apperr.ErrNotFound)
	}
	m := s.readMarker(i)
	if err := fn(&m); err != nil {
		return nil, err
	}
	// identity and ownership are not editable
	stored := s.markers[i]
	m.ID, m.UserID, m.CreatedAt = stored.ID, stored.UserID, stored.CreatedAt
	s.markers[i] = cloneMarker(m)
	s.record(actor(&m), models.AuditUpdate, models.ResourceMarker, id, m.LocationText)

	out := s.readMarker(i)
	return &out, nil
}

func (s *Store) DeleteMarker(ctx context.Context, id int, check func(m *models.Marker) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.markerIndex(id)
	if !ok {
		return fmt.Errorf("delete marker: %w", apperr.ErrNotFound)
	}
	m := s.readMarker(i)
	if err := check(&m); err != nil {
		return err
	}

	before := len(s.comments)
	s.comments = slices.DeleteFunc(s.comments, func(c models.Comment) bool { return c.MarkerID == id })
	removed := before - len(s.comments)
	s.markers = slices.Delete(s.markers, i, i+1)
	s.record(actor(&m), models.AuditDelete, models.ResourceMarker, id, fmt.Sprintf("comments removed: %d", removed))
	return nil
}

func (s *Store) ActiveMarkers(ctx context.Context, today models.Date, q string) ([]models.Marker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Marker
	for i := range s.markers {
		m := &s.markers[i]
		if !m.ActiveOn(today) {
			continue
		}
		if q != "" && !containsFold(m.LocationText, q) && !containsFold(m.HelpNeeded, q) {
			continue
		}
		out = append(out, s.readMarker(i))
	}
	return out, nil
}

func (s *Store) CountActiveMarkers(ctx context.Context, today models.Date) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for i := range s.markers {
		if s.markers[i].ActiveOn(today) {
			n++
		}
	}
	return n, nil
}

func (s *Store) SearchMarkersByLocation(ctx context.Context, q string) ([]models.Marker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Marker
	for i := range s.markers {
		if containsFold(s.markers[i].LocationText, q) {
			out = append(out, s.readMarker(i))
		}
	}
	return out, nil
}

// ========================
// COMMENTS
// ========================

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.markerIndex(c.MarkerID); !ok {
		return fmt.Errorf("create comment: %w", apperr.ErrNotFound)
	}
	s.nextComment++
	c.ID = s.nextComment
	c.CreatedAt = s.now()
	c.Username = s.usernameOf(&c.UserID)
	s.comments = append(s.comments, *c)
	s.record(c.UserID, models.AuditCreate, models.ResourceComment, c.ID, fmt.Sprintf("marker %d", c.MarkerID))
	return nil
}

func (s *Store) CommentsByMarker(ctx context.Context, markerID int) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Comment
	for _, c := range s.comments {
		if c.MarkerID == markerID {
			c.Username = s.usernameOf(&c.UserID)
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Comment) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

// ========================
// RATINGS
// ========================

func (s *Store) TopUsersByMarkers(ctx context.Context, limit int) ([]models.UserCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[int]int)
	for _, m := range s.markers {
		if m.UserID != nil {
			counts[*m.UserID]++
		}
	}
	return s.rankUsers(counts, limit), nil
}

func (s *Store) TopUsersByComments(ctx context.Context, limit int) ([]models.UserCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[int]int)
	for _, c := range s.comments {
		counts[c.UserID]++
	}
	return s.rankUsers(counts, limit), nil
}

// TopLocations groups by normalized location text. Ties go to the group whose
// first marker has the lower id.
func (s *Store) TopLocations(ctx context.Context, limit int) ([]models.LocationCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type group struct {
		models.LocationCount
		firstID int
	}
	byLoc := make(map[string]*group)
	for _, m := range s.markers {
		key := geo.Normalize(m.LocationText)
		g, ok := byLoc[key]
		if !ok {
			g = &group{LocationCount: models.LocationCount{Location: key}, firstID: m.ID}
			byLoc[key] = g
		}
		g.Count++
		g.firstID = min(g.firstID, m.ID)
	}

	groups := make([]*group, 0, len(byLoc))
	for _, g := range byLoc {
		groups = append(groups, g)
	}
	slices.SortFunc(groups, func(a, b *group) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.firstID, b.firstID))
	})

	out := make([]models.LocationCount, 0, min(limit, len(groups)))
	for _, g := range groups[:min(limit, len(groups))] {
		out = append(out, g.LocationCount)
	}
	return out, nil
}

// ========================
// AUDIT, HEALTH
// ========================

// ListAudit returns entries newest first.
func (s *Store) ListAudit(ctx context.Context, limit, offset int) ([]models.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.AuditEntry, 0, limit)
	for i := len(s.audit) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.audit[i])
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// ========================
// helpers, callers hold s.mu
// ========================

func (s *Store) record(userID int, action, resourceType string, resourceID int, details string) {
	s.nextAudit++
	s.audit = append(s.audit, models.AuditEntry{
		ID:           s.nextAudit,
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		CreatedAt:    s.now(),
	})
}

// rankUsers includes every user, zero counts too, sorted by count then id.
func (s *Store) rankUsers(counts map[int]int, limit int) []models.UserCount {
	out := make([]models.UserCount, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, models.UserCount{UserID: u.ID, Username: u.Username, Count: counts[u.ID]})
	}
	slices.SortFunc(out, func(a, b models.UserCount) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.UserID, b.UserID))
	})
	return out[:min(limit, len(out))]
}

func (s *Store) userIndex(match func(*models.User) bool) (int, bool) {
	for i := range s.users {
		if match(&s.users[i]) {
			return i, true
		}
	}
	return 0, false
}

func (s *Store) markerIndex(id int) (int, bool) {
	return slices.BinarySearchFunc(s.markers, id, func(m models.Marker, id int) int {
		return cmp.Compare(m.ID, id)
	})
}

func (s *Store) readMarker(i int) models.Marker {
	m := cloneMarker(s.markers[i])
	m.Username = s.usernameOf(m.UserID)
	return m
}

func (s *Store) usernameOf(id *int) string {
	if id == nil {
		return ""
	}
	if i, ok := s.userIndex(func(u *models.User) bool { return u.ID == *id }); ok {
		return s.users[i].Username
	}
	return ""
}

func actor(m *models.Marker) int {
	if m.UserID == nil {
		return 0
	}
	return *m.UserID
}

func cloneUser(u models.User) models.User {
	if u.Lat != nil {
		lat := *u.Lat
		u.Lat = &lat
	}
	if u.Lng != nil {
		lng := *u.Lng
		u.Lng = &lng
	}
	return u
}

func cloneMarker(m models.Marker) models.Marker {
	if m.UserID != nil {
		id := *m.UserID
		m.UserID = &id
	}
	return m
}

func containsFold(s, q string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(q))
}
