package service

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/good-deeds/board/internal/apperr"
	"github.com/good-deeds/board/internal/geo"
	"github.com/good-deeds/board/internal/models"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen = 6
	maxPasswordLen = 72 // bcrypt input limit, in bytes
	maxUsernameLen = 50
	maxCityLen     = 100
)

// ErrUserExists is returned by Register for a taken username.
var ErrUserExists = fmt.Errorf("user already exists: %w", apperr.ErrConflict)

// ErrInvalidCredentials is returned by Authenticate; it does not say which part was wrong.
var ErrInvalidCredentials = fmt.Errorf("invalid username or password: %w", apperr.ErrUnauthorized)

// Register creates an account. A non-empty city is resolved through the
// geocoding table and stored with the user; unknown cities get geo.Default.
func (s *Service) Register(ctx context.Context, username, password, city string) (*models.User, error) {
	v := newValidation()
	u := &models.User{
		Username: v.required("username", username, maxUsernameLen),
		City:     v.optional("city", city, maxCityLen),
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		v.fail("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	} else if len(password) > maxPasswordLen {
		v.fail("password", fmt.Sprintf("must be at most %d bytes", maxPasswordLen))
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)

	if u.City != "" {
		c := geo.Resolve(u.City)
		u.Lat, u.Lng = &c.Lat, &c.Lng
	}

	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return u, nil
}

// Authenticate checks a username and password pair.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.store.UserByUsername(ctx, clean(username))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) User(ctx context.Context, id int) (*models.User, error) {
	return s.store.UserByID(ctx, id)
}

// SetLocation resolves city and stores it on the user.
func (s *Service) SetLocation(ctx context.Context, userID int, city string) (geo.Coordinates, error) {
	v := newValidation()
	city = v.required("city", city, maxCityLen)
	if err := v.err(); err != nil {
		return geo.Coordinates{}, err
	}
	c := geo.Resolve(city)
	if err := s.store.UpdateUserLocation(ctx, userID, city, c); err != nil {
		return geo.Coordinates{}, err
	}
	return c, nil
}

// MapCenter is the user's stored location, or geo.Default when none is set.
func (s *Service) MapCenter(ctx context.Context, userID int) (geo.Coordinates, error) {
	u, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return geo.Coordinates{}, err
	}
	if !u.HasLocation() {
		return geo.Default, nil
	}
	return geo.Coordinates{Lat: *u.Lat, Lng: *u.Lng}, nil
}
