// Package service holds the application rules: marker lifecycle and
// ownership, listings and search, ratings, accounts and comments. It talks to
// persistence only through Store.
package service

import (
	"strings"
	"time"

	"github.com/good-deeds/board/internal/models"
)

// RatingLimit is the length of every leaderboard.
const RatingLimit = 100

type Service struct {
	store Store
	now   Clock
}

// New returns a Service over store. A nil clock means time.Now.
func New(store Store, now Clock) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now}
}

// Today is the current calendar day in the server's local time zone.
func (s *Service) Today() models.Date {
	return models.DateOf(s.now().Local())
}

func clean(s string) string {
	return strings.TrimSpace(s)
}
