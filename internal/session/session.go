// Package session stores revoked session token ids until the tokens expire.
package session

import (
	"context"
	"sync"
	"time"
)

// Denylist records token ids that must no longer be accepted.
type Denylist interface {
	// Revoke denies id until the given time. Times in the past are a no-op.
	Revoke(ctx context.Context, id string, until time.Time) error
	Revoked(ctx context.Context, id string) (bool, error)
}

// MemoryDenylist keeps revoked ids in process. Expired entries are dropped on write.
type MemoryDenylist struct {
	mu      sync.Mutex
	now     func() time.Time
	revoked map[string]time.Time
}

func NewMemoryDenylist() *MemoryDenylist {
	return &MemoryDenylist{now: time.Now, revoked: make(map[string]time.Time)}
}

func (d *MemoryDenylist) Revoke(ctx context.Context, id string, until time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for k, exp := range d.revoked {
		if !exp.After(now) {
			delete(d.revoked, k)
		}
	}
	if until.After(now) {
		d.revoked[id] = until
	}
	return nil
}

func (d *MemoryDenylist) Revoked(ctx context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	exp, ok := d.revoked[id]
	return ok && exp.After(d.now()), nil
}
