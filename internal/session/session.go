// Package session maps shopper sessions to their carts.
//
// A Registry lazily creates one cart.Store per session id, restores it from
// the slot on first use and buffers the store's notifications until the next
// response drains them.
package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xenking/dkopi/internal/domain/cart"
)

// CookieName carries the session id between requests.
const CookieName = "dkopi_session"

// KeyPrefix is prepended to a session id to form its slot key.
const KeyPrefix = "cart:"

// maxPending bounds the notification queue of a session that is never drained.
const maxPending = 32

// Key returns the slot key of the session's cart.
func Key(id string) string {
	return KeyPrefix + id
}

// NewID returns a fresh random session id.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like an id produced by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

// Session is one shopper's cart plus their undelivered notifications.
type Session struct {
	ID    string
	Store *cart.Store

	mu       sync.Mutex
	pending  []cart.Notification
	lastSeen time.Time
}

// Notify queues n for the next Drain. The oldest entries are dropped once the
// queue is full.
func (s *Session) Notify(_ context.Context, n cart.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == maxPending {
		s.pending = slices.Delete(s.pending, 0, 1)
	}
	s.pending = append(s.pending, n)
}

// Drain returns and forgets the queued notifications.
func (s *Session) Drain() []cart.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
