package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xenking/dkopi/internal/domain/cart"
)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger handed to every cart store.
func WithLogger(lg *zap.Logger) Option {
	return func(r *Registry) { r.lg = lg }
}

// WithClock overrides the time source used for idle tracking.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// Registry owns the cart stores of all active sessions.
type Registry struct {
	slot cart.Slot
	lg   *zap.Logger
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry returns a registry whose carts persist into slot.
func NewRegistry(slot cart.Slot, opts ...Option) *Registry {
	r := &Registry{
		slot:     slot,
		lg:       zap.NewNop(),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Get returns the session for id, creating and restoring its cart on first
// use. Concurrent first calls share one store. The session is touched before
// the registry lock is released, so a concurrent Evict never drops it.
func (r *Registry) Get(ctx context.Context, id string) *Session {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok {
		s = &Session{ID: id}
		s.Store = cart.NewStore(r.slot, Key(id),
			cart.WithLogger(r.lg.With(zap.String("session", id))),
			cart.WithNotifier(s),
		)
		r.sessions[id] = s
	}
	s.touch(r.now())
	r.mu.Unlock()

	s.Store.Initialize(ctx)
	return s
}

// Len is the number of sessions held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Evict forgets sessions idle for longer than idle. Their carts stay in the
// slot and are restored on the next Get.
func (r *Registry) Evict(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idle)

	var n int
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Run evicts idle sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Evict(idle); n > 0 {
				r.lg.Debug("Evicted idle sessions", zap.Int("count", n), zap.Int("remaining", r.Len()))
			}
		}
	}
}

// Close drops every session. Carts remain in the slot.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.sessions)
}
