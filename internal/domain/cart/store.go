package cart

import (
	"context"
	"slices"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/dkopi/internal/domain/product"
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for diagnostics.
func WithLogger(lg *zap.Logger) Option {
	return func(s *Store) { s.lg = lg }
}

// WithNotifier sets the receiver of user-visible notifications.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// Store owns one cart. Every mutation holds the lock across
// mutate, recompute and persist, so readers only see settled states.
//
// Storage failures never surface to callers: they are logged and the
// in-memory cart stays authoritative.
type Store struct {
	slot     Slot
	key      string
	lg       *zap.Logger
	notifier Notifier

	mu     sync.Mutex
	loaded bool
	lines  []Line
	total  int64
	count  int
}

// NewStore creates an empty store mirrored into slot under key. Call
// Initialize before use to restore a previously persisted cart.
func NewStore(slot Slot, key string, opts ...Option) *Store {
	s := &Store{
		slot:  slot,
		key:   key,
		lg:    zap.NewNop(),
		lines: []Line{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Key returns the slot key the store persists to.
func (s *Store) Key() string {
	return s.key
}

// Initialize restores the cart from the slot. It runs once; later calls are
// no-ops. An absent slot yields an empty cart. A malformed snapshot is
// deleted and the cart starts empty.
func (s *Store) Initialize(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return
	}
	s.loaded = true

	data, err := s.slot.Get(ctx, s.key)
	switch {
	case errors.Is(err, ErrSlotEmpty):
		s.lg.Debug("No stored cart", zap.String("key", s.key))
		return
	case err != nil:
		s.lg.Warn("Read cart slot", zap.String("key", s.key), zap.Error(err))
		return
	}

	lines, err := DecodeLines(data)
	if err != nil {
		s.lg.Warn("Discarding stored cart", zap.String("key", s.key), zap.Error(err))
		if err := s.slot.Delete(ctx, s.key); err != nil {
			s.lg.Warn("Delete cart slot", zap.String("key", s.key), zap.Error(err))
		}
		return
	}

	s.lines = lines
	s.total, s.count = fold(s.lines)
	s.lg.Debug("Cart restored",
		zap.String("key", s.key),
		zap.Int("lines", len(s.lines)),
		zap.Int64("total", s.total),
		zap.Int("count", s.count),
	)
}

// AddOne adds a single unit of p.
func (s *Store) AddOne(ctx context.Context, p product.Product) {
	s.AddItem(ctx, p, 1)
}

// AddItem increases the quantity of p's line by quantity, creating the line
// if needed. Non-positive quantities and additions that would take the line
// past MaxQuantity are ignored.
func (s *Store) AddItem(ctx context.Context, p product.Product, quantity int) {
	if quantity <= 0 || quantity > MaxQuantity {
		s.lg.Warn("Ignoring out of range add quantity",
			zap.Int64("product_id", p.ID),
			zap.Int("quantity", quantity),
		)
		return
	}

	s.mu.Lock()
	var n Notification
	if i := indexOf(s.lines, p.ID); i >= 0 {
		if have := s.lines[i].Quantity; have > MaxQuantity-quantity {
			s.mu.Unlock()
			s.lg.Warn("Ignoring add past the line limit",
				zap.Int64("product_id", p.ID),
				zap.Int("quantity", quantity),
				zap.Int("have", have),
			)
			return
		}
		s.lines[i].Quantity += quantity
		n = increasedNotification(s.lines[i])
	} else {
		l := Line{Product: p, Quantity: quantity}
		s.lines = append(s.lines, l)
		n = addedNotification(l)
	}
	s.commit(ctx)
	s.mu.Unlock()

	s.notify(ctx, n)
}

// RemoveItem deletes the line for productID. Missing lines are ignored.
func (s *Store) RemoveItem(ctx context.Context, productID int64) {
	s.mu.Lock()
	i := indexOf(s.lines, productID)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	removed := s.lines[i]
	s.lines = slices.Delete(s.lines, i, i+1)
	s.commit(ctx)
	s.mu.Unlock()

	s.notify(ctx, removedNotification(removed))
}

// UpdateQuantity replaces the quantity of productID's line. Quantities outside
// 1..MaxQuantity and unknown ids are ignored; use RemoveItem to delete a line.
func (s *Store) UpdateQuantity(ctx context.Context, productID int64, quantity int) {
	if quantity < 1 || quantity > MaxQuantity {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.lines, productID)
	if i < 0 {
		return
	}
	s.lines[i].Quantity = quantity
	s.commit(ctx)
}

// Clear empties the cart and erases the slot.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.reset(ctx)
	s.mu.Unlock()

	s.notify(ctx, clearedNotification())
}

// Checkout passes the current cart to place and empties the cart once place
// succeeds. The store lock is held throughout, so one set of lines is handed
// out at most once and nothing added meanwhile is lost. place must not call
// back into the store. An error from place leaves the cart unchanged.
func (s *Store) Checkout(ctx context.Context, place func(Snapshot) error) error {
	s.mu.Lock()
	snap := Snapshot{
		Lines: slices.Clone(s.lines),
		Total: s.total,
		Count: s.count,
	}
	if err := place(snap); err != nil {
		s.mu.Unlock()
		return err
	}
	s.reset(ctx)
	s.mu.Unlock()

	s.notify(ctx, clearedNotification())
	return nil
}

// reset empties the cart and deletes the slot. Caller holds s.mu.
func (s *Store) reset(ctx context.Context) {
	s.lines = []Line{}
	s.total, s.count = 0, 0
	if err := s.slot.Delete(ctx, s.key); err != nil {
		s.lg.Warn("Delete cart slot", zap.String("key", s.key), zap.Error(err))
	}
}

// Total is the sum of price times quantity over all lines.
func (s *Store) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Count is the sum of quantities over all lines.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Lines returns a copy of the lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.lines)
}

// Snapshot returns lines and aggregates captured under a single lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Lines: slices.Clone(s.lines),
		Total: s.total,
		Count: s.count,
	}
}

// commit recomputes aggregates and writes the snapshot. Caller holds s.mu.
func (s *Store) commit(ctx context.Context) {
	s.total, s.count = fold(s.lines)
	if err := s.slot.Set(ctx, s.key, EncodeLines(s.lines)); err != nil {
		s.lg.Warn("Persist cart", zap.String("key", s.key), zap.Error(err))
		return
	}
	s.lg.Debug("Cart saved",
		zap.String("key", s.key),
		zap.Int("lines", len(s.lines)),
		zap.Int64("total", s.total),
		zap.Int("count", s.count),
	)
}

// Announce delivers n to the store's notifier. Checkout uses it to report
// outcomes alongside cart changes.
func (s *Store) Announce(ctx context.Context, n Notification) {
	s.notify(ctx, n)
}

func (s *Store) notify(ctx context.Context, n Notification) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, n)
	}
}
