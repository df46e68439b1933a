package cart

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/dkopi/internal/domain/product"
)

// --- Fakes ---

type fakeSlot struct {
	mu      sync.Mutex
	data    map[string][]byte
	getErr  error
	setErr  error
	sets    int
	deletes int
}

func newFakeSlot() *fakeSlot {
	return &fakeSlot{data: make(map[string][]byte)}
}

func (f *fakeSlot) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return nil, ErrSlotEmpty
	}
	return v, nil
}

func (f *fakeSlot) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	return nil
}

func (f *fakeSlot) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	delete(f.data, key)
	return nil
}

func (f *fakeSlot) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}

type recorder struct {
	mu   sync.Mutex
	seen []Notification
}

func (r *recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, n)
}

func (r *recorder) last() Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen[len(r.seen)-1]
}

// --- Helpers ---

const testKey = "cart:test"

var (
	gayo    = product.Product{ID: 1, Name: "Aceh Gayo Premium Coffee", Price: 85000, Image: "gayo.jpg", Category: "arabica", Rating: 4.8}
	robusta = product.Product{ID: 3, Name: "Java Robusta Dark Roast", Price: 65000, Image: "robusta.jpg", Category: "robusta", Rating: 4.3}
	luwak   = product.Product{ID: 9, Name: "Luwak Premium Coffee", Price: 250000, Image: "luwak.jpg", Category: "specialty", Rating: 4.9}
)

func newTestStore(t *testing.T, slot Slot) (*Store, *recorder) {
	t.Helper()
	rec := &recorder{}
	s := NewStore(slot, testKey, WithNotifier(rec))
	s.Initialize(context.Background())
	return s, rec
}

// requireInvariants checks that the derived aggregates equal the fold over
// the current lines and that ids are unique.
func requireInvariants(t *testing.T, s *Store) {
	t.Helper()
	snap := s.Snapshot()

	var (
		total int64
		count int
	)
	seen := make(map[int64]bool)
	for _, l := range snap.Lines {
		require.False(t, seen[l.ID], "duplicate line for id %d", l.ID)
		seen[l.ID] = true
		require.GreaterOrEqual(t, l.Quantity, 1)
		total += l.Price * int64(l.Quantity)
		count += l.Quantity
	}
	require.Equal(t, total, snap.Total)
	require.Equal(t, count, snap.Count)
	require.Equal(t, snap.Total, s.Total())
	require.Equal(t, snap.Count, s.Count())
}

// --- Tests ---

func TestStore_InitializeAbsentSlot(t *testing.T) {
	s, _ := newTestStore(t, newFakeSlot())

	assert.Empty(t, s.Lines())
	assert.Zero(t, s.Total())
	assert.Zero(t, s.Count())
}

func TestStore_AddItemAdditive(t *testing.T) {
	s, rec := newTestStore(t, newFakeSlot())
	ctx := context.Background()

	s.AddItem(ctx, gayo, 2)
	assert.Equal(t, KindAdded, rec.last().Kind)
	assert.Equal(t, "Aceh Gayo Premium Coffee has been added to your cart.", rec.last().Description)
	requireInvariants(t, s)

	s.AddItem(ctx, gayo, 3)
	n := rec.last()
	assert.Equal(t, KindIncreased, n.Kind)
	assert.Equal(t, 5, n.Quantity)
	assert.Equal(t, "Aceh Gayo Premium Coffee quantity increased to 5.", n.Description)
	requireInvariants(t, s)

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
	assert.Equal(t, int64(425000), s.Total())
	assert.Equal(t, 5, s.Count())
}

func TestStore_AddOneDefaultsToSingleUnit(t *testing.T) {
	s, _ := newTestStore(t, newFakeSlot())
	s.AddOne(context.Background(), robusta)

	require.Len(t, s.Lines(), 1)
	assert.Equal(t, 1, s.Count())
}

func TestStore_AddItemNonPositiveIsNoop(t *testing.T) {
	slot := newFakeSlot()
	s, rec := newTestStore(t, slot)
	ctx := context.Background()

	s.AddItem(ctx, gayo, 0)
	s.AddItem(ctx, gayo, -3)

	assert.Empty(t, s.Lines())
	assert.Empty(t, rec.seen)
	assert.Zero(t, slot.sets)
}

func TestStore_QuantityLimit(t *testing.T) {
	slot := newFakeSlot()
	s, rec := newTestStore(t, slot)
	ctx := context.Background()

	s.AddItem(ctx, gayo, math.MaxInt)
	s.AddItem(ctx, gayo, MaxQuantity+1)
	assert.Empty(t, s.Lines())
	assert.Zero(t, slot.sets)

	s.AddItem(ctx, gayo, MaxQuantity-1)
	s.AddItem(ctx, gayo, 2)
	notified := len(rec.seen)
	require.Len(t, s.Lines(), 1)
	assert.Equal(t, MaxQuantity-1, s.Lines()[0].Quantity)

	s.AddItem(ctx, gayo, 1)
	assert.Equal(t, MaxQuantity, s.Lines()[0].Quantity)
	assert.Len(t, rec.seen, notified+1)

	s.AddItem(ctx, gayo, math.MaxInt)
	s.UpdateQuantity(ctx, gayo.ID, math.MaxInt)
	s.UpdateQuantity(ctx, gayo.ID, MaxQuantity+1)
	assert.Equal(t, MaxQuantity, s.Lines()[0].Quantity)
	requireInvariants(t, s)

	restored, _ := newTestStore(t, slot)
	require.Len(t, restored.Lines(), 1, "a full line must survive a reload")
	assert.Equal(t, MaxQuantity, restored.Count())
	assert.Equal(t, int64(MaxQuantity)*gayo.Price, restored.Total())
}

func TestStore_InsertionOrder(t *testing.T) {
	s, _ := newTestStore(t, newFakeSlot())
	ctx := context.Background()

	s.AddOne(ctx, luwak)
	s.AddOne(ctx, gayo)
	s.AddOne(ctx, robusta)
	s.AddOne(ctx, luwak)

	var ids []int64
	for _, l := range s.Lines() {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []int64{9, 1, 3}, ids)
}

func TestStore_UpdateQuantity(t *testing.T) {
	s, rec := newTestStore(t, newFakeSlot())
	ctx := context.Background()
	s.AddItem(ctx, gayo, 2)
	notified := len(rec.seen)

	s.UpdateQuantity(ctx, gayo.ID, 7)
	assert.Equal(t, 7, s.Lines()[0].Quantity)
	requireInvariants(t, s)

	s.UpdateQuantity(ctx, gayo.ID, 0)
	s.UpdateQuantity(ctx, gayo.ID, -1)
	require.Len(t, s.Lines(), 1)
	assert.Equal(t, 7, s.Lines()[0].Quantity)

	s.UpdateQuantity(ctx, 404, 3)
	require.Len(t, s.Lines(), 1)
	requireInvariants(t, s)
	assert.Len(t, rec.seen, notified)
}

func TestStore_RemoveItemIdempotent(t *testing.T) {
	slot := newFakeSlot()
	s, rec := newTestStore(t, slot)
	ctx := context.Background()
	s.AddOne(ctx, gayo)
	s.AddOne(ctx, robusta)

	s.RemoveItem(ctx, gayo.ID)
	n := rec.last()
	assert.Equal(t, KindRemoved, n.Kind)
	assert.Equal(t, "Aceh Gayo Premium Coffee has been removed from your cart.", n.Description)
	requireInvariants(t, s)

	notified, sets := len(rec.seen), slot.sets
	s.RemoveItem(ctx, gayo.ID)
	assert.Len(t, rec.seen, notified)
	assert.Equal(t, sets, slot.sets)
	require.Len(t, s.Lines(), 1)
	assert.Equal(t, robusta.ID, s.Lines()[0].ID)
}

func TestStore_RoundTrip(t *testing.T) {
	slot := newFakeSlot()
	s, _ := newTestStore(t, slot)
	ctx := context.Background()
	s.AddItem(ctx, gayo, 2)
	s.AddItem(ctx, robusta, 1)

	restored, _ := newTestStore(t, slot)

	assert.Equal(t, s.Lines(), restored.Lines())
	assert.Equal(t, s.Total(), restored.Total())
	assert.Equal(t, s.Count(), restored.Count())
	assert.Equal(t, int64(235000), restored.Total())
	assert.Equal(t, 3, restored.Count())
}

func TestStore_CorruptSlotRecovery(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "object", data: `{"id":1}`},
		{name: "number", data: `42`},
		{name: "not json", data: `[{"id":1,`},
		{name: "null", data: `null`},
		{name: "missing quantity", data: `[{"id":1,"name":"x","price":1,"image":"","category":"c","rating":1}]`},
		{name: "zero quantity", data: `[{"id":1,"name":"x","price":1,"image":"","category":"c","rating":1,"quantity":0}]`},
		{name: "string price", data: `[{"id":1,"name":"x","price":"1","image":"","category":"c","rating":1,"quantity":1}]`},
		{name: "quantity above limit", data: `[{"id":1,"name":"x","price":1,"image":"","category":"c","rating":1,"quantity":1000}]`},
		{name: "negative quantity", data: `[{"id":1,"name":"x","price":1,"image":"","category":"c","rating":1,"quantity":-9223372036854775808}]`},
		{name: "rating above five", data: `[{"id":1,"name":"x","price":1,"image":"","category":"c","rating":7.5,"quantity":1}]`},
		{name: "negative rating", data: `[{"id":1,"name":"x","price":1,"image":"","category":"c","rating":-1,"quantity":1}]`},
		{name: "price above maximum", data: `[{"id":1,"name":"x","price":1000000000001,"image":"","category":"c","rating":1,"quantity":1}]`},
		{name: "empty name", data: `[{"id":1,"name":"","price":1,"image":"","category":"c","rating":1,"quantity":1}]`},
		{name: "duplicate ids", data: `[` +
			`{"id":1,"name":"x","price":1,"image":"","category":"c","rating":1,"quantity":1},` +
			`{"id":1,"name":"x","price":1,"image":"","category":"c","rating":1,"quantity":2}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot := newFakeSlot()
			slot.data[testKey] = []byte(tt.data)

			s, _ := newTestStore(t, slot)

			assert.Empty(t, s.Lines())
			assert.Zero(t, s.Total())
			assert.Zero(t, s.Count())
			assert.False(t, slot.has(testKey), "corrupt slot must be cleared")
		})
	}
}

func TestStore_InitializeReadErrorStartsEmpty(t *testing.T) {
	slot := newFakeSlot()
	slot.data[testKey] = EncodeLines([]Line{{Product: gayo, Quantity: 1}})
	slot.getErr = errors.New("connection refused")

	s, _ := newTestStore(t, slot)

	assert.Empty(t, s.Lines())
	assert.True(t, slot.has(testKey), "unreadable slot must not be deleted")

	// The store does not retry the read; the next mutation replaces the
	// unread snapshot with the in-memory cart.
	slot.getErr = nil
	s.Initialize(context.Background())
	assert.Empty(t, s.Lines())

	s.AddOne(context.Background(), robusta)
	lines, err := DecodeLines(slot.data[testKey])
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, robusta.ID, lines[0].ID)
}

func TestStore_InitializeRunsOnce(t *testing.T) {
	slot := newFakeSlot()
	s, _ := newTestStore(t, slot)
	s.AddOne(context.Background(), gayo)

	slot.data[testKey] = []byte(`[]`)
	s.Initialize(context.Background())

	assert.Len(t, s.Lines(), 1)
}

func TestStore_Clear(t *testing.T) {
	slot := newFakeSlot()
	s, rec := newTestStore(t, slot)
	ctx := context.Background()
	s.AddItem(ctx, gayo, 1)
	s.AddItem(ctx, robusta, 2)
	s.AddItem(ctx, luwak, 1)
	require.Positive(t, s.Total())

	s.Clear(ctx)

	assert.Empty(t, s.Lines())
	assert.Zero(t, s.Total())
	assert.Zero(t, s.Count())
	assert.False(t, slot.has(testKey))
	assert.Equal(t, KindCleared, rec.last().Kind)
}

func TestStore_Checkout(t *testing.T) {
	slot := newFakeSlot()
	s, rec := newTestStore(t, slot)
	ctx := context.Background()
	s.AddItem(ctx, gayo, 2)
	s.AddItem(ctx, luwak, 1)

	var got Snapshot
	require.NoError(t, s.Checkout(ctx, func(snap Snapshot) error {
		got = snap
		return nil
	}))

	assert.Equal(t, 3, got.Count)
	assert.Equal(t, int64(420000), got.Total)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, gayo.ID, got.Lines[0].ID)

	assert.Empty(t, s.Lines())
	assert.Zero(t, s.Total())
	assert.False(t, slot.has(testKey))
	assert.Equal(t, KindCleared, rec.last().Kind)
}

func TestStore_CheckoutErrorKeepsCart(t *testing.T) {
	slot := newFakeSlot()
	s, rec := newTestStore(t, slot)
	ctx := context.Background()
	s.AddItem(ctx, gayo, 1)
	notes := len(rec.seen)

	errPlace := errors.New("place failed")
	err := s.Checkout(ctx, func(Snapshot) error { return errPlace })
	require.ErrorIs(t, err, errPlace)

	assert.Equal(t, 1, s.Count())
	assert.True(t, slot.has(testKey))
	assert.Len(t, rec.seen, notes)
}

func TestStore_CheckoutHandsOutLinesOnce(t *testing.T) {
	s, _ := newTestStore(t, newFakeSlot())
	ctx := context.Background()
	s.AddItem(ctx, gayo, 3)

	var (
		mu     sync.Mutex
		placed []Snapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	for range 10 {
		g.Go(func() error {
			return s.Checkout(gctx, func(snap Snapshot) error {
				if snap.Empty() {
					return nil
				}
				mu.Lock()
				placed = append(placed, snap)
				mu.Unlock()
				return nil
			})
		})
	}
	require.NoError(t, g.Wait())

	require.Len(t, placed, 1)
	assert.Equal(t, 3, placed[0].Count)
	assert.Zero(t, s.Count())
}

func TestStore_WriteFailureKeepsMemoryState(t *testing.T) {
	slot := newFakeSlot()
	slot.setErr = errors.New("quota exceeded")
	s, rec := newTestStore(t, slot)
	ctx := context.Background()

	s.AddItem(ctx, gayo, 2)
	s.AddItem(ctx, luwak, 1)
	s.UpdateQuantity(ctx, gayo.ID, 4)

	requireInvariants(t, s)
	assert.Equal(t, 5, s.Count())
	assert.Len(t, rec.seen, 2)
	assert.False(t, slot.has(testKey))
}

func TestStore_PersistsAfterEveryMutation(t *testing.T) {
	slot := newFakeSlot()
	s, _ := newTestStore(t, slot)
	ctx := context.Background()

	check := func() {
		t.Helper()
		data, err := slot.Get(ctx, testKey)
		require.NoError(t, err)
		lines, err := DecodeLines(data)
		require.NoError(t, err)
		assert.Equal(t, s.Lines(), lines)
	}

	s.AddItem(ctx, gayo, 2)
	check()
	s.AddItem(ctx, robusta, 1)
	check()
	s.UpdateQuantity(ctx, robusta.ID, 6)
	check()
	s.RemoveItem(ctx, gayo.ID)
	check()
}

func TestStore_ConcurrentAdds(t *testing.T) {
	s, _ := newTestStore(t, newFakeSlot())

	const n = 100
	g, ctx := errgroup.WithContext(context.Background())
	for i := range n {
		p := gayo
		if i%2 == 1 {
			p = robusta
		}
		g.Go(func() error {
			s.AddOne(ctx, p)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	requireInvariants(t, s)
	assert.Len(t, s.Lines(), 2)
	assert.Equal(t, n, s.Count())
}

func TestStore_InvariantsOverOperationSequence(t *testing.T) {
	s, _ := newTestStore(t, newFakeSlot())
	ctx := context.Background()
	catalog := []product.Product{gayo, robusta, luwak}

	// Deterministic pseudo-random walk over all operations.
	seed := uint32(7)
	next := func(n int) int {
		seed = seed*1664525 + 1013904223
		return int(seed>>16) % n
	}
	for range 500 {
		p := catalog[next(len(catalog))]
		switch next(5) {
		case 0, 1:
			s.AddItem(ctx, p, next(4)-1)
		case 2:
			s.UpdateQuantity(ctx, p.ID, next(6)-1)
		case 3:
			s.RemoveItem(ctx, p.ID)
		case 4:
			if next(10) == 0 {
				s.Clear(ctx)
			}
		}
		requireInvariants(t, s)
	}
}
