package order

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/dkopi/internal/domain/cart"
	"github.com/xenking/dkopi/internal/domain/product"
	"github.com/xenking/dkopi/internal/storage/slot"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	lastOrder *Order
	err       error
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	if m.err != nil {
		return m.err
	}
	m.lastOrder = o
	return nil
}

func (m *mockOrderRepo) Get(_ context.Context, id string) (*Order, error) {
	if m.lastOrder == nil || m.lastOrder.ID != id {
		return nil, ErrNotFound
	}
	return m.lastOrder, nil
}

func (m *mockOrderRepo) List(context.Context, ListFilter) ([]Order, error) {
	if m.lastOrder == nil {
		return nil, nil
	}
	return []Order{*m.lastOrder}, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id string, status Status) error {
	if m.lastOrder == nil || m.lastOrder.ID != id {
		return ErrNotFound
	}
	m.lastOrder.Status = status
	return nil
}

func (m *mockOrderRepo) Count(context.Context) (int, error) {
	if m.lastOrder == nil {
		return 0, nil
	}
	return 1, nil
}

type mockMailer struct {
	sent []*Order
	err  error
}

func (m *mockMailer) OrderPlaced(_ context.Context, o *Order) error {
	m.sent = append(m.sent, o)
	return m.err
}

// slowOrderRepo is safe for concurrent use and holds every Create for delay
// so concurrent checkouts overlap.
type slowOrderRepo struct {
	mockOrderRepo
	delay  time.Duration
	during func()

	mu      sync.Mutex
	created []*Order
}

func (m *slowOrderRepo) Create(_ context.Context, o *Order) error {
	if m.during != nil {
		m.during()
	}
	time.Sleep(m.delay)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, o)
	return nil
}

func (m *slowOrderRepo) orders() []*Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Order(nil), m.created...)
}

type lockedMailer struct {
	mu   sync.Mutex
	sent int
}

func (m *lockedMailer) OrderPlaced(context.Context, *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent++
	return nil
}

type noteRecorder []cart.Notification

func (r *noteRecorder) Notify(_ context.Context, n cart.Notification) {
	*r = append(*r, n)
}

// --- Helpers ---

var (
	gayo  = product.Product{ID: 1, Name: "Aceh Gayo Premium Coffee", Price: 85000, Image: "gayo.jpg", Category: "arabica", Rating: 4.8}
	luwak = product.Product{ID: 9, Name: "Luwak Premium Coffee", Price: 250000, Image: "luwak.jpg", Category: "specialty", Rating: 4.9}
)

func validForm() Form {
	return Form{
		FirstName:  "Budi",
		LastName:   "Santoso",
		Email:      "budi@example.com",
		Phone:      "+62 812 0000 0000",
		Address:    "Jl. Sudirman 1",
		City:       "Jakarta",
		PostalCode: "10220",
		Province:   "jakarta",
	}
}

func newCart(t *testing.T) (*cart.Store, *slot.Memory, *noteRecorder) {
	t.Helper()
	s := slot.NewMemory()
	rec := &noteRecorder{}
	c := cart.NewStore(s, "cart:test", cart.WithNotifier(rec))
	c.Initialize(context.Background())
	return c, s, rec
}

// --- Tests ---

func TestShippingFor(t *testing.T) {
	tests := []struct {
		subtotal int64
		want     int64
	}{
		{0, 0},
		{1, StandardShipping},
		{299999, StandardShipping},
		{300000, 0},
		{1000000, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ShippingFor(tt.subtotal), "subtotal %d", tt.subtotal)
	}
}

func TestQuote(t *testing.T) {
	c, _, _ := newCart(t)
	svc := NewService(&mockOrderRepo{}, &mockMailer{})

	assert.Equal(t, Quote{}, svc.Quote(c))

	c.AddItem(context.Background(), gayo, 2)
	assert.Equal(t, Quote{Subtotal: 170000, Shipping: 15000, Total: 185000, Count: 2}, svc.Quote(c))

	c.AddItem(context.Background(), luwak, 1)
	assert.Equal(t, Quote{Subtotal: 420000, Shipping: 0, Total: 420000, Count: 3}, svc.Quote(c))
}

func TestForm_Validate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Form)
		field string
	}{
		{"valid", func(*Form) {}, ""},
		{"missing first name", func(f *Form) { f.FirstName = "" }, "firstName"},
		{"missing city", func(f *Form) { f.City = "" }, "city"},
		{"bad email", func(f *Form) { f.Email = "not-an-email" }, "email"},
		{"unknown province", func(f *Form) { f.Province = "sumatra" }, "province"},
		{"unknown payment", func(f *Form) { f.PaymentMethod = "cash" }, "paymentMethod"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			tt.edit(&f)
			f.Normalize()
			err := f.Validate()
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestForm_NormalizeDefaults(t *testing.T) {
	f := Form{FirstName: "  Budi ", Province: " Bali "}
	f.Normalize()
	assert.Equal(t, "Budi", f.FirstName)
	assert.Equal(t, "bali", f.Province)
	assert.Equal(t, PaymentBankTransfer, f.PaymentMethod)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	c, _, _ := newCart(t)
	repo := &mockOrderRepo{}
	svc := NewService(repo, &mockMailer{})

	_, err := svc.PlaceOrder(context.Background(), c, validForm())
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, repo.lastOrder)
}

func TestPlaceOrder_InvalidFormKeepsCart(t *testing.T) {
	c, _, _ := newCart(t)
	c.AddItem(context.Background(), gayo, 1)
	svc := NewService(&mockOrderRepo{}, &mockMailer{})

	f := validForm()
	f.Phone = ""
	_, err := svc.PlaceOrder(context.Background(), c, f)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "phone", vErr.Field)
	assert.Equal(t, 1, c.Count())
}

func TestPlaceOrder_Success(t *testing.T) {
	ctx := context.Background()
	c, s, rec := newCart(t)
	c.AddItem(ctx, gayo, 2)
	c.AddItem(ctx, luwak, 1)

	repo := &mockOrderRepo{}
	mailer := &mockMailer{}
	svc := NewService(repo, mailer)

	f := validForm()
	f.Notes = "  Leave at the gate  "
	o, err := svc.PlaceOrder(ctx, c, f)
	require.NoError(t, err)

	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "Leave at the gate", o.Notes)
	assert.Same(t, o, repo.lastOrder)
	assert.Equal(t, "Budi Santoso", o.Customer)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentBankTransfer, o.PaymentMethod)
	assert.Equal(t, 3, o.ItemCount)
	assert.True(t, decimal.NewFromInt(420000).Equal(o.Subtotal))
	assert.True(t, decimal.Zero.Equal(o.Shipping))
	assert.True(t, decimal.NewFromInt(420000).Equal(o.Total))
	require.Len(t, o.Lines, 2)
	assert.Equal(t, int64(1), o.Lines[0].ProductID)
	assert.Equal(t, 2, o.Lines[0].Quantity)

	require.Len(t, mailer.sent, 1)

	assert.Equal(t, 0, c.Count())
	_, err = s.Get(ctx, "cart:test")
	require.ErrorIs(t, err, cart.ErrSlotEmpty)

	notes := *rec
	require.GreaterOrEqual(t, len(notes), 2)
	assert.Equal(t, cart.KindCleared, notes[len(notes)-2].Kind)
	assert.Equal(t, KindPlaced, notes[len(notes)-1].Kind)
	assert.Equal(t, "Order placed successfully", notes[len(notes)-1].Title)
}

func TestPlaceOrder_MailFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newCart(t)
	c.AddItem(ctx, gayo, 1)

	repo := &mockOrderRepo{}
	svc := NewService(repo, &mockMailer{err: errors.New("smtp down")})

	o, err := svc.PlaceOrder(ctx, c, validForm())
	require.NoError(t, err)
	assert.NotNil(t, repo.lastOrder)
	assert.True(t, decimal.NewFromInt(100000).Equal(o.Total))
	assert.Equal(t, 0, c.Count())
}

func TestPlaceOrder_RepositoryErrorKeepsCart(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newCart(t)
	c.AddItem(ctx, gayo, 1)

	mailer := &mockMailer{}
	svc := NewService(&mockOrderRepo{err: errors.New("db down")}, mailer)

	_, err := svc.PlaceOrder(ctx, c, validForm())
	require.Error(t, err)
	assert.Empty(t, mailer.sent)
	assert.Equal(t, 1, c.Count())
}

func TestPlaceOrder_DoubleSubmitPlacesOnce(t *testing.T) {
	ctx := context.Background()
	c := cart.NewStore(slot.NewMemory(), "cart:test")
	c.Initialize(ctx)
	c.AddItem(ctx, gayo, 2)

	repo := &slowOrderRepo{delay: 50 * time.Millisecond}
	mailer := &lockedMailer{}
	svc := NewService(repo, mailer)

	errs := make([]error, 2)
	var g errgroup.Group
	for i := range errs {
		g.Go(func() error {
			_, errs[i] = svc.PlaceOrder(ctx, c, validForm())
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var placed, empty int
	for _, err := range errs {
		switch {
		case err == nil:
			placed++
		case errors.Is(err, ErrEmptyCart):
			empty++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, placed)
	assert.Equal(t, 1, empty)
	require.Len(t, repo.orders(), 1)
	assert.Equal(t, 2, repo.orders()[0].ItemCount)
	assert.Equal(t, 1, mailer.sent)
	assert.Zero(t, c.Count())
}

func TestPlaceOrder_KeepsItemsAddedDuringCheckout(t *testing.T) {
	ctx := context.Background()
	c := cart.NewStore(slot.NewMemory(), "cart:test")
	c.Initialize(ctx)
	c.AddItem(ctx, gayo, 1)

	added := make(chan struct{})
	repo := &slowOrderRepo{
		delay: 20 * time.Millisecond,
		during: func() {
			go func() {
				defer close(added)
				c.AddItem(ctx, luwak, 1)
			}()
		},
	}
	svc := NewService(repo, &lockedMailer{})

	o, err := svc.PlaceOrder(ctx, c, validForm())
	require.NoError(t, err)
	<-added

	require.Len(t, o.Lines, 1)
	assert.Equal(t, gayo.ID, o.Lines[0].ProductID)

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, luwak.ID, lines[0].ID)
	assert.Equal(t, 1, c.Count())
}
