package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/dkopi/internal/domain/cart"
)

// KindPlaced is the notification kind emitted after a successful checkout.
const KindPlaced cart.Kind = "order-placed"

// Cart is the part of a cart store checkout needs.
type Cart interface {
	Snapshot() cart.Snapshot
	Checkout(ctx context.Context, place func(cart.Snapshot) error) error
	Announce(ctx context.Context, n cart.Notification)
}

var _ Cart = (*cart.Store)(nil)

// Mailer sends the order confirmation to the customer.
type Mailer interface {
	OrderPlaced(ctx context.Context, o *Order) error
}

// Service turns carts into orders.
type Service struct {
	orders Repository
	mailer Mailer
	now    func() time.Time
}

// NewService creates an order Service with the required domain dependencies.
func NewService(orders Repository, mailer Mailer) *Service {
	return &Service{
		orders: orders,
		mailer: mailer,
		now:    time.Now,
	}
}

// Quote prices the cart without changing it.
func (s *Service) Quote(c Cart) Quote {
	return QuoteFor(c.Snapshot())
}

// PlaceOrder validates the form, persists an order built from the cart,
// mails a confirmation and clears the cart. A mail failure is logged and
// does not fail the order.
func (s *Service) PlaceOrder(ctx context.Context, c Cart, form Form) (*Order, error) {
	if c.Snapshot().Empty() {
		return nil, ErrEmptyCart
	}

	form.Normalize()
	if err := form.Validate(); err != nil {
		return nil, err
	}

	// The cart is re-read under its lock: a concurrent checkout may have
	// emptied it since the check above.
	var o *Order
	if err := c.Checkout(ctx, func(snap cart.Snapshot) error {
		if snap.Empty() {
			return ErrEmptyCart
		}
		o = s.newOrder(snap, form)
		if err := s.orders.Create(ctx, o); err != nil {
			return errors.Wrap(err, "create order")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	lg := zctx.From(ctx).With(zap.String("order_id", o.ID))
	if err := s.mailer.OrderPlaced(ctx, o); err != nil {
		lg.Warn("Send order confirmation", zap.Error(err))
	}
	lg.Info("Order placed",
		zap.Int("items", o.ItemCount),
		zap.Stringer("total", o.Total),
	)

	c.Announce(ctx, cart.Notification{
		Kind:        KindPlaced,
		Title:       "Order placed successfully",
		Description: "Thank you for your purchase! You will receive a confirmation email shortly.",
	})
	return o, nil
}

func (s *Service) newOrder(snap cart.Snapshot, form Form) *Order {
	q := QuoteFor(snap)
	lines := make([]Line, len(snap.Lines))
	for i, l := range snap.Lines {
		lines[i] = Line{
			ProductID: l.ID,
			Name:      l.Name,
			Price:     decimal.NewFromInt(l.Price),
			Quantity:  l.Quantity,
		}
	}
	return &Order{
		ID:            uuid.NewString(),
		Customer:      form.CustomerName(),
		Email:         form.Email,
		Phone:         form.Phone,
		Address:       form.ShippingAddress(),
		Notes:         form.Notes,
		PaymentMethod: form.PaymentMethod,
		Lines:         lines,
		ItemCount:     q.Count,
		Subtotal:      decimal.NewFromInt(q.Subtotal),
		Shipping:      decimal.NewFromInt(q.Shipping),
		Total:         decimal.NewFromInt(q.Total),
		Status:        StatusPending,
		CreatedAt:     s.now().UTC(),
	}
}
