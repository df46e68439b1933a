package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for order lookup and state changes.
var (
	ErrNotFound      = errors.New("order not found")
	ErrInvalidStatus = errors.New("invalid order status")
	ErrEmptyCart     = errors.New("cart is empty")
)

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// ParseStatus validates s.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return st, nil
	default:
		return "", errors.Wrapf(ErrInvalidStatus, "%q", s)
	}
}

// Order is a placed order.
type Order struct {
	ID            string
	Customer      string
	Email         string
	Phone         string
	Address       string
	Notes         string
	PaymentMethod PaymentMethod
	Lines         []Line
	ItemCount     int
	Subtotal      decimal.Decimal
	Shipping      decimal.Decimal
	Total         decimal.Decimal
	Status        Status
	CreatedAt     time.Time
}

// Line is a product snapshot captured at checkout.
type Line struct {
	ProductID int64
	Name      string
	Price     decimal.Decimal
	Quantity  int
}

// ListFilter narrows an order listing. Zero values match everything.
type ListFilter struct {
	// Search matches the order id or customer name, case-insensitively.
	Search string
	Status Status
}

// Repository defines persistence operations for orders. List returns the
// newest orders first.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, f ListFilter) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	Count(ctx context.Context) (int, error)
}
