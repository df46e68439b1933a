package admin

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LowStockThreshold marks items that need restocking.
const LowStockThreshold = 10

// Item is a stock-keeping entry in the inventory.
type Item struct {
	ID        string
	Name      string
	Stock     int
	Price     decimal.Decimal
	Category  string
	CreatedAt time.Time
}

// LowStock reports whether the item is at or below LowStockThreshold.
func (i Item) LowStock() bool {
	return i.Stock <= LowStockThreshold
}

// Validate checks the editable fields.
func (i Item) Validate() error {
	switch {
	case strings.TrimSpace(i.Name) == "":
		return &ValidationError{Field: "name", Reason: "required"}
	case strings.TrimSpace(i.Category) == "":
		return &ValidationError{Field: "category", Reason: "required"}
	case i.Stock < 0:
		return &ValidationError{Field: "stock", Reason: "must not be negative"}
	case i.Price.IsNegative():
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	return nil
}

// MatchesSearch reports whether q occurs in the name or category.
func (i Item) MatchesSearch(q string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(i.Name), q) ||
		strings.Contains(strings.ToLower(i.Category), q)
}

// InventoryRepository persists inventory items. List returns a stable order.
type InventoryRepository interface {
	List(ctx context.Context, search string) ([]Item, error)
	Get(ctx context.Context, id string) (*Item, error)
	Create(ctx context.Context, item *Item) error
	Update(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id string) error
}
