// Package cart implements the per-session shopping cart: an ordered list of
// lines with derived totals, mirrored into a durable key-value slot after
// every mutation.
package cart

import (
	"context"
	"slices"

	"github.com/go-faster/errors"

	"github.com/xenking/dkopi/internal/domain/product"
)

// ErrSlotEmpty is returned by Slot.Get when the key holds no value.
var ErrSlotEmpty = errors.New("slot is empty")

// Slot is a durable key-value entry surviving process restarts. Get returns
// ErrSlotEmpty for an absent key; Delete of an absent key is not an error.
type Slot interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// MaxQuantity is the largest quantity a single line may hold.
const MaxQuantity = 999

// Line is one product in the cart together with its quantity.
type Line struct {
	product.Product
	Quantity int
}

// Subtotal is price multiplied by quantity.
func (l Line) Subtotal() int64 {
	return l.Price * int64(l.Quantity)
}

// Snapshot is a consistent, detached view of a cart.
type Snapshot struct {
	Lines []Line
	Total int64
	Count int
}

// Empty reports whether the snapshot has no lines.
func (s Snapshot) Empty() bool {
	return len(s.Lines) == 0
}

// fold computes the derived aggregates over lines.
func fold(lines []Line) (total int64, count int) {
	for _, l := range lines {
		total += l.Subtotal()
		count += l.Quantity
	}
	return total, count
}

func indexOf(lines []Line, id int64) int {
	return slices.IndexFunc(lines, func(l Line) bool { return l.ID == id })
}
