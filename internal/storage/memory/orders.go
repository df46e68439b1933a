package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/dkopi/internal/domain/order"
)

// Orders is an in-memory order.Repository.
type Orders struct {
	mu     sync.RWMutex
	orders map[string]order.Order
}

// NewOrders returns a repository holding seed.
func NewOrders(seed ...order.Order) *Orders {
	r := &Orders{orders: make(map[string]order.Order, len(seed))}
	for _, o := range seed {
		r.orders[o.ID] = cloneOrder(o)
	}
	return r
}

func (r *Orders) Create(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; ok {
		return errors.Errorf("order %q already exists", o.ID)
	}
	r.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (r *Orders) Get(_ context.Context, id string) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	out := cloneOrder(o)
	return &out, nil
}

func (r *Orders) List(_ context.Context, f order.ListFilter) ([]order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(f.Search)
	out := make([]order.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(o.ID), q) &&
			!strings.Contains(strings.ToLower(o.Customer), q) {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	slices.SortFunc(out, func(a, b order.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (r *Orders) UpdateStatus(_ context.Context, id string, status order.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.Status = status
	r.orders[id] = o
	return nil
}

func (r *Orders) Count(context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders), nil
}

func cloneOrder(o order.Order) order.Order {
	o.Lines = slices.Clone(o.Lines)
	return o
}
