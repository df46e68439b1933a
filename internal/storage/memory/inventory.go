package memory

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/dkopi/internal/domain/admin"
)

// Inventory is an in-memory admin.InventoryRepository.
type Inventory struct {
	mu    sync.RWMutex
	items map[string]admin.Item
}

// NewInventory returns a repository holding seed.
func NewInventory(seed ...admin.Item) *Inventory {
	r := &Inventory{items: make(map[string]admin.Item, len(seed))}
	for _, it := range seed {
		r.items[it.ID] = it
	}
	return r
}

func (r *Inventory) List(_ context.Context, search string) ([]admin.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]admin.Item, 0, len(r.items))
	for _, it := range r.items {
		if it.MatchesSearch(search) {
			out = append(out, it)
		}
	}
	slices.SortFunc(out, func(a, b admin.Item) int { return compareIDs(a.ID, b.ID) })
	return out, nil
}

func (r *Inventory) Get(_ context.Context, id string) (*admin.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.items[id]
	if !ok {
		return nil, errors.Wrapf(admin.ErrNotFound, "item %q", id)
	}
	return &it, nil
}

func (r *Inventory) Create(_ context.Context, item *admin.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; ok {
		return errors.Errorf("item %q already exists", item.ID)
	}
	r.items[item.ID] = *item
	return nil
}

func (r *Inventory) Update(_ context.Context, item *admin.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; !ok {
		return errors.Wrapf(admin.ErrNotFound, "item %q", item.ID)
	}
	r.items[item.ID] = *item
	return nil
}

func (r *Inventory) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return errors.Wrapf(admin.ErrNotFound, "item %q", id)
	}
	delete(r.items, id)
	return nil
}

// compareIDs orders numeric ids numerically and puts them before other ids.
func compareIDs(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return cmp.Compare(na, nb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return cmp.Compare(a, b)
}
