package admin

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/dkopi/internal/domain/order"
)

// Service backs the admin console.
type Service struct {
	inventory InventoryRepository
	users     UserRepository
	orders    order.Repository
	settings  SettingsRepository
	now       func() time.Time
}

// NewService creates an admin Service over its repositories.
func NewService(
	inventory InventoryRepository,
	users UserRepository,
	orders order.Repository,
	settings SettingsRepository,
) *Service {
	return &Service{
		inventory: inventory,
		users:     users,
		orders:    orders,
		settings:  settings,
		now:       time.Now,
	}
}

// ListInventory returns items whose name or category contains search.
func (s *Service) ListInventory(ctx context.Context, search string) ([]Item, error) {
	return s.inventory.List(ctx, strings.TrimSpace(search))
}

// AddItem validates and stores a new inventory item.
func (s *Service) AddItem(ctx context.Context, item Item) (*Item, error) {
	item.Name = strings.TrimSpace(item.Name)
	item.Category = strings.TrimSpace(item.Category)
	if err := item.Validate(); err != nil {
		return nil, err
	}
	item.ID = uuid.NewString()
	item.Price = item.Price.Round(2)
	item.CreatedAt = s.now().UTC()
	if err := s.inventory.Create(ctx, &item); err != nil {
		return nil, errors.Wrap(err, "create item")
	}
	return &item, nil
}

// UpdateItem replaces the editable fields of item id.
func (s *Service) UpdateItem(ctx context.Context, id string, item Item) (*Item, error) {
	item.Name = strings.TrimSpace(item.Name)
	item.Category = strings.TrimSpace(item.Category)
	if err := item.Validate(); err != nil {
		return nil, err
	}
	current, err := s.inventory.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	current.Name = item.Name
	current.Category = item.Category
	current.Stock = item.Stock
	current.Price = item.Price.Round(2)
	if err := s.inventory.Update(ctx, current); err != nil {
		return nil, errors.Wrapf(err, "update item %q", id)
	}
	return current, nil
}

// DeleteItem removes item id.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	return s.inventory.Delete(ctx, id)
}

// ListUsers returns users matching f.
func (s *Service) ListUsers(ctx context.Context, f UserFilter) ([]User, error) {
	return s.users.List(ctx, f)
}

// UpdateUserRole changes the role of user id.
func (s *Service) UpdateUserRole(ctx context.Context, id, role string) (*User, error) {
	r, err := ParseUserRole(role)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateRole(ctx, id, r); err != nil {
		return nil, err
	}
	return s.users.Get(ctx, id)
}

// ListOrders returns orders matching f, newest first.
func (s *Service) ListOrders(ctx context.Context, f order.ListFilter) ([]order.Order, error) {
	return s.orders.List(ctx, f)
}

// UpdateOrderStatus moves order id to status.
func (s *Service) UpdateOrderStatus(ctx context.Context, id, status string) (*order.Order, error) {
	st, err := order.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	if err := s.orders.UpdateStatus(ctx, id, st); err != nil {
		return nil, err
	}
	return s.orders.Get(ctx, id)
}

// Settings returns the current store settings.
func (s *Service) Settings(ctx context.Context) (Settings, error) {
	return s.settings.Load(ctx)
}

// UpdateSettings validates and saves settings.
func (s *Service) UpdateSettings(ctx context.Context, st Settings) (Settings, error) {
	st.StoreName = strings.TrimSpace(st.StoreName)
	st.StoreEmail = strings.TrimSpace(st.StoreEmail)
	if err := st.Validate(); err != nil {
		return Settings{}, err
	}
	if err := s.settings.Save(ctx, st); err != nil {
		return Settings{}, errors.Wrap(err, "save settings")
	}
	return st, nil
}

// Dashboard gathers the console summary.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	items, err := s.inventory.List(ctx, "")
	if err != nil {
		return nil, errors.Wrap(err, "list inventory")
	}
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "count users")
	}
	orders, err := s.orders.List(ctx, order.ListFilter{})
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}

	d := &Dashboard{
		TotalProducts: len(items),
		TotalOrders:   len(orders),
		TotalUsers:    users,
		LowStock:      []Item{},
		MonthRevenue:  decimal.Zero,
		Sales:         salesHistory,
	}
	for _, it := range items {
		if it.LowStock() {
			d.LowStock = append(d.LowStock, it)
		}
	}

	now := s.now().UTC()
	for _, o := range orders {
		created := o.CreatedAt.UTC()
		if o.Status == order.StatusCancelled || created.Year() != now.Year() || created.Month() != now.Month() {
			continue
		}
		d.MonthRevenue = d.MonthRevenue.Add(o.Total)
	}
	return d, nil
}
