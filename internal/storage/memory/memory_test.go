package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/dkopi/internal/domain/admin"
	"github.com/xenking/dkopi/internal/domain/order"
)

func TestSampleInventory(t *testing.T) {
	items, err := SampleInventory()
	require.NoError(t, err)
	require.Len(t, items, 6)
	assert.Equal(t, "Arabica Premium", items[0].Name)
	assert.True(t, decimal.RequireFromString("15.99").Equal(items[0].Price))
	assert.Equal(t, "Colombian Supremo", items[5].Name)
	assert.True(t, items[5].LowStock())
}

func TestOrders_ListNewestFirstWithFilters(t *testing.T) {
	ctx := context.Background()
	r := NewOrders(SampleOrders()...)

	all, err := r.List(ctx, order.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "ORD-1237", all[0].ID)
	assert.Equal(t, "ORD-1238", all[4].ID)

	byStatus, err := r.List(ctx, order.ListFilter{Status: order.StatusShipped})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "Emma Johnson", byStatus[0].Customer)

	bySearch, err := r.List(ctx, order.ListFilter{Search: "brown"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, "ORD-1236", bySearch[0].ID)

	byID, err := r.List(ctx, order.ListFilter{Search: "ord-1234"})
	require.NoError(t, err)
	require.Len(t, byID, 1)
}

func TestOrders_CreateGetUpdate(t *testing.T) {
	ctx := context.Background()
	r := NewOrders()

	o := &order.Order{
		ID:        "o-1",
		Customer:  "Budi Santoso",
		Lines:     []order.Line{{ProductID: 1, Name: "Gayo", Price: decimal.NewFromInt(85000), Quantity: 1}},
		Status:    order.StatusPending,
		CreatedAt: time.Now(),
	}
	require.NoError(t, r.Create(ctx, o))
	require.Error(t, r.Create(ctx, o))

	o.Lines[0].Quantity = 99
	got, err := r.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Lines[0].Quantity)

	require.NoError(t, r.UpdateStatus(ctx, "o-1", order.StatusShipped))
	got, err = r.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, got.Status)

	require.ErrorIs(t, r.UpdateStatus(ctx, "missing", order.StatusShipped), order.ErrNotFound)
	_, err = r.Get(ctx, "missing")
	require.ErrorIs(t, err, order.ErrNotFound)

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestInventory_CRUD(t *testing.T) {
	ctx := context.Background()
	seed, err := SampleInventory()
	require.NoError(t, err)
	r := NewInventory(seed...)

	beans, err := r.List(ctx, "beans")
	require.NoError(t, err)
	assert.Len(t, beans, 4)

	require.NoError(t, r.Create(ctx, &admin.Item{ID: "x-1", Name: "Cold Brew", Stock: 3, Price: decimal.NewFromInt(5), Category: "Ready"}))
	all, err := r.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 7)
	assert.Equal(t, "1", all[0].ID)
	assert.Equal(t, "x-1", all[6].ID)

	it, err := r.Get(ctx, "x-1")
	require.NoError(t, err)
	it.Stock = 30
	require.NoError(t, r.Update(ctx, it))
	it, err = r.Get(ctx, "x-1")
	require.NoError(t, err)
	assert.Equal(t, 30, it.Stock)

	require.NoError(t, r.Delete(ctx, "x-1"))
	require.ErrorIs(t, r.Delete(ctx, "x-1"), admin.ErrNotFound)
	require.ErrorIs(t, r.Update(ctx, it), admin.ErrNotFound)
}

func TestUsers_FilterAndRole(t *testing.T) {
	ctx := context.Background()
	r := NewUsers(SampleUsers()...)

	admins, err := r.List(ctx, admin.UserFilter{Role: admin.UserRoleAdmin})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "Robert Brown", admins[0].Name)

	found, err := r.List(ctx, admin.UserFilter{Search: "JANE@"})
	require.NoError(t, err)
	require.Len(t, found, 1)

	require.NoError(t, r.UpdateRole(ctx, "2", admin.UserRoleAdmin))
	u, err := r.Get(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, admin.UserRoleAdmin, u.Role)

	require.ErrorIs(t, r.UpdateRole(ctx, "99", admin.UserRoleAdmin), admin.ErrNotFound)
}

func TestSettings_DefaultsAndSave(t *testing.T) {
	ctx := context.Background()
	r := NewSettings()

	s, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, admin.DefaultSettings(), s)

	s.Theme = "dark"
	require.NoError(t, r.Save(ctx, s))
	got, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dark", got.Theme)
}
