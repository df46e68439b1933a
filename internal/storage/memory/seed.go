package memory

import (
	"bytes"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/dkopi/db"
	"github.com/xenking/dkopi/internal/domain/admin"
	"github.com/xenking/dkopi/internal/domain/order"
)

// SampleInventory decodes the embedded inventory seed.
func SampleInventory() ([]admin.Item, error) {
	return admin.DecodeItems(bytes.NewReader(db.Inventory))
}

// SampleUsers are the storefront accounts shown in a fresh console.
func SampleUsers() []admin.User {
	return []admin.User{
		{ID: "1", Name: "John Doe", Email: "john@example.com", Role: admin.UserRoleUser, Orders: 5, Active: true},
		{ID: "2", Name: "Jane Smith", Email: "jane@example.com", Role: admin.UserRoleUser, Orders: 8, Active: true},
		{ID: "3", Name: "Mike Johnson", Email: "mike@example.com", Role: admin.UserRoleUser, Orders: 3, Active: false},
		{ID: "4", Name: "Sarah Williams", Email: "sarah@example.com", Role: admin.UserRoleUser, Orders: 12, Active: true},
		{ID: "5", Name: "Robert Brown", Email: "robert@example.com", Role: admin.UserRoleAdmin, Orders: 0, Active: true},
		{ID: "6", Name: "Emily Davis", Email: "emily@example.com", Role: admin.UserRoleUser, Orders: 7, Active: false},
	}
}

// SampleOrders are the historical orders shown in a fresh console.
func SampleOrders() []order.Order {
	day := func(d int) time.Time { return time.Date(2025, time.May, d, 9, 0, 0, 0, time.UTC) }
	sample := func(id, customer string, created time.Time, total string, status order.Status, items int) order.Order {
		t := decimal.RequireFromString(total)
		return order.Order{
			ID:            id,
			Customer:      customer,
			PaymentMethod: order.PaymentBankTransfer,
			ItemCount:     items,
			Subtotal:      t,
			Shipping:      decimal.Zero,
			Total:         t,
			Status:        status,
			CreatedAt:     created,
		}
	}
	return []order.Order{
		sample("ORD-1234", "John Smith", day(2), "35.97", order.StatusDelivered, 3),
		sample("ORD-1235", "Emma Johnson", day(3), "79.99", order.StatusShipped, 2),
		sample("ORD-1236", "Michael Brown", day(4), "24.50", order.StatusProcessing, 1),
		sample("ORD-1237", "Olivia Davis", day(5), "125.45", order.StatusPending, 4),
		sample("ORD-1238", "William Wilson", day(1), "59.90", order.StatusCancelled, 2),
	}
}
