// Package memory holds process-local repositories. They back the service
// when no database is configured and start from the store's sample data.
package memory

import (
	"github.com/xenking/dkopi/internal/domain/admin"
	"github.com/xenking/dkopi/internal/domain/order"
)

var (
	_ order.Repository          = (*Orders)(nil)
	_ admin.InventoryRepository = (*Inventory)(nil)
	_ admin.UserRepository      = (*Users)(nil)
	_ admin.SettingsRepository  = (*Settings)(nil)
)
