// Package slot provides durable key-value slots that carts are mirrored into.
//
// Every implementation satisfies cart.Slot: Get reports cart.ErrSlotEmpty for
// an absent key and Delete of an absent key succeeds.
package slot

import (
	"context"

	"github.com/xenking/dkopi/internal/domain/cart"
)

// Backend names a slot implementation selectable from configuration.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendFile     Backend = "file"
	BackendRedis    Backend = "redis"
	BackendPostgres Backend = "postgres"
)

// Pinger is implemented by slots backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	_ cart.Slot = (*Memory)(nil)
	_ cart.Slot = (*File)(nil)
	_ cart.Slot = (*Redis)(nil)
	_ cart.Slot = (*Instrumented)(nil)
	_ Pinger    = (*Redis)(nil)
)
