package app

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xenking/dkopi/internal/domain/admin"
	"github.com/xenking/dkopi/internal/domain/cart"
	"github.com/xenking/dkopi/internal/domain/order"
	"github.com/xenking/dkopi/internal/storage/memory"
	"github.com/xenking/dkopi/internal/storage/postgres"
	"github.com/xenking/dkopi/internal/storage/slot"
	"github.com/xenking/dkopi/pkg/health"
	"github.com/xenking/dkopi/pkg/httpmiddleware"
)

// storage bundles the cart slot and the repositories chosen by configuration.
type storage struct {
	slot      cart.Slot
	orders    order.Repository
	inventory admin.InventoryRepository
	users     admin.UserRepository
	settings  admin.SettingsRepository

	closers []func()
}

// Close releases connections in reverse order of acquisition.
func (s *storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStorage connects to PostgreSQL when configured, opens the cart slot
// backend and registers readiness checks for every remote dependency.
//
// Orders and inventory live in PostgreSQL when a database URL is set and in
// seeded memory repositories otherwise. Users and settings are always kept in
// memory.
func openStorage(ctx context.Context, lg *zap.Logger, m httpmiddleware.Telemetry, cfg *Config, hs *health.Health) (_ *storage, rerr error) {
	st := &storage{
		users:    memory.NewUsers(memory.SampleUsers()...),
		settings: memory.NewSettings(),
	}
	defer func() {
		if rerr != nil {
			st.Close()
		}
	}()

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
			return nil, errors.Wrap(err, "run migrations")
		}
		p, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		pool = p
		st.closers = append(st.closers, pool.Close)
		hs.AddReadinessCheck("postgres", 5*time.Second, pool.Ping)

		st.orders = postgres.NewOrderRepository(pool)
		st.inventory = postgres.NewInventoryRepository(pool)
		lg.Info("Using PostgreSQL repositories")
	} else {
		items, err := memory.SampleInventory()
		if err != nil {
			return nil, errors.Wrap(err, "sample inventory")
		}
		st.orders = memory.NewOrders(memory.SampleOrders()...)
		st.inventory = memory.NewInventory(items...)
		lg.Info("Using in-memory repositories")
	}

	backend := slot.Backend(cfg.Slot.Backend)
	var raw cart.Slot
	switch backend {
	case slot.BackendMemory:
		raw = slot.NewMemory()
	case slot.BackendFile:
		f, err := slot.NewFile(cfg.Slot.Dir)
		if err != nil {
			return nil, errors.Wrap(err, "open file slot")
		}
		raw = f
	case slot.BackendRedis:
		client, err := slot.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, errors.Wrap(err, "connect redis")
		}
		st.closers = append(st.closers, func() {
			if err := client.Close(); err != nil {
				lg.Warn("Close redis", zap.Error(err))
			}
		})
		raw = slot.NewRedis(client, cfg.Slot.Prefix, cfg.Slot.TTL)
	case slot.BackendPostgres:
		if pool == nil {
			return nil, errors.New("postgres slot backend requires a database URL")
		}
		raw = postgres.NewSlotRepository(pool)
	default:
		return nil, errors.Errorf("unknown slot backend %q", backend)
	}

	inst, err := slot.Instrument(raw, backend, m.TracerProvider(), m.MeterProvider())
	if err != nil {
		return nil, errors.Wrap(err, "instrument slot")
	}
	if _, ok := raw.(slot.Pinger); ok {
		hs.AddReadinessCheck("slot", 2*time.Second, health.PingCheck(inst))
	}
	st.slot = inst
	return st, nil
}
