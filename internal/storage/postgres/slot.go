package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/dkopi/internal/domain/cart"
)

var _ cart.Slot = (*SlotRepository)(nil)

// SlotRepository stores cart slots in the cart_slots table.
type SlotRepository struct {
	pool *pgxpool.Pool
}

// NewSlotRepository returns a SlotRepository that uses the given pool.
func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

func (r *SlotRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := r.pool.QueryRow(ctx, `SELECT value FROM cart_slots WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, cart.ErrSlotEmpty
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get slot %q", key)
	}
	return []byte(value), nil
}

func (r *SlotRepository) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO cart_slots (key, value, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, string(value),
	)
	if err != nil {
		return errors.Wrapf(err, "set slot %q", key)
	}
	return nil
}

func (r *SlotRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM cart_slots WHERE key = $1`, key); err != nil {
		return errors.Wrapf(err, "delete slot %q", key)
	}
	return nil
}

// StaleKeys returns the sorted keys starting with prefix. A non-zero before
// limits the result to slots last written before it.
func (r *SlotRepository) StaleKeys(ctx context.Context, prefix string, before time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT key FROM cart_slots
	WHERE key LIKE $1 AND ($2::timestamptz IS NULL OR updated_at < $2)
	ORDER BY key`,
		likePrefix(prefix), nullTime(before),
	)
	if err != nil {
		return nil, errors.Wrap(err, "list slot keys")
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.Wrap(err, "scan slot keys")
	}
	return keys, nil
}

// DeleteKeys removes every listed slot and reports how many existed.
func (r *SlotRepository) DeleteKeys(ctx context.Context, keys []string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM cart_slots WHERE key = ANY($1)`, keys)
	if err != nil {
		return 0, errors.Wrap(err, "delete slots")
	}
	return tag.RowsAffected(), nil
}

// Ping checks database connectivity.
func (r *SlotRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
