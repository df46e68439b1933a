package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/dkopi/internal/domain/admin"
)

const inventoryColumns = `id, name, stock, price, category, created_at`

var _ admin.InventoryRepository = (*InventoryRepository)(nil)

// InventoryRepository implements admin.InventoryRepository backed by
// PostgreSQL.
type InventoryRepository struct {
	pool *pgxpool.Pool
}

// NewInventoryRepository returns an InventoryRepository that uses the given pool.
func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

// List returns items whose name or category contains search, oldest first.
func (r *InventoryRepository) List(ctx context.Context, search string) ([]admin.Item, error) {
	var pattern string
	if search != "" {
		pattern = likeContains(search)
	}
	rows, err := r.pool.Query(ctx, `SELECT `+inventoryColumns+` FROM inventory
	WHERE $1 = '' OR name ILIKE $1 OR category ILIKE $1
	ORDER BY created_at, id`, pattern)
	if err != nil {
		return nil, errors.Wrap(err, "list inventory")
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByPos[admin.Item])
	if err != nil {
		return nil, errors.Wrap(err, "scan inventory")
	}
	return items, nil
}

func (r *InventoryRepository) Get(ctx context.Context, id string) (*admin.Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+inventoryColumns+` FROM inventory WHERE id = $1`, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get item %q", id)
	}
	it, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[admin.Item])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Wrapf(admin.ErrNotFound, "item %q", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "scan item %q", id)
	}
	return &it, nil
}

func (r *InventoryRepository) Create(ctx context.Context, it *admin.Item) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO inventory (`+inventoryColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6)`,
		it.ID, it.Name, it.Stock, it.Price, it.Category, it.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "create item %q", it.ID)
	}
	return nil
}

func (r *InventoryRepository) Update(ctx context.Context, it *admin.Item) error {
	tag, err := r.pool.Exec(ctx, `UPDATE inventory
	SET name = $2, stock = $3, price = $4, category = $5
	WHERE id = $1`,
		it.ID, it.Name, it.Stock, it.Price, it.Category,
	)
	if err != nil {
		return errors.Wrapf(err, "update item %q", it.ID)
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(admin.ErrNotFound, "item %q", it.ID)
	}
	return nil
}

func (r *InventoryRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM inventory WHERE id = $1`, id)
	if err != nil {
		return errors.Wrapf(err, "delete item %q", id)
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(admin.ErrNotFound, "item %q", id)
	}
	return nil
}

// Upsert inserts or replaces items in one batch and returns how many rows
// were written.
func (r *InventoryRepository) Upsert(ctx context.Context, items []admin.Item) (int64, error) {
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`INSERT INTO inventory (id, name, stock, price, category)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, stock = EXCLUDED.stock,
		    price = EXCLUDED.price, category = EXCLUDED.category`,
			it.ID, it.Name, it.Stock, it.Price, it.Category,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	var n int64
	for _, it := range items {
		tag, err := results.Exec()
		if err != nil {
			return n, errors.Wrapf(err, "upsert item %q", it.ID)
		}
		n += tag.RowsAffected()
	}
	return n, nil
}
