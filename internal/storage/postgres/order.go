package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/dkopi/internal/domain/order"
)

const orderColumns = `id, customer, email, phone, address, notes, payment_method, lines,
	item_count, subtotal, shipping, total, status, created_at`

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order. Lines are stored as a JSONB array.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO orders (`+orderColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		o.ID, o.Customer, o.Email, o.Phone, o.Address, o.Notes, string(o.PaymentMethod),
		string(encodeOrderLines(o.Lines)), o.ItemCount,
		o.Subtotal, o.Shipping, o.Total, string(o.Status), o.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "create order %q", o.ID)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "scan order %q", id)
	}
	return &o, nil
}

func (r *OrderRepository) List(ctx context.Context, f order.ListFilter) ([]order.Order, error) {
	var search string
	if f.Search != "" {
		search = likeContains(f.Search)
	}
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders
	WHERE ($1 = '' OR status = $1)
	  AND ($2 = '' OR id ILIKE $2 OR customer ILIKE $2)
	ORDER BY created_at DESC, id`,
		string(f.Status), search,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, errors.Wrap(err, "scan orders")
	}
	return orders, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return errors.Wrapf(err, "update order %q", id)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count orders")
	}
	return n, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o             order.Order
		paymentMethod string
		status        string
		lines         []byte
	)
	err := row.Scan(
		&o.ID, &o.Customer, &o.Email, &o.Phone, &o.Address, &o.Notes, &paymentMethod, &lines,
		&o.ItemCount, &o.Subtotal, &o.Shipping, &o.Total, &status, &o.CreatedAt,
	)
	if err != nil {
		return o, err
	}
	o.PaymentMethod = order.PaymentMethod(paymentMethod)
	o.Status = order.Status(status)
	if o.Lines, err = decodeOrderLines(lines); err != nil {
		return o, errors.Wrapf(err, "order %q lines", o.ID)
	}
	return o, nil
}

// encodeOrderLines writes [{productId, name, price, quantity}] with prices
// as decimal strings.
func encodeOrderLines(lines []order.Line) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, l := range lines {
		e.ObjStart()
		e.FieldStart("productId")
		e.Int64(l.ProductID)
		e.FieldStart("name")
		e.Str(l.Name)
		e.FieldStart("price")
		e.Str(l.Price.String())
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}

func decodeOrderLines(data []byte) ([]order.Line, error) {
	var lines []order.Line
	err := jx.DecodeBytes(data).Arr(func(d *jx.Decoder) error {
		var l order.Line
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "productId":
				l.ProductID, err = d.Int64()
			case "name":
				l.Name, err = d.Str()
			case "price":
				var s string
				if s, err = d.Str(); err == nil {
					l.Price, err = decimal.NewFromString(s)
				}
			case "quantity":
				l.Quantity, err = d.Int()
			default:
				err = d.Skip()
			}
			return err
		}); err != nil {
			return err
		}
		lines = append(lines, l)
		return nil
	})
	return lines, err
}
