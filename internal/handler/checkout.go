package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/dkopi/internal/domain/order"
)

// Quote handles GET /api/checkout/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	q := h.orders.Quote(s.Store)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("subtotal")
		e.Int64(q.Subtotal)
		e.FieldStart("shipping")
		e.Int64(q.Shipping)
		e.FieldStart("total")
		e.Int64(q.Total)
		e.FieldStart("count")
		e.Int(q.Count)
		e.FieldStart("freeShippingThreshold")
		e.Int64(order.FreeShippingThreshold)
		e.FieldStart("provinces")
		encodeStrings(e, order.Provinces)
		e.ObjEnd()
	})
}

// Checkout handles POST /api/checkout. On success the cart is cleared and the
// response carries the order and the emptied cart.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	form, err := decodeForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s := h.session(w, r)
	o, err := h.orders.PlaceOrder(r.Context(), s.Store, form)
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}

	snap := s.Store.Snapshot()
	notes := s.Drain()
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("order")
		encodeOrder(e, o)
		e.FieldStart("cart")
		h.encodeSnapshot(e, snap)
		e.FieldStart("notifications")
		encodeNotifications(e, notes)
		e.ObjEnd()
	})
}

func (h *Handler) writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *order.ValidationError
	switch {
	case errors.As(err, &verr):
		writeFieldError(w, verr.Field, verr.Reason)
	case errors.Is(err, order.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "cart is empty")
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, order.ErrInvalidStatus):
		writeFieldError(w, "status", err.Error())
	default:
		writeInternal(w, r, err)
	}
}

func decodeForm(r *http.Request) (order.Form, error) {
	var f order.Form
	fields := map[string]*string{
		"firstName":  &f.FirstName,
		"lastName":   &f.LastName,
		"email":      &f.Email,
		"phone":      &f.Phone,
		"address":    &f.Address,
		"city":       &f.City,
		"postalCode": &f.PostalCode,
		"province":   &f.Province,
		"notes":      &f.Notes,
	}
	err := readObject(r, func(d *jx.Decoder, key string) error {
		if key == "paymentMethod" {
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, key)
			}
			f.PaymentMethod = order.PaymentMethod(v)
			return nil
		}
		dst, ok := fields[key]
		if !ok {
			return d.Skip()
		}
		v, err := d.Str()
		if err != nil {
			return errors.Wrap(err, key)
		}
		*dst = v
		return nil
	})
	return f, err
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("customer")
	e.Str(o.Customer)
	e.FieldStart("email")
	e.Str(o.Email)
	e.FieldStart("phone")
	e.Str(o.Phone)
	e.FieldStart("address")
	e.Str(o.Address)
	e.FieldStart("notes")
	e.Str(o.Notes)
	e.FieldStart("paymentMethod")
	e.Str(string(o.PaymentMethod))
	e.FieldStart("items")
	e.ArrStart()
	for _, l := range o.Lines {
		e.ObjStart()
		e.FieldStart("productId")
		e.Int64(l.ProductID)
		e.FieldStart("name")
		e.Str(l.Name)
		e.FieldStart("price")
		encodeDecimal(e, l.Price)
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("itemCount")
	e.Int(o.ItemCount)
	e.FieldStart("subtotal")
	encodeDecimal(e, o.Subtotal)
	e.FieldStart("shipping")
	encodeDecimal(e, o.Shipping)
	e.FieldStart("total")
	encodeDecimal(e, o.Total)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("createdAt")
	e.Str(o.CreatedAt.UTC().Format(time.RFC3339))
	e.ObjEnd()
}

func encodeDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}
