package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/dkopi/internal/domain/cart"
	"github.com/xenking/dkopi/internal/domain/product"
	"github.com/xenking/dkopi/internal/session"
)

// session resolves the caller's session from the cookie, issuing a new one
// when the cookie is missing or malformed.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *session.Session {
	id := ""
	if c, err := r.Cookie(session.CookieName); err == nil && session.ValidID(c.Value) {
		id = c.Value
	}
	if id == "" {
		id = session.NewID()
		http.SetCookie(w, &http.Cookie{
			Name:     session.CookieName,
			Value:    id,
			Path:     "/",
			MaxAge:   int(h.sessionTTL.Seconds()),
			HttpOnly: true,
			Secure:   h.secureCookie,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return h.sessions.Get(r.Context(), id)
}

// GetCart handles GET /api/cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	h.writeCart(w, http.StatusOK, s)
}

var quantityLimit = "must not exceed " + strconv.Itoa(cart.MaxQuantity)

// AddCartItem handles POST /api/cart/items with {"productId": 1, "quantity": 2}.
// Quantity defaults to one.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var (
		id       int64
		quantity = 1
	)
	if err := readObject(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			id, err = d.Int64()
		case "quantity":
			quantity, err = d.Int()
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	}); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if id <= 0 {
		writeFieldError(w, "productId", "required")
		return
	}
	if quantity > cart.MaxQuantity {
		writeFieldError(w, "quantity", quantityLimit)
		return
	}

	p, err := h.catalog.Get(id)
	if errors.Is(err, product.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		writeInternal(w, r, err)
		return
	}

	s := h.session(w, r)
	s.Store.AddItem(r.Context(), p, quantity)
	h.writeCart(w, http.StatusOK, s)
}

// UpdateCartItem handles PUT /api/cart/items/{id} with {"quantity": 3}.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathProductID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	quantity, set := 0, false
	if err := readObject(r, func(d *jx.Decoder, key string) error {
		if key != "quantity" {
			return d.Skip()
		}
		v, err := d.Int()
		if err != nil {
			return errors.Wrap(err, key)
		}
		quantity, set = v, true
		return nil
	}); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !set {
		writeFieldError(w, "quantity", "required")
		return
	}
	if quantity > cart.MaxQuantity {
		writeFieldError(w, "quantity", quantityLimit)
		return
	}

	s := h.session(w, r)
	s.Store.UpdateQuantity(r.Context(), id, quantity)
	h.writeCart(w, http.StatusOK, s)
}

// RemoveCartItem handles DELETE /api/cart/items/{id}.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathProductID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s := h.session(w, r)
	s.Store.RemoveItem(r.Context(), id)
	h.writeCart(w, http.StatusOK, s)
}

// ClearCart handles DELETE /api/cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	s.Store.Clear(r.Context())
	h.writeCart(w, http.StatusOK, s)
}

func (h *Handler) writeCart(w http.ResponseWriter, status int, s *session.Session) {
	snap := s.Store.Snapshot()
	notes := s.Drain()
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("cart")
		h.encodeSnapshot(e, snap)
		e.FieldStart("notifications")
		encodeNotifications(e, notes)
		e.ObjEnd()
	})
}

func (h *Handler) encodeSnapshot(e *jx.Encoder, snap cart.Snapshot) {
	e.ObjStart()
	e.FieldStart("lines")
	e.ArrStart()
	for _, l := range snap.Lines {
		e.ObjStart()
		e.FieldStart("product")
		h.encodeProduct(e, l.Product)
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		e.FieldStart("subtotal")
		e.Int64(l.Price * int64(l.Quantity))
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("total")
	e.Int64(snap.Total)
	e.FieldStart("count")
	e.Int(snap.Count)
	e.ObjEnd()
}

func encodeNotifications(e *jx.Encoder, notes []cart.Notification) {
	e.ArrStart()
	for _, n := range notes {
		e.ObjStart()
		e.FieldStart("kind")
		e.Str(string(n.Kind))
		e.FieldStart("title")
		e.Str(n.Title)
		e.FieldStart("description")
		e.Str(n.Description)
		e.ObjEnd()
	}
	e.ArrEnd()
}
