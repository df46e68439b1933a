package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/dkopi/internal/domain/admin"
	"github.com/xenking/dkopi/internal/domain/order"
)

type accountKey struct{}

// accountFrom returns the console account attached by requireAdmin.
func accountFrom(ctx context.Context) (admin.Account, bool) {
	acc, ok := ctx.Value(accountKey{}).(admin.Account)
	return acc, ok
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// requireAdmin rejects requests without a live token of an admin role.
func (h *Handler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		acc, err := h.auth.Verify(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if !acc.IsAdmin() {
			writeError(w, http.StatusForbidden, admin.ErrForbidden.Error())
			return
		}
		ctx := context.WithValue(r.Context(), accountKey{}, acc)
		ctx = zctx.With(ctx, zap.String("admin", acc.Email))
		next(w, r.WithContext(ctx))
	}
}

func (h *Handler) writeAdminError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *admin.ValidationError
	switch {
	case errors.As(err, &verr):
		writeFieldError(w, verr.Field, verr.Reason)
	case errors.Is(err, admin.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, admin.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, admin.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, admin.ErrAccountExists):
		writeError(w, http.StatusConflict, "account already exists")
	default:
		h.writeOrderError(w, r, err)
	}
}

// SignIn handles POST /api/admin/signin.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var email, password string
	if err := readObject(r, stringFields(map[string]*string{
		"email":    &email,
		"password": &password,
	})); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	token, acc, err := h.auth.SignIn(r.Context(), email, password)
	if err != nil {
		h.writeAdminError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("token")
		e.Str(token)
		e.FieldStart("account")
		encodeAccount(e, acc)
		e.ObjEnd()
	})
}

// SignUp handles POST /api/admin/signup.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var email, password, name, role string
	if err := readObject(r, stringFields(map[string]*string{
		"email":    &email,
		"password": &password,
		"name":     &name,
		"role":     &role,
	})); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if role == "" {
		role = string(admin.RoleCustomer)
	}
	acc, err := h.auth.SignUp(r.Context(), email, password, name, role)
	if err != nil {
		h.writeAdminError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("account")
		encodeAccount(e, acc)
		e.ObjEnd()
	})
}

// SignOut handles POST /api/admin/signout.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	if err := h.auth.SignOut(r.Context(), token); err != nil {
		h.writeAdminError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Dashboard handles GET /api/admin/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.console.Dashboard(r.Context())
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("totalProducts")
		e.Int(d.TotalProducts)
		e.FieldStart("totalOrders")
		e.Int(d.TotalOrders)
		e.FieldStart("totalUsers")
		e.Int(d.TotalUsers)
		e.FieldStart("monthRevenue")
		encodeDecimal(e, d.MonthRevenue)
		e.FieldStart("lowStock")
		encodeItems(e, d.LowStock)
		e.FieldStart("sales")
		e.ArrStart()
		for _, s := range d.Sales {
			e.ObjStart()
			e.FieldStart("month")
			e.Str(s.Month)
			e.FieldStart("sales")
			e.Int(s.Sales)
			e.ObjEnd()
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

// ListInventory handles GET /api/admin/inventory?q=.
func (h *Handler) ListInventory(w http.ResponseWriter, r *http.Request) {
	items, err := h.console.ListInventory(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("items")
		encodeItems(e, items)
		e.ObjEnd()
	})
}

// AddInventoryItem handles POST /api/admin/inventory.
func (h *Handler) AddInventoryItem(w http.ResponseWriter, r *http.Request) {
	item, err := decodeItem(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := h.console.AddItem(r.Context(), item)
	if err != nil {
		h.writeAdminError(w, r, err)
		return
	}
	writeItem(w, http.StatusCreated, created)
}

// UpdateInventoryItem handles PUT /api/admin/inventory/{id}.
func (h *Handler) UpdateInventoryItem(w http.ResponseWriter, r *http.Request) {
	item, err := decodeItem(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.console.UpdateItem(r.Context(), r.PathValue("id"), item)
	if err != nil {
		h.writeAdminError(w, r, err)
		return
	}
	writeItem(w, http.StatusOK, updated)
}

// DeleteInventoryItem handles DELETE /api/admin/inventory/{id}.
func (h *Handler) DeleteInventoryItem(w http.ResponseWriter, r *http.Request) {
	if err := h.console.DeleteItem(r.Context(), r.PathValue("id")); err != nil {
		h.writeAdminError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListUsers handles GET /api/admin/users?q=&role=.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := admin.UserFilter{Search: strings.TrimSpace(q.Get("q"))}
	if v := q.Get("role"); v != "" && v != "all" {
		role, err := admin.ParseUserRole(v)
		if err != nil {
			h.writeAdminError(w, r, err)
			return
		}
		f.Role = role
	}
	users, err := h.console.ListUsers(r.Context(), f)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("users")
		e.ArrStart()
		for _, u := range users {
			encodeUser(e, u)
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

// UpdateUserRole handles PUT /api/admin/users/{id}/role with {"role": "admin"}.
func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var role string
	if err := readObject(r, stringFields(map[string]*string{"role": &role})); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	u, err := h.console.UpdateUserRole(r.Context(), r.PathValue("id"), role)
	if err != nil {
		h.writeAdminError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeUser(e, *u)
	})
}

// ListOrders handles GET /api/admin/orders?q=&status=.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := order.ListFilter{Search: strings.TrimSpace(q.Get("q"))}
	if v := q.Get("status"); v != "" && v != "all" {
		st, err := order.ParseStatus(v)
		if err != nil {
			h.writeAdminError(w, r, err)
			return
		}
		f.Status = st
	}
	orders, err := h.console.ListOrders(r.Context(), f)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("orders")
		e.ArrStart()
		for i := range orders {
			encodeOrder(e, &orders[i])
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

// UpdateOrderStatus handles PUT /api/admin/orders/{id}/status with
// {"status": "shipped"}.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var status string
	if err := readObject(r, stringFields(map[string]*string{"status": &status})); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	o, err := h.console.UpdateOrderStatus(r.Context(), r.PathValue("id"), status)
	if err != nil {
		h.writeAdminError(w, r, err)
		return
	}
	if acc, ok := accountFrom(r.Context()); ok {
		zctx.From(r.Context()).Info("Order status changed",
			zap.String("order_id", o.ID),
			zap.String("status", string(o.Status)),
			zap.String("by", acc.ID),
		)
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}

// GetSettings handles GET /api/admin/settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := h.console.Settings(r.Context())
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeSettings(w, st)
}

// UpdateSettings handles PUT /api/admin/settings. Omitted fields keep their
// current values.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	st, err := h.console.Settings(r.Context())
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	strs := map[string]*string{
		"storeName":  &st.StoreName,
		"storeEmail": &st.StoreEmail,
		"currency":   &st.Currency,
		"timezone":   &st.Timezone,
		"theme":      &st.Theme,
	}
	bools := map[string]*bool{
		"enableNotifications": &st.EnableNotifications,
		"inventoryAlerts":     &st.InventoryAlerts,
	}
	if err := readObject(r, func(d *jx.Decoder, key string) error {
		if dst, ok := bools[key]; ok {
			v, err := d.Bool()
			if err != nil {
				return errors.Wrap(err, key)
			}
			*dst = v
			return nil
		}
		return stringFields(strs)(d, key)
	}); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := h.console.UpdateSettings(r.Context(), st)
	if err != nil {
		h.writeAdminError(w, r, err)
		return
	}
	writeSettings(w, saved)
}

// stringFields decodes the listed string fields and skips the rest.
func stringFields(fields map[string]*string) func(d *jx.Decoder, key string) error {
	return func(d *jx.Decoder, key string) error {
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
	}
}

func decodeItem(r *http.Request) (admin.Item, error) {
	var item admin.Item
	err := readObject(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			item.Name, err = d.Str()
		case "category":
			item.Category, err = d.Str()
		case "stock":
			item.Stock, err = d.Int()
		case "price":
			item.Price, err = decodeDecimal(d)
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	return item, err
}

// decodeDecimal accepts a JSON number or a numeric string.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	var raw string
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		raw = s
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		raw = n.String()
	default:
		return decimal.Zero, errors.New("expected number")
	}
	return decimal.NewFromString(raw)
}

func writeItem(w http.ResponseWriter, status int, item *admin.Item) {
	writeJSON(w, status, func(e *jx.Encoder) {
		encodeItem(e, *item)
	})
}

func writeSettings(w http.ResponseWriter, st admin.Settings) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("storeName")
		e.Str(st.StoreName)
		e.FieldStart("storeEmail")
		e.Str(st.StoreEmail)
		e.FieldStart("currency")
		e.Str(st.Currency)
		e.FieldStart("timezone")
		e.Str(st.Timezone)
		e.FieldStart("enableNotifications")
		e.Bool(st.EnableNotifications)
		e.FieldStart("inventoryAlerts")
		e.Bool(st.InventoryAlerts)
		e.FieldStart("theme")
		e.Str(st.Theme)
		e.ObjEnd()
	})
}

func encodeAccount(e *jx.Encoder, acc admin.Account) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(acc.ID)
	e.FieldStart("email")
	e.Str(acc.Email)
	e.FieldStart("name")
	e.Str(acc.Name)
	e.FieldStart("role")
	e.Str(string(acc.Role))
	e.ObjEnd()
}

func encodeItems(e *jx.Encoder, items []admin.Item) {
	e.ArrStart()
	for _, it := range items {
		encodeItem(e, it)
	}
	e.ArrEnd()
}

func encodeItem(e *jx.Encoder, it admin.Item) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(it.ID)
	e.FieldStart("name")
	e.Str(it.Name)
	e.FieldStart("stock")
	e.Int(it.Stock)
	e.FieldStart("price")
	encodeDecimal(e, it.Price)
	e.FieldStart("category")
	e.Str(it.Category)
	e.FieldStart("lowStock")
	e.Bool(it.LowStock())
	e.FieldStart("createdAt")
	e.Str(it.CreatedAt.UTC().Format(time.RFC3339))
	e.ObjEnd()
}

func encodeUser(e *jx.Encoder, u admin.User) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(u.ID)
	e.FieldStart("name")
	e.Str(u.Name)
	e.FieldStart("email")
	e.Str(u.Email)
	e.FieldStart("role")
	e.Str(string(u.Role))
	e.FieldStart("orders")
	e.Int(u.Orders)
	e.FieldStart("active")
	e.Bool(u.Active)
	e.ObjEnd()
}
