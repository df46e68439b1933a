package handler

import (
	"net/http"
	"time"

	"github.com/xenking/dkopi/internal/domain/admin"
	"github.com/xenking/dkopi/internal/domain/order"
	"github.com/xenking/dkopi/internal/domain/product"
	"github.com/xenking/dkopi/internal/session"
)

// featuredCount and relatedCount size the home page and product page lists.
const (
	featuredCount = 8
	relatedCount  = 4
)

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored in the catalog.
	ImageBaseURL string
	// SecureCookie marks the session cookie Secure.
	SecureCookie bool
	// SessionTTL is the lifetime of the session cookie.
	SessionTTL time.Duration
}

// Handler serves the storefront and admin JSON API.
type Handler struct {
	catalog  *product.Catalog
	sessions *session.Registry
	orders   *order.Service
	console  *admin.Service
	auth     *admin.Auth

	imageBaseURL string
	secureCookie bool
	sessionTTL   time.Duration
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg HandlerConfig,
	catalog *product.Catalog,
	sessions *session.Registry,
	orders *order.Service,
	console *admin.Service,
	auth *admin.Auth,
) *Handler {
	return &Handler{
		catalog:      catalog,
		sessions:     sessions,
		orders:       orders,
		console:      console,
		auth:         auth,
		imageBaseURL: cfg.ImageBaseURL,
		secureCookie: cfg.SecureCookie,
		sessionTTL:   cfg.SessionTTL,
	}
}

// Register mounts every API route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/featured", h.FeaturedProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)

	mux.HandleFunc("GET /api/cart", h.GetCart)
	mux.HandleFunc("POST /api/cart/items", h.AddCartItem)
	mux.HandleFunc("PUT /api/cart/items/{id}", h.UpdateCartItem)
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.RemoveCartItem)
	mux.HandleFunc("DELETE /api/cart", h.ClearCart)

	mux.HandleFunc("GET /api/checkout/quote", h.Quote)
	mux.HandleFunc("POST /api/checkout", h.Checkout)

	mux.HandleFunc("POST /api/admin/signin", h.SignIn)
	mux.HandleFunc("POST /api/admin/signup", h.SignUp)
	mux.HandleFunc("POST /api/admin/signout", h.SignOut)
	mux.HandleFunc("GET /api/admin/dashboard", h.requireAdmin(h.Dashboard))
	mux.HandleFunc("GET /api/admin/inventory", h.requireAdmin(h.ListInventory))
	mux.HandleFunc("POST /api/admin/inventory", h.requireAdmin(h.AddInventoryItem))
	mux.HandleFunc("PUT /api/admin/inventory/{id}", h.requireAdmin(h.UpdateInventoryItem))
	mux.HandleFunc("DELETE /api/admin/inventory/{id}", h.requireAdmin(h.DeleteInventoryItem))
	mux.HandleFunc("GET /api/admin/users", h.requireAdmin(h.ListUsers))
	mux.HandleFunc("PUT /api/admin/users/{id}/role", h.requireAdmin(h.UpdateUserRole))
	mux.HandleFunc("GET /api/admin/orders", h.requireAdmin(h.ListOrders))
	mux.HandleFunc("PUT /api/admin/orders/{id}/status", h.requireAdmin(h.UpdateOrderStatus))
	mux.HandleFunc("GET /api/admin/settings", h.requireAdmin(h.GetSettings))
	mux.HandleFunc("PUT /api/admin/settings", h.requireAdmin(h.UpdateSettings))
}
