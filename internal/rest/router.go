// Package rest exposes the services over JSON/HTTP using chi.
package rest

import (
	"encoding/json"
	"net/http"

	"marketplace-be/internal/auth"
	"marketplace-be/internal/logger"
	"marketplace-be/internal/metrics"
	"marketplace-be/internal/middleware"
	"marketplace-be/internal/order"
	"marketplace-be/internal/product"
	"marketplace-be/internal/user"
	"marketplace-be/internal/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

type Handler struct {
	users    user.Service
	products product.Service
	orders   order.Service
	tokens   *auth.TokenManager
	cookies  auth.CookieOptions
}

type Deps struct {
	Users    user.Service
	Products product.Service
	Orders   order.Service
	Tokens   *auth.TokenManager
	// Secure turns on Secure + SameSite=Strict cookies.
	Secure bool
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		users:    d.Users,
		products: d.Products,
		orders:   d.Orders,
		tokens:   d.Tokens,
		cookies: auth.CookieOptions{
			Secure:     d.Secure,
			AccessTTL:  d.Tokens.AccessTTL(),
			RefreshTTL: d.Tokens.RefreshTTL(),
		},
	}
}

// RouterOptions are the cross-cutting pieces; nil fields are skipped.
type RouterOptions struct {
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Limiter     *middleware.RateLimiter
	CORSOrigins []string
}

func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	authn := middleware.NewAuthenticator(h.tokens, h.users)
	staff := middleware.RequireRole(user.RoleAdmin, user.RoleSuperadmin, user.RoleManager)
	admins := middleware.RequireRole(user.RoleAdmin, user.RoleSuperadmin)
	superadmin := middleware.RequireRole(user.RoleSuperadmin)

	r := chi.NewRouter()
	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)
	r.Use(chimw.Recoverer)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}
	r.Use(middleware.CORS(opts.CORSOrigins))
	if opts.Limiter != nil {
		r.Use(opts.Limiter.Middleware)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "OK"})
	})
	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(opts.Gatherer))
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Post("/refresh", h.refresh)
		r.Post("/logout", h.logout)

		r.Group(func(r chi.Router) {
			r.Use(authn.Authenticate)
			r.Get("/me", h.me)
			r.With(admins).Get("/admin/users", h.listUsers)
			r.With(superadmin).Post("/admin/assign-role", h.assignRole)
		})
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Get("/{id}", h.getProduct)

		r.Group(func(r chi.Router) {
			r.Use(authn.Authenticate)
			r.With(staff).Post("/", h.createProduct)
			r.With(staff).Patch("/{id}", h.updateProduct)
			r.With(admins).Delete("/{id}", h.deleteProduct)
		})
	})

	r.Route("/orders", func(r chi.Router) {
		r.Use(authn.Authenticate)

		r.Post("/", h.createOrder)
		r.Get("/", h.listOrders)
		r.Get("/{id}", h.getOrder)
		r.Patch("/{id}/status", h.updateOrderStatus)
		r.Delete("/{id}", h.deleteOrder)

		r.Post("/{id}/items", h.addOrderItem)
		r.Delete("/{id}/items", h.clearOrderItems)
		r.Patch("/{id}/items/{pid}", h.updateOrderItem)
		r.Delete("/{id}/items/{pid}", h.removeOrderItem)
	})

	return r
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		badRequest(w, "invalid request body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, ok := utils.ParseID(chi.URLParam(r, name))
	if !ok {
		badRequest(w, "invalid "+name)
	}
	return id, ok
}
