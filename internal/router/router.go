package router

import (
	"net/http"

	"storefront/internal/handler"
	"storefront/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers bundles the HTTP handlers the router mounts.
type Handlers struct {
	Product  *handler.ProductHandler
	Order    *handler.OrderHandler
	Payment  *handler.PaymentHandler
	Point    *handler.PointHandler
	Coupon   *handler.CouponHandler
	Discount *handler.DiscountHandler
}

// New creates the HTTP router with all routes and middleware configured.
// Everything under /api requires a bearer token; admin routes additionally
// require the ADMIN role.
func New(h Handlers, jwtSecret string, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.JWTAuth(jwtSecret, logger))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Product.List)
			r.Get("/{id}", h.Product.Get)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.Order.Create)
			r.Get("/", h.Order.List)
			r.Get("/{orderNumber}", h.Order.Get)
			r.Post("/{orderNumber}/cancel", h.Order.Cancel)
			r.Post("/{orderNumber}/confirm", h.Order.Confirm)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/prepare", h.Payment.Prepare)
			r.Post("/confirm", h.Payment.Confirm)
			r.Get("/", h.Payment.List)
			r.Get("/{id}", h.Payment.Get)
			r.Get("/{id}/history", h.Payment.History)
			r.Post("/{id}/cancel", h.Payment.Cancel)
		})

		r.Route("/points", func(r chi.Router) {
			r.Get("/balance", h.Point.Balance)
			r.Get("/history", h.Point.History)
			r.With(middleware.RequireRole(middleware.RoleAdmin, logger)).
				Post("/adjust", h.Point.Adjust)
		})

		r.Route("/coupons", func(r chi.Router) {
			r.Get("/", h.Coupon.List)
			r.Post("/apply", h.Coupon.Apply)
			r.With(middleware.RequireRole(middleware.RoleAdmin, logger)).
				Post("/", h.Coupon.Create)
		})

		r.Route("/discounts", func(r chi.Router) {
			r.Get("/", h.Discount.List)
			r.With(middleware.RequireRole(middleware.RoleAdmin, logger)).
				Post("/", h.Discount.Create)
			r.With(middleware.RequireRole(middleware.RoleAdmin, logger)).
				Delete("/{id}", h.Discount.Deactivate)
		})
	})

	return r
}
