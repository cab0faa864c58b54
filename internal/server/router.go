package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"popkiosk/internal/order"
	"popkiosk/internal/pricing"
	"popkiosk/internal/product"
	"popkiosk/internal/settings"
)

// NewRouter mounts the public storefront/kiosk surface and the
// bearer-gated admin surface.
func NewRouter(
	orders *order.Module,
	products *product.Module,
	settingsModule *settings.Module,
	prices *pricing.Controller,
	adminToken string,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler)
		r.Get("/prices", prices.Get)
		r.Get("/settings", settingsModule.Controller.Get)
		r.Get("/products", products.Controller.List)

		r.Post("/orders", orders.Controller.CreateShop)
		r.Get("/orders", orders.Controller.LookupShop)
		r.Get("/orders/{id}", orders.Controller.GetShop)

		r.Post("/kiosk/orders", orders.Controller.CreateKiosk)
		r.Get("/kiosk/orders/{id}", orders.Controller.GetKiosk)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuth(adminToken, logger))

			r.Patch("/orders/{id}", orders.Controller.TransitionShop)
			r.Patch("/kiosk/orders/{id}", orders.Controller.TransitionKiosk)

			r.Get("/admin/orders", orders.Controller.AdminList)
			r.Patch("/admin/settings", settingsModule.Controller.Update)
			r.Get("/admin/products", products.Controller.List)
			r.Post("/admin/products/{id}/stock", products.Controller.AdjustStock)
			r.Get("/admin/reports/profit", products.Controller.ProfitReport)
		})
	})

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok","timestamp":"` + time.Now().UTC().Format(time.RFC3339) + `"}`))
}
