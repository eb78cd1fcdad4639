// internal/handlers/routes.go
package handlers

import (
	"net/http"

	"github.com/ammerola/consum-be/internal/handlers/middleware"
)

// Routes groups the handlers served by the API
type Routes struct {
	Orders     *OrderHandler
	Categories *CategoryHandler
	Suppliers  *SupplierHandler
	Health     *HealthHandler

	// Auth guards write operations and single-order reads; nil leaves them open
	Auth middleware.Middleware
	// Metrics serves /metrics when set
	Metrics http.Handler
}

// Register installs every route on mux using method-specific patterns
func (rt Routes) Register(mux *http.ServeMux) {
	protect := func(h http.HandlerFunc) http.Handler {
		if rt.Auth == nil {
			return h
		}
		return rt.Auth(h)
	}

	if rt.Health != nil {
		mux.HandleFunc("GET /health", rt.Health.Health)
		mux.HandleFunc("GET /ready", rt.Health.Readiness)
	}

	mux.HandleFunc("GET /orders", rt.Orders.ListOrders)
	mux.Handle("GET /orders/{id}", protect(rt.Orders.GetOrder))
	mux.Handle("POST /orders", protect(rt.Orders.CreateOrder))

	mux.HandleFunc("GET /categories", rt.Categories.ListCategories)
	mux.HandleFunc("GET /categories/{id}", rt.Categories.GetCategory)
	mux.Handle("POST /categories", protect(rt.Categories.CreateCategory))
	mux.Handle("DELETE /categories/{id}", protect(rt.Categories.DeleteCategory))

	mux.HandleFunc("GET /suppliers/{id}", rt.Suppliers.GetSupplier)
	mux.HandleFunc("GET /suppliers/name/{name}", rt.Suppliers.GetSupplierByName)
	mux.Handle("POST /suppliers", protect(rt.Suppliers.CreateSupplier))

	if rt.Metrics != nil {
		mux.Handle("GET /metrics", rt.Metrics)
	}
}
