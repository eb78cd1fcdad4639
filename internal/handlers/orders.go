// internal/handlers/orders.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/ammerola/consum-be/internal/core/domain"
	"github.com/ammerola/consum-be/internal/core/ports"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	repo   ports.OrderRepository
	logger *slog.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(repo ports.OrderRepository, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		repo:   repo,
		logger: logger.With(slog.String("handler", "orders")),
	}
}

// ListOrders handles GET /orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.repo.GetOrders(r.Context())
	if err != nil {
		respondError(w, r, h.logger, "list orders", err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, orders)
}

// GetOrder handles GET /orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, r, h.logger, "get order", err)
		return
	}

	order, err := h.repo.GetOrder(r.Context(), id)
	if err != nil {
		respondError(w, r, h.logger, "get order", err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, order)
}

// CreateOrder handles POST /orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.CreateOrder
	if err := decodeStrict(r, &req); err != nil {
		respondError(w, r, h.logger, "create order", err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, r, h.logger, "create order", err)
		return
	}

	order, err := h.repo.CreateOrder(ctx, req)
	if err != nil {
		respondError(w, r, h.logger, "create order", err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, order)
}
