// internal/handlers/suppliers.go
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ammerola/consum-be/internal/core/domain"
	"github.com/ammerola/consum-be/internal/core/ports"
)

// SupplierHandler handles supplier endpoints
type SupplierHandler struct {
	repo   ports.SupplierRepository
	logger *slog.Logger
}

// NewSupplierHandler creates a new supplier handler
func NewSupplierHandler(repo ports.SupplierRepository, logger *slog.Logger) *SupplierHandler {
	return &SupplierHandler{
		repo:   repo,
		logger: logger.With(slog.String("handler", "suppliers")),
	}
}

// GetSupplier handles GET /suppliers/{id}
func (h *SupplierHandler) GetSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, r, h.logger, "get supplier", err)
		return
	}

	s, err := h.repo.GetSupplierByID(r.Context(), id)
	if err != nil {
		respondError(w, r, h.logger, "get supplier", err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, s)
}

// GetSupplierByName handles GET /suppliers/name/{name}.
// The mux has already percent-decoded the segment.
func (h *SupplierHandler) GetSupplierByName(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if strings.TrimSpace(name) == "" {
		respondError(w, r, h.logger, "get supplier by name",
			fmt.Errorf("%w: name is required", domain.ErrInvalidInput))
		return
	}

	s, err := h.repo.GetSupplierByName(r.Context(), name)
	if err != nil {
		respondError(w, r, h.logger, "get supplier by name", err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, s)
}

// CreateSupplier handles POST /suppliers
func (h *SupplierHandler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.CreateSupplier
	if err := decodeStrict(r, &req); err != nil {
		respondError(w, r, h.logger, "create supplier", err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, r, h.logger, "create supplier", err)
		return
	}

	s, err := h.repo.CreateSupplier(ctx, req)
	if err != nil {
		respondError(w, r, h.logger, "create supplier", err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, s)
}
