// internal/handlers/categories.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/ammerola/consum-be/internal/core/domain"
	"github.com/ammerola/consum-be/internal/core/ports"
)

// CategoryHandler handles category endpoints
type CategoryHandler struct {
	repo   ports.CategoryRepository
	logger *slog.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(repo ports.CategoryRepository, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{
		repo:   repo,
		logger: logger.With(slog.String("handler", "categories")),
	}
}

// ListCategories handles GET /categories
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.repo.GetCategories(r.Context())
	if err != nil {
		respondError(w, r, h.logger, "list categories", err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, cats)
}

// GetCategory handles GET /categories/{id}
func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, r, h.logger, "get category", err)
		return
	}

	cat, err := h.repo.GetCategory(r.Context(), id)
	if err != nil {
		respondError(w, r, h.logger, "get category", err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, cat)
}

// CreateCategory handles POST /categories
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.CreateCategory
	if err := decodeStrict(r, &req); err != nil {
		respondError(w, r, h.logger, "create category", err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, r, h.logger, "create category", err)
		return
	}

	cat, err := h.repo.CreateCategory(ctx, req)
	if err != nil {
		respondError(w, r, h.logger, "create category", err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, cat)
}

// DeleteCategory handles DELETE /categories/{id}
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseID(r)
	if err != nil {
		respondError(w, r, h.logger, "delete category", err)
		return
	}

	if err := h.repo.DeleteCategory(ctx, id); err != nil {
		respondError(w, r, h.logger, "delete category", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
