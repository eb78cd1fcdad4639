// internal/handlers/respond.go
package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/ammerola/consum-be/internal/core/domain"
)

const maxBodyBytes = 1 << 20

// Problem is an RFC 7807 error body
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func respondProblem(w http.ResponseWriter, logger *slog.Logger, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)

	p := Problem{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
	if err := json.NewEncoder(w).Encode(p); err != nil {
		logger.Error("failed to encode problem response",
			slog.String("error", err.Error()))
	}
}

// respondError maps repository and validation errors onto HTTP statuses
func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, err error) {
	switch {
	case domain.IsNotFound(err):
		respondProblem(w, logger, http.StatusNotFound, "Record not found")
	case errors.Is(err, domain.ErrInvalidInput):
		respondProblem(w, logger, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrPoolExhausted):
		w.Header().Set("Retry-After", "1")
		respondProblem(w, logger, http.StatusServiceUnavailable, "Database is busy")
	case r.Context().Err() != nil && errors.Is(err, r.Context().Err()):
		logger.WarnContext(r.Context(), op+" abandoned",
			slog.String("error", err.Error()))
		respondProblem(w, logger, http.StatusServiceUnavailable, "Request cancelled")
	default:
		logger.ErrorContext(r.Context(), op+" failed",
			slog.String("error", err.Error()))
		respondProblem(w, logger, http.StatusInternalServerError, "Internal error")
	}
}

// decodeStrict reads a single JSON object, rejecting unknown fields
func decodeStrict(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed body: %v", domain.ErrInvalidInput, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: body must contain a single object", domain.ErrInvalidInput)
	}
	return nil
}

func parseID(r *http.Request) (int32, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: id %q is not an integer", domain.ErrInvalidInput, raw)
	}
	return int32(id), nil
}
