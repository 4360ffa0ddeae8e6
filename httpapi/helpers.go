package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"propertyflow/gateway"
	"propertyflow/property"
	"propertyflow/purchase"
	"propertyflow/user"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// readJSON decodes a JSON request body with a size limit.
func readJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return v, false
	}
	return v, true
}

// writeDomainError maps workflow errors onto HTTP statuses. Gateway and
// verification failures get retryable statuses distinguishable from plain
// client errors.
func writeDomainError(w http.ResponseWriter, err error) {
	var gwErr *gateway.Error
	switch {
	case errors.Is(err, purchase.ErrNotFound),
		errors.Is(err, property.ErrNotFound),
		errors.Is(err, user.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, purchase.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, purchase.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, purchase.ErrVerificationFailed):
		writeError(w, http.StatusUnprocessableEntity, "payment verification failed")
	case errors.As(err, &gwErr):
		writeError(w, http.StatusBadGateway, "payment gateway unavailable")
	default:
		slog.Error("unhandled domain error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
