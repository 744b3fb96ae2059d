package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dinepos/api/internal/model"
	"github.com/dinepos/api/internal/pricing"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the engine's failure kinds onto HTTP statuses.
// InvalidOrder is checked before NotFound because a creation request
// referencing a missing table carries both kinds.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrInvalidOrder),
		errors.Is(err, model.ErrUnknownMenuItem),
		errors.Is(err, pricing.ErrItemUnavailable):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, model.ErrInvalidState),
		errors.Is(err, model.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
