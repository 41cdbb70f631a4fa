package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/susatyo441/food-app/pkg/database"
	"github.com/susatyo441/food-app/pkg/model"
	"github.com/susatyo441/food-app/pkg/service"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("can't encode response: %v", err), http.StatusInternalServerError)
	}
}

// writeError maps the service error taxonomy to transport statuses.
func writeError(w http.ResponseWriter, err error) {
	var status int

	switch {
	case errOneOf(err, model.ErrPostNotFound, model.ErrReservationNotFound, model.ErrPointsNotFound, database.ErrNotFound):
		status = http.StatusNotFound

	case errOneOf(err, model.ErrNotRecipient, model.ErrOwnPost):
		status = http.StatusForbidden

	case errOneOf(err,
		model.ErrOngoingExists, model.ErrQuotaExceeded, model.ErrVariantExpired,
		model.ErrInsufficientStock, model.ErrAlreadyPickedUp, model.ErrPickupExpired,
		model.ErrNotOngoing, model.ErrInsufficientPoints):
		status = http.StatusConflict

	case errOneOf(err, model.ErrVariantNotInPost, service.ErrInvalidItems, service.ErrInvalidReview, service.ErrInvalidAmount):
		status = http.StatusBadRequest

	case errors.Is(err, service.ErrTooManyAttempts):
		status = http.StatusTooManyRequests

	default:
		status = http.StatusInternalServerError
	}

	http.Error(w, err.Error(), status)
}

func errOneOf(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func queryInt(r *http.Request, key string) (int, error) {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0, fmt.Errorf("can't parse %s: %w", key, err)
	}
	return v, nil
}
