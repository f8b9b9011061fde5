// Package httpapi exposes the HTTP API layer of the service.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fairyhunter13/vending-machine-service/internal/model"
	"github.com/fairyhunter13/vending-machine-service/internal/money"
)

// jsonError represents a JSON error payload.
type jsonError struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	Shortfall string `json:"shortfall,omitempty"`
}

// WriteJSONError writes a JSON error payload with the given status code.
func WriteJSONError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonError{Error: message, Details: details})
}

// writeDomainError maps a core failure kind onto an HTTP status and an
// enumerated error code.
func writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	switch {
	case errors.Is(err, model.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrExists):
		status, code = http.StatusConflict, "already_exists"
	case errors.Is(err, model.ErrOutOfStock):
		status, code = http.StatusConflict, "out_of_stock"
	case errors.Is(err, model.ErrUnacceptedDenomination):
		status, code = http.StatusUnprocessableEntity, "unaccepted_denomination"
	case errors.Is(err, model.ErrInsufficientPayment):
		status, code = http.StatusPaymentRequired, "insufficient_payment"
	case errors.Is(err, model.ErrChangeUnavailable):
		status, code = http.StatusConflict, "change_unavailable"
	case errors.Is(err, model.ErrInsufficientStock):
		status, code = http.StatusConflict, "insufficient_stock"
	case errors.Is(err, model.ErrInvalidInput), errors.Is(err, money.ErrBadAmount):
		status, code = http.StatusBadRequest, "validation_error"
	}
	payload := jsonError{Error: code, Details: err.Error()}
	var short *model.InsufficientPaymentError
	if errors.As(err, &short) {
		payload.Shortfall = short.Shortfall.String()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
