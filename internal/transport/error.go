package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"mercadinho-be/internal/delivery"
	"mercadinho-be/internal/logger"
	"mercadinho-be/internal/oracle"
	"mercadinho-be/internal/policy"
	"mercadinho-be/internal/session"
	"mercadinho-be/internal/weight"

	"go.uber.org/zap"
)

// errorBody is the wire shape for every failure. Code is stable; the
// conversational collaborator branches on it, never on the message text.
type errorBody struct {
	Error      string              `json:"error"`
	Code       string              `json:"code"`
	StaleLines []session.StaleLine `json:"stale_lines,omitempty"`
}

func codeFor(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrUnknownProduct), errors.Is(err, oracle.ErrQuoteNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, oracle.ErrOracleUnavailable):
		return http.StatusServiceUnavailable, "ORACLE_UNAVAILABLE"
	case errors.Is(err, session.ErrStalePriceOrStock):
		return http.StatusConflict, "STALE_PRICE_OR_STOCK"
	case errors.Is(err, session.ErrInsufficientStock):
		return http.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, session.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_STATE"
	case errors.Is(err, policy.ErrPixNotAllowedPrepaid):
		return http.StatusUnprocessableEntity, "PIX_NOT_ALLOWED_PREPAID"
	case errors.Is(err, policy.ErrMethodNotAllowed):
		return http.StatusUnprocessableEntity, "METHOD_NOT_ALLOWED"
	case errors.Is(err, delivery.ErrUnservedZone):
		return http.StatusUnprocessableEntity, "UNSERVED_ZONE"
	case errors.Is(err, weight.ErrNoWeightData):
		return http.StatusUnprocessableEntity, "NO_WEIGHT_DATA"
	case errors.Is(err, session.ErrEmptyCart):
		return http.StatusUnprocessableEntity, "EMPTY_CART"
	case errors.Is(err, session.ErrInvalidQuantity):
		return http.StatusBadRequest, "INVALID_QUANTITY"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status, code := codeFor(err)

	body := errorBody{Error: err.Error(), Code: code}
	var stale *session.StaleError
	if errors.As(err, &stale) {
		body.StaleLines = stale.Lines
	}
	if status == http.StatusInternalServerError {
		logger.FromCtx(r.Context()).Error("unhandled transport error", zap.Error(err))
		body.Error = "internal error"
	}

	respond(w, status, body)
}

func respond(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
