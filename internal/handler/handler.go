package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Error().Str("code", code).Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeServiceError maps a service error to its HTTP status. Domain errors
// carry their code; anything that reads like input validation becomes a
// 400, the rest a 500.
func writeServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		writeError(w, statusForCode(domainErr.Code), domainErr.Code, domainErr.Message, logger)
		return
	}

	msg := err.Error()
	if strings.Contains(msg, "required") ||
		strings.Contains(msg, "must") ||
		strings.Contains(msg, "is nil") {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, msg, logger)
		return
	}

	writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", logger)
}

// statusForCode maps a domain error code to an HTTP status.
func statusForCode(code string) int {
	switch code {
	case model.ErrCodeMemberNotFound,
		model.ErrCodeProductNotFound,
		model.ErrCodeOrderNotFound,
		model.ErrCodePaymentNotFound,
		model.ErrCodeDiscountNotFound,
		model.ErrCodeAddressNotFound,
		model.ErrCodePayMethodNotFound:
		return http.StatusNotFound
	case model.ErrCodeUnauthorized,
		model.ErrCodeForbidden,
		model.ErrCodeWrongOwner:
		return http.StatusForbidden
	case model.ErrCodeInvalidState,
		model.ErrCodeInsufficientStock,
		model.ErrCodeInsufficientPoints,
		model.ErrCodeAmountMismatch,
		model.ErrCodeDuplicateOrder:
		return http.StatusConflict
	case model.ErrCodeInvalidCoupon,
		model.ErrCodeCouponExpired,
		model.ErrCodeInvalidQuantity,
		model.ErrCodeInvalidAmount,
		model.ErrCodeInvalidJSON,
		model.ErrCodeMissingField:
		return http.StatusBadRequest
	case model.ErrCodeGatewayError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes the request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "invalid request body")
	}
	return nil
}
