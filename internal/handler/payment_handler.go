package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PaymentHandler handles payment-related HTTP requests.
type PaymentHandler struct {
	service service.PaymentService
	logger  zerolog.Logger
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(service service.PaymentService, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger.With().Str("handler", "payment").Logger(),
	}
}

// Prepare handles POST /api/payments/prepare requests.
func (h *PaymentHandler) Prepare(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middleware.MemberIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorized, "missing authentication", h.logger)
		return
	}

	var req model.PaymentPrepareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	resp, err := h.service.Prepare(r.Context(), memberID, &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Confirm handles POST /api/payments/confirm requests. The gateway
// redirects the client here after the widget flow, so the payment is
// located by order number rather than by ID.
func (h *PaymentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req model.PaymentConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if req.PaymentKey == "" || req.OrderNumber == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "paymentKey and orderId are required", h.logger)
		return
	}

	resp, err := h.service.Confirm(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Cancel handles POST /api/payments/{id}/cancel requests.
func (h *PaymentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middleware.MemberIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorized, "missing authentication", h.logger)
		return
	}

	paymentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "invalid payment ID format", h.logger)
		return
	}

	var req model.PaymentCancelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if req.CancelReason == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "cancelReason is required", h.logger)
		return
	}

	resp, err := h.service.Cancel(r.Context(), memberID, paymentID, req.CancelReason)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/payments/{id} requests.
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middleware.MemberIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorized, "missing authentication", h.logger)
		return
	}

	paymentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "invalid payment ID format", h.logger)
		return
	}

	resp, err := h.service.Get(r.Context(), memberID, paymentID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// List handles GET /api/payments requests.
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middleware.MemberIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorized, "missing authentication", h.logger)
		return
	}

	payments, err := h.service.ListMine(r.Context(), memberID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, payments)
}

// History handles GET /api/payments/{id}/history requests.
func (h *PaymentHandler) History(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middleware.MemberIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorized, "missing authentication", h.logger)
		return
	}

	paymentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "invalid payment ID format", h.logger)
		return
	}

	histories, err := h.service.History(r.Context(), memberID, paymentID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, histories)
}
