package handler

import (
	"net/http"
	"strconv"
	"time"

	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// PointHandler handles loyalty point HTTP requests.
type PointHandler struct {
	service service.PointService
	logger  zerolog.Logger
}

// NewPointHandler creates a new point handler.
func NewPointHandler(service service.PointService, logger zerolog.Logger) *PointHandler {
	return &PointHandler{
		service: service,
		logger:  logger.With().Str("handler", "point").Logger(),
	}
}

// Balance handles GET /api/points/balance requests.
func (h *PointHandler) Balance(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middleware.MemberIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorized, "missing authentication", h.logger)
		return
	}

	balance, err := h.service.GetBalance(r.Context(), memberID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, balance)
}

// History handles GET /api/points/history requests. Optional from/to query
// parameters (RFC 3339) narrow the result to a period.
func (h *PointHandler) History(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middleware.MemberIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorized, "missing authentication", h.logger)
		return
	}

	page := queryInt(r, "page", 1)
	size := queryInt(r, "size", 20)

	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")

	var (
		histories []model.PointHistory
		err       error
	)
	if fromStr != "" || toStr != "" {
		var from, to time.Time
		if from, err = time.Parse(time.RFC3339, fromStr); err != nil {
			writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "invalid from timestamp", h.logger)
			return
		}
		if to, err = time.Parse(time.RFC3339, toStr); err != nil {
			writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "invalid to timestamp", h.logger)
			return
		}
		histories, err = h.service.HistoryByPeriod(r.Context(), memberID, from, to, page, size)
	} else {
		histories, err = h.service.History(r.Context(), memberID, page, size)
	}
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, histories)
}

// Adjust handles POST /api/points/adjust requests (admin only).
func (h *PointHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req model.PointAdjustRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	balance, err := h.service.Adjust(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, balance)
}

// queryInt reads an integer query parameter with a fallback.
func queryInt(r *http.Request, key string, fallback int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
