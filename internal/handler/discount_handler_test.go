package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockDiscountService is a mock implementation of service.DiscountService.
type MockDiscountService struct {
	mock.Mock
}

func (m *MockDiscountService) Create(ctx context.Context, req *model.DiscountRequest) (*model.Discount, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Discount), args.Error(1)
}

func (m *MockDiscountService) ListActive(ctx context.Context) ([]model.Discount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Discount), args.Error(1)
}

func (m *MockDiscountService) Deactivate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func discountTestRouter(h *DiscountHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/discounts", h.Create)
	r.Get("/api/discounts", h.List)
	r.Delete("/api/discounts/{id}", h.Deactivate)
	return r
}

func TestDiscountHandler_Create(t *testing.T) {
	logger := zerolog.Nop()

	created := &model.Discount{
		ID:     uuid.New(),
		Name:   "September promo",
		Type:   model.DiscountTypePercentage,
		Value:  decimal.NewFromInt(15),
		Active: true,
	}

	mockService := new(MockDiscountService)
	mockService.On("Create", mock.Anything, mock.AnythingOfType("*model.DiscountRequest")).
		Return(created, nil)

	h := NewDiscountHandler(mockService, logger)

	body := &model.DiscountRequest{
		Name:    "September promo",
		Type:    model.DiscountTypePercentage,
		Value:   decimal.NewFromInt(15),
		StartAt: time.Now(),
		EndAt:   time.Now().Add(30 * 24 * time.Hour),
	}
	req := authedRequest(http.MethodPost, "/api/discounts", body, uuid.New())
	w := httptest.NewRecorder()

	discountTestRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestDiscountHandler_Deactivate(t *testing.T) {
	logger := zerolog.Nop()
	id := uuid.New()

	tests := []struct {
		name           string
		target         string
		mockError      error
		expectedStatus int
	}{
		{
			name:           "Success",
			target:         "/api/discounts/" + id.String(),
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "Not found",
			target:         "/api/discounts/" + id.String(),
			mockError:      model.ErrDiscountNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Invalid ID",
			target:         "/api/discounts/not-a-uuid",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockDiscountService)
			mockService.On("Deactivate", mock.Anything, id).Return(tt.mockError)

			h := NewDiscountHandler(mockService, logger)

			req := authedRequest(http.MethodDelete, tt.target, nil, uuid.New())
			w := httptest.NewRecorder()

			discountTestRouter(h).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
