package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// discountService implements DiscountService.
type discountService struct {
	discountRepo repository.DiscountRepository
	logger       zerolog.Logger
}

// NewDiscountService creates a new discount service.
func NewDiscountService(discountRepo repository.DiscountRepository, logger zerolog.Logger) DiscountService {
	return &discountService{
		discountRepo: discountRepo,
		logger:       logger.With().Str("service", "discount").Logger(),
	}
}

// Create registers a new discount policy.
func (s *discountService) Create(ctx context.Context, req *model.DiscountRequest) (*model.Discount, error) {
	if err := validateDiscountRequest(req); err != nil {
		return nil, err
	}

	d := &model.Discount{
		ID:                    uuid.New(),
		Name:                  req.Name,
		Description:           req.Description,
		Type:                  req.Type,
		Value:                 req.Value,
		MinimumOrderAmount:    req.MinimumOrderAmount,
		MaximumDiscountAmount: req.MaximumDiscountAmount,
		Active:                true,
		StartAt:               req.StartAt,
		EndAt:                 req.EndAt,
		CreatedAt:             time.Now(),
	}

	if err := s.discountRepo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to create discount: %w", err)
	}

	s.logger.Info().
		Str("discount_id", d.ID.String()).
		Str("name", d.Name).
		Str("type", string(d.Type)).
		Msg("discount created")

	return d, nil
}

// ListActive retrieves policies valid right now.
func (s *discountService) ListActive(ctx context.Context) ([]model.Discount, error) {
	discounts, err := s.discountRepo.ListActive(ctx, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list discounts: %w", err)
	}
	return discounts, nil
}

// Deactivate toggles a policy off.
func (s *discountService) Deactivate(ctx context.Context, id uuid.UUID) error {
	ok, err := s.discountRepo.Deactivate(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate discount: %w", err)
	}
	if !ok {
		return model.ErrDiscountNotFound
	}

	s.logger.Info().Str("discount_id", id.String()).Msg("discount deactivated")
	return nil
}

// validateDiscountRequest validates the discount creation payload.
func validateDiscountRequest(req *model.DiscountRequest) error {
	if req.Name == "" {
		return fmt.Errorf("discount name is required")
	}

	switch req.Type {
	case model.DiscountTypePercentage:
		if !req.Value.IsPositive() || req.Value.GreaterThan(hundred) {
			return fmt.Errorf("percentage value must be between 0 and 100")
		}
	case model.DiscountTypeFixedAmount:
		if !req.Value.IsPositive() {
			return fmt.Errorf("fixed discount value must be positive")
		}
	default:
		return fmt.Errorf("unknown discount type %q", req.Type)
	}

	if req.MinimumOrderAmount.IsNegative() {
		return fmt.Errorf("minimum order amount must not be negative")
	}
	if req.MaximumDiscountAmount != nil && !req.MaximumDiscountAmount.IsPositive() {
		return fmt.Errorf("maximum discount amount must be positive")
	}
	if !req.EndAt.After(req.StartAt) {
		return fmt.Errorf("discount end must be after start")
	}

	return nil
}
