package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/discount"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// couponCodeAttempts bounds the retry loop for code generation.
const couponCodeAttempts = 5

// couponService implements CouponService.
type couponService struct {
	couponRepo   repository.CouponRepository
	discountRepo repository.DiscountRepository
	memberRepo   repository.MemberRepository
	logger       zerolog.Logger
}

// NewCouponService creates a new coupon service.
func NewCouponService(
	couponRepo repository.CouponRepository,
	discountRepo repository.DiscountRepository,
	memberRepo repository.MemberRepository,
	logger zerolog.Logger,
) CouponService {
	return &couponService{
		couponRepo:   couponRepo,
		discountRepo: discountRepo,
		memberRepo:   memberRepo,
		logger:       logger.With().Str("service", "coupon").Logger(),
	}
}

// Create issues a coupon for a discount policy to a member.
func (s *couponService) Create(ctx context.Context, req *model.CouponRequest) (*model.Coupon, error) {
	policy, err := s.discountRepo.GetByID(ctx, req.DiscountID)
	if err != nil {
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}
	if policy == nil {
		return nil, model.ErrDiscountNotFound
	}
	if !policy.Active || time.Now().After(policy.EndAt) {
		return nil, model.ErrInvalidCoupon
	}

	member, err := s.memberRepo.GetByID(ctx, req.MemberID)
	if err != nil {
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}
	if member == nil {
		return nil, model.ErrMemberNotFound
	}

	code, err := s.generateCode(ctx)
	if err != nil {
		return nil, err
	}

	coupon := &model.Coupon{
		ID:         uuid.New(),
		DiscountID: req.DiscountID,
		Code:       code,
		MemberID:   req.MemberID,
		Status:     model.CouponStatusAvailable,
		CreatedAt:  time.Now(),
	}

	if err := s.couponRepo.Create(ctx, coupon); err != nil {
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}

	s.logger.Info().
		Str("coupon_code", code).
		Str("member_id", req.MemberID.String()).
		Str("discount_id", req.DiscountID.String()).
		Msg("coupon issued")

	return coupon, nil
}

// generateCode derives an 8-character uppercase code and retries on the
// unlikely collision.
func (s *couponService) generateCode(ctx context.Context) (string, error) {
	for i := 0; i < couponCodeAttempts; i++ {
		code := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])

		exists, err := s.couponRepo.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to generate coupon code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique coupon code after %d attempts", couponCodeAttempts)
}

// ListMine retrieves the member's available coupons.
func (s *couponService) ListMine(ctx context.Context, memberID uuid.UUID) ([]model.Coupon, error) {
	coupons, err := s.couponRepo.ListAvailable(ctx, memberID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	return coupons, nil
}

// Apply validates a coupon against an order amount and computes the
// discount. The coupon is left untouched, so the same call backs both the
// checkout preview and the validation step at order creation.
func (s *couponService) Apply(ctx context.Context, memberID uuid.UUID, code string, orderAmount decimal.Decimal) (*model.CouponApplicationResponse, error) {
	if orderAmount.IsNegative() {
		return nil, fmt.Errorf("order amount must not be negative")
	}

	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to apply coupon: %w", err)
	}
	if coupon == nil || coupon.Status != model.CouponStatusAvailable {
		return nil, model.ErrInvalidCoupon
	}
	if coupon.MemberID != memberID {
		return nil, model.ErrWrongOwner
	}

	policy, err := s.discountRepo.GetByID(ctx, coupon.DiscountID)
	if err != nil {
		return nil, fmt.Errorf("failed to apply coupon: %w", err)
	}
	if policy == nil || !policy.Active {
		return nil, model.ErrInvalidCoupon
	}

	now := time.Now()
	if now.After(policy.EndAt) {
		return nil, model.ErrCouponExpired
	}
	if now.Before(policy.StartAt) {
		return nil, model.ErrInvalidCoupon
	}

	amount := discount.Calculate(policy, orderAmount)

	return &model.CouponApplicationResponse{
		CouponID:       coupon.ID,
		DiscountAmount: amount,
		FinalAmount:    orderAmount.Sub(amount),
	}, nil
}

// MarkUsed flips a coupon to USED in its own transaction.
func (s *couponService) MarkUsed(ctx context.Context, couponID uuid.UUID) error {
	tx, err := s.couponRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark coupon used: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	used, err := s.couponRepo.MarkUsed(ctx, tx, couponID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark coupon used: %w", err)
	}
	if !used {
		err = model.ErrInvalidCoupon
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to mark coupon used: %w", err)
	}

	s.logger.Info().Str("coupon_id", couponID.String()).Msg("coupon marked used")
	return nil
}
