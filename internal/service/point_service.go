package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/cache"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const balanceCacheTTL = 5 * time.Minute

// pointService implements PointService. Standalone mutations wrap the
// ledger primitive in their own transaction; the order flow calls the
// repository directly inside its transaction.
type pointService struct {
	pointRepo repository.PointRepository
	cache     cache.Cache
	logger    zerolog.Logger
}

// NewPointService creates a new point service.
func NewPointService(pointRepo repository.PointRepository, c cache.Cache, logger zerolog.Logger) PointService {
	return &pointService{
		pointRepo: pointRepo,
		cache:     c,
		logger:    logger.With().Str("service", "point").Logger(),
	}
}

// Earn credits points to a member.
func (s *pointService) Earn(ctx context.Context, memberID uuid.UUID, amount decimal.Decimal, description string, orderID *uuid.UUID) (*model.PointBalance, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("earn amount must be positive")
	}
	return s.apply(ctx, repository.PointChange{
		MemberID:    memberID,
		Amount:      amount,
		Type:        model.PointTypeEarn,
		Description: description,
		OrderID:     orderID,
	})
}

// Use debits points from a member.
func (s *pointService) Use(ctx context.Context, memberID uuid.UUID, amount decimal.Decimal, description string, orderID *uuid.UUID) (*model.PointBalance, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("use amount must be positive")
	}
	return s.apply(ctx, repository.PointChange{
		MemberID:    memberID,
		Amount:      amount.Neg(),
		Type:        model.PointTypeUse,
		Description: description,
		OrderID:     orderID,
	})
}

// CancelUse refunds previously used points.
func (s *pointService) CancelUse(ctx context.Context, memberID uuid.UUID, amount decimal.Decimal, description string, orderID *uuid.UUID) (*model.PointBalance, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("refund amount must be positive")
	}
	return s.apply(ctx, repository.PointChange{
		MemberID:    memberID,
		Amount:      amount,
		Type:        model.PointTypeCancel,
		Description: description,
		OrderID:     orderID,
	})
}

// Adjust applies a signed manual correction.
func (s *pointService) Adjust(ctx context.Context, req *model.PointAdjustRequest) (*model.PointBalance, error) {
	if req.Amount.IsZero() {
		return nil, fmt.Errorf("adjustment amount must not be zero")
	}
	if req.Description == "" {
		return nil, fmt.Errorf("adjustment description is required")
	}
	return s.apply(ctx, repository.PointChange{
		MemberID:    req.MemberID,
		Amount:      req.Amount,
		Type:        model.PointTypeAdjust,
		Description: req.Description,
	})
}

// apply runs one ledger change in its own transaction and invalidates the
// cached balance.
func (s *pointService) apply(ctx context.Context, change repository.PointChange) (*model.PointBalance, error) {
	tx, err := s.pointRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to apply point change: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	balance, err := s.pointRepo.ApplyChange(ctx, tx, change)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to apply point change: %w", err)
	}

	s.invalidateBalance(ctx, change.MemberID)

	s.logger.Info().
		Str("member_id", change.MemberID.String()).
		Str("amount", change.Amount.String()).
		Str("type", string(change.Type)).
		Str("balance", balance.Balance.String()).
		Msg("point change applied")

	return balance, nil
}

// GetBalance retrieves a member's balance through the cache.
func (s *pointService) GetBalance(ctx context.Context, memberID uuid.UUID) (*model.PointBalance, error) {
	key := s.cache.Key("point", "balance", memberID.String())

	if cached, err := s.cache.Get(ctx, key); err == nil && cached != "" {
		var balance model.PointBalance
		if err := json.Unmarshal([]byte(cached), &balance); err == nil {
			return &balance, nil
		}
	}

	balance, err := s.pointRepo.GetBalance(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to get point balance: %w", err)
	}

	if data, err := json.Marshal(balance); err == nil {
		if err := s.cache.Set(ctx, key, string(data), balanceCacheTTL); err != nil {
			s.logger.Warn().Err(err).Msg("failed to cache point balance")
		}
	}

	return balance, nil
}

// invalidateBalance drops the cached balance for a member.
func (s *pointService) invalidateBalance(ctx context.Context, memberID uuid.UUID) {
	key := s.cache.Key("point", "balance", memberID.String())
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate cached point balance")
	}
}

// History retrieves ledger entries, newest first.
func (s *pointService) History(ctx context.Context, memberID uuid.UUID, page, size int) ([]model.PointHistory, error) {
	limit, offset := pageToLimitOffset(page, size)

	histories, err := s.pointRepo.ListHistory(ctx, memberID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get point history: %w", err)
	}

	return histories, nil
}

// HistoryByPeriod retrieves ledger entries within [from, to), newest first.
func (s *pointService) HistoryByPeriod(ctx context.Context, memberID uuid.UUID, from, to time.Time, page, size int) ([]model.PointHistory, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("period end must be after period start")
	}

	limit, offset := pageToLimitOffset(page, size)

	histories, err := s.pointRepo.ListHistoryByPeriod(ctx, memberID, from, to, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get point history: %w", err)
	}

	return histories, nil
}

// pageToLimitOffset converts one-based page/size to limit/offset with
// defaults.
func pageToLimitOffset(page, size int) (int, int) {
	if size <= 0 || size > 100 {
		size = 20
	}
	if page <= 0 {
		page = 1
	}
	return size, (page - 1) * size
}
