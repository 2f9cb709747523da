package repository

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// couponRepository implements the CouponRepository interface using PostgreSQL.
type couponRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCouponRepository creates a new PostgreSQL-backed coupon repository.
func NewCouponRepository(pool *pgxpool.Pool, logger zerolog.Logger) CouponRepository {
	return &couponRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "coupon").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *couponRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// Create inserts a new coupon.
func (r *couponRepository) Create(ctx context.Context, coupon *model.Coupon) error {
	query := `
		INSERT INTO coupons (id, discount_id, code, member_id, status, used_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		coupon.ID, coupon.DiscountID, coupon.Code, coupon.MemberID,
		coupon.Status, coupon.UsedAt, coupon.CreatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("code", coupon.Code).Msg("failed to create coupon")
		return fmt.Errorf("failed to create coupon: %w", err)
	}

	return nil
}

// CodeExists reports whether a coupon code is already taken.
func (r *couponRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM coupons WHERE code = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, code).Scan(&exists); err != nil {
		r.logger.Error().Err(err).Str("code", code).Msg("failed to check coupon code")
		return false, fmt.Errorf("failed to check coupon code: %w", err)
	}

	return exists, nil
}

// GetByCode retrieves a coupon by its code.
func (r *couponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `
		SELECT id, discount_id, code, member_id, status, used_at, created_at
		FROM coupons
		WHERE code = $1
	`

	var c model.Coupon
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&c.ID, &c.DiscountID, &c.Code, &c.MemberID, &c.Status, &c.UsedAt, &c.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("code", code).Msg("coupon not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("code", code).Msg("failed to query coupon")
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}

	return &c, nil
}

// ListAvailable retrieves a member's AVAILABLE coupons whose linked
// discount is still valid at the given time.
func (r *couponRepository) ListAvailable(ctx context.Context, memberID uuid.UUID, now time.Time) ([]model.Coupon, error) {
	query := `
		SELECT c.id, c.discount_id, c.code, c.member_id, c.status, c.used_at, c.created_at
		FROM coupons c
		JOIN discounts d ON d.id = c.discount_id
		WHERE c.member_id = $1 AND c.status = 'AVAILABLE'
		  AND d.active = TRUE AND d.end_at >= $2
		ORDER BY c.created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, memberID, now)
	if err != nil {
		r.logger.Error().Err(err).Str("member_id", memberID.String()).Msg("failed to query coupons")
		return nil, fmt.Errorf("failed to query coupons: %w", err)
	}
	defer rows.Close()

	var coupons []model.Coupon
	for rows.Next() {
		var c model.Coupon
		err := rows.Scan(&c.ID, &c.DiscountID, &c.Code, &c.MemberID, &c.Status, &c.UsedAt, &c.CreatedAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan coupon row")
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating coupon rows")
		return nil, fmt.Errorf("error iterating coupons: %w", err)
	}

	return coupons, nil
}

// MarkUsed flips an AVAILABLE coupon to USED within the provided
// transaction. The status guard makes the first successful application win
// under concurrency.
func (r *couponRepository) MarkUsed(ctx context.Context, tx pgx.Tx, id uuid.UUID, usedAt time.Time) (bool, error) {
	query := `
		UPDATE coupons
		SET status = 'USED', used_at = $2
		WHERE id = $1 AND status = 'AVAILABLE'
	`

	tag, err := tx.Exec(ctx, query, id, usedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("coupon_id", id.String()).Msg("failed to mark coupon used")
		return false, fmt.Errorf("failed to mark coupon used: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
