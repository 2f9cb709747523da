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

// discountRepository implements the DiscountRepository interface using PostgreSQL.
type discountRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewDiscountRepository creates a new PostgreSQL-backed discount repository.
func NewDiscountRepository(pool *pgxpool.Pool, logger zerolog.Logger) DiscountRepository {
	return &discountRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "discount").Logger(),
	}
}

// Create inserts a new discount policy.
func (r *discountRepository) Create(ctx context.Context, discount *model.Discount) error {
	query := `
		INSERT INTO discounts (
			id, name, description, type, value, minimum_order_amount,
			maximum_discount_amount, active, start_at, end_at, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		discount.ID, discount.Name, discount.Description, discount.Type,
		discount.Value, discount.MinimumOrderAmount, discount.MaximumDiscountAmount,
		discount.Active, discount.StartAt, discount.EndAt, discount.CreatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("name", discount.Name).Msg("failed to create discount")
		return fmt.Errorf("failed to create discount: %w", err)
	}

	return nil
}

const discountColumns = `
	id, name, description, type, value, minimum_order_amount,
	maximum_discount_amount, active, start_at, end_at, created_at
`

func scanDiscount(row pgx.Row) (*model.Discount, error) {
	var d model.Discount
	err := row.Scan(
		&d.ID, &d.Name, &d.Description, &d.Type, &d.Value, &d.MinimumOrderAmount,
		&d.MaximumDiscountAmount, &d.Active, &d.StartAt, &d.EndAt, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetByID retrieves one discount policy.
func (r *discountRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Discount, error) {
	query := `SELECT ` + discountColumns + ` FROM discounts WHERE id = $1`

	discount, err := scanDiscount(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("discount_id", id.String()).Msg("failed to query discount")
		return nil, fmt.Errorf("failed to query discount: %w", err)
	}

	return discount, nil
}

// ListActive retrieves discounts that are active and valid at the given time.
func (r *discountRepository) ListActive(ctx context.Context, now time.Time) ([]model.Discount, error) {
	query := `SELECT ` + discountColumns + `
		FROM discounts
		WHERE active = TRUE AND start_at <= $1 AND end_at >= $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query active discounts")
		return nil, fmt.Errorf("failed to query active discounts: %w", err)
	}
	defer rows.Close()

	var discounts []model.Discount
	for rows.Next() {
		var d model.Discount
		err := rows.Scan(
			&d.ID, &d.Name, &d.Description, &d.Type, &d.Value, &d.MinimumOrderAmount,
			&d.MaximumDiscountAmount, &d.Active, &d.StartAt, &d.EndAt, &d.CreatedAt,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan discount row")
			return nil, fmt.Errorf("failed to scan discount: %w", err)
		}
		discounts = append(discounts, d)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating discount rows")
		return nil, fmt.Errorf("error iterating discounts: %w", err)
	}

	return discounts, nil
}

// Deactivate clears a discount's active flag.
func (r *discountRepository) Deactivate(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE discounts SET active = FALSE WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error().Err(err).Str("discount_id", id.String()).Msg("failed to deactivate discount")
		return false, fmt.Errorf("failed to deactivate discount: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
