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
	"github.com/shopspring/decimal"
)

// pointRepository implements the PointRepository interface using PostgreSQL.
type pointRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPointRepository creates a new PostgreSQL-backed point repository.
func NewPointRepository(pool *pgxpool.Pool, logger zerolog.Logger) PointRepository {
	return &pointRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "point").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *pointRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// GetBalance retrieves a member's balance, creating a zero-balance row on
// first access.
func (r *pointRepository) GetBalance(ctx context.Context, memberID uuid.UUID) (*model.PointBalance, error) {
	query := `
		INSERT INTO point_balances (member_id, balance, updated_at)
		VALUES ($1, 0, CURRENT_TIMESTAMP)
		ON CONFLICT (member_id) DO UPDATE SET member_id = EXCLUDED.member_id
		RETURNING member_id, balance, updated_at
	`

	var b model.PointBalance
	err := r.pool.QueryRow(ctx, query, memberID).Scan(&b.MemberID, &b.Balance, &b.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("member_id", memberID.String()).Msg("failed to query point balance")
		return nil, fmt.Errorf("failed to query point balance: %w", err)
	}

	return &b, nil
}

// ApplyChange locks the member's balance row, applies the signed amount and
// appends the matching history entry. The balance update and the history
// insert commit together with the caller's transaction or not at all.
func (r *pointRepository) ApplyChange(ctx context.Context, tx pgx.Tx, change PointChange) (*model.PointBalance, error) {
	// Ensure the balance row exists before taking the lock.
	ensure := `
		INSERT INTO point_balances (member_id, balance, updated_at)
		VALUES ($1, 0, CURRENT_TIMESTAMP)
		ON CONFLICT (member_id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, ensure, change.MemberID); err != nil {
		r.logger.Error().Err(err).Str("member_id", change.MemberID.String()).Msg("failed to ensure point balance row")
		return nil, fmt.Errorf("failed to ensure point balance row: %w", err)
	}

	lock := `
		SELECT balance
		FROM point_balances
		WHERE member_id = $1
		FOR UPDATE
	`
	var balance decimal.Decimal
	if err := tx.QueryRow(ctx, lock, change.MemberID).Scan(&balance); err != nil {
		r.logger.Error().Err(err).Str("member_id", change.MemberID.String()).Msg("failed to lock point balance")
		return nil, fmt.Errorf("failed to lock point balance: %w", err)
	}

	newBalance := balance.Add(change.Amount)
	if newBalance.IsNegative() {
		r.logger.Warn().
			Str("member_id", change.MemberID.String()).
			Str("balance", balance.String()).
			Str("amount", change.Amount.String()).
			Msg("point change would overdraw balance")
		return nil, model.ErrInsufficientPoints
	}

	update := `
		UPDATE point_balances
		SET balance = $2, updated_at = CURRENT_TIMESTAMP
		WHERE member_id = $1
		RETURNING member_id, balance, updated_at
	`
	var b model.PointBalance
	if err := tx.QueryRow(ctx, update, change.MemberID, newBalance).Scan(&b.MemberID, &b.Balance, &b.UpdatedAt); err != nil {
		r.logger.Error().Err(err).Str("member_id", change.MemberID.String()).Msg("failed to update point balance")
		return nil, fmt.Errorf("failed to update point balance: %w", err)
	}

	insert := `
		INSERT INTO point_histories (id, member_id, amount, type, description, order_id, balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP)
	`
	if _, err := tx.Exec(ctx, insert,
		uuid.New(), change.MemberID, change.Amount, change.Type,
		change.Description, change.OrderID, newBalance,
	); err != nil {
		r.logger.Error().Err(err).Str("member_id", change.MemberID.String()).Msg("failed to append point history")
		return nil, fmt.Errorf("failed to append point history: %w", err)
	}

	r.logger.Debug().
		Str("member_id", change.MemberID.String()).
		Str("type", string(change.Type)).
		Str("amount", change.Amount.String()).
		Str("balance_after", newBalance.String()).
		Msg("point change applied")

	return &b, nil
}

// ListHistory retrieves ledger entries for a member, newest first.
func (r *pointRepository) ListHistory(ctx context.Context, memberID uuid.UUID, limit, offset int) ([]model.PointHistory, error) {
	query := `
		SELECT id, member_id, amount, type, description, order_id, balance_after, created_at
		FROM point_histories
		WHERE member_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, memberID, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Str("member_id", memberID.String()).Msg("failed to query point history")
		return nil, fmt.Errorf("failed to query point history: %w", err)
	}
	defer rows.Close()

	return scanPointHistories(rows)
}

// ListHistoryByPeriod retrieves ledger entries within [from, to), newest first.
func (r *pointRepository) ListHistoryByPeriod(ctx context.Context, memberID uuid.UUID, from, to time.Time, limit, offset int) ([]model.PointHistory, error) {
	query := `
		SELECT id, member_id, amount, type, description, order_id, balance_after, created_at
		FROM point_histories
		WHERE member_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`

	rows, err := r.pool.Query(ctx, query, memberID, from, to, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Str("member_id", memberID.String()).Msg("failed to query point history by period")
		return nil, fmt.Errorf("failed to query point history by period: %w", err)
	}
	defer rows.Close()

	return scanPointHistories(rows)
}

func scanPointHistories(rows pgx.Rows) ([]model.PointHistory, error) {
	var histories []model.PointHistory
	for rows.Next() {
		var h model.PointHistory
		err := rows.Scan(&h.ID, &h.MemberID, &h.Amount, &h.Type, &h.Description, &h.OrderID, &h.BalanceAfter, &h.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan point history: %w", err)
		}
		histories = append(histories, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating point history: %w", err)
	}

	return histories, nil
}
