package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// uniqueViolation is the SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// paymentRepository implements the PaymentRepository interface using PostgreSQL.
type paymentRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPaymentRepository creates a new PostgreSQL-backed payment repository.
func NewPaymentRepository(pool *pgxpool.Pool, logger zerolog.Logger) PaymentRepository {
	return &paymentRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "payment").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *paymentRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// Create inserts a new payment within the provided transaction.
func (r *paymentRepository) Create(ctx context.Context, tx pgx.Tx, payment *model.Payment) error {
	query := `
		INSERT INTO payments (
			id, payment_key, order_number, member_id, amount, status,
			method, card_number, card_company, paid_at, failure_reason,
			cancelled_at, cancel_reason, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := tx.Exec(ctx, query,
		payment.ID, payment.PaymentKey, payment.OrderNumber, payment.MemberID,
		payment.Amount, payment.Status, payment.Method, payment.CardNumber,
		payment.CardCompany, payment.PaidAt, payment.FailureReason,
		payment.CancelledAt, payment.CancelReason, payment.CreatedAt, payment.UpdatedAt,
	)
	if err != nil {
		// Two prepares racing past the duplicate check collide on the
		// order_number unique constraint; the loser is a duplicate.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.ErrDuplicateOrder
		}
		r.logger.Error().
			Err(err).
			Str("order_number", payment.OrderNumber).
			Msg("failed to create payment")
		return fmt.Errorf("failed to create payment: %w", err)
	}

	r.logger.Debug().
		Str("order_number", payment.OrderNumber).
		Msg("payment created successfully")

	return nil
}

const paymentColumns = `
	id, payment_key, order_number, member_id, amount, status,
	method, card_number, card_company, paid_at, failure_reason,
	cancelled_at, cancel_reason, created_at, updated_at
`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var p model.Payment
	err := row.Scan(
		&p.ID, &p.PaymentKey, &p.OrderNumber, &p.MemberID, &p.Amount, &p.Status,
		&p.Method, &p.CardNumber, &p.CardCompany, &p.PaidAt, &p.FailureReason,
		&p.CancelledAt, &p.CancelReason, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID retrieves one payment by ID.
func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	payment, err := scanPayment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("payment_id", id.String()).Msg("payment not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("payment_id", id.String()).Msg("failed to query payment")
		return nil, fmt.Errorf("failed to query payment: %w", err)
	}

	return payment, nil
}

// GetByOrderNumber retrieves the payment prepared for an order.
func (r *paymentRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_number = $1`

	payment, err := scanPayment(r.pool.QueryRow(ctx, query, orderNumber))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_number", orderNumber).Msg("failed to query payment")
		return nil, fmt.Errorf("failed to query payment: %w", err)
	}

	return payment, nil
}

// GetByOrderNumberForUpdate retrieves the payment for an order under an
// exclusive row lock within the given transaction.
func (r *paymentRepository) GetByOrderNumberForUpdate(ctx context.Context, tx pgx.Tx, orderNumber string) (*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_number = $1 FOR UPDATE`

	payment, err := scanPayment(tx.QueryRow(ctx, query, orderNumber))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_number", orderNumber).Msg("failed to lock payment")
		return nil, fmt.Errorf("failed to lock payment: %w", err)
	}

	return payment, nil
}

// Update persists a payment's mutable fields within the provided transaction.
func (r *paymentRepository) Update(ctx context.Context, tx pgx.Tx, payment *model.Payment) error {
	query := `
		UPDATE payments
		SET payment_key = $2, status = $3, method = $4, card_number = $5,
		    card_company = $6, paid_at = $7, failure_reason = $8,
		    cancelled_at = $9, cancel_reason = $10, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query,
		payment.ID, payment.PaymentKey, payment.Status, payment.Method,
		payment.CardNumber, payment.CardCompany, payment.PaidAt,
		payment.FailureReason, payment.CancelledAt, payment.CancelReason,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("payment_id", payment.ID.String()).Msg("failed to update payment")
		return fmt.Errorf("failed to update payment: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrPaymentNotFound
	}

	return nil
}

// ListByMember retrieves a member's payments, newest first.
func (r *paymentRepository) ListByMember(ctx context.Context, memberID uuid.UUID) ([]model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE member_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, memberID)
	if err != nil {
		r.logger.Error().Err(err).Str("member_id", memberID.String()).Msg("failed to query payments")
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		var p model.Payment
		err := rows.Scan(
			&p.ID, &p.PaymentKey, &p.OrderNumber, &p.MemberID, &p.Amount, &p.Status,
			&p.Method, &p.CardNumber, &p.CardCompany, &p.PaidAt, &p.FailureReason,
			&p.CancelledAt, &p.CancelReason, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan payment row")
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating payment rows")
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}

	return payments, nil
}

// AppendHistory appends a status-change record within the provided transaction.
func (r *paymentRepository) AppendHistory(ctx context.Context, tx pgx.Tx, history *model.PaymentHistory) error {
	query := `
		INSERT INTO payment_histories (id, payment_id, status, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := tx.Exec(ctx, query,
		history.ID, history.PaymentID, history.Status, history.Description, history.CreatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("payment_id", history.PaymentID.String()).
			Msg("failed to append payment history")
		return fmt.Errorf("failed to append payment history: %w", err)
	}

	return nil
}

// ListHistory retrieves a payment's status-change records, newest first.
func (r *paymentRepository) ListHistory(ctx context.Context, paymentID uuid.UUID) ([]model.PaymentHistory, error) {
	query := `
		SELECT id, payment_id, status, description, created_at
		FROM payment_histories
		WHERE payment_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, paymentID)
	if err != nil {
		r.logger.Error().Err(err).Str("payment_id", paymentID.String()).Msg("failed to query payment history")
		return nil, fmt.Errorf("failed to query payment history: %w", err)
	}
	defer rows.Close()

	var histories []model.PaymentHistory
	for rows.Next() {
		var h model.PaymentHistory
		err := rows.Scan(&h.ID, &h.PaymentID, &h.Status, &h.Description, &h.CreatedAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan payment history row")
			return nil, fmt.Errorf("failed to scan payment history: %w", err)
		}
		histories = append(histories, h)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating payment history rows")
		return nil, fmt.Errorf("error iterating payment history: %w", err)
	}

	return histories, nil
}
