package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/gateway"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// minPaymentAmount is the smallest amount the gateway accepts.
var minPaymentAmount = decimal.NewFromInt(100)

// paymentService implements PaymentService.
type paymentService struct {
	paymentRepo repository.PaymentRepository
	orderRepo   repository.OrderRepository
	gateway     gateway.Client
	logger      zerolog.Logger
}

// NewPaymentService creates a new payment service.
func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	orderRepo repository.OrderRepository,
	gw gateway.Client,
	logger zerolog.Logger,
) PaymentService {
	return &paymentService{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		gateway:     gw,
		logger:      logger.With().Str("service", "payment").Logger(),
	}
}

// Prepare creates a PENDING payment for an order. The submitted amount must
// match the order total reserved at creation, and an order gets at most one
// prepared payment.
func (s *paymentService) Prepare(ctx context.Context, memberID uuid.UUID, req *model.PaymentPrepareRequest) (*model.PaymentPrepareResponse, error) {
	if req.OrderNumber == "" {
		return nil, fmt.Errorf("order number is required")
	}
	if req.Amount.LessThan(minPaymentAmount) {
		return nil, model.ErrInvalidAmount
	}

	order, _, err := s.orderRepo.GetByNumber(ctx, req.OrderNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare payment: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	if order.MemberID != memberID {
		return nil, model.ErrUnauthorized
	}
	if order.Status != model.OrderStatusPending {
		return nil, model.ErrInvalidState
	}
	if !req.Amount.Equal(order.TotalAmount) {
		s.logger.Warn().
			Str("order_number", req.OrderNumber).
			Str("submitted", req.Amount.String()).
			Str("expected", order.TotalAmount.String()).
			Msg("payment amount mismatch on prepare")
		return nil, model.ErrAmountMismatch
	}

	existing, err := s.paymentRepo.GetByOrderNumber(ctx, req.OrderNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare payment: %w", err)
	}
	if existing != nil && existing.Status != model.PaymentStatusFailed {
		return nil, model.ErrDuplicateOrder
	}

	tx, err := s.paymentRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare payment: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	now := time.Now()
	payment := &model.Payment{
		ID:          uuid.New(),
		OrderNumber: req.OrderNumber,
		MemberID:    memberID,
		Amount:      req.Amount,
		Status:      model.PaymentStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// A FAILED attempt is superseded in place so the unique order_number
	// constraint holds.
	if existing != nil {
		payment.ID = existing.ID
		payment.CreatedAt = existing.CreatedAt
		err = s.paymentRepo.Update(ctx, tx, payment)
	} else {
		err = s.paymentRepo.Create(ctx, tx, payment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to prepare payment: %w", err)
	}

	history := &model.PaymentHistory{
		ID:          uuid.New(),
		PaymentID:   payment.ID,
		Status:      model.PaymentStatusPending,
		Description: "Payment prepared",
		CreatedAt:   now,
	}
	if err = s.paymentRepo.AppendHistory(ctx, tx, history); err != nil {
		return nil, fmt.Errorf("failed to prepare payment: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare payment: %w", err)
	}

	s.logger.Info().
		Str("order_number", req.OrderNumber).
		Str("amount", req.Amount.String()).
		Msg("payment prepared")

	return &model.PaymentPrepareResponse{
		ClientKey:   s.gateway.ClientKey(),
		OrderNumber: req.OrderNumber,
	}, nil
}

// Confirm approves a PENDING payment with the gateway. The payment and
// order rows are locked and re-verified before any money moves, so a
// cancel cannot slip in between the gateway charge and the local
// COMPLETED record. An approved payment completes and advances the order
// to PAID in the same transaction; a gateway rejection marks the payment
// FAILED and leaves the order untouched.
func (s *paymentService) Confirm(ctx context.Context, req *model.PaymentConfirmRequest) (*model.PaymentResponse, error) {
	tx, err := s.paymentRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm payment: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	payment, err := s.paymentRepo.GetByOrderNumberForUpdate(ctx, tx, req.OrderNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm payment: %w", err)
	}
	if payment == nil {
		err = model.ErrPaymentNotFound
		return nil, err
	}
	if payment.Status != model.PaymentStatusPending {
		err = model.ErrInvalidState
		return nil, err
	}
	if !req.Amount.Equal(payment.Amount) {
		s.logger.Warn().
			Str("order_number", req.OrderNumber).
			Str("submitted", req.Amount.String()).
			Str("expected", payment.Amount.String()).
			Msg("payment amount mismatch on confirm")
		err = model.ErrAmountMismatch
		return nil, err
	}

	order, _, err := s.orderRepo.GetByNumberForUpdate(ctx, tx, req.OrderNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm payment: %w", err)
	}
	if order == nil {
		err = model.ErrOrderNotFound
		return nil, err
	}
	if order.Status != model.OrderStatusPending {
		// Cancelled or already paid while the confirm was in flight; the
		// gateway is never charged.
		err = model.ErrInvalidState
		return nil, err
	}

	result, gwErr := s.gateway.Confirm(ctx, req.PaymentKey, req.OrderNumber, req.Amount)
	if gwErr != nil {
		err = s.recordFailure(ctx, tx, payment, gwErr)
		return nil, err
	}

	now := time.Now()
	payment.PaymentKey = &req.PaymentKey
	payment.Status = model.PaymentStatusCompleted
	payment.PaidAt = &now
	if result.Method != "" {
		payment.Method = &result.Method
	}
	if result.CardNumber != "" {
		payment.CardNumber = &result.CardNumber
	}
	if result.CardCompany != "" {
		payment.CardCompany = &result.CardCompany
	}

	if err = s.paymentRepo.Update(ctx, tx, payment); err != nil {
		return nil, fmt.Errorf("failed to confirm payment: %w", err)
	}

	history := &model.PaymentHistory{
		ID:          uuid.New(),
		PaymentID:   payment.ID,
		Status:      model.PaymentStatusCompleted,
		Description: "Payment approved by gateway",
		CreatedAt:   now,
	}
	if err = s.paymentRepo.AppendHistory(ctx, tx, history); err != nil {
		return nil, fmt.Errorf("failed to confirm payment: %w", err)
	}

	var ok bool
	ok, err = s.orderRepo.UpdateStatus(ctx, tx, order.ID,
		[]model.OrderStatus{model.OrderStatusPending}, model.OrderStatusPaid)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm payment: %w", err)
	}
	if !ok {
		err = model.ErrInvalidState
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to confirm payment: %w", err)
	}

	s.logger.Info().
		Str("order_number", payment.OrderNumber).
		Str("payment_key", req.PaymentKey).
		Str("amount", payment.Amount.String()).
		Msg("payment completed")

	return model.NewPaymentResponse(payment), nil
}

// recordFailure persists the FAILED transition on the already locked
// payment and commits the transaction. The order stays PENDING so a new
// attempt can be prepared.
func (s *paymentService) recordFailure(ctx context.Context, tx pgx.Tx, payment *model.Payment, gwErr error) error {
	s.logger.Error().
		Err(gwErr).
		Str("order_number", payment.OrderNumber).
		Msg("gateway rejected payment confirmation")

	reason := gwErr.Error()
	payment.Status = model.PaymentStatusFailed
	payment.FailureReason = &reason

	if err := s.paymentRepo.Update(ctx, tx, payment); err != nil {
		return fmt.Errorf("failed to record payment failure: %w", err)
	}

	history := &model.PaymentHistory{
		ID:          uuid.New(),
		PaymentID:   payment.ID,
		Status:      model.PaymentStatusFailed,
		Description: "Payment failed: " + reason,
		CreatedAt:   time.Now(),
	}
	if err := s.paymentRepo.AppendHistory(ctx, tx, history); err != nil {
		return fmt.Errorf("failed to record payment failure: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to record payment failure: %w", err)
	}

	return model.NewDomainError(model.ErrCodeGatewayError, reason)
}

// Cancel reverses a COMPLETED payment with the gateway.
func (s *paymentService) Cancel(ctx context.Context, memberID, paymentID uuid.UUID, reason string) (*model.PaymentResponse, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel payment: %w", err)
	}
	if payment == nil {
		return nil, model.ErrPaymentNotFound
	}
	if payment.MemberID != memberID {
		return nil, model.ErrUnauthorized
	}
	if payment.Status != model.PaymentStatusCompleted || payment.PaymentKey == nil {
		return nil, model.ErrInvalidState
	}

	if err = s.gateway.Cancel(ctx, *payment.PaymentKey, reason); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_number", payment.OrderNumber).
			Msg("gateway rejected payment cancellation")
		return nil, model.NewDomainError(model.ErrCodeGatewayError, err.Error())
	}

	tx, err := s.paymentRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel payment: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	locked, err := s.paymentRepo.GetByOrderNumberForUpdate(ctx, tx, payment.OrderNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel payment: %w", err)
	}
	if locked == nil {
		err = model.ErrPaymentNotFound
		return nil, err
	}
	if locked.Status != model.PaymentStatusCompleted {
		err = model.ErrInvalidState
		return nil, err
	}

	now := time.Now()
	locked.Status = model.PaymentStatusCancelled
	locked.CancelReason = &reason
	locked.CancelledAt = &now

	if err = s.paymentRepo.Update(ctx, tx, locked); err != nil {
		return nil, fmt.Errorf("failed to cancel payment: %w", err)
	}

	history := &model.PaymentHistory{
		ID:          uuid.New(),
		PaymentID:   locked.ID,
		Status:      model.PaymentStatusCancelled,
		Description: "Payment cancelled: " + reason,
		CreatedAt:   now,
	}
	if err = s.paymentRepo.AppendHistory(ctx, tx, history); err != nil {
		return nil, fmt.Errorf("failed to cancel payment: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to cancel payment: %w", err)
	}

	s.logger.Info().
		Str("order_number", locked.OrderNumber).
		Str("reason", reason).
		Msg("payment cancelled")

	return model.NewPaymentResponse(locked), nil
}

// Get retrieves one of the member's payments.
func (s *paymentService) Get(ctx context.Context, memberID, paymentID uuid.UUID) (*model.PaymentResponse, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if payment == nil {
		return nil, model.ErrPaymentNotFound
	}
	if payment.MemberID != memberID {
		return nil, model.ErrUnauthorized
	}

	return model.NewPaymentResponse(payment), nil
}

// ListMine retrieves the member's payments, newest first.
func (s *paymentService) ListMine(ctx context.Context, memberID uuid.UUID) ([]model.PaymentResponse, error) {
	payments, err := s.paymentRepo.ListByMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	responses := make([]model.PaymentResponse, 0, len(payments))
	for i := range payments {
		responses = append(responses, *model.NewPaymentResponse(&payments[i]))
	}

	return responses, nil
}

// History retrieves a payment's status-change records, newest first.
func (s *paymentService) History(ctx context.Context, memberID, paymentID uuid.UUID) ([]model.PaymentHistory, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment history: %w", err)
	}
	if payment == nil {
		return nil, model.ErrPaymentNotFound
	}
	if payment.MemberID != memberID {
		return nil, model.ErrUnauthorized
	}

	histories, err := s.paymentRepo.ListHistory(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment history: %w", err)
	}

	return histories, nil
}
