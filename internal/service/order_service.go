package service

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"storefront/internal/cache"
	"storefront/internal/discount"
	"storefront/internal/gateway"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderService implements OrderService. It owns the transaction spanning
// stock mutation, order insert, coupon consumption and point reservation.
type orderService struct {
	orderRepo    repository.OrderRepository
	memberRepo   repository.MemberRepository
	productRepo  repository.ProductRepository
	pointRepo    repository.PointRepository
	couponRepo   repository.CouponRepository
	discountRepo repository.DiscountRepository
	paymentRepo  repository.PaymentRepository
	gateway      gateway.Client
	cache        cache.Cache
	accrualRate  decimal.Decimal
	logger       zerolog.Logger
}

// NewOrderService creates a new order service. accrualRate is the fraction
// of the final order total credited as points on confirmation.
func NewOrderService(
	orderRepo repository.OrderRepository,
	memberRepo repository.MemberRepository,
	productRepo repository.ProductRepository,
	pointRepo repository.PointRepository,
	couponRepo repository.CouponRepository,
	discountRepo repository.DiscountRepository,
	paymentRepo repository.PaymentRepository,
	gw gateway.Client,
	c cache.Cache,
	accrualRate decimal.Decimal,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		memberRepo:   memberRepo,
		productRepo:  productRepo,
		pointRepo:    pointRepo,
		couponRepo:   couponRepo,
		discountRepo: discountRepo,
		paymentRepo:  paymentRepo,
		gateway:      gw,
		cache:        c,
		accrualRate:  accrualRate,
		logger:       logger.With().Str("service", "order").Logger(),
	}
}

// Create prices and persists a new PENDING order. Stock is decremented and
// used points are debited in the same transaction as the order insert: the
// mutations model a reservation that Cancel reverses.
func (s *orderService) Create(ctx context.Context, memberID uuid.UUID, req *model.OrderRequest) (*model.OrderResponse, error) {
	if err := s.validateOrderRequest(req); err != nil {
		return nil, err
	}

	member, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	if member == nil {
		return nil, model.ErrMemberNotFound
	}

	address, err := s.memberRepo.GetAddress(ctx, memberID, req.DeliveryAddressID)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	if address == nil {
		return nil, model.ErrAddressNotFound
	}

	method, err := s.memberRepo.GetPaymentMethod(ctx, memberID, req.PaymentMethodID)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	if method == nil {
		return nil, model.ErrPaymentMethodNotFound
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	orderID := uuid.New()
	items := make([]model.OrderItem, 0, len(req.Items))
	subtotal := decimal.Zero

	// Lock each product row, verify stock and decrement inside the same
	// transaction so concurrent orders cannot oversell. Rows are locked
	// in product ID order so two orders naming the same products in
	// different sequences cannot deadlock.
	itemReqs := make([]model.OrderItemRequest, len(req.Items))
	copy(itemReqs, req.Items)
	sort.Slice(itemReqs, func(i, j int) bool { return itemReqs[i].ProductID < itemReqs[j].ProductID })
	for _, itemReq := range itemReqs {
		var product *model.Product
		product, err = s.productRepo.LockForUpdate(ctx, tx, itemReq.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to create order: %w", err)
		}
		if product == nil {
			err = model.NewDomainError(model.ErrCodeProductNotFound,
				fmt.Sprintf("Product %s not found", itemReq.ProductID))
			return nil, err
		}

		if product.StockQuantity < itemReq.Quantity {
			s.logger.Warn().
				Str("product_id", product.ID).
				Int("stock", product.StockQuantity).
				Int("requested", itemReq.Quantity).
				Msg("insufficient stock")
			err = model.NewDomainError(model.ErrCodeInsufficientStock,
				fmt.Sprintf("Insufficient stock for product %s", product.ID))
			return nil, err
		}

		if err = s.productRepo.AdjustStock(ctx, tx, product.ID, -itemReq.Quantity); err != nil {
			return nil, fmt.Errorf("failed to create order: %w", err)
		}

		item := model.OrderItem{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: product.ID,
			Quantity:  itemReq.Quantity,
			UnitPrice: product.Price,
		}
		items = append(items, item)
		subtotal = subtotal.Add(item.Subtotal())
	}

	var couponID *uuid.UUID
	discountAmount := decimal.Zero
	if req.CouponCode != nil && *req.CouponCode != "" {
		var coupon *model.Coupon
		coupon, discountAmount, err = s.applyCoupon(ctx, tx, memberID, *req.CouponCode, subtotal)
		if err != nil {
			return nil, err
		}
		couponID = &coupon.ID
	}

	payable := subtotal.Sub(discountAmount)
	if req.UsePoints.GreaterThan(payable) {
		err = model.NewDomainError(model.ErrCodeInvalidAmount, "Used points exceed the payable amount")
		return nil, err
	}

	total := payable.Sub(req.UsePoints)
	earned := total.Mul(s.accrualRate).Floor()

	now := time.Now()
	order := &model.Order{
		ID:                orderID,
		OrderNumber:       generateOrderNumber(now),
		MemberID:          memberID,
		DeliveryAddressID: address.ID,
		PaymentMethodID:   method.ID,
		Status:            model.OrderStatusPending,
		TotalAmount:       total,
		DiscountAmount:    discountAmount,
		UsedPoints:        req.UsePoints,
		EarnedPoints:      earned,
		CouponID:          couponID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err = s.orderRepo.Create(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orderRepo.CreateItems(ctx, tx, items); err != nil {
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	// Reserve the points now; a failed payment keeps the reservation so a
	// retry can reuse it, and Cancel refunds it.
	if req.UsePoints.IsPositive() {
		_, err = s.pointRepo.ApplyChange(ctx, tx, repository.PointChange{
			MemberID:    memberID,
			Amount:      req.UsePoints.Neg(),
			Type:        model.PointTypeUse,
			Description: fmt.Sprintf("Points used on order %s", order.OrderNumber),
			OrderID:     &orderID,
		})
		if err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.invalidateProducts(ctx, items)
	if req.UsePoints.IsPositive() {
		s.invalidateBalance(ctx, memberID)
	}

	s.logger.Info().
		Str("order_number", order.OrderNumber).
		Str("member_id", memberID.String()).
		Str("total_amount", total.String()).
		Int("item_count", len(items)).
		Msg("order created successfully")

	return model.NewOrderResponse(order, items), nil
}

// applyCoupon validates the coupon, computes the discount for the subtotal
// and consumes the coupon inside the order transaction.
func (s *orderService) applyCoupon(ctx context.Context, tx pgx.Tx, memberID uuid.UUID, code string, subtotal decimal.Decimal) (*model.Coupon, decimal.Decimal, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to apply coupon: %w", err)
	}
	if coupon == nil || coupon.Status != model.CouponStatusAvailable {
		return nil, decimal.Zero, model.ErrInvalidCoupon
	}
	if coupon.MemberID != memberID {
		return nil, decimal.Zero, model.ErrWrongOwner
	}

	policy, err := s.discountRepo.GetByID(ctx, coupon.DiscountID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to apply coupon: %w", err)
	}
	if policy == nil || !policy.Active {
		return nil, decimal.Zero, model.ErrInvalidCoupon
	}

	now := time.Now()
	if now.After(policy.EndAt) {
		return nil, decimal.Zero, model.ErrCouponExpired
	}
	if now.Before(policy.StartAt) {
		return nil, decimal.Zero, model.ErrInvalidCoupon
	}

	amount := discount.Calculate(policy, subtotal)

	// The status guard on the update makes the coupon single-use even when
	// two orders race on the same code.
	used, err := s.couponRepo.MarkUsed(ctx, tx, coupon.ID, now)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to apply coupon: %w", err)
	}
	if !used {
		return nil, decimal.Zero, model.ErrInvalidCoupon
	}

	return coupon, amount, nil
}

// Cancel reverses a PENDING or PAID order. Stock restoration, point refund,
// payment cancellation and the status flip all commit together.
func (s *orderService) Cancel(ctx context.Context, memberID uuid.UUID, orderNumber string) (*model.OrderResponse, error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order, items, err := s.orderRepo.GetByNumberForUpdate(ctx, tx, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	if order == nil {
		err = model.ErrOrderNotFound
		return nil, err
	}
	if order.MemberID != memberID {
		err = model.ErrUnauthorized
		return nil, err
	}
	if !order.Status.Cancellable() {
		err = model.ErrInvalidState
		return nil, err
	}

	// Reverse a completed payment with the gateway before touching local
	// state; a gateway failure rolls everything back.
	payment, err := s.paymentRepo.GetByOrderNumberForUpdate(ctx, tx, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	if payment != nil && payment.Status == model.PaymentStatusCompleted {
		if err = s.cancelPayment(ctx, tx, payment, "Order cancelled"); err != nil {
			return nil, err
		}
	}

	for _, item := range items {
		if err = s.productRepo.AdjustStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to restore stock: %w", err)
		}
	}

	if order.UsedPoints.IsPositive() {
		_, err = s.pointRepo.ApplyChange(ctx, tx, repository.PointChange{
			MemberID:    memberID,
			Amount:      order.UsedPoints,
			Type:        model.PointTypeCancel,
			Description: fmt.Sprintf("Points refunded for cancelled order %s", order.OrderNumber),
			OrderID:     &order.ID,
		})
		if err != nil {
			return nil, err
		}
	}

	var ok bool
	ok, err = s.orderRepo.UpdateStatus(ctx, tx, order.ID,
		[]model.OrderStatus{model.OrderStatusPending, model.OrderStatusPaid},
		model.OrderStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	if !ok {
		err = model.ErrInvalidState
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	order.Status = model.OrderStatusCancelled

	s.invalidateProducts(ctx, items)
	if order.UsedPoints.IsPositive() {
		s.invalidateBalance(ctx, memberID)
	}

	s.logger.Info().
		Str("order_number", order.OrderNumber).
		Str("member_id", memberID.String()).
		Msg("order cancelled")

	return model.NewOrderResponse(order, items), nil
}

// cancelPayment reverses a completed payment with the gateway and records
// the local transition inside the caller's transaction.
func (s *orderService) cancelPayment(ctx context.Context, tx pgx.Tx, payment *model.Payment, reason string) error {
	if payment.PaymentKey == nil {
		return model.ErrInvalidState
	}

	if err := s.gateway.Cancel(ctx, *payment.PaymentKey, reason); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_number", payment.OrderNumber).
			Msg("gateway cancellation failed during order cancel")
		return model.NewDomainError(model.ErrCodeGatewayError,
			fmt.Sprintf("Payment cancellation failed: %v", err))
	}

	now := time.Now()
	payment.Status = model.PaymentStatusCancelled
	payment.CancelReason = &reason
	payment.CancelledAt = &now

	if err := s.paymentRepo.Update(ctx, tx, payment); err != nil {
		return fmt.Errorf("failed to cancel payment: %w", err)
	}

	history := &model.PaymentHistory{
		ID:          uuid.New(),
		PaymentID:   payment.ID,
		Status:      model.PaymentStatusCancelled,
		Description: "Payment cancelled: " + reason,
		CreatedAt:   now,
	}
	if err := s.paymentRepo.AppendHistory(ctx, tx, history); err != nil {
		return fmt.Errorf("failed to cancel payment: %w", err)
	}

	return nil
}

// Confirm finalises a PAID or DELIVERED order and credits the earned
// points. The guarded status update is what makes confirmation idempotent:
// the allowed source states are left exactly once.
func (s *orderService) Confirm(ctx context.Context, memberID uuid.UUID, orderNumber string) (*model.OrderResponse, error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm order: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order, items, err := s.orderRepo.GetByNumberForUpdate(ctx, tx, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm order: %w", err)
	}
	if order == nil {
		err = model.ErrOrderNotFound
		return nil, err
	}
	if order.MemberID != memberID {
		err = model.ErrUnauthorized
		return nil, err
	}

	var ok bool
	ok, err = s.orderRepo.UpdateStatus(ctx, tx, order.ID,
		[]model.OrderStatus{model.OrderStatusPaid, model.OrderStatusDelivered},
		model.OrderStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm order: %w", err)
	}
	if !ok {
		err = model.ErrInvalidState
		return nil, err
	}

	if order.EarnedPoints.IsPositive() {
		_, err = s.pointRepo.ApplyChange(ctx, tx, repository.PointChange{
			MemberID:    memberID,
			Amount:      order.EarnedPoints,
			Type:        model.PointTypeEarn,
			Description: fmt.Sprintf("Points earned on order %s", order.OrderNumber),
			OrderID:     &order.ID,
		})
		if err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to confirm order: %w", err)
	}

	order.Status = model.OrderStatusCompleted

	if order.EarnedPoints.IsPositive() {
		s.invalidateBalance(ctx, memberID)
	}

	s.logger.Info().
		Str("order_number", order.OrderNumber).
		Str("earned_points", order.EarnedPoints.String()).
		Msg("order confirmed")

	return model.NewOrderResponse(order, items), nil
}

// Get retrieves one of the member's orders.
func (s *orderService) Get(ctx context.Context, memberID uuid.UUID, orderNumber string) (*model.OrderResponse, error) {
	order, items, err := s.orderRepo.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	if order.MemberID != memberID {
		return nil, model.ErrUnauthorized
	}

	return model.NewOrderResponse(order, items), nil
}

// List retrieves the member's orders, newest first.
func (s *orderService) List(ctx context.Context, memberID uuid.UUID) ([]model.OrderResponse, error) {
	orders, err := s.orderRepo.ListByMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	responses := make([]model.OrderResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, *model.NewOrderResponse(&orders[i], nil))
	}

	return responses, nil
}

// invalidateBalance drops the cached point balance after the transaction
// holding a ledger change commits.
func (s *orderService) invalidateBalance(ctx context.Context, memberID uuid.UUID) {
	key := s.cache.Key("point", "balance", memberID.String())
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate cached point balance")
	}
}

// invalidateProducts drops cached products after a transaction changing
// their stock commits.
func (s *orderService) invalidateProducts(ctx context.Context, items []model.OrderItem) {
	for i := range items {
		key := s.cache.Key("product", items[i].ProductID)
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Warn().Err(err).Str("product_id", items[i].ProductID).Msg("failed to invalidate cached product")
		}
	}
}

// validateOrderRequest validates the order request.
func (s *orderService) validateOrderRequest(req *model.OrderRequest) error {
	if req == nil {
		return fmt.Errorf("order request is nil")
	}

	if len(req.Items) == 0 {
		return fmt.Errorf("order must contain at least one item")
	}

	for i, item := range req.Items {
		if item.ProductID == "" {
			return fmt.Errorf("item %d: product ID is required", i)
		}

		if item.Quantity <= 0 {
			s.logger.Warn().
				Int("item_index", i).
				Str("product_id", item.ProductID).
				Int("quantity", item.Quantity).
				Msg("invalid quantity")
			return model.ErrInvalidQuantity
		}
	}

	if req.UsePoints.IsNegative() {
		return fmt.Errorf("usePoints must not be negative")
	}

	return nil
}

// generateOrderNumber builds an ORDyyyymmdd###### order number. The unique
// constraint on the column backs up the random suffix.
func generateOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD%s%06d", now.Format("20060102"), rand.Intn(1000000))
}
