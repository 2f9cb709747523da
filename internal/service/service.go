package service

import (
	"context"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductService defines read operations on the product catalogue.
type ProductService interface {
	// List retrieves products with pagination.
	List(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)
}

// OrderService drives the order lifecycle: creation with stock and point
// reservation, cancellation with full reversal, and buyer confirmation
// with point accrual.
type OrderService interface {
	// Create prices and persists a new PENDING order, decrementing stock
	// and reserving used points in the same unit of work.
	Create(ctx context.Context, memberID uuid.UUID, req *model.OrderRequest) (*model.OrderResponse, error)

	// Cancel reverses a PENDING or PAID order: stock restored, used points
	// refunded, any completed payment cancelled with the gateway.
	Cancel(ctx context.Context, memberID uuid.UUID, orderNumber string) (*model.OrderResponse, error)

	// Confirm finalises a PAID or DELIVERED order and credits the earned
	// points. Confirming twice never double-credits.
	Confirm(ctx context.Context, memberID uuid.UUID, orderNumber string) (*model.OrderResponse, error)

	// Get retrieves one of the member's orders.
	Get(ctx context.Context, memberID uuid.UUID, orderNumber string) (*model.OrderResponse, error)

	// List retrieves the member's orders, newest first.
	List(ctx context.Context, memberID uuid.UUID) ([]model.OrderResponse, error)
}

// PaymentService drives the payment state machine against the external
// gateway.
type PaymentService interface {
	// Prepare creates a PENDING payment for an order and returns the
	// gateway client key for the client-side flow.
	Prepare(ctx context.Context, memberID uuid.UUID, req *model.PaymentPrepareRequest) (*model.PaymentPrepareResponse, error)

	// Confirm approves a PENDING payment with the gateway. On success the
	// payment completes and the order advances to PAID; on gateway failure
	// the payment is marked FAILED and the order is left untouched.
	Confirm(ctx context.Context, req *model.PaymentConfirmRequest) (*model.PaymentResponse, error)

	// Cancel reverses a COMPLETED payment with the gateway.
	Cancel(ctx context.Context, memberID, paymentID uuid.UUID, reason string) (*model.PaymentResponse, error)

	// Get retrieves one of the member's payments.
	Get(ctx context.Context, memberID, paymentID uuid.UUID) (*model.PaymentResponse, error)

	// ListMine retrieves the member's payments, newest first.
	ListMine(ctx context.Context, memberID uuid.UUID) ([]model.PaymentResponse, error)

	// History retrieves a payment's status-change records, newest first.
	History(ctx context.Context, memberID, paymentID uuid.UUID) ([]model.PaymentHistory, error)
}

// PointService is the public surface of the loyalty point ledger. Every
// mutation writes one balance update and one history entry atomically.
type PointService interface {
	// Earn credits points to a member.
	Earn(ctx context.Context, memberID uuid.UUID, amount decimal.Decimal, description string, orderID *uuid.UUID) (*model.PointBalance, error)

	// Use debits points from a member, failing with ErrInsufficientPoints
	// when the balance would go negative.
	Use(ctx context.Context, memberID uuid.UUID, amount decimal.Decimal, description string, orderID *uuid.UUID) (*model.PointBalance, error)

	// CancelUse refunds previously used points.
	CancelUse(ctx context.Context, memberID uuid.UUID, amount decimal.Decimal, description string, orderID *uuid.UUID) (*model.PointBalance, error)

	// Adjust applies a signed manual correction (admin only).
	Adjust(ctx context.Context, req *model.PointAdjustRequest) (*model.PointBalance, error)

	// GetBalance retrieves a member's balance, creating a zero row on
	// first access.
	GetBalance(ctx context.Context, memberID uuid.UUID) (*model.PointBalance, error)

	// History retrieves ledger entries, newest first.
	History(ctx context.Context, memberID uuid.UUID, page, size int) ([]model.PointHistory, error)

	// HistoryByPeriod retrieves ledger entries within [from, to), newest
	// first.
	HistoryByPeriod(ctx context.Context, memberID uuid.UUID, from, to time.Time, page, size int) ([]model.PointHistory, error)
}

// CouponService manages coupon issuance and application.
type CouponService interface {
	// Create issues a coupon for a discount policy to a member (admin only).
	Create(ctx context.Context, req *model.CouponRequest) (*model.Coupon, error)

	// ListMine retrieves the member's available coupons.
	ListMine(ctx context.Context, memberID uuid.UUID) ([]model.Coupon, error)

	// Apply validates a coupon against an order amount and computes the
	// discount without marking the coupon used, so it doubles as a
	// dry-run preview.
	Apply(ctx context.Context, memberID uuid.UUID, code string, orderAmount decimal.Decimal) (*model.CouponApplicationResponse, error)

	// MarkUsed flips a coupon to USED. The first successful call wins.
	MarkUsed(ctx context.Context, couponID uuid.UUID) error
}

// DiscountService manages discount policies (admin only except ListActive).
type DiscountService interface {
	// Create registers a new discount policy.
	Create(ctx context.Context, req *model.DiscountRequest) (*model.Discount, error)

	// ListActive retrieves policies valid right now.
	ListActive(ctx context.Context) ([]model.Discount, error)

	// Deactivate toggles a policy off.
	Deactivate(ctx context.Context, id uuid.UUID) error
}
