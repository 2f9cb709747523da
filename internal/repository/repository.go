package repository

import (
	"context"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// MemberRepository reads members and their saved addresses and payment
// methods. Member management itself belongs to the identity collaborator.
type MemberRepository interface {
	// GetByID retrieves a member by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Member, error)

	// GetAddress retrieves an address owned by the given member.
	GetAddress(ctx context.Context, memberID, addressID uuid.UUID) (*model.Address, error)

	// GetPaymentMethod retrieves a payment method owned by the given member.
	GetPaymentMethod(ctx context.Context, memberID, methodID uuid.UUID) (*model.PaymentMethod, error)
}

// ProductRepository defines product data access. The order flow is the only
// writer and it only touches the stock quantity.
type ProductRepository interface {
	// List retrieves products with pagination support.
	List(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// LockForUpdate reads a product row under an exclusive row lock within
	// the given transaction. Serialises concurrent stock mutations per
	// product.
	LockForUpdate(ctx context.Context, tx pgx.Tx, id string) (*model.Product, error)

	// AdjustStock changes a product's stock quantity by delta within the
	// given transaction. The caller must hold the row lock.
	AdjustStock(ctx context.Context, tx pgx.Tx, id string, delta int) error
}

// OrderRepository defines order data access. Multi-write operations run
// inside a transaction started with BeginTx.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// Create inserts a new order within the provided transaction.
	Create(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateItems inserts order items within the provided transaction.
	CreateItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByNumber retrieves an order and its items by order number.
	GetByNumber(ctx context.Context, orderNumber string) (*model.Order, []model.OrderItem, error)

	// GetByNumberForUpdate retrieves an order and its items by order number
	// under an exclusive row lock within the given transaction.
	GetByNumberForUpdate(ctx context.Context, tx pgx.Tx, orderNumber string) (*model.Order, []model.OrderItem, error)

	// ListByMember retrieves a member's orders, newest first.
	ListByMember(ctx context.Context, memberID uuid.UUID) ([]model.Order, error)

	// UpdateStatus transitions an order's status only if the current status
	// is one of from. Returns false when no transition happened.
	UpdateStatus(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, from []model.OrderStatus, to model.OrderStatus) (bool, error)
}

// PaymentRepository defines payment and payment-history data access.
type PaymentRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// Create inserts a new payment within the provided transaction.
	Create(ctx context.Context, tx pgx.Tx, payment *model.Payment) error

	// GetByID retrieves one payment by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)

	// GetByOrderNumber retrieves the payment prepared for an order.
	GetByOrderNumber(ctx context.Context, orderNumber string) (*model.Payment, error)

	// GetByOrderNumberForUpdate retrieves the payment for an order under an
	// exclusive row lock within the given transaction.
	GetByOrderNumberForUpdate(ctx context.Context, tx pgx.Tx, orderNumber string) (*model.Payment, error)

	// Update persists a payment's mutable fields within the provided
	// transaction.
	Update(ctx context.Context, tx pgx.Tx, payment *model.Payment) error

	// ListByMember retrieves a member's payments, newest first.
	ListByMember(ctx context.Context, memberID uuid.UUID) ([]model.Payment, error)

	// AppendHistory appends a status-change record within the provided
	// transaction.
	AppendHistory(ctx context.Context, tx pgx.Tx, history *model.PaymentHistory) error

	// ListHistory retrieves a payment's status-change records, newest first.
	ListHistory(ctx context.Context, paymentID uuid.UUID) ([]model.PaymentHistory, error)
}

// PointChange is one ledger mutation. Amount is signed: positive credits,
// negative debits.
type PointChange struct {
	MemberID    uuid.UUID
	Amount      decimal.Decimal
	Type        model.PointType
	Description string
	OrderID     *uuid.UUID
}

// PointRepository defines the loyalty point ledger. ApplyChange is the only
// mutation path; it locks the member's balance row, updates the balance and
// appends exactly one history entry inside the caller's transaction.
type PointRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// GetBalance retrieves a member's balance, creating a zero-balance row
	// on first access.
	GetBalance(ctx context.Context, memberID uuid.UUID) (*model.PointBalance, error)

	// ApplyChange locks the member's balance row, applies the signed amount
	// and appends the matching history entry. Fails with
	// model.ErrInsufficientPoints when the result would be negative.
	ApplyChange(ctx context.Context, tx pgx.Tx, change PointChange) (*model.PointBalance, error)

	// ListHistory retrieves ledger entries for a member, newest first.
	ListHistory(ctx context.Context, memberID uuid.UUID, limit, offset int) ([]model.PointHistory, error)

	// ListHistoryByPeriod retrieves ledger entries within [from, to),
	// newest first.
	ListHistoryByPeriod(ctx context.Context, memberID uuid.UUID, from, to time.Time, limit, offset int) ([]model.PointHistory, error)
}

// DiscountRepository defines discount policy data access.
type DiscountRepository interface {
	// Create inserts a new discount policy.
	Create(ctx context.Context, discount *model.Discount) error

	// GetByID retrieves one discount policy.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Discount, error)

	// ListActive retrieves discounts that are active and valid at the given
	// time.
	ListActive(ctx context.Context, now time.Time) ([]model.Discount, error)

	// Deactivate clears a discount's active flag. Returns false when the
	// discount does not exist.
	Deactivate(ctx context.Context, id uuid.UUID) (bool, error)
}

// CouponRepository defines coupon data access.
type CouponRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// Create inserts a new coupon.
	Create(ctx context.Context, coupon *model.Coupon) error

	// CodeExists reports whether a coupon code is already taken.
	CodeExists(ctx context.Context, code string) (bool, error)

	// GetByCode retrieves a coupon by its code.
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)

	// ListAvailable retrieves a member's AVAILABLE coupons whose linked
	// discount is still valid at the given time.
	ListAvailable(ctx context.Context, memberID uuid.UUID, now time.Time) ([]model.Coupon, error)

	// MarkUsed flips an AVAILABLE coupon to USED within the provided
	// transaction. Returns false when the coupon was not AVAILABLE, which
	// keeps coupons single-use under concurrency.
	MarkUsed(ctx context.Context, tx pgx.Tx, id uuid.UUID, usedAt time.Time) (bool, error)
}
