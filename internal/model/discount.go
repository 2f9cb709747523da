package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType selects the discount formula.
type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "PERCENTAGE"
	DiscountTypeFixedAmount DiscountType = "FIXED_AMOUNT"
)

// Discount is an administratively managed discount policy. Immutable once
// referenced by a coupon; only the active flag may be toggled.
type Discount struct {
	ID                    uuid.UUID        `json:"id" db:"id"`
	Name                  string           `json:"name" db:"name"`
	Description           string           `json:"description" db:"description"`
	Type                  DiscountType     `json:"type" db:"type"`
	Value                 decimal.Decimal  `json:"value" db:"value"`
	MinimumOrderAmount    decimal.Decimal  `json:"minimumOrderAmount" db:"minimum_order_amount"`
	MaximumDiscountAmount *decimal.Decimal `json:"maximumDiscountAmount,omitempty" db:"maximum_discount_amount"`
	Active                bool             `json:"active" db:"active"`
	StartAt               time.Time        `json:"startAt" db:"start_at"`
	EndAt                 time.Time        `json:"endAt" db:"end_at"`
	CreatedAt             time.Time        `json:"createdAt" db:"created_at"`
}

// CouponStatus is the coupon state.
type CouponStatus string

const (
	CouponStatusAvailable CouponStatus = "AVAILABLE"
	CouponStatusUsed      CouponStatus = "USED"
	CouponStatusExpired   CouponStatus = "EXPIRED"
)

// Coupon is a single-use voucher issued to one member, linked to a
// discount policy.
type Coupon struct {
	ID         uuid.UUID    `json:"id" db:"id"`
	DiscountID uuid.UUID    `json:"discountId" db:"discount_id"`
	Code       string       `json:"code" db:"code"`
	MemberID   uuid.UUID    `json:"memberId" db:"member_id"`
	Status     CouponStatus `json:"status" db:"status"`
	UsedAt     *time.Time   `json:"usedAt,omitempty" db:"used_at"`
	CreatedAt  time.Time    `json:"createdAt" db:"created_at"`
}

// DiscountRequest is the admin payload for creating a discount policy.
type DiscountRequest struct {
	Name                  string           `json:"name"`
	Description           string           `json:"description"`
	Type                  DiscountType     `json:"type"`
	Value                 decimal.Decimal  `json:"value"`
	MinimumOrderAmount    decimal.Decimal  `json:"minimumOrderAmount"`
	MaximumDiscountAmount *decimal.Decimal `json:"maximumDiscountAmount,omitempty"`
	StartAt               time.Time        `json:"startAt"`
	EndAt                 time.Time        `json:"endAt"`
}

// CouponRequest is the admin payload for issuing a coupon to a member.
type CouponRequest struct {
	DiscountID uuid.UUID `json:"discountId"`
	MemberID   uuid.UUID `json:"memberId"`
}

// CouponApplyRequest is the payload for a dry-run coupon application.
type CouponApplyRequest struct {
	Code        string          `json:"code"`
	OrderAmount decimal.Decimal `json:"orderAmount"`
}

// CouponApplicationResponse is the result of applying a coupon to an order
// amount. The coupon is not marked used by this computation.
type CouponApplicationResponse struct {
	CouponID       uuid.UUID       `json:"couponId"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	FinalAmount    decimal.Decimal `json:"finalAmount"`
}
