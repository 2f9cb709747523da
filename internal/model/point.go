package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PointType classifies a ledger entry.
type PointType string

const (
	PointTypeEarn   PointType = "EARN"
	PointTypeUse    PointType = "USE"
	PointTypeExpire PointType = "EXPIRE"
	PointTypeCancel PointType = "CANCEL"
	PointTypeAdjust PointType = "ADJUST"
)

// PointBalance is the current loyalty point balance for a member. One row
// per member, created lazily on first point activity, never deleted.
type PointBalance struct {
	MemberID  uuid.UUID       `json:"memberId" db:"member_id"`
	Balance   decimal.Decimal `json:"balance" db:"balance"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
}

// PointHistory is one append-only ledger entry. Amount is signed: positive
// entries credit the balance, negative entries debit it. Replaying the
// amounts for a member in order must reproduce the current balance.
type PointHistory struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	MemberID     uuid.UUID       `json:"-" db:"member_id"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	Type         PointType       `json:"type" db:"type"`
	Description  string          `json:"description" db:"description"`
	OrderID      *uuid.UUID      `json:"orderId,omitempty" db:"order_id"`
	BalanceAfter decimal.Decimal `json:"balanceAfter" db:"balance_after"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
}

// PointAdjustRequest is the admin payload for a manual balance correction.
type PointAdjustRequest struct {
	MemberID    uuid.UUID       `json:"memberId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}
