package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the payment state. Transitions are one-way:
// PENDING -> COMPLETED, PENDING -> FAILED, COMPLETED -> CANCELLED.
// A FAILED payment is retried by preparing a new payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// Payment represents one payment attempt for an order. OrderNumber is
// unique; PaymentKey is assigned by the external gateway at confirmation.
type Payment struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	PaymentKey    *string         `json:"paymentKey,omitempty" db:"payment_key"`
	OrderNumber   string          `json:"orderNumber" db:"order_number"`
	MemberID      uuid.UUID       `json:"memberId" db:"member_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Status        PaymentStatus   `json:"status" db:"status"`
	Method        *string         `json:"method,omitempty" db:"method"`
	CardNumber    *string         `json:"cardNumber,omitempty" db:"card_number"`
	CardCompany   *string         `json:"cardCompany,omitempty" db:"card_company"`
	PaidAt        *time.Time      `json:"paidAt,omitempty" db:"paid_at"`
	FailureReason *string         `json:"failureReason,omitempty" db:"failure_reason"`
	CancelledAt   *time.Time      `json:"cancelledAt,omitempty" db:"cancelled_at"`
	CancelReason  *string         `json:"cancelReason,omitempty" db:"cancel_reason"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}

// PaymentHistory is an append-only status-change record for audit.
type PaymentHistory struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	PaymentID   uuid.UUID     `json:"-" db:"payment_id"`
	Status      PaymentStatus `json:"status" db:"status"`
	Description string        `json:"description" db:"description"`
	CreatedAt   time.Time     `json:"createdAt" db:"created_at"`
}

// PaymentPrepareRequest is the payload for preparing a payment.
type PaymentPrepareRequest struct {
	OrderNumber string          `json:"orderId"`
	Amount      decimal.Decimal `json:"amount"`
}

// PaymentPrepareResponse returns the client key for the gateway's
// client-side flow.
type PaymentPrepareResponse struct {
	ClientKey   string `json:"clientKey"`
	OrderNumber string `json:"orderId"`
}

// PaymentConfirmRequest is the payload for confirming a payment after the
// client-side gateway flow completes.
type PaymentConfirmRequest struct {
	PaymentKey  string          `json:"paymentKey"`
	OrderNumber string          `json:"orderId"`
	Amount      decimal.Decimal `json:"amount"`
}

// PaymentCancelRequest is the payload for cancelling a completed payment.
type PaymentCancelRequest struct {
	CancelReason string `json:"cancelReason"`
}

// PaymentResponse represents the API view of a payment.
type PaymentResponse struct {
	ID            uuid.UUID       `json:"id"`
	OrderNumber   string          `json:"orderId"`
	Amount        decimal.Decimal `json:"amount"`
	Status        PaymentStatus   `json:"status"`
	Method        *string         `json:"method,omitempty"`
	CardNumber    *string         `json:"cardNumber,omitempty"`
	CardCompany   *string         `json:"cardCompany,omitempty"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
	FailureReason *string         `json:"failureReason,omitempty"`
	CancelledAt   *time.Time      `json:"cancelledAt,omitempty"`
	CancelReason  *string         `json:"cancelReason,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// NewPaymentResponse builds the API representation of a payment.
func NewPaymentResponse(p *Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:            p.ID,
		OrderNumber:   p.OrderNumber,
		Amount:        p.Amount,
		Status:        p.Status,
		Method:        p.Method,
		CardNumber:    p.CardNumber,
		CardCompany:   p.CardCompany,
		PaidAt:        p.PaidAt,
		FailureReason: p.FailureReason,
		CancelledAt:   p.CancelledAt,
		CancelReason:  p.CancelReason,
		CreatedAt:     p.CreatedAt,
	}
}
