package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the order lifecycle state.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusShipping  OrderStatus = "SHIPPING"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Order represents a customer order. An order is never deleted; cancellation
// is a state, not a removal.
type Order struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	OrderNumber       string          `json:"orderNumber" db:"order_number"`
	MemberID          uuid.UUID       `json:"memberId" db:"member_id"`
	DeliveryAddressID uuid.UUID       `json:"deliveryAddressId" db:"delivery_address_id"`
	PaymentMethodID   uuid.UUID       `json:"paymentMethodId" db:"payment_method_id"`
	Status            OrderStatus     `json:"status" db:"status"`
	TotalAmount       decimal.Decimal `json:"totalAmount" db:"total_amount"`
	DiscountAmount    decimal.Decimal `json:"discountAmount" db:"discount_amount"`
	UsedPoints        decimal.Decimal `json:"usedPoints" db:"used_points"`
	EarnedPoints      decimal.Decimal `json:"earnedPoints" db:"earned_points"`
	CouponID          *uuid.UUID      `json:"couponId,omitempty" db:"coupon_id"`
	CreatedAt         time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderItem represents a line item in an order with the unit price captured
// at purchase time.
type OrderItem struct {
	ID        uuid.UUID       `json:"-" db:"id"`
	OrderID   uuid.UUID       `json:"-" db:"order_id"`
	ProductID string          `json:"productId" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice" db:"unit_price"`
}

// Subtotal returns unit price times quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cancellable reports whether an order in the given state may be
// cancelled. Only PENDING and PAID orders can be cancelled.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusPaid
}

// Confirmable reports whether an order in the given state may be confirmed
// by the buyer. Only PAID and DELIVERED orders can be confirmed.
func (s OrderStatus) Confirmable() bool {
	return s == OrderStatusPaid || s == OrderStatusDelivered
}

// OrderRequest represents the request payload for creating an order.
type OrderRequest struct {
	DeliveryAddressID uuid.UUID          `json:"deliveryAddressId"`
	PaymentMethodID   uuid.UUID          `json:"paymentMethodId"`
	Items             []OrderItemRequest `json:"items"`
	UsePoints         decimal.Decimal    `json:"usePoints"`
	CouponCode        *string            `json:"couponCode,omitempty"`
}

// OrderItemRequest represents a single item in an order request.
type OrderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// OrderResponse represents the response payload for an order.
type OrderResponse struct {
	ID             uuid.UUID       `json:"id"`
	OrderNumber    string          `json:"orderNumber"`
	Status         OrderStatus     `json:"status"`
	Items          []OrderItem     `json:"items"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	UsedPoints     decimal.Decimal `json:"usedPoints"`
	EarnedPoints   decimal.Decimal `json:"earnedPoints"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// NewOrderResponse builds the API representation of an order.
func NewOrderResponse(order *Order, items []OrderItem) *OrderResponse {
	return &OrderResponse{
		ID:             order.ID,
		OrderNumber:    order.OrderNumber,
		Status:         order.Status,
		Items:          items,
		TotalAmount:    order.TotalAmount,
		DiscountAmount: order.DiscountAmount,
		UsedPoints:     order.UsedPoints,
		EarnedPoints:   order.EarnedPoints,
		CreatedAt:      order.CreatedAt,
	}
}
