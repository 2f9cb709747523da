package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeMissingField       = "MISSING_FIELD"
	ErrCodeMemberNotFound     = "MEMBER_NOT_FOUND"
	ErrCodeProductNotFound    = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound      = "ORDER_NOT_FOUND"
	ErrCodePaymentNotFound    = "PAYMENT_NOT_FOUND"
	ErrCodeDiscountNotFound   = "DISCOUNT_NOT_FOUND"
	ErrCodeAddressNotFound    = "ADDRESS_NOT_FOUND"
	ErrCodePayMethodNotFound  = "PAYMENT_METHOD_NOT_FOUND"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInvalidState       = "INVALID_STATE"
	ErrCodeInsufficientStock  = "INSUFFICIENT_STOCK"
	ErrCodeInsufficientPoints = "INSUFFICIENT_POINTS"
	ErrCodeAmountMismatch     = "AMOUNT_MISMATCH"
	ErrCodeDuplicateOrder     = "DUPLICATE_ORDER"
	ErrCodeInvalidCoupon      = "INVALID_COUPON"
	ErrCodeCouponExpired      = "COUPON_EXPIRED"
	ErrCodeWrongOwner         = "WRONG_OWNER"
	ErrCodeInvalidQuantity    = "INVALID_QUANTITY"
	ErrCodeInvalidAmount      = "INVALID_AMOUNT"
	ErrCodeGatewayError       = "GATEWAY_ERROR"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// DomainError is a business-rule violation surfaced to the caller.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrMemberNotFound        = NewDomainError(ErrCodeMemberNotFound, "Member not found")
	ErrProductNotFound       = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrOrderNotFound         = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrPaymentNotFound       = NewDomainError(ErrCodePaymentNotFound, "Payment not found")
	ErrDiscountNotFound      = NewDomainError(ErrCodeDiscountNotFound, "Discount not found")
	ErrAddressNotFound       = NewDomainError(ErrCodeAddressNotFound, "Delivery address not found")
	ErrPaymentMethodNotFound = NewDomainError(ErrCodePayMethodNotFound, "Payment method not found")
	ErrUnauthorized          = NewDomainError(ErrCodeUnauthorized, "Actor does not own this resource")
	ErrInvalidState          = NewDomainError(ErrCodeInvalidState, "Operation not permitted in the current state")
	ErrInsufficientStock     = NewDomainError(ErrCodeInsufficientStock, "Insufficient stock")
	ErrInsufficientPoints    = NewDomainError(ErrCodeInsufficientPoints, "Insufficient points")
	ErrAmountMismatch        = NewDomainError(ErrCodeAmountMismatch, "Submitted amount does not match the reserved amount")
	ErrDuplicateOrder        = NewDomainError(ErrCodeDuplicateOrder, "A payment has already been prepared for this order")
	ErrInvalidCoupon         = NewDomainError(ErrCodeInvalidCoupon, "Coupon is not available")
	ErrCouponExpired         = NewDomainError(ErrCodeCouponExpired, "Coupon has expired")
	ErrWrongOwner            = NewDomainError(ErrCodeWrongOwner, "Coupon belongs to another member")
	ErrInvalidQuantity       = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrInvalidAmount         = NewDomainError(ErrCodeInvalidAmount, "Amount is below the minimum purchasable amount")
	ErrGateway               = NewDomainError(ErrCodeGatewayError, "Payment gateway call failed")
)
