package model

import "fmt"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON          = "INVALID_JSON"
	ErrCodeInvalidID            = "INVALID_ID"
	ErrCodeMissingField         = "MISSING_FIELD"
	ErrCodeInvalidQuantity      = "INVALID_QUANTITY"
	ErrCodeInvalidPrice         = "INVALID_PRICE"
	ErrCodeDuplicateItem        = "DUPLICATE_ITEM"
	ErrCodeOrderNotFound        = "ORDER_NOT_FOUND"
	ErrCodeProductNotFound      = "PRODUCT_NOT_FOUND"
	ErrCodeOrderItemNotFound    = "ORDER_ITEM_NOT_FOUND"
	ErrCodeDeliveryNotFound     = "DELIVERY_NOT_FOUND"
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
	ErrCodeInsufficientStock    = "INSUFFICIENT_STOCK"
	ErrCodeInvalidStatus        = "INVALID_STATUS"
	ErrCodeInvalidTransition    = "INVALID_TRANSITION"
	ErrCodeNotCancellable       = "NOT_CANCELLABLE"
	ErrCodeRefundPeriodExpired  = "REFUND_PERIOD_EXPIRED"
	ErrCodeNotRefundable        = "NOT_REFUNDABLE"
	ErrCodeExcessRefundQuantity = "EXCESS_REFUND_QUANTITY"
	ErrCodeNoPendingRefund      = "NO_PENDING_REFUND"
	ErrCodeUnauthorised         = "UNAUTHORIZED"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeRateLimited          = "RATE_LIMITED"
	ErrCodeInternalError        = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any domain error carrying the same code, so errors built with a
// more specific message still satisfy errors.Is against the sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
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
	ErrMissingActor         = NewDomainError(ErrCodeUnauthorised, "X-User-ID header is required")
	ErrForbidden            = NewDomainError(ErrCodeForbidden, "Caller is not allowed to perform this action")
	ErrInvalidQuantity      = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrInvalidStock         = NewDomainError(ErrCodeInvalidQuantity, "Stock cannot be negative")
	ErrInvalidPrice         = NewDomainError(ErrCodeInvalidPrice, "Prices cannot be negative")
	ErrDuplicateItem        = NewDomainError(ErrCodeDuplicateItem, "Each product may appear only once per order")
	ErrEmptyOrder           = NewDomainError(ErrCodeMissingField, "Order must contain at least one item")
	ErrOrderNotFound        = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrProductNotFound      = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrOrderItemNotFound    = NewDomainError(ErrCodeOrderItemNotFound, "Product is not part of this order")
	ErrDeliveryNotFound     = NewDomainError(ErrCodeDeliveryNotFound, "Delivery not found")
	ErrUserNotFound         = NewDomainError(ErrCodeUserNotFound, "User not found")
	ErrInsufficientStock    = NewDomainError(ErrCodeInsufficientStock, "Insufficient stock")
	ErrInvalidStatus        = NewDomainError(ErrCodeInvalidStatus, "Status must be one of in-transit or delivered")
	ErrInvalidTransition    = NewDomainError(ErrCodeInvalidTransition, "Order cannot move to the requested status")
	ErrNotCancellable       = NewDomainError(ErrCodeNotCancellable, "Only orders still processing can be cancelled")
	ErrRefundPeriodExpired  = NewDomainError(ErrCodeRefundPeriodExpired, "Refund period has expired")
	ErrNotRefundable        = NewDomainError(ErrCodeNotRefundable, "Order is not eligible for a refund")
	ErrExcessRefundQuantity = NewDomainError(ErrCodeExcessRefundQuantity, "Refund quantity exceeds remaining quantity")
	ErrNoPendingRefund      = NewDomainError(ErrCodeNoPendingRefund, "No pending refund request for this order")
)

// InsufficientStockError names the product whose reservation failed.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// Unwrap lets errors.Is match ErrInsufficientStock.
func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// ExcessRefundQuantityError names the order line that cannot cover the refund.
type ExcessRefundQuantityError struct {
	ProductID int64
	Requested int
	Remaining int
}

func (e *ExcessRefundQuantityError) Error() string {
	return fmt.Sprintf("refund quantity %d for product %d exceeds remaining quantity %d",
		e.Requested, e.ProductID, e.Remaining)
}

func (e *ExcessRefundQuantityError) Unwrap() error {
	return ErrExcessRefundQuantity
}

// ProductNotFoundError names the product id that does not exist.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

func (e *ProductNotFoundError) Unwrap() error {
	return ErrProductNotFound
}
