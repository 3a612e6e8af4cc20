package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RefundWindow is how long after the order date a refund may be requested.
const RefundWindow = 30 * 24 * time.Hour

// RefundRequest is a pending, customer-staged refund line.
type RefundRequest struct {
	OrderID     int64     `json:"orderid" db:"orderid"`
	ProductID   int64     `json:"productid" db:"productid"`
	Quantity    int       `json:"quantity" db:"quantity"`
	RequestedAt time.Time `json:"requested_at" db:"requested_at"`
}

// RefundLine is one product and quantity to refund.
type RefundLine struct {
	ProductID int64 `json:"productid"`
	Quantity  int   `json:"quantity"`
}

// RefundRequestInput is the payload of a refund request.
type RefundRequestInput struct {
	Items []RefundLine `json:"items"`
}

// RefundRequestResponse acknowledges a staged request.
type RefundRequestResponse struct {
	OrderID int64        `json:"orderid"`
	Status  string       `json:"status"`
	Items   []RefundLine `json:"items"`
}

// RefundDecisionRequest is a sales manager's verdict on an order's pending requests.
// Approved is a pointer so that an omitted verdict is rejected instead of
// being read as a denial.
type RefundDecisionRequest struct {
	OrderID  int64 `json:"orderid"`
	Approved *bool `json:"approved"`
}

// NewRefundDecision builds a decision request for orderID.
func NewRefundDecision(orderID int64, approved bool) *RefundDecisionRequest {
	return &RefundDecisionRequest{OrderID: orderID, Approved: &approved}
}

// RefundDecisionResult reports the outcome of a decision.
type RefundDecisionResult struct {
	OrderID        int64           `json:"orderid"`
	Approved       bool            `json:"approved"`
	RefundedAmount decimal.Decimal `json:"refunded_amount"`
	Status         string          `json:"status"`
	Items          []RefundedLine  `json:"items,omitempty"`
}

// RefundedLine is a line that was refunded by an approval.
type RefundedLine struct {
	ProductID int64           `json:"productid"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
}

// RefundEligibility is the read-only verdict on whether an order may be refunded.
type RefundEligibility struct {
	OrderID int64  `json:"orderid"`
	Valid   bool   `json:"valid"`
	Reason  string `json:"reason,omitempty"`
}

// RefundableItem is an order line that still has quantity left to refund.
type RefundableItem struct {
	ProductID   int64           `json:"productid"`
	ProductName string          `json:"productname"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}
