package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state shared by orders and their deliveries.
type OrderStatus string

const (
	StatusProcessing        OrderStatus = "processing"
	StatusInTransit         OrderStatus = "in-transit"
	StatusDelivered         OrderStatus = "delivered"
	StatusRefunded          OrderStatus = "refunded"
	StatusPartiallyRefunded OrderStatus = "partially-refunded"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusProcessing, StatusInTransit, StatusDelivered, StatusRefunded, StatusPartiallyRefunded:
		return true
	}
	return false
}

// Refunded reports whether a refund has been applied to the order.
func (s OrderStatus) Refunded() bool {
	return s == StatusRefunded || s == StatusPartiallyRefunded
}

// Stage orders the fulfilment states; refund states return -1.
func (s OrderStatus) Stage() int {
	switch s {
	case StatusProcessing:
		return 0
	case StatusInTransit:
		return 1
	case StatusDelivered:
		return 2
	}
	return -1
}

// Order represents a customer order.
type Order struct {
	ID          int64           `json:"orderid" db:"orderid"`
	UserID      int64           `json:"userid" db:"userid"`
	TotalAmount decimal.Decimal `json:"totalamount" db:"totalamount"`
	OrderDate   time.Time       `json:"order_date" db:"order_date"`
	Status      OrderStatus     `json:"status" db:"status"`
	Items       []OrderItem     `json:"items,omitempty"`
}

// OrderItem represents a line item in an order. Price is the purchase-time snapshot.
type OrderItem struct {
	OrderID     int64           `json:"orderid" db:"orderid"`
	ProductID   int64           `json:"productid" db:"productid"`
	ProductName string          `json:"productname,omitempty"`
	Quantity    int             `json:"quantity" db:"quantity"`
	Price       decimal.Decimal `json:"price" db:"price"`
}

// Subtotal returns price times remaining quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity))).Round(2)
}

// OrderRequest represents the request payload for creating an order.
type OrderRequest struct {
	UserID      int64              `json:"userid"`
	TotalAmount decimal.Decimal    `json:"totalamount"`
	Items       []OrderItemRequest `json:"items"`
}

// OrderItemRequest represents a single item in an order request.
// A zero price means the current catalogue price is used.
type OrderItemRequest struct {
	ProductID int64           `json:"productid"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// CreateOrderResponse is returned after an order has been placed.
type CreateOrderResponse struct {
	OrderID int64  `json:"orderid"`
	Status  string `json:"status"`
	Order   *Order `json:"order"`
}

// StatusUpdateRequest carries a manager's requested status.
type StatusUpdateRequest struct {
	Status OrderStatus `json:"status"`
}

// StatusUpdateResponse reports the status an order ended up in.
type StatusUpdateResponse struct {
	OrderID int64       `json:"orderid"`
	Status  OrderStatus `json:"status"`
}

// SweepResult summarises one run of the time-driven status sweep.
type SweepResult struct {
	InTransit  []int64 `json:"in_transit"`
	Delivered  []int64 `json:"delivered"`
	Deliveries int     `json:"deliveries_created"`
}

// Total returns the number of orders whose status changed.
func (r SweepResult) Total() int {
	return len(r.InTransit) + len(r.Delivered)
}
