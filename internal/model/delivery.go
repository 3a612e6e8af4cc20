package model

import "time"

// Delivery is the shipment record of an order; Status mirrors the order.
type Delivery struct {
	ID        int64       `json:"deliveryid" db:"deliveryid"`
	OrderID   int64       `json:"orderid" db:"orderid"`
	Status    OrderStatus `json:"status" db:"status"`
	Address   string      `json:"delivery_address" db:"delivery_address"`
	Completed bool        `json:"completed" db:"completed"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}
