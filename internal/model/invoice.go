package model

import "time"

// Invoice records the rendered invoice document of an order.
type Invoice struct {
	ID        int64     `json:"invoiceid" db:"invoiceid"`
	OrderID   int64     `json:"orderid" db:"orderid"`
	Number    string    `json:"invoice_number" db:"invoice_number"`
	Location  string    `json:"location" db:"location"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
