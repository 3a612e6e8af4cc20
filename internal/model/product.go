package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents an item in the catalogue. Stock is owned by the inventory ledger.
type Product struct {
	ID            int64               `json:"productid" db:"productid"`
	Name          string              `json:"name" db:"name"`
	Stock         int                 `json:"stock" db:"stock"`
	Price         decimal.Decimal     `json:"price" db:"price"`
	DiscountPrice decimal.NullDecimal `json:"discountprice" db:"discountprice"`
	Cost          decimal.NullDecimal `json:"cost" db:"cost"`
	CreatedAt     time.Time           `json:"createdAt" db:"created_at"`
}

// EffectivePrice is the discount price when one is set, otherwise the list price.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice.Valid {
		return p.DiscountPrice.Decimal
	}
	return p.Price
}

// StockUpdateRequest sets the absolute stock level of a product.
type StockUpdateRequest struct {
	Stock int `json:"stock"`
}

// PricingUpdateRequest changes sales fields; nil fields are left untouched.
type PricingUpdateRequest struct {
	Price         *decimal.Decimal `json:"price,omitempty"`
	DiscountPrice *decimal.Decimal `json:"discountprice,omitempty"`
	Cost          *decimal.Decimal `json:"cost,omitempty"`
}
