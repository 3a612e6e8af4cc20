package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fraction digits every currency amount carries.
const MoneyPlaces = 2

// money renders an amount with exactly two fraction digits.
func money(d decimal.Decimal) string {
	return d.StringFixed(MoneyPlaces)
}

func nullMoney(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := money(d.Decimal)
	return &s
}

// The MarshalJSON methods below keep the field layout of each type and only
// replace its amounts, so "20" goes out as "20.00".

func (p Product) MarshalJSON() ([]byte, error) {
	type alias Product
	return json.Marshal(struct {
		alias
		Price         string  `json:"price"`
		DiscountPrice *string `json:"discountprice"`
		Cost          *string `json:"cost"`
	}{
		alias:         alias(p),
		Price:         money(p.Price),
		DiscountPrice: nullMoney(p.DiscountPrice),
		Cost:          nullMoney(p.Cost),
	})
}

func (o Order) MarshalJSON() ([]byte, error) {
	type alias Order
	return json.Marshal(struct {
		alias
		TotalAmount string `json:"totalamount"`
	}{alias(o), money(o.TotalAmount)})
}

func (i OrderItem) MarshalJSON() ([]byte, error) {
	type alias OrderItem
	return json.Marshal(struct {
		alias
		Price string `json:"price"`
	}{alias(i), money(i.Price)})
}

func (r RefundDecisionResult) MarshalJSON() ([]byte, error) {
	type alias RefundDecisionResult
	return json.Marshal(struct {
		alias
		RefundedAmount string `json:"refunded_amount"`
	}{alias(r), money(r.RefundedAmount)})
}

func (l RefundedLine) MarshalJSON() ([]byte, error) {
	type alias RefundedLine
	return json.Marshal(struct {
		alias
		Price  string `json:"price"`
		Amount string `json:"amount"`
	}{alias(l), money(l.Price), money(l.Amount)})
}

func (i RefundableItem) MarshalJSON() ([]byte, error) {
	type alias RefundableItem
	return json.Marshal(struct {
		alias
		Price string `json:"price"`
	}{alias(i), money(i.Price)})
}
