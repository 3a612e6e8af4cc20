// Package invoice renders, stores and sends the invoice of a newly placed order.
package invoice

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

// Number returns the invoice number of an order.
func Number(orderID int64) string {
	return fmt.Sprintf("INV-%d", orderID)
}

// Renderer turns an order into an invoice document.
type Renderer interface {
	Render(order *model.Order, customer *model.User) ([]byte, error)
	ContentType() string
	Extension() string
}

var invoiceTemplate = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Number}}</title></head>
<body>
<h1>Invoice {{.Number}}</h1>
<p>Issued {{.Issued}}</p>
<p>Bill to: {{.Customer.Name}}<br>{{.Customer.HomeAddress}}<br>{{.Customer.Email}}</p>
<p>Order #{{.Order.ID}} placed {{.OrderDate}}</p>
<table>
<tr><th>Product</th><th>Quantity</th><th>Unit price</th><th>Subtotal</th></tr>
{{range .Lines}}<tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{.Price}}</td><td>{{.Subtotal}}</td></tr>
{{end}}</table>
<p>Total: {{.Total}}</p>
</body>
</html>
`))

type line struct {
	Name     string
	Quantity int
	Price    string
	Subtotal string
}

type htmlRenderer struct {
	now func() time.Time
}

// NewHTMLRenderer creates a renderer producing a standalone HTML document.
func NewHTMLRenderer() Renderer {
	return &htmlRenderer{now: time.Now}
}

func (r *htmlRenderer) ContentType() string { return "text/html; charset=utf-8" }

func (r *htmlRenderer) Extension() string { return ".html" }

// Render writes one row per line. The total is the stored order amount, falling
// back to the sum of the lines when it was not recorded.
func (r *htmlRenderer) Render(order *model.Order, customer *model.User) ([]byte, error) {
	if order == nil || customer == nil {
		return nil, fmt.Errorf("order and customer are required")
	}

	lines := make([]line, 0, len(order.Items))
	sum := decimal.Zero
	for _, item := range order.Items {
		name := item.ProductName
		if name == "" {
			name = fmt.Sprintf("Product %d", item.ProductID)
		}
		subtotal := item.Subtotal()
		sum = sum.Add(subtotal)
		lines = append(lines, line{
			Name:     name,
			Quantity: item.Quantity,
			Price:    item.Price.StringFixed(2),
			Subtotal: subtotal.StringFixed(2),
		})
	}

	total := order.TotalAmount
	if total.IsZero() {
		total = sum
	}

	var buf bytes.Buffer
	err := invoiceTemplate.Execute(&buf, map[string]any{
		"Number":    Number(order.ID),
		"Issued":    r.now().UTC().Format("2006-01-02"),
		"Customer":  customer,
		"Order":     order,
		"OrderDate": order.OrderDate.UTC().Format("2006-01-02 15:04"),
		"Lines":     lines,
		"Total":     total.StringFixed(2),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render invoice: %w", err)
	}
	return buf.Bytes(), nil
}
