package notify

import (
	"fmt"
	"html"
	"strings"

	"storefront/internal/model"
)

const (
	KindRefundApproved = "refund.approved"
	KindRefundDenied   = "refund.denied"
	KindInvoiceIssued  = "invoice.issued"
)

// RefundApproved summarises the refunded lines and amount.
func RefundApproved(user *model.User, result *model.RefundDecisionResult) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Dear %s,</p>", html.EscapeString(user.Name))
	fmt.Fprintf(&b, "<p>Your refund for order #%d has been approved.</p><ul>", result.OrderID)
	for _, line := range result.Items {
		fmt.Fprintf(&b, "<li>Product %d: %d x %s = %s</li>",
			line.ProductID, line.Quantity, line.Price.StringFixed(2), line.Amount.StringFixed(2))
	}
	fmt.Fprintf(&b, "</ul><p>Total refunded: %s</p>", result.RefundedAmount.StringFixed(2))

	return Message{
		Kind:    KindRefundApproved,
		OrderID: result.OrderID,
		To:      user.Email,
		Subject: fmt.Sprintf("Refund approved for order #%d", result.OrderID),
		Body:    b.String(),
	}
}

// RefundDenied tells the customer the pending request was rejected.
func RefundDenied(user *model.User, orderID int64) Message {
	return Message{
		Kind:    KindRefundDenied,
		OrderID: orderID,
		To:      user.Email,
		Subject: fmt.Sprintf("Refund request for order #%d", orderID),
		Body: fmt.Sprintf("<p>Dear %s,</p><p>Your refund request for order #%d has been declined.</p>",
			html.EscapeString(user.Name), orderID),
	}
}

// InvoiceIssued carries the rendered invoice document.
func InvoiceIssued(user *model.User, invoice *model.Invoice, document string) Message {
	return Message{
		Kind:    KindInvoiceIssued,
		OrderID: invoice.OrderID,
		To:      user.Email,
		Subject: fmt.Sprintf("Invoice %s", invoice.Number),
		Body:    document,
	}
}
