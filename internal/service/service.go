package service

import (
	"context"
	"time"

	"storefront/internal/model"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("storefront/internal/service")

// Clock returns the current time; services take one so time-based rules can be tested.
type Clock func() time.Time

// ProductService defines operations for product management.
type ProductService interface {
	// GetAll retrieves all products with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// SetStock overwrites a product's stock level. Product managers only.
	SetStock(ctx context.Context, actorID, productID int64, stock int) (*model.Product, error)

	// UpdatePricing changes price, discount price and cost. Sales managers only.
	UpdatePricing(ctx context.Context, actorID, productID int64, req *model.PricingUpdateRequest) (*model.Product, error)
}

// OrderService defines operations for order placement and lookup.
type OrderService interface {
	// CreateOrder reserves stock for every line and records the order in one transaction.
	CreateOrder(ctx context.Context, actorID int64, req *model.OrderRequest) (*model.Order, error)

	// GetOrder returns one order with its lines.
	GetOrder(ctx context.Context, actorID, orderID int64) (*model.Order, error)

	// GetOrdersForUser returns a user's orders, newest first.
	GetOrdersForUser(ctx context.Context, actorID, userID int64) ([]model.Order, error)

	// ListOrdersByStatus returns all orders in one status. Product managers only.
	ListOrdersByStatus(ctx context.Context, actorID int64, status model.OrderStatus) ([]model.Order, error)
}

// StatusService moves orders through processing, in-transit and delivered.
type StatusService interface {
	// SetStatus is the manual, product-manager driven transition.
	SetStatus(ctx context.Context, actorID, orderID int64, status model.OrderStatus) (*model.StatusUpdateResponse, error)

	// Sweep advances orders by age relative to now.
	Sweep(ctx context.Context, now time.Time) (*model.SweepResult, error)
}

// RefundService handles cancellation of unshipped orders and per-line refunds.
type RefundService interface {
	// CancelOrder deletes a processing order and returns its stock.
	CancelOrder(ctx context.Context, actorID, orderID int64) error

	// ValidateRefund reports whether the order could be refunded at now.
	ValidateRefund(ctx context.Context, orderID int64, now time.Time) (*model.RefundEligibility, error)

	// RefundableItems lists lines that still have quantity left.
	RefundableItems(ctx context.Context, orderID int64) ([]model.RefundableItem, error)

	// RequestRefund stages refund lines for a sales manager to decide on.
	RequestRefund(ctx context.Context, actorID, orderID int64, lines []model.RefundLine) (*model.RefundRequestResponse, error)

	// ListRefundRequests returns every pending request. Sales managers only.
	ListRefundRequests(ctx context.Context, actorID int64) ([]model.RefundRequest, error)

	// Decide approves or denies the pending requests of an order. Sales managers only.
	Decide(ctx context.Context, actorID int64, req *model.RefundDecisionRequest) (*model.RefundDecisionResult, error)
}

// DeliveryService exposes deliveries to product managers.
type DeliveryService interface {
	List(ctx context.Context, actorID int64, status model.OrderStatus) ([]model.Delivery, error)
	Get(ctx context.Context, actorID, deliveryID int64) (*model.Delivery, error)

	// Complete marks a delivery as completed, which closes the order to refunds.
	Complete(ctx context.Context, actorID, deliveryID int64) (*model.Delivery, error)
}
