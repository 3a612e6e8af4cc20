package repository

import (
	"context"
	"time"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Querier is the statement surface shared by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pick returns tx when the caller is inside a transaction, otherwise the pool.
func pick(pool *pgxpool.Pool, tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return pool
}

// ProductRepository defines product data access, including the inventory ledger.
// Reserve, Release and SetStock are the only statements that write products.stock.
type ProductRepository interface {
	// GetAll retrieves all products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// Reserve atomically takes qty units out of stock inside tx and returns the
	// effective unit price at the moment of reservation.
	Reserve(ctx context.Context, tx pgx.Tx, productID int64, qty int) (decimal.Decimal, error)

	// Release returns qty units to stock inside tx.
	Release(ctx context.Context, tx pgx.Tx, productID int64, qty int) error

	// SetStock overwrites the stock level of a product.
	SetStock(ctx context.Context, productID int64, stock int) (*model.Product, error)

	// UpdatePricing changes price, discount price and cost; nil fields are kept.
	UpdatePricing(ctx context.Context, productID int64, req *model.PricingUpdateRequest) (*model.Product, error)
}

// StatusChange is one order moved by the time-driven sweep.
type StatusChange struct {
	OrderID int64
	Status  model.OrderStatus
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction and
	// fills in its generated ID and order date.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items.
	GetByID(ctx context.Context, id int64) (*model.Order, error)

	// LockByID reads the order row with FOR UPDATE inside tx.
	LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Order, error)

	// GetItems lists the order's lines; tx may be nil.
	GetItems(ctx context.Context, tx pgx.Tx, orderID int64) ([]model.OrderItem, error)

	// ListByUser returns the user's orders with items, newest first.
	ListByUser(ctx context.Context, userID int64) ([]model.Order, error)

	// ListByStatus returns orders in the given status with items, oldest first.
	ListByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error)

	// UpdateStatus sets the order status inside tx.
	UpdateStatus(ctx context.Context, tx pgx.Tx, orderID int64, status model.OrderStatus) error

	// DecrementItem lowers a line's quantity by qty, never below zero.
	DecrementItem(ctx context.Context, tx pgx.Tx, orderID, productID int64, qty int) error

	// Delete removes the order together with its items, deliveries and refund requests.
	Delete(ctx context.Context, tx pgx.Tx, orderID int64) error

	// AdvanceByAge moves processing and in-transit orders forward according to
	// how long ago they were placed.
	AdvanceByAge(ctx context.Context, tx pgx.Tx, now time.Time, transitAfter, deliveredAfter time.Duration) ([]StatusChange, error)
}

// DeliveryRepository defines data access for deliveries.
type DeliveryRepository interface {
	// EnsureForOrders creates a delivery, addressed to the customer's home
	// address, for each listed order that has none yet.
	EnsureForOrders(ctx context.Context, tx pgx.Tx, orderIDs []int64) (int, error)

	// SyncStatus copies each listed order's status onto its deliveries.
	SyncStatus(ctx context.Context, tx pgx.Tx, orderIDs []int64) error

	// HasCompleted reports whether any delivery of the order is marked completed; tx may be nil.
	HasCompleted(ctx context.Context, tx pgx.Tx, orderID int64) (bool, error)

	GetByID(ctx context.Context, id int64) (*model.Delivery, error)

	// List returns deliveries, optionally filtered by status.
	List(ctx context.Context, status model.OrderStatus) ([]model.Delivery, error)

	// MarkCompleted flags a delivery as completed.
	MarkCompleted(ctx context.Context, id int64) (*model.Delivery, error)
}

// RefundRepository defines data access for pending refund requests.
type RefundRepository interface {
	// Upsert stages the lines for orderID, replacing any pending quantity per product.
	Upsert(ctx context.Context, tx pgx.Tx, orderID int64, lines []model.RefundLine) error

	// ListByOrder returns pending requests of one order; tx may be nil.
	ListByOrder(ctx context.Context, tx pgx.Tx, orderID int64) ([]model.RefundRequest, error)

	// ListPending returns every pending request, oldest first.
	ListPending(ctx context.Context) ([]model.RefundRequest, error)

	// DeleteByOrder drops all pending requests of an order and reports how many
	// were removed; tx may be nil.
	DeleteByOrder(ctx context.Context, tx pgx.Tx, orderID int64) (int64, error)
}

// UserRepository defines data access for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
}

// InvoiceRepository records where rendered invoices were stored.
type InvoiceRepository interface {
	Save(ctx context.Context, invoice *model.Invoice) error
	GetByOrder(ctx context.Context, orderID int64) (*model.Invoice, error)
}
