package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (userid, totalamount, order_date, status)
		VALUES ($1, $2, $3, $4)
		RETURNING orderid, order_date
	`

	err := tx.QueryRow(ctx, query, order.UserID, order.TotalAmount, order.OrderDate, order.Status).
		Scan(&order.ID, &order.OrderDate)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int64("user_id", order.UserID).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Int64("order_id", order.ID).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (orderid, productid, quantity, price)
		VALUES ($1, $2, $3, $4)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, item.OrderID, item.ProductID, item.Quantity, item.Price)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Int64("order_id", items[i].OrderID).
				Int64("product_id", items[i].ProductID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its items. A missing order yields nil, nil.
func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	orderQuery := `
		SELECT orderid, userid, totalamount, order_date, status
		FROM orders
		WHERE orderid = $1
	`

	order, err := scanOrder(r.pool.QueryRow(ctx, orderQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("order_id", id).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("order_id", id).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	items, err := r.GetItems(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

// LockByID reads the order row with FOR UPDATE so competing writers queue behind tx.
func (r *orderRepository) LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Order, error) {
	query := `
		SELECT orderid, userid, totalamount, order_date, status
		FROM orders
		WHERE orderid = $1
		FOR UPDATE
	`

	order, err := scanOrder(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("order_id", id).Msg("failed to lock order")
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}

	return order, nil
}

// GetItems lists an order's lines with product names.
func (r *orderRepository) GetItems(ctx context.Context, tx pgx.Tx, orderID int64) ([]model.OrderItem, error) {
	query := `
		SELECT oi.orderid, oi.productid, p.name, oi.quantity, oi.price
		FROM order_items oi
		JOIN products p ON p.productid = oi.productid
		WHERE oi.orderid = $1
		ORDER BY oi.productid
	`

	rows, err := pick(r.pool, tx).Query(ctx, query, orderID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int64("order_id", orderID).
			Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	items := []model.OrderItem{}
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(&item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

// ListByUser returns the user's orders, newest first, in one round trip.
func (r *orderRepository) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	query := `
		SELECT o.orderid, o.userid, o.totalamount, o.order_date, o.status,
			oi.productid, p.name, oi.quantity, oi.price
		FROM orders o
		LEFT JOIN order_items oi ON oi.orderid = o.orderid
		LEFT JOIN products p ON p.productid = oi.productid
		WHERE o.userid = $1
		ORDER BY o.order_date DESC, o.orderid DESC, oi.productid
	`
	return r.listJoined(ctx, query, userID)
}

// ListByStatus returns orders in a status, oldest first.
func (r *orderRepository) ListByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	query := `
		SELECT o.orderid, o.userid, o.totalamount, o.order_date, o.status,
			oi.productid, p.name, oi.quantity, oi.price
		FROM orders o
		LEFT JOIN order_items oi ON oi.orderid = o.orderid
		LEFT JOIN products p ON p.productid = oi.productid
		WHERE o.status = $1
		ORDER BY o.order_date, o.orderid, oi.productid
	`
	return r.listJoined(ctx, query, status)
}

// listJoined groups order/item join rows by order, keeping the query's order.
func (r *orderRepository) listJoined(ctx context.Context, query string, arg any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	index := map[int64]int{}
	for rows.Next() {
		var (
			o         model.Order
			productID *int64
			name      *string
			quantity  *int
			price     decimal.NullDecimal
		)
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.OrderDate, &o.Status,
			&productID, &name, &quantity, &price); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}

		pos, seen := index[o.ID]
		if !seen {
			o.Items = []model.OrderItem{}
			orders = append(orders, o)
			pos = len(orders) - 1
			index[o.ID] = pos
		}
		if productID == nil {
			continue
		}
		orders[pos].Items = append(orders[pos].Items, model.OrderItem{
			OrderID:     o.ID,
			ProductID:   *productID,
			ProductName: deref(name),
			Quantity:    deref(quantity),
			Price:       price.Decimal,
		})
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// UpdateStatus sets the order status.
func (r *orderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, orderID int64, status model.OrderStatus) error {
	tag, err := tx.Exec(ctx, `UPDATE orders SET status = $2 WHERE orderid = $1`, orderID, status)
	if err != nil {
		r.logger.Error().Err(err).Int64("order_id", orderID).Str("status", string(status)).Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}
	return nil
}

// DecrementItem lowers a line's remaining quantity.
func (r *orderRepository) DecrementItem(ctx context.Context, tx pgx.Tx, orderID, productID int64, qty int) error {
	if qty <= 0 {
		return model.ErrInvalidQuantity
	}

	query := `
		UPDATE order_items
		SET quantity = quantity - $3
		WHERE orderid = $1 AND productid = $2 AND quantity >= $3
		RETURNING quantity
	`

	var left int
	err := tx.QueryRow(ctx, query, orderID, productID, qty).Scan(&left)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error().Err(err).Int64("order_id", orderID).Int64("product_id", productID).Msg("failed to decrement order item")
		return fmt.Errorf("failed to decrement order item: %w", err)
	}

	var remaining int
	err = tx.QueryRow(ctx, `SELECT quantity FROM order_items WHERE orderid = $1 AND productid = $2`, orderID, productID).
		Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrOrderItemNotFound
		}
		return fmt.Errorf("failed to read order item: %w", err)
	}

	return &model.ExcessRefundQuantityError{ProductID: productID, Requested: qty, Remaining: remaining}
}

// Delete removes the order and everything it owns.
func (r *orderRepository) Delete(ctx context.Context, tx pgx.Tx, orderID int64) error {
	statements := []string{
		`DELETE FROM refund_requests WHERE orderid = $1`,
		`DELETE FROM deliveries WHERE orderid = $1`,
		`DELETE FROM invoices WHERE orderid = $1`,
		`DELETE FROM order_items WHERE orderid = $1`,
		`DELETE FROM orders WHERE orderid = $1`,
	}

	batch := &pgx.Batch{}
	for _, stmt := range statements {
		batch.Queue(stmt, orderID)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	var deleted int64
	for i := range statements {
		tag, err := results.Exec()
		if err != nil {
			r.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to delete order")
			return fmt.Errorf("failed to delete order: %w", err)
		}
		if i == len(statements)-1 {
			deleted = tag.RowsAffected()
		}
	}

	if deleted == 0 {
		return model.ErrOrderNotFound
	}
	return nil
}

// AdvanceByAge moves orders forward in one statement. Rows locked by a
// concurrent refund are re-checked against the status predicate once the
// lock is released, so refunded orders are skipped.
func (r *orderRepository) AdvanceByAge(ctx context.Context, tx pgx.Tx, now time.Time, transitAfter, deliveredAfter time.Duration) ([]StatusChange, error) {
	query := `
		WITH target AS (
			SELECT orderid,
				CASE WHEN order_date <= $2 THEN 'delivered' ELSE 'in-transit' END AS status
			FROM orders
			WHERE status IN ('processing', 'in-transit') AND order_date <= $1
		)
		UPDATE orders o
		SET status = target.status
		FROM target
		WHERE o.orderid = target.orderid
			AND o.status IN ('processing', 'in-transit')
			AND o.status <> target.status
		RETURNING o.orderid, o.status
	`

	rows, err := tx.Query(ctx, query, now.Add(-transitAfter), now.Add(-deliveredAfter))
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to advance order statuses")
		return nil, fmt.Errorf("failed to advance order statuses: %w", err)
	}
	defer rows.Close()

	var changes []StatusChange
	for rows.Next() {
		var c StatusChange
		if err := rows.Scan(&c.OrderID, &c.Status); err != nil {
			return nil, fmt.Errorf("failed to scan status change: %w", err)
		}
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status changes: %w", err)
	}

	return changes, nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	if err := row.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.OrderDate, &o.Status); err != nil {
		return nil, err
	}
	return &o, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
