package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// insertOrder writes an order with the given lines directly, bypassing the ledger.
func insertOrder(t *testing.T, pool *pgxpool.Pool, userID int64, placed time.Time, status model.OrderStatus, items map[int64]int) int64 {
	t.Helper()
	ctx := context.Background()
	repo := NewOrderRepository(pool, zerolog.Nop())

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	order := &model.Order{UserID: userID, TotalAmount: decimal.RequireFromString("1.00"), OrderDate: placed, Status: status}
	require.NoError(t, repo.CreateOrder(ctx, tx, order))

	var lines []model.OrderItem
	for productID, qty := range items {
		lines = append(lines, model.OrderItem{OrderID: order.ID, ProductID: productID, Quantity: qty, Price: decimal.RequireFromString("10.00")})
	}
	require.NoError(t, repo.CreateOrderItems(ctx, tx, lines))
	require.NoError(t, tx.Commit(ctx))

	return order.ID
}

func TestOrderRepository_BeginTx(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)

	require.NoError(t, err)
	require.NotNil(t, tx)

	// Rollback to cleanup
	err = tx.Rollback(ctx)
	assert.NoError(t, err)
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	userID := seedUser(t, pool, "alice", model.RoleCustomer)
	lamp := seedProduct(t, pool, "Lamp", 10, "10.00")
	chair := seedProduct(t, pool, "Chair", 10, "20.00")

	placed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	order := &model.Order{
		UserID:      userID,
		TotalAmount: decimal.RequireFromString("70.00"),
		OrderDate:   placed,
		Status:      model.StatusProcessing,
	}
	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	assert.NotZero(t, order.ID)

	items := []model.OrderItem{
		{OrderID: order.ID, ProductID: lamp, Quantity: 3, Price: decimal.RequireFromString("10.00")},
		{OrderID: order.ID, ProductID: chair, Quantity: 2, Price: decimal.RequireFromString("20.00")},
	}
	require.NoError(t, repo.CreateOrderItems(ctx, tx, items))
	require.NoError(t, tx.Commit(ctx))

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.StatusProcessing, got.Status)
	assert.True(t, got.OrderDate.Equal(placed))
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("70")))
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Lamp", got.Items[0].ProductName)
	assert.Equal(t, 3, got.Items[0].Quantity)

	missing, err := repo.GetByID(ctx, 999999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestOrderRepository_CreateOrderItems_DuplicateLineFails(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	userID := seedUser(t, pool, "bob", model.RoleCustomer)
	lamp := seedProduct(t, pool, "Lamp", 10, "10.00")

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	order := &model.Order{UserID: userID, OrderDate: time.Now(), Status: model.StatusProcessing}
	require.NoError(t, repo.CreateOrder(ctx, tx, order))

	err = repo.CreateOrderItems(ctx, tx, []model.OrderItem{
		{OrderID: order.ID, ProductID: lamp, Quantity: 1, Price: decimal.RequireFromString("10")},
		{OrderID: order.ID, ProductID: lamp, Quantity: 1, Price: decimal.RequireFromString("10")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create order item")
}

func TestOrderRepository_ListByUserAndStatus(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	alice := seedUser(t, pool, "alice", model.RoleCustomer)
	bob := seedUser(t, pool, "bob", model.RoleCustomer)
	lamp := seedProduct(t, pool, "Lamp", 10, "10.00")
	chair := seedProduct(t, pool, "Chair", 10, "20.00")

	older := insertOrder(t, pool, alice, time.Now().Add(-48*time.Hour), model.StatusInTransit, map[int64]int{lamp: 1})
	newer := insertOrder(t, pool, alice, time.Now(), model.StatusProcessing, map[int64]int{lamp: 2, chair: 1})
	insertOrder(t, pool, bob, time.Now(), model.StatusProcessing, map[int64]int{chair: 4})

	orders, err := repo.ListByUser(ctx, alice)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, newer, orders[0].ID)
	assert.Len(t, orders[0].Items, 2)
	assert.Equal(t, older, orders[1].ID)
	assert.Len(t, orders[1].Items, 1)

	processing, err := repo.ListByStatus(ctx, model.StatusProcessing)
	require.NoError(t, err)
	assert.Len(t, processing, 2)

	none, err := repo.ListByUser(ctx, 999999)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOrderRepository_DecrementItem(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	userID := seedUser(t, pool, "carol", model.RoleCustomer)
	lamp := seedProduct(t, pool, "Lamp", 10, "10.00")
	orderID := insertOrder(t, pool, userID, time.Now(), model.StatusDelivered, map[int64]int{lamp: 3})

	tests := []struct {
		name      string
		productID int64
		qty       int
		wantErr   error
	}{
		{name: "Partial decrement", productID: lamp, qty: 2},
		{name: "More than remaining", productID: lamp, qty: 2, wantErr: model.ErrExcessRefundQuantity},
		{name: "Down to zero", productID: lamp, qty: 1},
		{name: "Product not in order", productID: 424242, qty: 1, wantErr: model.ErrOrderItemNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := repo.BeginTx(ctx)
			require.NoError(t, err)

			err = repo.DecrementItem(ctx, tx, orderID, tt.productID, tt.qty)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				require.NoError(t, tx.Rollback(ctx))
				return
			}
			require.NoError(t, err)
			require.NoError(t, tx.Commit(ctx))
		})
	}

	items, err := repo.GetItems(ctx, nil, orderID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 0, items[0].Quantity, "fully refunded line is kept with quantity zero")
}

func TestOrderRepository_Delete(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	deliveries := NewDeliveryRepository(pool, zerolog.Nop())
	refunds := NewRefundRepository(pool, zerolog.Nop())
	ctx := context.Background()

	userID := seedUser(t, pool, "dave", model.RoleCustomer)
	lamp := seedProduct(t, pool, "Lamp", 10, "10.00")
	orderID := insertOrder(t, pool, userID, time.Now(), model.StatusProcessing, map[int64]int{lamp: 2})

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	_, err = deliveries.EnsureForOrders(ctx, tx, []int64{orderID})
	require.NoError(t, err)
	require.NoError(t, refunds.Upsert(ctx, tx, orderID, []model.RefundLine{{ProductID: lamp, Quantity: 1}}))
	require.NoError(t, tx.Commit(ctx))

	tx, err = repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, tx, orderID))
	require.NoError(t, tx.Commit(ctx))

	for _, table := range []string{"orders", "order_items", "deliveries", "refund_requests"} {
		var n int
		require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table+" WHERE orderid = $1", orderID).Scan(&n))
		assert.Zero(t, n, table)
	}

	tx, err = repo.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)
	assert.ErrorIs(t, repo.Delete(ctx, tx, orderID), model.ErrOrderNotFound)
}

func TestOrderRepository_AdvanceByAge(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	userID := seedUser(t, pool, "erin", model.RoleCustomer)
	lamp := seedProduct(t, pool, "Lamp", 100, "10.00")

	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	fresh := insertOrder(t, pool, userID, now.Add(-time.Hour), model.StatusProcessing, map[int64]int{lamp: 1})
	dayOld := insertOrder(t, pool, userID, now.Add(-30*time.Hour), model.StatusProcessing, map[int64]int{lamp: 1})
	old := insertOrder(t, pool, userID, now.Add(-100*time.Hour), model.StatusProcessing, map[int64]int{lamp: 1})
	oldInTransit := insertOrder(t, pool, userID, now.Add(-100*time.Hour), model.StatusInTransit, map[int64]int{lamp: 1})
	refunded := insertOrder(t, pool, userID, now.Add(-100*time.Hour), model.StatusPartiallyRefunded, map[int64]int{lamp: 1})

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	changes, err := repo.AdvanceByAge(ctx, tx, now, 24*time.Hour, 72*time.Hour)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	got := map[int64]model.OrderStatus{}
	for _, c := range changes {
		got[c.OrderID] = c.Status
	}
	assert.Equal(t, map[int64]model.OrderStatus{
		dayOld:       model.StatusInTransit,
		old:          model.StatusDelivered,
		oldInTransit: model.StatusDelivered,
	}, got)

	for id, want := range map[int64]model.OrderStatus{fresh: model.StatusProcessing, refunded: model.StatusPartiallyRefunded} {
		o, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, o.Status)
	}

	// A second pass at the same instant changes nothing.
	tx, err = repo.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)
	changes, err = repo.AdvanceByAge(ctx, tx, now, 24*time.Hour, 72*time.Hour)
	require.NoError(t, err)
	assert.Empty(t, changes)
}
