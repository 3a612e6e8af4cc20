package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/database"
	"storefront/internal/invoice"
	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container with the application schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	// Get connection string
	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	if err := database.Migrate(ctx, pool, zerolog.Nop()); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// CleanupDB removes all rows and resets id sequences.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
		TRUNCATE invoices, refund_requests, deliveries, order_items, orders, products, users
		RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("failed to clean tables: %v", err)
	}
}

// Accounts holds one user per role.
type Accounts struct {
	Customer       int64
	OtherCustomer  int64
	ProductManager int64
	SalesManager   int64
}

// SeedAccounts inserts one user per role plus a second customer.
func SeedAccounts(t *testing.T, pool *pgxpool.Pool) Accounts {
	t.Helper()

	insert := func(name string, role model.Role) int64 {
		var id int64
		err := pool.QueryRow(context.Background(),
			`INSERT INTO users (name, email, homeaddress, role) VALUES ($1, $2, $3, $4) RETURNING userid`,
			name, name+"@example.com", "1 "+name+" Street", role).Scan(&id)
		if err != nil {
			t.Fatalf("failed to seed user %s: %v", name, err)
		}
		return id
	}

	return Accounts{
		Customer:       insert("carla", model.RoleCustomer),
		OtherCustomer:  insert("otto", model.RoleCustomer),
		ProductManager: insert("pete", model.RoleProductManager),
		SalesManager:   insert("sally", model.RoleSalesManager),
	}
}

// SeedProduct inserts one product and returns its id.
func SeedProduct(t *testing.T, pool *pgxpool.Pool, name string, stock int, price string) int64 {
	t.Helper()

	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO products (name, stock, price) VALUES ($1, $2, $3) RETURNING productid`,
		name, stock, decimal.RequireFromString(price)).Scan(&id)
	if err != nil {
		t.Fatalf("failed to seed product %s: %v", name, err)
	}
	return id
}

// StockOf reads a product's current stock.
func StockOf(t *testing.T, pool *pgxpool.Pool, productID int64) int {
	t.Helper()

	var stock int
	if err := pool.QueryRow(context.Background(),
		`SELECT stock FROM products WHERE productid = $1`, productID).Scan(&stock); err != nil {
		t.Fatalf("failed to read stock of %d: %v", productID, err)
	}
	return stock
}

// Clock is a settable time source shared by the services under test.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock { return &Clock{now: now} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Stack is the service layer wired against a real database.
type Stack struct {
	Products   service.ProductService
	Orders     service.OrderService
	Status     service.StatusService
	Refunds    service.RefundService
	Deliveries service.DeliveryService
	Clock      *Clock
	InvoiceDir string
}

// NewStack wires every service the way the API binary does, with invoices
// written to a temporary directory and notifications sent to the log.
func NewStack(t *testing.T, pool *pgxpool.Pool, now time.Time) *Stack {
	t.Helper()

	logger := zerolog.Nop()
	clock := NewClock(now)
	dir := t.TempDir()

	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	deliveryRepo := repository.NewDeliveryRepository(pool, logger)
	refundRepo := repository.NewRefundRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)
	invoiceRepo := repository.NewInvoiceRepository(pool, logger)

	authorizer := auth.NewAuthorizer(userRepo, logger)
	notifier := notify.NewLogNotifier(logger)
	issuer := invoice.NewIssuer(invoice.NewHTMLRenderer(), invoice.NewFileStore(dir, logger), invoiceRepo, userRepo, notifier, logger)

	return &Stack{
		Products:   service.NewProductService(productRepo, authorizer, logger),
		Orders:     service.NewOrderService(orderRepo, productRepo, userRepo, authorizer, issuer, clock.Now, logger),
		Status:     service.NewStatusService(orderRepo, deliveryRepo, authorizer, 24*time.Hour, 72*time.Hour, logger),
		Refunds:    service.NewRefundService(orderRepo, productRepo, deliveryRepo, refundRepo, userRepo, authorizer, notifier, clock.Now, logger),
		Deliveries: service.NewDeliveryService(deliveryRepo, authorizer, logger),
		Clock:      clock,
		InvoiceDir: dir,
	}
}
