// Command seed loads a small catalogue and one account per role into the
// configured database.
package main

import (
	"context"
	"fmt"
	"os"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type seedUser struct {
	name, email, address string
	role                 model.Role
}

type seedProduct struct {
	name          string
	stock         int
	price         string
	discountPrice string
	cost          string
}

var users = []seedUser{
	{"Ada Customer", "ada@example.com", "12 Harbour Road", model.RoleCustomer},
	{"Ben Customer", "ben@example.com", "4 Mill Lane", model.RoleCustomer},
	{"Pia Products", "pia@example.com", "1 Warehouse Way", model.RoleProductManager},
	{"Sam Sales", "sam@example.com", "1 Warehouse Way", model.RoleSalesManager},
}

var products = []seedProduct{
	{"Desk Lamp", 25, "10.00", "", "4.00"},
	{"Oak Chair", 12, "20.00", "17.50", "9.00"},
	{"Wool Rug", 5, "60.00", "", "30.00"},
	{"Ceramic Mug", 100, "4.00", "", "1.20"},
	{"Standing Desk", 3, "350.00", "320.00", "210.00"},
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dbCfg, logCfg, err := config.LoadDatabase()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(logCfg)

	ctx := context.Background()

	// Seeding always needs the schema, whatever DB_MIGRATE says.
	dbCfg.Migrate = true
	pool, err := database.Open(ctx, dbCfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	batch := &pgx.Batch{}
	for _, u := range users {
		batch.Queue(`
			INSERT INTO users (name, email, homeaddress, role)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (email) DO NOTHING`,
			u.name, u.email, u.address, u.role)
	}

	var existing int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&existing); err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if existing == 0 {
		for _, p := range products {
			batch.Queue(`
				INSERT INTO products (name, stock, price, discountprice, cost)
				VALUES ($1, $2, $3, $4, $5)`,
				p.name, p.stock, decimal.RequireFromString(p.price), optional(p.discountPrice), optional(p.cost))
		}
	}

	results := pool.SendBatch(ctx, batch)
	inserted := int64(0)
	for i := 0; i < batch.Len(); i++ {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			return fmt.Errorf("failed to seed row %d: %w", i, err)
		}
		inserted += tag.RowsAffected()
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}

	fmt.Printf("Seeded %d rows into %s\n", inserted, dbCfg.Database)
	if existing > 0 {
		fmt.Printf("Catalogue already has %d products, left untouched\n", existing)
	}

	rows, err := pool.Query(ctx, `SELECT userid, email, role FROM users ORDER BY userid`)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	fmt.Println("\nUse these ids in the X-User-ID header:")
	for rows.Next() {
		var (
			id    int64
			email string
			role  string
		)
		if err := rows.Scan(&id, &email, &role); err != nil {
			return fmt.Errorf("failed to scan user: %w", err)
		}
		fmt.Printf("  %-4d %-20s %s\n", id, email, role)
	}
	return rows.Err()
}

func optional(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}
