package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const productColumns = `productid, name, stock, price, discountprice, cost, created_at`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Stock, &p.Price, &p.DiscountPrice, &p.Cost, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetAll retrieves all products with pagination support.
func (r *productRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		ORDER BY productid
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// GetByID retrieves a single product by its ID. A missing product yields nil, nil.
func (r *productRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE productid = $1`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return p, nil
}

// Reserve decrements stock with a single conditional UPDATE. The row lock it
// takes serialises concurrent reservations of the same product, and the
// stock >= qty predicate is re-evaluated after the lock is granted.
func (r *productRepository) Reserve(ctx context.Context, tx pgx.Tx, productID int64, qty int) (decimal.Decimal, error) {
	if qty <= 0 {
		return decimal.Zero, model.ErrInvalidQuantity
	}

	query := `
		UPDATE products
		SET stock = stock - $2
		WHERE productid = $1 AND stock >= $2
		RETURNING COALESCE(discountprice, price)
	`

	var price decimal.Decimal
	err := tx.QueryRow(ctx, query, productID, qty).Scan(&price)
	if err == nil {
		r.logger.Debug().Int64("product_id", productID).Int("quantity", qty).Msg("stock reserved")
		return price, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error().Err(err).Int64("product_id", productID).Msg("failed to reserve stock")
		return decimal.Zero, fmt.Errorf("failed to reserve stock: %w", err)
	}

	var available int
	err = tx.QueryRow(ctx, `SELECT stock FROM products WHERE productid = $1`, productID).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, &model.ProductNotFoundError{ProductID: productID}
		}
		return decimal.Zero, fmt.Errorf("failed to read stock: %w", err)
	}

	r.logger.Warn().
		Int64("product_id", productID).
		Int("requested", qty).
		Int("available", available).
		Msg("insufficient stock")
	return decimal.Zero, &model.InsufficientStockError{ProductID: productID, Requested: qty, Available: available}
}

// Release returns units to stock.
func (r *productRepository) Release(ctx context.Context, tx pgx.Tx, productID int64, qty int) error {
	if qty <= 0 {
		return model.ErrInvalidQuantity
	}

	tag, err := tx.Exec(ctx, `UPDATE products SET stock = stock + $2 WHERE productid = $1`, productID, qty)
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", productID).Msg("failed to release stock")
		return fmt.Errorf("failed to release stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &model.ProductNotFoundError{ProductID: productID}
	}

	r.logger.Debug().Int64("product_id", productID).Int("quantity", qty).Msg("stock released")
	return nil
}

// SetStock overwrites the stock level.
func (r *productRepository) SetStock(ctx context.Context, productID int64, stock int) (*model.Product, error) {
	if stock < 0 {
		return nil, model.ErrInvalidStock
	}

	query := `UPDATE products SET stock = $2 WHERE productid = $1 RETURNING ` + productColumns

	p, err := scanProduct(r.pool.QueryRow(ctx, query, productID, stock))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &model.ProductNotFoundError{ProductID: productID}
		}
		r.logger.Error().Err(err).Int64("product_id", productID).Msg("failed to set stock")
		return nil, fmt.Errorf("failed to set stock: %w", err)
	}

	r.logger.Info().Int64("product_id", productID).Int("stock", stock).Msg("stock updated")
	return p, nil
}

// UpdatePricing changes sales fields of a product.
func (r *productRepository) UpdatePricing(ctx context.Context, productID int64, req *model.PricingUpdateRequest) (*model.Product, error) {
	query := `
		UPDATE products
		SET price = COALESCE($2, price),
			discountprice = COALESCE($3, discountprice),
			cost = COALESCE($4, cost)
		WHERE productid = $1
		RETURNING ` + productColumns

	p, err := scanProduct(r.pool.QueryRow(ctx, query, productID,
		nullable(req.Price), nullable(req.DiscountPrice), nullable(req.Cost)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &model.ProductNotFoundError{ProductID: productID}
		}
		r.logger.Error().Err(err).Int64("product_id", productID).Msg("failed to update pricing")
		return nil, fmt.Errorf("failed to update pricing: %w", err)
	}

	return p, nil
}

func nullable(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}
