package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type invoiceRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewInvoiceRepository creates a new PostgreSQL-backed invoice repository.
func NewInvoiceRepository(pool *pgxpool.Pool, logger zerolog.Logger) InvoiceRepository {
	return &invoiceRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "invoice").Logger(),
	}
}

// Save records an invoice; issuing twice for one order keeps the latest location.
func (r *invoiceRepository) Save(ctx context.Context, invoice *model.Invoice) error {
	query := `
		INSERT INTO invoices (orderid, invoice_number, location)
		VALUES ($1, $2, $3)
		ON CONFLICT (orderid) DO UPDATE SET location = EXCLUDED.location
		RETURNING invoiceid, created_at
	`

	err := r.pool.QueryRow(ctx, query, invoice.OrderID, invoice.Number, invoice.Location).
		Scan(&invoice.ID, &invoice.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Int64("order_id", invoice.OrderID).Msg("failed to save invoice")
		return fmt.Errorf("failed to save invoice: %w", err)
	}
	return nil
}

func (r *invoiceRepository) GetByOrder(ctx context.Context, orderID int64) (*model.Invoice, error) {
	query := `
		SELECT invoiceid, orderid, invoice_number, location, created_at
		FROM invoices
		WHERE orderid = $1
	`

	var inv model.Invoice
	err := r.pool.QueryRow(ctx, query, orderID).Scan(&inv.ID, &inv.OrderID, &inv.Number, &inv.Location, &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query invoice: %w", err)
	}
	return &inv, nil
}
