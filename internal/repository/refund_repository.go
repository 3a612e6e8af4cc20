package repository

import (
	"context"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type refundRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewRefundRepository creates a new PostgreSQL-backed refund request repository.
func NewRefundRepository(pool *pgxpool.Pool, logger zerolog.Logger) RefundRepository {
	return &refundRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "refund").Logger(),
	}
}

func (r *refundRepository) Upsert(ctx context.Context, tx pgx.Tx, orderID int64, lines []model.RefundLine) error {
	if len(lines) == 0 {
		return nil
	}

	query := `
		INSERT INTO refund_requests (orderid, productid, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (orderid, productid)
		DO UPDATE SET quantity = EXCLUDED.quantity, requested_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, line := range lines {
		batch.Queue(query, orderID, line.ProductID, line.Quantity)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for _, line := range lines {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Int64("order_id", orderID).
				Int64("product_id", line.ProductID).
				Msg("failed to stage refund request")
			return fmt.Errorf("failed to stage refund request: %w", err)
		}
	}

	r.logger.Debug().Int64("order_id", orderID).Int("lines", len(lines)).Msg("refund request staged")
	return nil
}

func (r *refundRepository) ListByOrder(ctx context.Context, tx pgx.Tx, orderID int64) ([]model.RefundRequest, error) {
	query := `
		SELECT orderid, productid, quantity, requested_at
		FROM refund_requests
		WHERE orderid = $1
		ORDER BY productid
	`
	return r.list(ctx, pick(r.pool, tx), query, orderID)
}

func (r *refundRepository) ListPending(ctx context.Context) ([]model.RefundRequest, error) {
	query := `
		SELECT orderid, productid, quantity, requested_at
		FROM refund_requests
		ORDER BY requested_at, orderid, productid
	`
	return r.list(ctx, r.pool, query)
}

func (r *refundRepository) list(ctx context.Context, q Querier, query string, args ...any) ([]model.RefundRequest, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query refund requests")
		return nil, fmt.Errorf("failed to query refund requests: %w", err)
	}
	defer rows.Close()

	requests := []model.RefundRequest{}
	for rows.Next() {
		var req model.RefundRequest
		if err := rows.Scan(&req.OrderID, &req.ProductID, &req.Quantity, &req.RequestedAt); err != nil {
			return nil, fmt.Errorf("failed to scan refund request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating refund requests: %w", err)
	}

	return requests, nil
}

func (r *refundRepository) DeleteByOrder(ctx context.Context, tx pgx.Tx, orderID int64) (int64, error) {
	tag, err := pick(r.pool, tx).Exec(ctx, `DELETE FROM refund_requests WHERE orderid = $1`, orderID)
	if err != nil {
		r.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to delete refund requests")
		return 0, fmt.Errorf("failed to delete refund requests: %w", err)
	}
	return tag.RowsAffected(), nil
}
