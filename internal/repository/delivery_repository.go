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

const deliveryColumns = `deliveryid, orderid, status, delivery_address, completed, created_at, updated_at`

type deliveryRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewDeliveryRepository creates a new PostgreSQL-backed delivery repository.
func NewDeliveryRepository(pool *pgxpool.Pool, logger zerolog.Logger) DeliveryRepository {
	return &deliveryRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "delivery").Logger(),
	}
}

func scanDelivery(row pgx.Row) (*model.Delivery, error) {
	var d model.Delivery
	if err := row.Scan(&d.ID, &d.OrderID, &d.Status, &d.Address, &d.Completed, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *deliveryRepository) EnsureForOrders(ctx context.Context, tx pgx.Tx, orderIDs []int64) (int, error) {
	if len(orderIDs) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO deliveries (orderid, status, delivery_address)
		SELECT o.orderid, o.status, u.homeaddress
		FROM orders o
		JOIN users u ON u.userid = o.userid
		WHERE o.orderid = ANY($1)
			AND NOT EXISTS (SELECT 1 FROM deliveries d WHERE d.orderid = o.orderid)
	`

	tag, err := tx.Exec(ctx, query, orderIDs)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(orderIDs)).Msg("failed to create deliveries")
		return 0, fmt.Errorf("failed to create deliveries: %w", err)
	}

	created := int(tag.RowsAffected())
	if created > 0 {
		r.logger.Debug().Int("created", created).Msg("deliveries created")
	}
	return created, nil
}

func (r *deliveryRepository) SyncStatus(ctx context.Context, tx pgx.Tx, orderIDs []int64) error {
	if len(orderIDs) == 0 {
		return nil
	}

	query := `
		UPDATE deliveries d
		SET status = o.status, updated_at = NOW()
		FROM orders o
		WHERE d.orderid = o.orderid
			AND d.orderid = ANY($1)
			AND d.status <> o.status
	`

	if _, err := tx.Exec(ctx, query, orderIDs); err != nil {
		r.logger.Error().Err(err).Int("count", len(orderIDs)).Msg("failed to sync delivery status")
		return fmt.Errorf("failed to sync delivery status: %w", err)
	}
	return nil
}

func (r *deliveryRepository) HasCompleted(ctx context.Context, tx pgx.Tx, orderID int64) (bool, error) {
	var completed bool
	err := pick(r.pool, tx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM deliveries WHERE orderid = $1 AND completed)`, orderID).
		Scan(&completed)
	if err != nil {
		r.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to check delivery completion")
		return false, fmt.Errorf("failed to check delivery completion: %w", err)
	}
	return completed, nil
}

// GetByID returns nil, nil when the delivery does not exist.
func (r *deliveryRepository) GetByID(ctx context.Context, id int64) (*model.Delivery, error) {
	d, err := scanDelivery(r.pool.QueryRow(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE deliveryid = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("delivery_id", id).Msg("failed to query delivery")
		return nil, fmt.Errorf("failed to query delivery: %w", err)
	}
	return d, nil
}

// List returns every delivery when status is empty.
func (r *deliveryRepository) List(ctx context.Context, status model.OrderStatus) ([]model.Delivery, error) {
	query := `
		SELECT ` + deliveryColumns + `
		FROM deliveries
		WHERE ($1::text = '' OR status = $1::text)
		ORDER BY deliveryid
	`

	rows, err := r.pool.Query(ctx, query, string(status))
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query deliveries")
		return nil, fmt.Errorf("failed to query deliveries: %w", err)
	}
	defer rows.Close()

	deliveries := []model.Delivery{}
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}
		deliveries = append(deliveries, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deliveries: %w", err)
	}

	return deliveries, nil
}

func (r *deliveryRepository) MarkCompleted(ctx context.Context, id int64) (*model.Delivery, error) {
	query := `
		UPDATE deliveries
		SET completed = TRUE, updated_at = NOW()
		WHERE deliveryid = $1
		RETURNING ` + deliveryColumns

	d, err := scanDelivery(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrDeliveryNotFound
		}
		r.logger.Error().Err(err).Int64("delivery_id", id).Msg("failed to complete delivery")
		return nil, fmt.Errorf("failed to complete delivery: %w", err)
	}

	r.logger.Info().Int64("delivery_id", id).Int64("order_id", d.OrderID).Msg("delivery marked completed")
	return d, nil
}
