package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// statusService implements StatusService.
type statusService struct {
	orderRepo      repository.OrderRepository
	deliveryRepo   repository.DeliveryRepository
	authorizer     auth.Authorizer
	transitAfter   time.Duration
	deliveredAfter time.Duration
	logger         zerolog.Logger
}

// NewStatusService creates a status service. Orders older than transitAfter are
// swept to in-transit and those older than deliveredAfter to delivered.
func NewStatusService(
	orderRepo repository.OrderRepository,
	deliveryRepo repository.DeliveryRepository,
	authorizer auth.Authorizer,
	transitAfter, deliveredAfter time.Duration,
	logger zerolog.Logger,
) StatusService {
	return &statusService{
		orderRepo:      orderRepo,
		deliveryRepo:   deliveryRepo,
		authorizer:     authorizer,
		transitAfter:   transitAfter,
		deliveredAfter: deliveredAfter,
		logger:         logger.With().Str("service", "status").Logger(),
	}
}

// SetStatus moves an order forward to in-transit or delivered. Setting the
// current status again is a no-op.
func (s *statusService) SetStatus(ctx context.Context, actorID, orderID int64, status model.OrderStatus) (resp *model.StatusUpdateResponse, err error) {
	ctx, span := tracer.Start(ctx, "order.set_status")
	defer func() { finishSpan(span, err) }()
	span.SetAttributes(attribute.Int64("order.id", orderID), attribute.String("order.target_status", string(status)))

	if err = auth.Require(ctx, s.authorizer, actorID, model.RoleProductManager); err != nil {
		return nil, err
	}
	if status != model.StatusInTransit && status != model.StatusDelivered {
		return nil, model.ErrInvalidStatus
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order, err := s.orderRepo.LockByID(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		err = model.ErrOrderNotFound
		return nil, err
	}

	if order.Status.Refunded() || status.Stage() < order.Status.Stage() {
		s.logger.Warn().
			Int64("order_id", orderID).
			Str("from", string(order.Status)).
			Str("to", string(status)).
			Msg("rejected status transition")
		err = model.ErrInvalidTransition
		return nil, err
	}

	if order.Status != status {
		if err = s.orderRepo.UpdateStatus(ctx, tx, orderID, status); err != nil {
			return nil, err
		}
		if _, err = s.deliveryRepo.EnsureForOrders(ctx, tx, []int64{orderID}); err != nil {
			return nil, err
		}
		if err = s.deliveryRepo.SyncStatus(ctx, tx, []int64{orderID}); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	s.logger.Info().
		Int64("order_id", orderID).
		Int64("actor_id", actorID).
		Str("from", string(order.Status)).
		Str("to", string(status)).
		Msg("order status updated")

	return &model.StatusUpdateResponse{OrderID: orderID, Status: status}, nil
}

// Sweep advances every eligible order in one transaction. Orders whose row is
// locked by a refund wait for it and are skipped once they are refunded.
func (s *statusService) Sweep(ctx context.Context, now time.Time) (result *model.SweepResult, err error) {
	ctx, span := tracer.Start(ctx, "order.sweep")
	defer func() { finishSpan(span, err) }()

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sweep order status: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	changes, err := s.orderRepo.AdvanceByAge(ctx, tx, now, s.transitAfter, s.deliveredAfter)
	if err != nil {
		return nil, err
	}

	result = &model.SweepResult{InTransit: []int64{}, Delivered: []int64{}}
	ids := make([]int64, 0, len(changes))
	for _, c := range changes {
		ids = append(ids, c.OrderID)
		if c.Status == model.StatusDelivered {
			result.Delivered = append(result.Delivered, c.OrderID)
		} else {
			result.InTransit = append(result.InTransit, c.OrderID)
		}
	}

	if len(ids) > 0 {
		if result.Deliveries, err = s.deliveryRepo.EnsureForOrders(ctx, tx, ids); err != nil {
			return nil, err
		}
		if err = s.deliveryRepo.SyncStatus(ctx, tx, ids); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to commit sweep")
		return nil, fmt.Errorf("failed to sweep order status: %w", err)
	}

	span.SetAttributes(
		attribute.Int("sweep.in_transit", len(result.InTransit)),
		attribute.Int("sweep.delivered", len(result.Delivered)),
	)
	if result.Total() > 0 {
		s.logger.Info().
			Int("in_transit", len(result.InTransit)).
			Int("delivered", len(result.Delivered)).
			Int("deliveries_created", result.Deliveries).
			Msg("order statuses advanced")
	}

	return result, nil
}
