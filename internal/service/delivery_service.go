package service

import (
	"context"
	"fmt"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
)

type deliveryService struct {
	deliveryRepo repository.DeliveryRepository
	authorizer   auth.Authorizer
	logger       zerolog.Logger
}

// NewDeliveryService creates a new delivery service.
func NewDeliveryService(deliveryRepo repository.DeliveryRepository, authorizer auth.Authorizer, logger zerolog.Logger) DeliveryService {
	return &deliveryService{
		deliveryRepo: deliveryRepo,
		authorizer:   authorizer,
		logger:       logger.With().Str("service", "delivery").Logger(),
	}
}

func (s *deliveryService) List(ctx context.Context, actorID int64, status model.OrderStatus) ([]model.Delivery, error) {
	if err := auth.Require(ctx, s.authorizer, actorID, model.RoleProductManager); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, model.NewDomainError(model.ErrCodeInvalidStatus, fmt.Sprintf("Unknown delivery status %q", status))
	}

	deliveries, err := s.deliveryRepo.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}
	return deliveries, nil
}

func (s *deliveryService) Get(ctx context.Context, actorID, deliveryID int64) (*model.Delivery, error) {
	if err := auth.Require(ctx, s.authorizer, actorID, model.RoleProductManager); err != nil {
		return nil, err
	}

	delivery, err := s.deliveryRepo.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery: %w", err)
	}
	if delivery == nil {
		return nil, model.ErrDeliveryNotFound
	}
	return delivery, nil
}

func (s *deliveryService) Complete(ctx context.Context, actorID, deliveryID int64) (*model.Delivery, error) {
	if err := auth.Require(ctx, s.authorizer, actorID, model.RoleProductManager); err != nil {
		return nil, err
	}

	delivery, err := s.deliveryRepo.MarkCompleted(ctx, deliveryID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("delivery_id", deliveryID).
		Int64("order_id", delivery.OrderID).
		Int64("actor_id", actorID).
		Msg("delivery completed")
	return delivery, nil
}
