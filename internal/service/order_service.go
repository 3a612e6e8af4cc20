package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/auth"
	"storefront/internal/invoice"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	authorizer  auth.Authorizer
	issuer      invoice.Issuer
	now         Clock
	logger      zerolog.Logger
}

// NewOrderService creates a new order service. issuer may be nil, in which case
// no invoice is produced for new orders.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	authorizer auth.Authorizer,
	issuer invoice.Issuer,
	now Clock,
	logger zerolog.Logger,
) OrderService {
	if now == nil {
		now = time.Now
	}
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		authorizer:  authorizer,
		issuer:      issuer,
		now:         now,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// CreateOrder reserves stock for each line and records the order and its lines.
// Any failure rolls back every reservation made so far.
func (s *orderService) CreateOrder(ctx context.Context, actorID int64, req *model.OrderRequest) (order *model.Order, err error) {
	ctx, span := tracer.Start(ctx, "order.create")
	defer func() { finishSpan(span, err) }()

	if actorID <= 0 {
		return nil, model.ErrMissingActor
	}
	if err = s.validateOrderRequest(req); err != nil {
		return nil, err
	}

	userID := req.UserID
	if userID == 0 {
		userID = actorID
	}
	if userID != actorID {
		s.logger.Warn().Int64("actor_id", actorID).Int64("user_id", userID).Msg("order placed for another user")
		return nil, model.ErrForbidden
	}
	span.SetAttributes(attribute.Int64("user.id", userID), attribute.Int("order.item_count", len(req.Items)))

	customer, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	if customer == nil {
		return nil, model.ErrUserNotFound
	}

	// Start transaction
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	items := make([]model.OrderItem, len(req.Items))
	total := decimal.Zero
	for i, line := range req.Items {
		var current decimal.Decimal
		current, err = s.productRepo.Reserve(ctx, tx, line.ProductID, line.Quantity)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Int64("product_id", line.ProductID).
				Int("quantity", line.Quantity).
				Msg("stock reservation failed")
			return nil, err
		}

		price := line.Price
		if price.IsZero() {
			price = current
		}
		items[i] = model.OrderItem{ProductID: line.ProductID, Quantity: line.Quantity, Price: price.Round(2)}
		total = total.Add(items[i].Subtotal())
	}

	order = &model.Order{
		UserID:      userID,
		TotalAmount: req.TotalAmount.Round(2),
		OrderDate:   s.now(),
		Status:      model.StatusProcessing,
	}
	if order.TotalAmount.IsZero() {
		order.TotalAmount = total
	}

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for i := range items {
		items[i].OrderID = order.ID
	}
	if err = s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		s.logger.Error().
			Err(err).
			Int64("order_id", order.ID).
			Int("item_count", len(items)).
			Msg("failed to create order items")
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	// Commit transaction
	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("order_id", order.ID).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	order.Items = items

	s.logger.Info().
		Int64("order_id", order.ID).
		Int64("user_id", userID).
		Int("item_count", len(items)).
		Str("total", order.TotalAmount.StringFixed(2)).
		Msg("order created successfully")
	span.SetAttributes(attribute.Int64("order.id", order.ID))

	if s.issuer != nil {
		if _, issueErr := s.issuer.Issue(ctx, order); issueErr != nil {
			s.logger.Error().Err(issueErr).Int64("order_id", order.ID).Msg("failed to issue invoice")
		}
	}

	return order, nil
}

// GetOrder returns the order to its owner or to any manager.
func (s *orderService) GetOrder(ctx context.Context, actorID, orderID int64) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	if err := auth.RequireOwnerOr(ctx, s.authorizer, actorID, order.UserID,
		model.RoleProductManager, model.RoleSalesManager); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) GetOrdersForUser(ctx context.Context, actorID, userID int64) ([]model.Order, error) {
	if err := auth.RequireOwnerOr(ctx, s.authorizer, actorID, userID,
		model.RoleProductManager, model.RoleSalesManager); err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to list orders for user")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	s.logger.Debug().Int64("user_id", userID).Int("count", len(orders)).Msg("retrieved orders for user")
	return orders, nil
}

func (s *orderService) ListOrdersByStatus(ctx context.Context, actorID int64, status model.OrderStatus) ([]model.Order, error) {
	if !status.Valid() {
		return nil, model.NewDomainError(model.ErrCodeInvalidStatus, fmt.Sprintf("Unknown order status %q", status))
	}
	if err := auth.Require(ctx, s.authorizer, actorID, model.RoleProductManager); err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.ListByStatus(ctx, status)
	if err != nil {
		s.logger.Error().Err(err).Str("status", string(status)).Msg("failed to list orders by status")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// validateOrderRequest validates the order request.
func (s *orderService) validateOrderRequest(req *model.OrderRequest) error {
	if req == nil || len(req.Items) == 0 {
		return model.ErrEmptyOrder
	}
	if req.TotalAmount.IsNegative() {
		return model.ErrInvalidPrice
	}

	seen := make(map[int64]struct{}, len(req.Items))
	for i, item := range req.Items {
		if item.ProductID <= 0 {
			return model.NewDomainError(model.ErrCodeMissingField, fmt.Sprintf("Item %d: productid is required", i))
		}

		if item.Quantity <= 0 {
			s.logger.Warn().
				Int("item_index", i).
				Int64("product_id", item.ProductID).
				Int("quantity", item.Quantity).
				Msg("invalid quantity")
			return model.ErrInvalidQuantity
		}

		if item.Price.IsNegative() {
			return model.ErrInvalidPrice
		}

		if _, dup := seen[item.ProductID]; dup {
			return model.ErrDuplicateItem
		}
		seen[item.ProductID] = struct{}{}
	}

	return nil
}
