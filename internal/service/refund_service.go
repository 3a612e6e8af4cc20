package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

const (
	refundStatusPending = "pending"
	refundStatusDenied  = "denied"
)

// refundService implements RefundService.
type refundService struct {
	orderRepo    repository.OrderRepository
	productRepo  repository.ProductRepository
	deliveryRepo repository.DeliveryRepository
	refundRepo   repository.RefundRepository
	userRepo     repository.UserRepository
	authorizer   auth.Authorizer
	notifier     notify.Notifier
	now          Clock
	logger       zerolog.Logger
}

// NewRefundService creates the cancellation and refund engine.
func NewRefundService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	deliveryRepo repository.DeliveryRepository,
	refundRepo repository.RefundRepository,
	userRepo repository.UserRepository,
	authorizer auth.Authorizer,
	notifier notify.Notifier,
	now Clock,
	logger zerolog.Logger,
) RefundService {
	if now == nil {
		now = time.Now
	}
	return &refundService{
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		deliveryRepo: deliveryRepo,
		refundRepo:   refundRepo,
		userRepo:     userRepo,
		authorizer:   authorizer,
		notifier:     notifier,
		now:          now,
		logger:       logger.With().Str("service", "refund").Logger(),
	}
}

// CancelOrder returns every line's quantity to stock and deletes the order.
// Only orders still processing can be cancelled.
func (s *refundService) CancelOrder(ctx context.Context, actorID, orderID int64) (err error) {
	ctx, span := tracer.Start(ctx, "order.cancel")
	defer func() { finishSpan(span, err) }()
	span.SetAttributes(attribute.Int64("order.id", orderID))

	if actorID <= 0 {
		return model.ErrMissingActor
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}
	defer s.rollbackOnError(ctx, tx, &err)

	order, err := s.orderRepo.LockByID(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		err = model.ErrOrderNotFound
		return err
	}

	if err = auth.RequireOwnerOr(ctx, s.authorizer, actorID, order.UserID, model.RoleProductManager); err != nil {
		return err
	}
	if order.Status != model.StatusProcessing {
		err = model.ErrNotCancellable
		return err
	}

	items, err := s.orderRepo.GetItems(ctx, tx, orderID)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.Quantity == 0 {
			continue
		}
		if err = s.productRepo.Release(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}

	if err = s.orderRepo.Delete(ctx, tx, orderID); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to commit transaction")
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	s.logger.Info().
		Int64("order_id", orderID).
		Int64("actor_id", actorID).
		Int("item_count", len(items)).
		Msg("order cancelled")

	return nil
}

// ValidateRefund never fails for an ineligible order; the verdict is in the result.
func (s *refundService) ValidateRefund(ctx context.Context, orderID int64, now time.Time) (*model.RefundEligibility, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	result := &model.RefundEligibility{OrderID: orderID, Valid: true}
	if err := s.checkEligible(ctx, nil, order, now); err != nil {
		var domainErr *model.DomainError
		if !errors.As(err, &domainErr) {
			return nil, err
		}
		result.Valid = false
		result.Reason = domainErr.Message
	}
	return result, nil
}

func (s *refundService) RefundableItems(ctx context.Context, orderID int64) ([]model.RefundableItem, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	items := []model.RefundableItem{}
	for _, item := range order.Items {
		if item.Quantity > 0 {
			items = append(items, model.RefundableItem{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Quantity:    item.Quantity,
				Price:       item.Price,
			})
		}
	}
	return items, nil
}

// RequestRefund stages lines for review. Requesting a product again replaces
// its pending quantity.
func (s *refundService) RequestRefund(ctx context.Context, actorID, orderID int64, lines []model.RefundLine) (resp *model.RefundRequestResponse, err error) {
	ctx, span := tracer.Start(ctx, "refund.request")
	defer func() { finishSpan(span, err) }()
	span.SetAttributes(attribute.Int64("order.id", orderID), attribute.Int("refund.line_count", len(lines)))

	if actorID <= 0 {
		return nil, model.ErrMissingActor
	}
	if len(lines) == 0 {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "At least one refund line is required")
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to request refund: %w", err)
	}
	defer s.rollbackOnError(ctx, tx, &err)

	order, err := s.orderRepo.LockByID(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		err = model.ErrOrderNotFound
		return nil, err
	}
	if order.UserID != actorID {
		err = model.ErrForbidden
		return nil, err
	}

	if err = s.checkEligible(ctx, tx, order, s.now()); err != nil {
		return nil, err
	}

	items, err := s.orderRepo.GetItems(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	remaining := make(map[int64]int, len(items))
	for _, item := range items {
		remaining[item.ProductID] = item.Quantity
	}

	seen := make(map[int64]struct{}, len(lines))
	for _, line := range lines {
		if err = checkRefundLine(line, remaining, seen); err != nil {
			return nil, err
		}
	}

	if err = s.refundRepo.Upsert(ctx, tx, orderID, lines); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to request refund: %w", err)
	}

	s.logger.Info().
		Int64("order_id", orderID).
		Int("line_count", len(lines)).
		Msg("refund requested")

	return &model.RefundRequestResponse{OrderID: orderID, Status: refundStatusPending, Items: lines}, nil
}

func (s *refundService) ListRefundRequests(ctx context.Context, actorID int64) ([]model.RefundRequest, error) {
	if err := auth.Require(ctx, s.authorizer, actorID, model.RoleSalesManager); err != nil {
		return nil, err
	}

	requests, err := s.refundRepo.ListPending(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list refund requests")
		return nil, fmt.Errorf("failed to list refund requests: %w", err)
	}
	return requests, nil
}

// Decide applies or discards an order's pending requests. The customer is
// notified once the decision is committed.
func (s *refundService) Decide(ctx context.Context, actorID int64, req *model.RefundDecisionRequest) (result *model.RefundDecisionResult, err error) {
	ctx, span := tracer.Start(ctx, "refund.decide")
	defer func() { finishSpan(span, err) }()

	if req == nil || req.OrderID <= 0 {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "orderid is required")
	}
	if req.Approved == nil {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "approved is required")
	}
	span.SetAttributes(attribute.Int64("order.id", req.OrderID), attribute.Bool("refund.approved", *req.Approved))

	if err = auth.Require(ctx, s.authorizer, actorID, model.RoleSalesManager); err != nil {
		return nil, err
	}

	if !*req.Approved {
		return s.deny(ctx, req.OrderID)
	}

	result, userID, err := s.approve(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("refund.amount", result.RefundedAmount.StringFixed(2)))
	s.notifyCustomer(ctx, userID, req.OrderID, func(u *model.User) notify.Message {
		return notify.RefundApproved(u, result)
	})
	return result, nil
}

func (s *refundService) approve(ctx context.Context, orderID int64) (result *model.RefundDecisionResult, userID int64, err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to process refund: %w", err)
	}
	defer s.rollbackOnError(ctx, tx, &err)

	order, err := s.orderRepo.LockByID(ctx, tx, orderID)
	if err != nil {
		return nil, 0, err
	}
	if order == nil {
		err = model.ErrOrderNotFound
		return nil, 0, err
	}

	if err = s.checkEligible(ctx, tx, order, s.now()); err != nil {
		return nil, 0, err
	}

	pending, err := s.refundRepo.ListByOrder(ctx, tx, orderID)
	if err != nil {
		return nil, 0, err
	}
	if len(pending) == 0 {
		err = model.ErrNoPendingRefund
		return nil, 0, err
	}

	items, err := s.orderRepo.GetItems(ctx, tx, orderID)
	if err != nil {
		return nil, 0, err
	}
	lines := make(map[int64]*model.OrderItem, len(items))
	for i := range items {
		lines[items[i].ProductID] = &items[i]
	}

	result = &model.RefundDecisionResult{OrderID: orderID, Approved: true, RefundedAmount: decimal.Zero}
	for _, request := range pending {
		item, ok := lines[request.ProductID]
		if !ok {
			err = model.ErrOrderItemNotFound
			return nil, 0, err
		}
		if request.Quantity > item.Quantity {
			err = &model.ExcessRefundQuantityError{
				ProductID: request.ProductID,
				Requested: request.Quantity,
				Remaining: item.Quantity,
			}
			return nil, 0, err
		}

		if err = s.productRepo.Release(ctx, tx, request.ProductID, request.Quantity); err != nil {
			return nil, 0, err
		}
		if err = s.orderRepo.DecrementItem(ctx, tx, orderID, request.ProductID, request.Quantity); err != nil {
			return nil, 0, err
		}
		item.Quantity -= request.Quantity

		amount := item.Price.Mul(decimal.NewFromInt(int64(request.Quantity))).Round(2)
		result.RefundedAmount = result.RefundedAmount.Add(amount)
		result.Items = append(result.Items, model.RefundedLine{
			ProductID: request.ProductID,
			Quantity:  request.Quantity,
			Price:     item.Price,
			Amount:    amount,
		})
	}

	if _, err = s.refundRepo.DeleteByOrder(ctx, tx, orderID); err != nil {
		return nil, 0, err
	}

	status := model.StatusRefunded
	for _, item := range items {
		if item.Quantity > 0 {
			status = model.StatusPartiallyRefunded
			break
		}
	}
	if err = s.orderRepo.UpdateStatus(ctx, tx, orderID, status); err != nil {
		return nil, 0, err
	}
	if err = s.deliveryRepo.SyncStatus(ctx, tx, []int64{orderID}); err != nil {
		return nil, 0, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to commit transaction")
		return nil, 0, fmt.Errorf("failed to process refund: %w", err)
	}
	result.Status = string(status)

	s.logger.Info().
		Int64("order_id", orderID).
		Int("line_count", len(result.Items)).
		Str("amount", result.RefundedAmount.StringFixed(2)).
		Str("status", result.Status).
		Msg("refund approved")

	return result, order.UserID, nil
}

// deny drops the pending requests. It holds the order row lock like approve
// does, so a concurrent approval either sees no pending lines or wins first.
// Denying twice is harmless.
func (s *refundService) deny(ctx context.Context, orderID int64) (result *model.RefundDecisionResult, err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to deny refund: %w", err)
	}
	defer s.rollbackOnError(ctx, tx, &err)

	order, err := s.orderRepo.LockByID(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		err = model.ErrOrderNotFound
		return nil, err
	}

	removed, err := s.refundRepo.DeleteByOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to deny refund: %w", err)
	}

	s.logger.Info().Int64("order_id", orderID).Int64("removed", removed).Msg("refund denied")
	if removed > 0 {
		s.notifyCustomer(ctx, order.UserID, orderID, func(u *model.User) notify.Message {
			return notify.RefundDenied(u, orderID)
		})
	}

	return &model.RefundDecisionResult{
		OrderID:        orderID,
		Approved:       false,
		RefundedAmount: decimal.Zero,
		Status:         refundStatusDenied,
	}, nil
}

// checkEligible enforces the refund window and rejects orders whose delivery
// was completed or that were already fully refunded. tx may be nil.
func (s *refundService) checkEligible(ctx context.Context, tx pgx.Tx, order *model.Order, now time.Time) error {
	if now.Sub(order.OrderDate) > model.RefundWindow {
		return model.ErrRefundPeriodExpired
	}

	completed, err := s.deliveryRepo.HasCompleted(ctx, tx, order.ID)
	if err != nil {
		return err
	}
	if completed {
		return model.NewDomainError(model.ErrCodeNotRefundable, "Refund cannot be processed for completed deliveries")
	}

	if order.Status == model.StatusRefunded {
		return model.NewDomainError(model.ErrCodeNotRefundable, "Order has already been fully refunded")
	}
	return nil
}

func checkRefundLine(line model.RefundLine, remaining map[int64]int, seen map[int64]struct{}) error {
	if line.Quantity <= 0 {
		return model.ErrInvalidQuantity
	}
	if _, dup := seen[line.ProductID]; dup {
		return model.ErrDuplicateItem
	}
	seen[line.ProductID] = struct{}{}

	left, ok := remaining[line.ProductID]
	if !ok {
		return model.ErrOrderItemNotFound
	}
	if line.Quantity > left {
		return &model.ExcessRefundQuantityError{ProductID: line.ProductID, Requested: line.Quantity, Remaining: left}
	}
	return nil
}

// notifyCustomer sends a message after a committed change. Failures are logged only.
func (s *refundService) notifyCustomer(ctx context.Context, userID, orderID int64, build func(*model.User) notify.Message) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || user == nil {
		s.logger.Warn().Err(err).Int64("order_id", orderID).Int64("user_id", userID).Msg("cannot notify customer")
		return
	}

	if err := s.notifier.Notify(ctx, build(user)); err != nil {
		s.logger.Warn().Err(err).Int64("order_id", orderID).Msg("failed to notify customer")
	}
}

func (s *refundService) rollbackOnError(ctx context.Context, tx pgx.Tx, err *error) {
	if *err == nil {
		return
	}
	if rbErr := tx.Rollback(ctx); rbErr != nil {
		s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
	}
}
