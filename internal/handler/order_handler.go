package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler handles order placement, lookup, status and cancellation.
type OrderHandler struct {
	orders  service.OrderService
	status  service.StatusService
	refunds service.RefundService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orders service.OrderService, status service.StatusService, refunds service.RefundService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		orders:  orders,
		status:  status,
		refunds: refunds,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	var req model.OrderRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), actorID, &req)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, model.CreateOrderResponse{
		OrderID: order.ID,
		Status:  "created",
		Order:   order,
	})
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(r.Context(), actorID, orderID)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// ListForUser handles GET /api/users/{id}/orders requests.
func (h *OrderHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	orders, err := h.orders.GetOrdersForUser(r.Context(), actorID, userID)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// ListByStatus handles GET /api/orders?status= requests.
func (h *OrderHandler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	status := model.OrderStatus(r.URL.Query().Get("status"))
	if status == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, "status query parameter is required", h.logger)
		return
	}

	orders, err := h.orders.ListOrdersByStatus(r.Context(), actorID, status)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// SetStatus handles PATCH /api/orders/{id}/status requests.
func (h *OrderHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req model.StatusUpdateRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	resp, err := h.status.SetStatus(r.Context(), actorID, orderID, req.Status)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Cancel handles POST /api/orders/{id}/cancel requests.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.refunds.CancelOrder(r.Context(), actorID, orderID); err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"orderid": orderID,
		"status":  "cancelled",
	})
}
