package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// DeliveryHandler serves the product manager's delivery list.
type DeliveryHandler struct {
	service service.DeliveryService
	logger  zerolog.Logger
}

func NewDeliveryHandler(service service.DeliveryService, logger zerolog.Logger) *DeliveryHandler {
	return &DeliveryHandler{
		service: service,
		logger:  logger.With().Str("handler", "delivery").Logger(),
	}
}

// List handles GET /api/deliveries, optionally filtered by ?status=.
func (h *DeliveryHandler) List(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	deliveries, err := h.service.List(r.Context(), actorID, model.OrderStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, deliveries)
}

func (h *DeliveryHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	deliveryID, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	delivery, err := h.service.Get(r.Context(), actorID, deliveryID)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, delivery)
}

// Complete handles POST /api/deliveries/{id}/complete requests.
func (h *DeliveryHandler) Complete(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	deliveryID, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	delivery, err := h.service.Complete(r.Context(), actorID, deliveryID)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, delivery)
}
