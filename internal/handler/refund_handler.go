package handler

import (
	"net/http"
	"time"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// RefundHandler handles refund eligibility, requests and decisions.
type RefundHandler struct {
	service service.RefundService
	now     func() time.Time
	logger  zerolog.Logger
}

// NewRefundHandler creates a new refund handler.
func NewRefundHandler(service service.RefundService, logger zerolog.Logger) *RefundHandler {
	return &RefundHandler{
		service: service,
		now:     time.Now,
		logger:  logger.With().Str("handler", "refund").Logger(),
	}
}

// Eligibility handles GET /api/orders/{id}/refund-eligibility requests.
func (h *RefundHandler) Eligibility(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	verdict, err := h.service.ValidateRefund(r.Context(), orderID, h.now())
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, verdict)
}

// RefundableItems handles GET /api/orders/{id}/refundable-items requests.
func (h *RefundHandler) RefundableItems(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	items, err := h.service.RefundableItems(r.Context(), orderID)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

// Request handles POST /api/orders/{id}/refund-request requests.
func (h *RefundHandler) Request(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req model.RefundRequestInput
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	resp, err := h.service.RequestRefund(r.Context(), actorID, orderID, req.Items)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListPending handles GET /api/refund-requests requests.
func (h *RefundHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	requests, err := h.service.ListRefundRequests(r.Context(), actorID)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, requests)
}

// Decide handles POST /api/refund-decisions requests.
func (h *RefundHandler) Decide(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	var req model.RefundDecisionRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	if req.Approved == nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, "approved is required", h.logger)
		return
	}

	result, err := h.service.Decide(r.Context(), actorID, &req)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
