package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/auth"
	"storefront/internal/middleware"
	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, logger zerolog.Logger) {
	requestID := middleware.RequestIDFromContext(r.Context())
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Str("code", code).Str("error", message).Int("status", status).Str("request_id", requestID).Msg("handler error")

	writeJSON(w, status, model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: requestID,
	})
}

// writeDomainError translates a service error into an HTTP response. Errors
// that are not domain errors are logged and reported as a generic 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if !errors.As(err, &domainErr) {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "An unexpected error occurred", logger)
		return
	}

	// Structured errors carry the product and quantities in their message.
	message := domainErr.Message
	var stockErr *model.InsufficientStockError
	var refundErr *model.ExcessRefundQuantityError
	var productErr *model.ProductNotFoundError
	switch {
	case errors.As(err, &stockErr):
		message = stockErr.Error()
	case errors.As(err, &refundErr):
		message = refundErr.Error()
	case errors.As(err, &productErr):
		message = productErr.Error()
	}

	writeError(w, r, statusFor(domainErr.Code), domainErr.Code, message, logger)
}

func statusFor(code string) int {
	switch {
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	case code == model.ErrCodeForbidden:
		return http.StatusForbidden
	case code == model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	case code == model.ErrCodeInvalidTransition, code == model.ErrCodeNotCancellable:
		return http.StatusConflict
	case code == model.ErrCodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// decodeJSON reads the request body into v, answering 400 on malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}, logger zerolog.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", logger)
		return false
	}
	return true
}

// pathID parses a positive integer path parameter.
func pathID(w http.ResponseWriter, r *http.Request, name string, logger zerolog.Logger) (int64, bool) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidID, "invalid "+name+": "+raw, logger)
		return 0, false
	}
	return id, true
}

// requireActor returns the caller from X-User-ID, answering 401 when absent.
func requireActor(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (int64, bool) {
	actorID, ok := auth.ActorFromContext(r.Context())
	if !ok {
		writeDomainError(w, r, model.ErrMissingActor, logger)
		return 0, false
	}
	return actorID, true
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
