package router

import (
	"net/http"

	"storefront/internal/handler"
	"storefront/internal/middleware"

	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	Products   *handler.ProductHandler
	Orders     *handler.OrderHandler
	Refunds    *handler.RefundHandler
	Deliveries *handler.DeliveryHandler
}

// Options configures the middleware chain.
type Options struct {
	APIKey      string
	RateLimiter *middleware.RateLimiter // nil disables rate limiting
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, opts Options, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Catalogue
	mux.HandleFunc("GET /api/products", h.Products.GetAll)
	mux.HandleFunc("GET /api/products/{id}", h.Products.GetByID)
	mux.HandleFunc("PATCH /api/products/{id}/stock", h.Products.SetStock)
	mux.HandleFunc("PATCH /api/products/{id}/pricing", h.Products.UpdatePricing)

	// Orders
	mux.HandleFunc("POST /api/orders", h.Orders.Create)
	mux.HandleFunc("GET /api/orders", h.Orders.ListByStatus)
	mux.HandleFunc("GET /api/orders/{id}", h.Orders.GetByID)
	mux.HandleFunc("GET /api/users/{id}/orders", h.Orders.ListForUser)
	mux.HandleFunc("PATCH /api/orders/{id}/status", h.Orders.SetStatus)
	mux.HandleFunc("POST /api/orders/{id}/cancel", h.Orders.Cancel)

	// Refunds
	mux.HandleFunc("GET /api/orders/{id}/refund-eligibility", h.Refunds.Eligibility)
	mux.HandleFunc("GET /api/orders/{id}/refundable-items", h.Refunds.RefundableItems)
	mux.HandleFunc("POST /api/orders/{id}/refund-request", h.Refunds.Request)
	mux.HandleFunc("GET /api/refund-requests", h.Refunds.ListPending)
	mux.HandleFunc("POST /api/refund-decisions", h.Refunds.Decide)

	// Deliveries
	mux.HandleFunc("GET /api/deliveries", h.Deliveries.List)
	mux.HandleFunc("GET /api/deliveries/{id}", h.Deliveries.GetByID)
	mux.HandleFunc("POST /api/deliveries/{id}/complete", h.Deliveries.Complete)

	// Outermost first: RequestID -> Recovery -> Logging -> CORS -> RateLimit -> APIKeyAuth -> Actor
	var handler http.Handler = mux
	handler = middleware.Actor(logger)(handler)
	handler = middleware.APIKeyAuth(opts.APIKey, logger)(handler)
	if opts.RateLimiter != nil {
		handler = middleware.RateLimit(opts.RateLimiter, logger)(handler)
	}
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)
	handler = middleware.RequestID(handler)

	return handler
}
