package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handler"
	"storefront/internal/invoice"
	"storefront/internal/middleware"
	"storefront/internal/notify"
	"storefront/internal/observability"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"
	"storefront/internal/sweep"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting storefront API server")

	// Cancelled on SIGINT/SIGTERM; every long-running component stops with it.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Tracing, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to flush traces")
		}
	}()

	// Initialize database connection pool
	pool, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	deliveryRepo := repository.NewDeliveryRepository(pool, logger)
	refundRepo := repository.NewRefundRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)
	invoiceRepo := repository.NewInvoiceRepository(pool, logger)

	authorizer := auth.NewAuthorizer(userRepo, logger)

	notifier, err := notify.New(cfg.Notify, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize notifier: %w", err)
	}
	defer notifier.Close()

	var issuer invoice.Issuer
	if cfg.Invoice.Enabled {
		issuer = invoice.NewIssuer(
			invoice.NewHTMLRenderer(),
			newInvoiceStore(ctx, cfg.Invoice, logger),
			invoiceRepo,
			userRepo,
			notifier,
			logger,
		)
	} else {
		logger.Info().Msg("invoice issuing disabled")
	}

	// Initialize services
	productService := service.NewProductService(productRepo, authorizer, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, userRepo, authorizer, issuer, time.Now, logger)
	statusService := service.NewStatusService(orderRepo, deliveryRepo, authorizer, cfg.Sweep.TransitAfter, cfg.Sweep.DeliveredAfter, logger)
	refundService := service.NewRefundService(orderRepo, productRepo, deliveryRepo, refundRepo, userRepo, authorizer, notifier, time.Now, logger)
	deliveryService := service.NewDeliveryService(deliveryRepo, authorizer, logger)

	// Initialize router
	opts := router.Options{APIKey: cfg.Auth.APIKey}
	if cfg.RateLimit.Enabled {
		opts.RateLimiter = middleware.NewRateLimiter(ctx, cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, 5*time.Minute)
	}
	mux := router.New(router.Handlers{
		Products:   handler.NewProductHandler(productService, logger),
		Orders:     handler.NewOrderHandler(orderService, statusService, refundService, logger),
		Refunds:    handler.NewRefundHandler(refundService, logger),
		Deliveries: handler.NewDeliveryHandler(deliveryService, logger),
	}, opts, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if cfg.Sweep.Enabled {
		sweeper := sweep.New(statusService, cfg.Sweep.Interval, logger)
		g.Go(func() error { return sweeper.Run(gctx) })
	} else {
		logger.Info().Msg("status sweeper disabled")
	}

	// Block until a signal arrives or a component fails, then drain the server.
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info().Msg("server shutdown completed")
	return nil
}

// newInvoiceStore prefers S3 when enabled and falls back to the local directory.
func newInvoiceStore(ctx context.Context, cfg config.InvoiceConfig, logger zerolog.Logger) invoice.Store {
	fileStore := invoice.NewFileStore(cfg.Dir, logger)
	if !cfg.S3.Enabled {
		logger.Info().Str("dir", cfg.Dir).Msg("storing invoices on the local file system (S3 disabled)")
		return fileStore
	}

	s3Store, err := invoice.NewS3Store(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 store, falling back to local file system only")
		return fileStore
	}
	return invoice.NewFallbackStore(s3Store, fileStore, cfg.S3.Prefix, true, logger)
}
