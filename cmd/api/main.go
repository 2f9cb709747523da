package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/gateway"
	"storefront/internal/handler"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"

	"github.com/shopspring/decimal"
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

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize cache
	var c cache.Cache
	if cfg.Redis.Enabled {
		c = cache.NewRedisCache(cfg.Redis.Addr, "storefront", logger)
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("redis cache enabled")
	} else {
		c = cache.NewNoop()
		logger.Info().Msg("cache disabled, all reads go to the database")
	}

	// Initialize payment gateway client
	gw := gateway.NewClient(cfg.Gateway, logger)

	accrualRate, err := decimal.NewFromString(cfg.Points.AccrualRate)
	if err != nil {
		return fmt.Errorf("invalid point accrual rate: %w", err)
	}

	// Initialize repositories
	memberRepo := repository.NewMemberRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	paymentRepo := repository.NewPaymentRepository(pool, logger)
	pointRepo := repository.NewPointRepository(pool, logger)
	discountRepo := repository.NewDiscountRepository(pool, logger)
	couponRepo := repository.NewCouponRepository(pool, logger)

	// Initialize services
	productService := service.NewProductService(productRepo, c, logger)
	orderService := service.NewOrderService(
		orderRepo, memberRepo, productRepo, pointRepo,
		couponRepo, discountRepo, paymentRepo, gw, c, accrualRate, logger,
	)
	paymentService := service.NewPaymentService(paymentRepo, orderRepo, gw, logger)
	pointService := service.NewPointService(pointRepo, c, logger)
	couponService := service.NewCouponService(couponRepo, discountRepo, memberRepo, logger)
	discountService := service.NewDiscountService(discountRepo, logger)

	// Initialize HTTP handlers and router
	mux := router.New(router.Handlers{
		Product:  handler.NewProductHandler(productService, logger),
		Order:    handler.NewOrderHandler(orderService, logger),
		Payment:  handler.NewPaymentHandler(paymentService, logger),
		Point:    handler.NewPointHandler(pointService, logger),
		Coupon:   handler.NewCouponHandler(couponService, logger),
		Discount: handler.NewDiscountHandler(discountService, logger),
	}, cfg.Auth.JWTSecret, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
