package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/paymentsengine/internal/adapter/http"
	"github.com/iho/paymentsengine/internal/adapter/http/handler"
	"github.com/iho/paymentsengine/internal/adapter/repository"
	redisRepo "github.com/iho/paymentsengine/internal/adapter/repository/redis"
	"github.com/iho/paymentsengine/internal/infrastructure/config"
	"github.com/iho/paymentsengine/internal/infrastructure/idgen"
	"github.com/iho/paymentsengine/internal/infrastructure/logger"
	"github.com/iho/paymentsengine/internal/infrastructure/metrics"
	"github.com/iho/paymentsengine/internal/infrastructure/redis"
	"github.com/iho/paymentsengine/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, appLogger, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to start")
	}
	defer app.Close()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      app.handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info().Str("port", cfg.HTTPPort).Str("store", cfg.StoreDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		appLogger.Error().Err(err).Msg("server failed")
	}

	appLogger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info().
		Uint64("processed", app.processor.Processed()).
		Msg("server stopped")
}

// app is the wired server without its listener.
type app struct {
	handler   http.Handler
	processor *usecase.TransactionProcessor
	closers   []func() error
}

func newApp(
	ctx context.Context,
	cfg *config.Config,
	appLogger zerolog.Logger,
	registerer prometheus.Registerer,
	gatherer prometheus.Gatherer,
) (*app, error) {
	a := &app{}
	m := metrics.New(registerer)

	ledger, err := repository.Open(ctx, repository.Config{
		Driver:      cfg.StoreDriver,
		WALPath:     cfg.WALPath,
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
		AutoMigrate: cfg.DatabaseAutoMigrate,
	}, m, appLogger)
	if err != nil {
		return nil, fmt.Errorf("open ledger store: %w", err)
	}
	a.closers = append(a.closers, ledger.Close)

	var (
		redisClient      *goredis.Client
		idempotencyStore usecase.IdempotencyStore
	)
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.closers = append(a.closers, redisClient.Close)
		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		appLogger.Info().Msg("connected to redis")
	}

	// Initialize use cases
	a.processor = usecase.NewTransactionProcessor(
		ledger.TxManager,
		ledger.Accounts,
		ledger.Transfers,
		ledger.Disputes,
		ledger.Resolutions,
		ledger.Retrier,
		idgen.NewULIDGenerator(),
		m,
		logger.Diagnostics(appLogger, cfg.DiagnosticsEnabled),
	)
	projection := usecase.NewProjectionUseCase(ledger.Accounts, ledger.Transfers)

	a.handler = httpAdapter.NewRouter(httpAdapter.RouterConfig{
		EventHandler:     handler.NewEventHandler(a.processor),
		AccountHandler:   handler.NewAccountHandler(projection),
		LedgerHandler:    handler.NewLedgerHandler(projection),
		HealthHandler:    handler.NewHealthHandler(ledger, redisClient, a.processor),
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		Metrics:          m,
		Gatherer:         gatherer,
		Logger:           appLogger,
	})

	return a, nil
}

// Close releases dependencies in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
