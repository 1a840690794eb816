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

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/attendance-scheduler/internal/application"
	"github.com/example/attendance-scheduler/internal/config"
	httptransport "github.com/example/attendance-scheduler/internal/http"
	"github.com/example/attendance-scheduler/internal/logging"
	"github.com/example/attendance-scheduler/internal/persistence"
	"github.com/example/attendance-scheduler/internal/persistence/memory"
	"github.com/example/attendance-scheduler/internal/persistence/postgres"
	"github.com/example/attendance-scheduler/internal/persistence/sqlite"
	"github.com/example/attendance-scheduler/internal/telemetry"
)

const serviceName = "attendance-scheduler"

// backend is a store the process owns for its whole lifetime.
type backend interface {
	persistence.Store
	Ping(ctx context.Context) error
	Close() error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("scheduler terminated", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName: serviceName,
		Endpoint:    cfg.OTelEndpoint,
		Enabled:     cfg.OTelEnabled,
	})
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("failed to flush traces", zap.Error(err))
		}
	}()

	store, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", zap.Error(cerr))
		}
	}()

	handler, err := newHandler(cfg, store, logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", zap.Error(err))
		}
	}()

	logger.Info("scheduler API listening",
		zap.String("addr", server.Addr),
		zap.String("store_driver", cfg.StoreDriver),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server encountered error: %w", err)
	}
	return nil
}

// openBackend opens and migrates the store selected by cfg.StoreDriver.
func openBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (backend, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory store; data is lost on exit and aggregates are not transactional")
		return memory.New(), nil
	case config.DriverSQLite:
		storage, err := sqlite.Open(ctx, cfg.SQLiteDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
		if err := storage.Migrate(ctx, logger); err != nil {
			_ = storage.Close()
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
		return storage, nil
	case config.DriverPostgres:
		storage, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
		if err := storage.Migrate(ctx, logger); err != nil {
			_ = storage.Close()
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
		return storage, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

// newHandler wires services and handlers over store. Every route except the
// health check requires an identity token.
func newHandler(cfg config.Config, store persistence.Store, logger *zap.Logger) (http.Handler, error) {
	if cfg.IdentitySecret == "" {
		return nil, errors.New("identity secret is required")
	}

	repos := newRepositories(store)
	scheduleService := application.NewScheduleServiceWithLogger(
		repos,
		newTransactor(store),
		application.ScheduleOptions{
			Transactional:     cfg.TransactionalAggregates,
			DeleteConcurrency: cfg.DeleteConcurrency,
		},
		uuid.NewString,
		time.Now,
		logger,
	)
	availabilityService := application.NewAvailabilityServiceWithLogger(repos, cfg.StrictAvailability, logger)
	userService := application.NewUserServiceWithLogger(repos.Users, logger)
	viewBuilder := application.NewViewBuilderWithLogger(repos, logger)

	verifier := httptransport.NewIdentityVerifier([]byte(cfg.IdentitySecret), cfg.IdentityIssuer, time.Now)
	requireIdentity := httptransport.RequireIdentity(verifier, userService, logger)
	protect := func(next http.Handler) http.Handler {
		protected := requireIdentity(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}
			protected.ServeHTTP(w, r)
		})
	}

	var health *httptransport.HealthHandler
	if p, ok := store.(interface{ Ping(context.Context) error }); ok {
		health = httptransport.NewHealthHandler(p, logger)
	}

	return httptransport.NewRouter(httptransport.RouterConfig{
		Schedules:    httptransport.NewScheduleHandler(scheduleService, viewBuilder, logger),
		Availability: httptransport.NewAvailabilityHandler(availabilityService, logger),
		Health:       health,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.NegotiateLanguage,
			protect,
		},
	}), nil
}
