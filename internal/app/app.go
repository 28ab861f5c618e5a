package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MumuCarrot/bestpractices-bc/pkg/database"
	"github.com/MumuCarrot/bestpractices-bc/pkg/health"
	"github.com/MumuCarrot/bestpractices-bc/pkg/httpclient"
	"github.com/MumuCarrot/bestpractices-bc/pkg/tracing"

	"github.com/MumuCarrot/bestpractices-bc/internal/auth"
	"github.com/MumuCarrot/bestpractices-bc/internal/config"
	handler "github.com/MumuCarrot/bestpractices-bc/internal/handler/http"
	"github.com/MumuCarrot/bestpractices-bc/internal/repository"
	"github.com/MumuCarrot/bestpractices-bc/internal/repository/postgres"
	"github.com/MumuCarrot/bestpractices-bc/internal/repository/resttable"
	"github.com/MumuCarrot/bestpractices-bc/internal/service"
	"github.com/MumuCarrot/bestpractices-bc/migrations"
)

// App wires together all dependencies and runs the auth service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool // nil unless the postgres backend is selected
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:  "auth",
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.TracingEndpoint,
		SampleRate:   cfg.TracingSampler,
		Enabled:      cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Select the user store backend.
	var (
		userRepo repository.UserRepository
		pool     *pgxpool.Pool
	)
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		pgCfg := database.DefaultPostgresConfig()
		pgCfg.Host = cfg.PostgresHost
		pgCfg.Port = cfg.PostgresPort
		pgCfg.User = cfg.PostgresUser
		pgCfg.Password = cfg.PostgresPass
		pgCfg.DBName = cfg.PostgresDB
		pgCfg.SSLMode = cfg.PostgresSSL

		pool, err = database.NewPostgresPool(ctx, &pgCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		logger.Info("connected to PostgreSQL",
			slog.String("host", cfg.PostgresHost),
			slog.Int("port", cfg.PostgresPort),
			slog.String("database", cfg.PostgresDB),
		)

		if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations completed")

		userRepo = postgres.NewUserRepository(pool)

	case config.StoreBackendRestTable:
		clientCfg := httpclient.DefaultConfig()
		clientCfg.Timeout = cfg.StoreTimeout
		userRepo = resttable.NewUserRepository(resttable.Config{
			BaseURL: cfg.StoreURL,
			APIKey:  cfg.StoreAPIKey,
			Client:  clientCfg,
		})
		logger.Info("using hosted table store", slog.String("url", cfg.StoreURL))

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	// Build the dependency graph.
	hasher, err := auth.NewPasswordHasher(auth.Argon2Params{
		MemoryKiB:   cfg.Argon2MemoryKiB,
		Iterations:  cfg.Argon2Iterations,
		Parallelism: cfg.Argon2Parallelism,
	})
	if err != nil {
		return nil, fmt.Errorf("configure password hasher: %w", err)
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	authService := service.NewAuthService(userRepo, hasher, tokens, logger, cfg.StoreTimeout)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("user_store", func(ctx context.Context) error {
		return userRepo.Ping(ctx)
	})

	// HTTP router.
	router := handler.NewRouter(
		authService,
		tokens,
		healthHandler,
		logger,
		handler.CORSConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Environment:    cfg.Environment,
		},
		handler.CookieConfig{
			AccessTTL:  cfg.JWTAccessExpiry,
			RefreshTTL: cfg.JWTRefreshExpiry,
			Secure:     cfg.IsProduction(),
		},
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: drain in-flight HTTP
// requests first, then flush spans, then close the pool.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.pool != nil {
		a.pool.Close()
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
