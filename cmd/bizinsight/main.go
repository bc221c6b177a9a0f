package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/bizinsight360/bizinsight360/internal/app"
	"github.com/bizinsight360/bizinsight360/internal/auth"
	"github.com/bizinsight360/bizinsight360/internal/customers"
	"github.com/bizinsight360/bizinsight360/internal/kpis"
	"github.com/bizinsight360/bizinsight360/internal/observability"
	"github.com/bizinsight360/bizinsight360/internal/platform/cache"
	"github.com/bizinsight360/bizinsight360/internal/platform/db"
	"github.com/bizinsight360/bizinsight360/internal/products"
	"github.com/bizinsight360/bizinsight360/internal/sales"
	"github.com/bizinsight360/bizinsight360/internal/shared"
	"github.com/bizinsight360/bizinsight360/internal/users"
	"github.com/bizinsight360/bizinsight360/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	jobsClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	userRepo := users.NewRepository(dbpool)
	authService := auth.NewService(userRepo, tokens, jobsClient, auth.Options{
		FrontendURL:   cfg.FrontendURL,
		ResetTokenTTL: cfg.ResetTokenTTL,
	}, logger)
	usersService := users.NewService(userRepo, auth.Bcrypt{})

	productService := products.NewService(products.NewRepository(dbpool))
	customerService := customers.NewService(customers.NewRepository(dbpool))

	kpiCache := kpis.NewCache(redisClient, cfg.KPICacheTTL)
	kpiService := kpis.NewService(kpis.NewRepository(dbpool), kpiCache, logger)

	salesRepo := sales.NewRepository(dbpool, shared.NewIdempotencyStore(dbpool), shared.NewAuditLogger())
	salesService := sales.NewService(salesRepo, kpiService, logger)

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Tokens:           tokens,
		Metrics:          metrics,
		AuthHandler:      auth.NewHandler(logger, authService),
		UsersHandler:     users.NewHandler(logger, usersService),
		ProductsHandler:  products.NewHandler(logger, productService),
		CustomersHandler: customers.NewHandler(logger, customerService),
		SalesHandler:     sales.NewHandler(logger, salesService),
		KPIHandler:       kpis.NewHandler(logger, kpiService),
		JobHandler:       jobs.NewHandler(inspector, logger),
		Checks: map[string]app.Pinger{
			"postgres": app.PingFunc(dbpool.Ping),
			"redis":    app.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }),
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
