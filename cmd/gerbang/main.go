package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/gerbang-admin/gerbang/internal/app"
	"github.com/gerbang-admin/gerbang/internal/audit"
	audithttp "github.com/gerbang-admin/gerbang/internal/audit/http"
	"github.com/gerbang-admin/gerbang/internal/auth"
	"github.com/gerbang-admin/gerbang/internal/authz"
	"github.com/gerbang-admin/gerbang/internal/observability"
	"github.com/gerbang-admin/gerbang/internal/platform/cache"
	"github.com/gerbang-admin/gerbang/internal/platform/db"
	"github.com/gerbang-admin/gerbang/internal/shared"
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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "gerbang_session", cfg.SessionTTL, cfg.IsProduction())

	var store authz.Store = authz.NewPostgresStore(pool)
	if cfg.CacheEnabled() {
		store = authz.NewCachedStore(store, redisClient, cfg.AuthzCacheTTL)
	}

	resolver := authz.NewResolver()
	bindings, err := store.ListBindings(ctx)
	if err != nil {
		logger.Error("load route bindings", slog.Any("error", err))
		os.Exit(1)
	}
	if err := resolver.Replace(bindings); err != nil {
		logger.Error("register route bindings", slog.Any("error", err))
		os.Exit(1)
	}
	refresher := authz.NewBindingRefresher(store, resolver, logger, cfg.AuthzRefreshInterval)
	go refresher.Run(ctx)

	metrics := observability.NewMetrics()
	recorder := authz.NewRecorder(pool)
	engine := authz.NewEngine(store, resolver, recorder, logger).WithObserver(metrics)

	authService := auth.NewService(store)
	authMiddleware := auth.Middleware{Service: authService, Logger: logger}
	authzMiddleware := authz.Middleware{Engine: engine, Logger: logger}

	auditRepo := audit.NewPostgresRepository(pool)
	auditService := audit.NewService(auditRepo)
	auditHandler := audithttp.NewHandler(logger, auditService)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		AuthMiddleware:  authMiddleware,
		AuthzMiddleware: authzMiddleware,
		AuditHandler:    auditHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
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
