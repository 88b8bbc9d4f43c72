package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/shift-service/internal/api/http"
	"github.com/spec-kit/shift-service/internal/api/http/handlers"
	"github.com/spec-kit/shift-service/internal/auth"
	"github.com/spec-kit/shift-service/internal/config"
	"github.com/spec-kit/shift-service/internal/domain"
	"github.com/spec-kit/shift-service/internal/events"
	"github.com/spec-kit/shift-service/internal/observability"
	"github.com/spec-kit/shift-service/internal/persistence"
	"github.com/spec-kit/shift-service/internal/repository"
	"github.com/spec-kit/shift-service/internal/service"
	"github.com/spec-kit/shift-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	if pg.Pool == nil {
		logger.Fatal("POSTGRES_DSN is required")
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	gate, err := auth.NewGate()
	if err != nil {
		logger.Fatal("failed to build permission gate", zap.Error(err))
	}
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())

	userRepo := repository.NewUserRepository(pg.Pool)
	storeRepo := repository.NewStoreRepository(pg.Pool)
	shiftRepo := repository.NewShiftRepository(pg.Pool)
	swapRepo := repository.NewSwapRequestRepository(pg.Pool)
	ledgerRepo := repository.NewLedgerRepository(pg.Pool)
	notificationRepo := repository.NewNotificationRepository(pg.Pool)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:     userRepo,
		StoreRepo:    storeRepo,
		TokenManager: tokens,
		Logger:       logger,
	})
	shiftService := service.NewShiftService(service.ShiftDependencies{
		ShiftRepo:  shiftRepo,
		StoreRepo:  storeRepo,
		LedgerRepo: ledgerRepo,
		Gate:       gate,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	swapService := service.NewSwapService(service.SwapDependencies{
		SwapRepo:   swapRepo,
		ShiftRepo:  shiftRepo,
		UserRepo:   userRepo,
		Gate:       gate,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	ledgerService := service.NewLedgerService(service.LedgerDependencies{
		ShiftRepo:  shiftRepo,
		LedgerRepo: ledgerRepo,
		Gate:       gate,
		Logger:     logger,
	})
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		NotificationRepo: notificationRepo,
		UserRepo:         userRepo,
		Publisher:        redis,
		Dispatcher:       dispatcher,
		Gate:             gate,
		Metrics:          metrics,
		Logger:           logger,
		Config:           cfg.Notification,
	})
	worker.StartNotificationWorker(notificationService, logger)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService, cfg.Auth.CookieName, cfg.App.Env == "production"),
		Shifts:         handlers.NewShiftsHandler(shiftService),
		Swaps:          handlers.NewSwapsHandler(swapService),
		WasteLogs:      handlers.NewLedgerHandler(ledgerService, domain.LedgerWaste),
		ProductionLogs: handlers.NewLedgerHandler(ledgerService, domain.LedgerProduction),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, userRepo, cfg.Auth.CookieName),
		Gate:           gate,
		Metrics:        metrics,
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
