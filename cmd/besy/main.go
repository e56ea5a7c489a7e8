package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/besy-hub/besy-orders/internal/app"
	"github.com/besy-hub/besy-orders/internal/filtermenu"
	"github.com/besy-hub/besy-orders/internal/observability"
	"github.com/besy-hub/besy-orders/internal/orders"
	"github.com/besy-hub/besy-orders/internal/platform/cache"
	"github.com/besy-hub/besy-orders/internal/platform/db"
	"github.com/besy-hub/besy-orders/internal/preferences"
	"github.com/besy-hub/besy-orders/internal/refdata"
	"github.com/besy-hub/besy-orders/internal/shared"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessions := shared.NewSessionStore(redisClient, cfg.SessionCookie, cfg.SessionTTL)
	metrics := observability.NewMetrics()

	ordersRepo := orders.NewRepository(dbpool)
	ordersCache := orders.NewCachedLister(ordersRepo, cfg.OrdersCacheTTL, metrics)
	ordersHandler := orders.NewHandler(logger, ordersCache)

	preferencesRepo := preferences.NewRepository(dbpool)
	presetService := preferences.NewService(preferencesRepo, sessions, logger)
	preferencesHandler := preferences.NewHandler(logger, presetService)

	refdataService := refdata.NewService(refdata.NewRepository(dbpool))
	menuManager := filtermenu.NewManager(refdataService, presetService, logger, cfg.FilterSaveDebounce)
	menuHandler := filtermenu.NewHandler(logger, menuManager, presetService)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Sessions:           sessions,
		OrdersHandler:      ordersHandler,
		PreferencesHandler: preferencesHandler,
		FilterMenuHandler:  menuHandler,
		Metrics:            metrics,
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
