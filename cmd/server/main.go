package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"beans-dashboard/internal/adapters/web"
	"beans-dashboard/internal/app"
	"beans-dashboard/internal/core"
	"beans-dashboard/internal/db"
	"beans-dashboard/internal/feed"
	"beans-dashboard/internal/metrics"
	"beans-dashboard/internal/poller"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	m := metrics.New()
	sink := core.NewLogAlertSink(log)
	inventory := core.NewInventoryService(pool, sink)
	catalog := core.NewCatalogService(pool)
	orders := core.NewOrderService(pool, log)
	reporting := core.NewReportingService(pool)

	feedClient := feed.NewClient(feed.Config{
		BaseURL:    envOr("FEED_URL", "https://connect.squareupsandbox.com"),
		Token:      os.Getenv("FEED_TOKEN"),
		LocationID: os.Getenv("FEED_LOCATION_ID"),
	})
	reconciler := core.NewReconciler(feedClient, orders, inventory, log)

	known, err := orders.KnownIDs(ctx)
	if err != nil {
		log.Fatal("failed to load known order ids", zap.Error(err))
	}
	state := core.NewCycleState(known)

	interval := 10 * time.Second
	if raw := os.Getenv("POLL_INTERVAL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatal("invalid POLL_INTERVAL", zap.String("value", raw), zap.Error(err))
		}
		interval = parsed
	}
	go poller.New(reconciler, state, interval, log, m).Run(ctx)

	svc := app.NewAppService(orders, inventory, catalog, reporting, reconciler, state, m)
	handler := web.NewHandler(svc, log, os.Getenv("ALLOWED_ORIGINS"), m.Handler())

	port := envOr("SERVER_PORT", "8080")
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info("server starting", zap.String("port", port))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server", zap.Error(err))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
