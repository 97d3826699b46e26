// sync runs one reconcile cycle against the configured order feed and
// prints the report. Useful from cron or when debugging feed issues.
//
// Usage: go run ./cmd/sync
package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"beans-dashboard/internal/core"
	"beans-dashboard/internal/db"
	"beans-dashboard/internal/feed"

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

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	inventory := core.NewInventoryService(pool, core.NewLogAlertSink(log))
	orders := core.NewOrderService(pool, log)
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

	report, err := reconciler.RunCycle(ctx, core.NewCycleState(known))
	if err != nil {
		log.Fatal("cycle failed", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(report)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
