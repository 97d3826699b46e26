package core_test

import (
	"context"
	"testing"

	"beans-dashboard/internal/core"

	"go.uber.org/zap"
)

func TestReportingService_StockSummary(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	inv := core.NewInventoryService(pool, nil)
	reporting := core.NewReportingService(pool)
	ctx := context.Background()

	// 100 × 0.05 + 5 × 0.05 = 5.25; the 5/10 item is the only low one.
	seedItem(t, ctx, inv, "Whole Milk", "100", "20")
	seedItem(t, ctx, inv, "Oat Milk", "5", "10")

	summary, err := reporting.StockSummary(ctx)
	if err != nil {
		t.Fatalf("StockSummary failed: %v", err)
	}
	if summary.Items != 2 {
		t.Errorf("Expected 2 items, got %d", summary.Items)
	}
	if summary.LowStock != 1 {
		t.Errorf("Expected 1 low-stock item, got %d", summary.LowStock)
	}
	if !summary.Valuation.Equal(qty("5.25")) {
		t.Errorf("Expected valuation 5.25, got %s", summary.Valuation)
	}
}

func TestReportingService_OrderCounts(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	inv := core.NewInventoryService(pool, nil)
	catalog := core.NewCatalogService(pool)
	orders := core.NewOrderService(pool, zap.NewNop())
	reporting := core.NewReportingService(pool)
	ctx := context.Background()

	for _, id := range []string{"r-1", "r-2", "r-3", "r-4"} {
		if _, err := orders.Ingest(ctx, feedOrder(id)); err != nil {
			t.Fatalf("Ingest %s failed: %v", id, err)
		}
	}
	if _, err := orders.StartOrder(ctx, "r-2"); err != nil {
		t.Fatalf("StartOrder failed: %v", err)
	}
	if _, _, err := orders.CompleteOrder(ctx, "r-3", catalog, inv); err != nil {
		t.Fatalf("CompleteOrder failed: %v", err)
	}

	counts, err := reporting.OrderCounts(ctx)
	if err != nil {
		t.Fatalf("OrderCounts failed: %v", err)
	}
	if counts.Pending != 2 || counts.InProgress != 1 || counts.Completed != 1 || counts.Total != 4 {
		t.Errorf("Unexpected counts: %+v", counts)
	}
}
