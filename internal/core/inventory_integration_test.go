package core_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"beans-dashboard/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// The migration is idempotent, so applying it on every run keeps the
	// test database's schema current.
	schema, err := os.ReadFile("../../migrations/001_init.sql")
	if err != nil {
		t.Fatalf("Failed to read migration: %v", err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		t.Fatalf("Failed to apply migration: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE orders, recipes, products, inventory RESTART IDENTITY CASCADE;
	`)
	if err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}
	return pool
}

func seedItem(t *testing.T, ctx context.Context, inv core.InventoryService, name, quantity, parLevel string) *core.InventoryItem {
	t.Helper()
	item, err := inv.CreateItem(ctx, name, qty(quantity), qty(parLevel), qty("0.05"))
	if err != nil {
		t.Fatalf("CreateItem %s failed: %v", name, err)
	}
	return item
}

// captureSink records every alert it receives.
type captureSink struct {
	mu     sync.Mutex
	alerts []core.LowStockAlert
}

func (c *captureSink) LowStock(_ context.Context, alert core.LowStockAlert) {
	c.mu.Lock()
	c.alerts = append(c.alerts, alert)
	c.mu.Unlock()
}

func (c *captureSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.alerts)
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestInventoryService_CreateAndFetch(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	inv := core.NewInventoryService(pool, nil)
	ctx := context.Background()

	created := seedItem(t, ctx, inv, "Whole Milk", "100", "20")
	fetched, err := inv.GetItem(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if fetched.Name != "Whole Milk" || !fetched.Quantity.Equal(qty("100")) {
		t.Errorf("Unexpected item: %+v", fetched)
	}
	if fetched.IsLowStock() {
		t.Error("100 over par 20 must not be low stock")
	}

	if _, err := inv.GetItem(ctx, 9999); err != core.ErrItemNotFound {
		t.Errorf("Expected ErrItemNotFound for missing id, got %v", err)
	}
}

func TestInventoryService_ConcurrentAdjustsNeverLoseUpdates(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	inv := core.NewInventoryService(pool, nil)
	ctx := context.Background()

	item := seedItem(t, ctx, inv, "Espresso Beans", "10", "2")

	// Two concurrent deductions of 1 must land at 8, never 9.
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := inv.Adjust(ctx, item.ID, qty("-1"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Adjust failed: %v", err)
		}
	}

	after, err := inv.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if !after.Quantity.Equal(qty("8")) {
		t.Errorf("Expected quantity 8 after two concurrent -1 adjusts, got %s", after.Quantity)
	}
}

func TestInventoryService_LowStockBoundary(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	inv := core.NewInventoryService(pool, nil)
	ctx := context.Background()

	// Equal to par counts as low; one above does not.
	seedItem(t, ctx, inv, "Oat Milk", "5", "5")
	seedItem(t, ctx, inv, "Vanilla Syrup", "6", "5")

	low, err := inv.LowStock(ctx)
	if err != nil {
		t.Fatalf("LowStock failed: %v", err)
	}
	if len(low) != 1 || low[0].Name != "Oat Milk" {
		t.Fatalf("Expected exactly Oat Milk (5 ≤ par 5) low, got %+v", low)
	}
}

func TestInventoryService_AlertFiresOnCrossingOnly(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	sink := &captureSink{}
	inv := core.NewInventoryService(pool, sink)
	ctx := context.Background()

	item := seedItem(t, ctx, inv, "Cups 12oz", "15", "10")

	// 15 → 5 crosses par 10: one alert.
	res, err := inv.Adjust(ctx, item.ID, qty("-10"))
	if err != nil {
		t.Fatalf("Adjust failed: %v", err)
	}
	if !res.Low || !res.Crossed {
		t.Errorf("Expected Low and Crossed after 15 → 5 with par 10, got %+v", res)
	}
	if sink.count() != 1 {
		t.Fatalf("Expected 1 alert after crossing, got %d", sink.count())
	}
	if !sink.alerts[0].Quantity.Equal(qty("5")) {
		t.Errorf("Alert should carry the post-adjust quantity, got %s", sink.alerts[0].Quantity)
	}

	// Already below par: further deductions stay silent.
	res, err = inv.Adjust(ctx, item.ID, qty("-1"))
	if err != nil {
		t.Fatalf("Adjust failed: %v", err)
	}
	if !res.Low || res.Crossed {
		t.Errorf("Expected Low without Crossed below par, got %+v", res)
	}
	if sink.count() != 1 {
		t.Errorf("Expected no new alert while already below par, got %d", sink.count())
	}

	// Restock above par, then cross again: alert re-arms.
	if _, err := inv.SetQuantity(ctx, item.ID, qty("50")); err != nil {
		t.Fatalf("SetQuantity failed: %v", err)
	}
	if _, err := inv.Adjust(ctx, item.ID, qty("-45")); err != nil {
		t.Fatalf("Adjust failed: %v", err)
	}
	if sink.count() != 2 {
		t.Errorf("Expected alert to re-arm after restock, got %d alerts", sink.count())
	}
}

func TestInventoryService_SetQuantityMissingItem(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	inv := core.NewInventoryService(pool, nil)

	if _, err := inv.SetQuantity(context.Background(), 424242, qty("10")); err != core.ErrItemNotFound {
		t.Errorf("Expected ErrItemNotFound, got %v", err)
	}
	if _, err := inv.Adjust(context.Background(), 424242, qty("-1")); err != core.ErrItemNotFound {
		t.Errorf("Expected ErrItemNotFound from Adjust, got %v", err)
	}
}

func TestInventoryService_CreateRejectsNegativeValues(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	inv := core.NewInventoryService(pool, nil)

	if _, err := inv.CreateItem(context.Background(), "Bad", decimal.NewFromInt(-1), decimal.Zero, decimal.Zero); err == nil {
		t.Error("Expected error for negative quantity")
	}
	if _, err := inv.CreateItem(context.Background(), "", decimal.Zero, decimal.Zero, decimal.Zero); err == nil {
		t.Error("Expected error for empty name")
	}
}
