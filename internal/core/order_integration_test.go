package core_test

import (
	"context"
	"errors"
	"testing"

	"beans-dashboard/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// setupOrderTestDB builds the full service set over a clean database and
// seeds the latte recipe used across the order tests: 1 latte consumes
// 10 units of milk.
func setupOrderTestDB(t *testing.T) (*pgxpool.Pool, core.OrderService, core.CatalogService, core.InventoryService, *core.InventoryItem, context.Context) {
	t.Helper()
	pool := setupTestDB(t)
	ctx := context.Background()

	inv := core.NewInventoryService(pool, nil)
	catalog := core.NewCatalogService(pool)
	orders := core.NewOrderService(pool, zap.NewNop())

	milk := seedItem(t, ctx, inv, "Whole Milk", "100", "20")
	_, err := catalog.CreateProduct(ctx, "Latte", []core.Ingredient{
		{InventoryID: milk.ID, Amount: qty("10")},
	})
	if err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}

	return pool, orders, catalog, inv, milk, ctx
}

func assertQuantity(t *testing.T, ctx context.Context, inv core.InventoryService, id int, want string) {
	t.Helper()
	item, err := inv.GetItem(ctx, id)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if !item.Quantity.Equal(qty(want)) {
		t.Errorf("Expected quantity %s for item %d, got %s", want, id, item.Quantity)
	}
}

func TestOrderService_IngestIsIdempotent(t *testing.T) {
	pool, orders, _, _, _, ctx := setupOrderTestDB(t)
	defer pool.Close()

	o := feedOrder("sq-123", core.LineItem{Name: "Latte", Quantity: qty("1")})

	created, err := orders.Ingest(ctx, o)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if !created {
		t.Error("First ingest must report created")
	}

	created, err = orders.Ingest(ctx, o)
	if err != nil {
		t.Fatalf("Second ingest failed: %v", err)
	}
	if created {
		t.Error("Second ingest of the same ID must not report created")
	}

	ids, err := orders.KnownIDs(ctx)
	if err != nil {
		t.Fatalf("KnownIDs failed: %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("Expected exactly 1 known order, got %d", len(ids))
	}

	stored, err := orders.GetOrder(ctx, "sq-123")
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if stored.Status != core.StatusPending {
		t.Errorf("Ingested order must start pending, got %s", stored.Status)
	}
	if stored.CustomerRef != "Guest" {
		t.Errorf("Order without customer must default to Guest, got %q", stored.CustomerRef)
	}
}

func TestOrderService_CompleteDeductsExactlyOnce(t *testing.T) {
	pool, orders, catalog, inv, milk, ctx := setupOrderTestDB(t)
	defer pool.Close()

	// 2 lattes × 10 units of milk each → 100 drops to 80.
	o := feedOrder("sq-200", core.LineItem{Name: "Latte", Quantity: qty("2")})
	if _, err := orders.Ingest(ctx, o); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	completed, report, err := orders.CompleteOrder(ctx, "sq-200", catalog, inv)
	if err != nil {
		t.Fatalf("CompleteOrder failed: %v", err)
	}
	if completed.Status != core.StatusCompleted {
		t.Errorf("Expected completed status, got %s", completed.Status)
	}
	if completed.CompletedAt == nil {
		t.Error("Completed order must carry completed_at")
	}
	if report == nil || report.Applied != 1 {
		t.Fatalf("Expected deduction report with 1 applied adjust, got %+v", report)
	}
	assertQuantity(t, ctx, inv, milk.ID, "80")

	// Completing again must not deduct a second time.
	again, report, err := orders.CompleteOrder(ctx, "sq-200", catalog, inv)
	if err != nil {
		t.Fatalf("Second CompleteOrder failed: %v", err)
	}
	if again.Status != core.StatusCompleted {
		t.Errorf("Expected completed status on repeat, got %s", again.Status)
	}
	if report != nil {
		t.Errorf("Repeat completion must return a nil report, got %+v", report)
	}
	assertQuantity(t, ctx, inv, milk.ID, "80")
}

func TestOrderService_CompleteToleratesUnmatchedItems(t *testing.T) {
	pool, orders, catalog, inv, milk, ctx := setupOrderTestDB(t)
	defer pool.Close()

	o := feedOrder("sq-300",
		core.LineItem{Name: "Mystery Special", Quantity: qty("1")},
		core.LineItem{Name: "latte", Quantity: qty("1")}, // matches case-insensitively
	)
	if _, err := orders.Ingest(ctx, o); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	_, report, err := orders.CompleteOrder(ctx, "sq-300", catalog, inv)
	if err != nil {
		t.Fatalf("CompleteOrder failed: %v", err)
	}
	if report.Applied != 1 {
		t.Errorf("Expected the latte deducted despite the unmatched item, got %d applied", report.Applied)
	}
	if len(report.Skips) != 1 || report.Skips[0].Reason != core.SkipProductNotFound {
		t.Errorf("Expected one product_not_found skip, got %+v", report.Skips)
	}
	assertQuantity(t, ctx, inv, milk.ID, "90")
}

func TestOrderService_StartWorkflow(t *testing.T) {
	pool, orders, catalog, inv, _, ctx := setupOrderTestDB(t)
	defer pool.Close()

	if _, err := orders.Ingest(ctx, feedOrder("sq-400", core.LineItem{Name: "Latte", Quantity: qty("1")})); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	started, err := orders.StartOrder(ctx, "sq-400")
	if err != nil {
		t.Fatalf("StartOrder failed: %v", err)
	}
	if started.Status != core.StatusInProgress || started.StartedAt == nil {
		t.Errorf("Expected in_progress with started_at, got %+v", started)
	}

	// Starting again is a no-op, not an error.
	again, err := orders.StartOrder(ctx, "sq-400")
	if err != nil {
		t.Fatalf("Repeat StartOrder failed: %v", err)
	}
	if again.Status != core.StatusInProgress {
		t.Errorf("Expected in_progress on repeat start, got %s", again.Status)
	}

	if _, _, err := orders.CompleteOrder(ctx, "sq-400", catalog, inv); err != nil {
		t.Fatalf("CompleteOrder failed: %v", err)
	}

	// Completed is terminal: no transition back out.
	if _, err := orders.StartOrder(ctx, "sq-400"); !errors.Is(err, core.ErrOrderFinal) {
		t.Errorf("Expected ErrOrderFinal starting a completed order, got %v", err)
	}
}

func TestOrderService_ListFiltersByStatus(t *testing.T) {
	pool, orders, catalog, inv, _, ctx := setupOrderTestDB(t)
	defer pool.Close()

	for _, id := range []string{"sq-500", "sq-501", "sq-502"} {
		if _, err := orders.Ingest(ctx, feedOrder(id, core.LineItem{Name: "Latte", Quantity: qty("1")})); err != nil {
			t.Fatalf("Ingest %s failed: %v", id, err)
		}
	}
	if _, _, err := orders.CompleteOrder(ctx, "sq-501", catalog, inv); err != nil {
		t.Fatalf("CompleteOrder failed: %v", err)
	}

	all, err := orders.ListOrders(ctx, nil)
	if err != nil {
		t.Fatalf("ListOrders failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 orders, got %d", len(all))
	}

	pending := core.StatusPending
	open, err := orders.ListOrders(ctx, &pending)
	if err != nil {
		t.Fatalf("ListOrders(pending) failed: %v", err)
	}
	if len(open) != 2 {
		t.Errorf("Expected 2 pending orders, got %d", len(open))
	}

	if _, err := orders.GetOrder(ctx, "sq-999"); !errors.Is(err, core.ErrOrderNotFound) {
		t.Errorf("Expected ErrOrderNotFound, got %v", err)
	}
}
