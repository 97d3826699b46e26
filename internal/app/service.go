package app

import (
	"context"

	"beans-dashboard/internal/core"

	"github.com/shopspring/decimal"
)

// ApplicationService is the single interface the HTTP adapter calls. It
// decouples presentation from the core services and owns no display
// logic.
type ApplicationService interface {
	// ListOrders returns recorded orders, optionally filtered by status.
	ListOrders(ctx context.Context, status string) (*OrderListResult, error)

	// GetOrder returns one order by its feed ID.
	GetOrder(ctx context.Context, id string) (*core.Order, error)

	// StartOrder transitions an order pending → in_progress.
	StartOrder(ctx context.Context, id string) (*core.Order, error)

	// CompleteOrder transitions an order into completed and runs the
	// deduction pass if this call won the transition.
	CompleteOrder(ctx context.Context, id string) (*CompleteOrderResult, error)

	// Sync runs one reconcile cycle on demand.
	Sync(ctx context.Context) (*core.CycleReport, error)

	// ListInventory returns all stock items.
	ListInventory(ctx context.Context) ([]core.InventoryItem, error)

	// CreateInventoryItem adds a stock item.
	CreateInventoryItem(ctx context.Context, req CreateInventoryItemRequest) (*core.InventoryItem, error)

	// SetInventoryQuantity overwrites an item's quantity (manual edit).
	SetInventoryQuantity(ctx context.Context, id int, quantity decimal.Decimal) (*core.InventoryItem, error)

	// LowStock returns the current snapshot of items at or below par.
	LowStock(ctx context.Context) ([]core.InventoryItem, error)

	// ListProducts returns the catalog with recipes.
	ListProducts(ctx context.Context) ([]core.Product, error)

	// CreateProduct adds a product and its recipe lines.
	CreateProduct(ctx context.Context, req CreateProductRequest) (*core.Product, error)

	// ProductCost returns the ingredient cost rollup for one product.
	ProductCost(ctx context.Context, id int) (*ProductCostResult, error)

	// Summary returns the dashboard overview: order counts by status and
	// the stock rollup.
	Summary(ctx context.Context) (*SummaryResult, error)
}
