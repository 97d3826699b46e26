package app

import (
	"beans-dashboard/internal/core"

	"github.com/shopspring/decimal"
)

type OrderListResult struct {
	Orders []core.Order `json:"orders"`
	Count  int          `json:"count"`
}

type CompleteOrderResult struct {
	Order *core.Order `json:"order"`
	// Report is nil when the order was already completed and this call
	// was an idempotent no-op.
	Report *core.DeductionReport `json:"report,omitempty"`
}

type ProductCostResult struct {
	ProductID int             `json:"product_id"`
	Cost      decimal.Decimal `json:"cost"`
}

type SummaryResult struct {
	Orders *core.OrderCounts  `json:"orders"`
	Stock  *core.StockSummary `json:"stock"`
}

type CreateInventoryItemRequest struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	ParLevel decimal.Decimal `json:"par_level"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

type CreateProductRequest struct {
	Name        string            `json:"name"`
	Ingredients []core.Ingredient `json:"ingredients"`
}
