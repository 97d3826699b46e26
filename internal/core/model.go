package core

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrItemNotFound    = errors.New("inventory item not found")
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
)

// InventoryItem is one stocked ingredient. Quantity and ParLevel are
// decimals because stock is tracked in fractional units (kg, liters).
type InventoryItem struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	ParLevel  decimal.Decimal `json:"par_level"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// IsLowStock reports whether the item sits at or below its par level.
func (i InventoryItem) IsLowStock() bool {
	return i.Quantity.LessThanOrEqual(i.ParLevel)
}

// Product is a sellable menu item. Its recipe is the ordered list of
// ingredient consumption rules loaded from the recipes table.
type Product struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	Ingredients []Ingredient `json:"ingredients"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Ingredient is one consumption rule on a product's recipe: selling one
// unit of the product consumes Amount units of the referenced stock item.
type Ingredient struct {
	InventoryID int             `json:"inventory_id"`
	Amount      decimal.Decimal `json:"amount"`
}

// LowStockAlert is emitted when an adjustment pushes an item from above
// its par level to at-or-below it. Re-polls while already below par do
// not re-emit.
type LowStockAlert struct {
	ItemID   int             `json:"item_id"`
	ItemName string          `json:"item_name"`
	Quantity decimal.Decimal `json:"quantity"`
	ParLevel decimal.Decimal `json:"par_level"`
}
