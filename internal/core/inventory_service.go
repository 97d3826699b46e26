package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// InventoryService is the shared stock ledger. Adjust is the only write
// path the reconciliation engine uses; it is a single atomic SQL update so
// concurrent pollers never lose an update to a stale read-modify-write.
type InventoryService interface {
	GetItem(ctx context.Context, id int) (*InventoryItem, error)
	ListItems(ctx context.Context) ([]InventoryItem, error)
	CreateItem(ctx context.Context, name string, quantity, parLevel, unitCost decimal.Decimal) (*InventoryItem, error)
	// SetQuantity overwrites an item's quantity. Manual-edit glue for the
	// dashboard's inventory screen, not used by reconciliation.
	SetQuantity(ctx context.Context, id int, quantity decimal.Decimal) (*InventoryItem, error)
	// Adjust applies quantity += delta atomically and reports the item's
	// resulting stock position, including whether this call crossed the
	// par-level threshold from above.
	Adjust(ctx context.Context, id int, delta decimal.Decimal) (AdjustResult, error)
	// LowStock returns the current snapshot of items at or below par.
	LowStock(ctx context.Context) ([]InventoryItem, error)
}

// AdjustResult describes the stock position immediately after one Adjust.
type AdjustResult struct {
	Item        InventoryItem
	NewQuantity decimal.Decimal
	// Low is true when the new quantity is at or below par level.
	Low bool
	// Crossed is true when this adjust moved the quantity from above par
	// to at-or-below par. Alerts fire on the crossing only.
	Crossed bool
}

// AlertSink receives low-stock signals. Implementations must be safe for
// concurrent use; Adjust calls it synchronously.
type AlertSink interface {
	LowStock(ctx context.Context, alert LowStockAlert)
}

type inventoryService struct {
	pool *pgxpool.Pool
	sink AlertSink
}

// NewInventoryService builds the Postgres-backed ledger. sink may be nil
// if no one listens for low-stock alerts.
func NewInventoryService(pool *pgxpool.Pool, sink AlertSink) InventoryService {
	return &inventoryService{pool: pool, sink: sink}
}

const itemColumns = "id, name, quantity, par_level, unit_cost, updated_at"

func scanItem(row pgx.Row) (*InventoryItem, error) {
	var i InventoryItem
	err := row.Scan(&i.ID, &i.Name, &i.Quantity, &i.ParLevel, &i.UnitCost, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (s *inventoryService) GetItem(ctx context.Context, id int) (*InventoryItem, error) {
	item, err := scanItem(s.pool.QueryRow(ctx,
		"SELECT "+itemColumns+" FROM inventory WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to fetch inventory item %d: %w", id, err)
	}
	return item, nil
}

func (s *inventoryService) ListItems(ctx context.Context) ([]InventoryItem, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+itemColumns+" FROM inventory ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	var items []InventoryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *inventoryService) CreateItem(ctx context.Context, name string, quantity, parLevel, unitCost decimal.Decimal) (*InventoryItem, error) {
	if name == "" {
		return nil, fmt.Errorf("inventory item name is required")
	}
	if quantity.IsNegative() || parLevel.IsNegative() || unitCost.IsNegative() {
		return nil, fmt.Errorf("quantity, par level, and unit cost must not be negative")
	}

	item, err := scanItem(s.pool.QueryRow(ctx, `
		INSERT INTO inventory (name, quantity, par_level, unit_cost)
		VALUES ($1, $2, $3, $4)
		RETURNING `+itemColumns,
		name, quantity, parLevel, unitCost))
	if err != nil {
		return nil, fmt.Errorf("failed to create inventory item %s: %w", name, err)
	}
	return item, nil
}

func (s *inventoryService) SetQuantity(ctx context.Context, id int, quantity decimal.Decimal) (*InventoryItem, error) {
	item, err := scanItem(s.pool.QueryRow(ctx, `
		UPDATE inventory
		SET quantity = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+itemColumns,
		id, quantity))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to set quantity for item %d: %w", id, err)
	}
	return item, nil
}

// Adjust runs the conditional update in one statement. The previous
// quantity is recovered as new - delta, which is exact because the update
// itself is atomic; two concurrent adjusts each observe their own
// post-update value and the threshold crossing is attributed to exactly
// one of them.
func (s *inventoryService) Adjust(ctx context.Context, id int, delta decimal.Decimal) (AdjustResult, error) {
	item, err := scanItem(s.pool.QueryRow(ctx, `
		UPDATE inventory
		SET quantity = quantity + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+itemColumns,
		id, delta))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AdjustResult{}, ErrItemNotFound
		}
		return AdjustResult{}, fmt.Errorf("failed to adjust inventory item %d: %w", id, err)
	}

	previous := item.Quantity.Sub(delta)
	res := AdjustResult{
		Item:        *item,
		NewQuantity: item.Quantity,
		Low:         item.IsLowStock(),
	}
	res.Crossed = res.Low && previous.GreaterThan(item.ParLevel)

	if res.Crossed && s.sink != nil {
		s.sink.LowStock(ctx, LowStockAlert{
			ItemID:   item.ID,
			ItemName: item.Name,
			Quantity: item.Quantity,
			ParLevel: item.ParLevel,
		})
	}
	return res, nil
}

func (s *inventoryService) LowStock(ctx context.Context) ([]InventoryItem, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+itemColumns+" FROM inventory WHERE quantity <= par_level ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query low stock items: %w", err)
	}
	defer rows.Close()

	var items []InventoryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan low stock item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}
