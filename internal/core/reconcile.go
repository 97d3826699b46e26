package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FeedSource is the external point-of-sale order feed. Implementations
// return the feed's current snapshot normalized into canonical orders and
// error only on transport or parse failure, both retryable next cycle.
type FeedSource interface {
	SearchOrders(ctx context.Context) ([]Order, error)
}

// SkipReason classifies why a line item or ingredient was passed over
// during deduction. Skips are best-effort policy, not errors: the rest of
// the order keeps going.
type SkipReason string

const (
	SkipProductNotFound SkipReason = "product_not_found"
	SkipItemNotFound    SkipReason = "item_not_found"
	SkipAdjustFailed    SkipReason = "adjust_failed"
)

// Skip records one passed-over entry so the silent-continue policy of the
// original dashboard stays observable.
type Skip struct {
	OrderID     string     `json:"order_id"`
	LineItem    string     `json:"line_item"`
	InventoryID int        `json:"inventory_id,omitempty"`
	Reason      SkipReason `json:"reason"`
	Detail      string     `json:"detail,omitempty"`
}

// IngredientDelta is one pending ledger adjustment produced by expanding
// an order's line items through the catalog. Delta is negative for a
// deduction.
type IngredientDelta struct {
	InventoryID int
	Delta       decimal.Decimal
	Product     string
	LineItem    string
}

// DeductionReport summarizes one deduction pass. Each applied adjust is
// final even when a later one fails; failures appear as skips with reason
// adjust_failed and are never rolled back.
type DeductionReport struct {
	OrderID string          `json:"order_id"`
	Applied int             `json:"applied"`
	Skips   []Skip          `json:"skips,omitempty"`
	Alerts  []LowStockAlert `json:"alerts,omitempty"`
}

// ExpandOrder resolves each line item against the catalog and computes
// the ingredient deltas to apply. Each ingredient is deducted
// amount × line-item quantity: two lattes consuming 10 units of milk each
// cost the ledger 20. Unmatched names are skipped, not fatal.
func ExpandOrder(ctx context.Context, o *Order, catalog CatalogService) ([]IngredientDelta, []Skip) {
	var (
		deltas []IngredientDelta
		skips  []Skip
	)
	for _, item := range o.LineItems {
		product, err := catalog.Resolve(ctx, item.Name)
		if err != nil {
			reason := SkipProductNotFound
			if !errors.Is(err, ErrProductNotFound) {
				reason = SkipAdjustFailed
			}
			skips = append(skips, Skip{
				OrderID:  o.ID,
				LineItem: item.Name,
				Reason:   reason,
				Detail:   err.Error(),
			})
			continue
		}

		qty := item.Quantity
		if qty.IsZero() || qty.IsNegative() {
			qty = decimal.NewFromInt(1)
		}
		for _, ing := range product.Ingredients {
			deltas = append(deltas, IngredientDelta{
				InventoryID: ing.InventoryID,
				Delta:       ing.Amount.Mul(qty).Neg(),
				Product:     product.Name,
				LineItem:    item.Name,
			})
		}
	}
	return deltas, skips
}

// Deduct expands o and applies the resulting deltas to the ledger one at
// a time. A failed adjust is logged and reported, and the pass continues;
// every adjust that succeeded stays applied.
func Deduct(ctx context.Context, o *Order, catalog CatalogService, inv InventoryService, log *zap.Logger) *DeductionReport {
	deltas, skips := ExpandOrder(ctx, o, catalog)
	report := &DeductionReport{OrderID: o.ID, Skips: skips}

	for _, skip := range skips {
		log.Info("line item skipped",
			zap.String("order_id", skip.OrderID),
			zap.String("line_item", skip.LineItem),
			zap.String("reason", string(skip.Reason)),
		)
	}

	for _, d := range deltas {
		res, err := inv.Adjust(ctx, d.InventoryID, d.Delta)
		if err != nil {
			reason := SkipAdjustFailed
			if errors.Is(err, ErrItemNotFound) {
				reason = SkipItemNotFound
			}
			report.Skips = append(report.Skips, Skip{
				OrderID:     o.ID,
				LineItem:    d.LineItem,
				InventoryID: d.InventoryID,
				Reason:      reason,
				Detail:      err.Error(),
			})
			log.Warn("ingredient adjustment skipped",
				zap.String("order_id", o.ID),
				zap.String("line_item", d.LineItem),
				zap.Int("inventory_id", d.InventoryID),
				zap.String("reason", string(reason)),
				zap.Error(err),
			)
			continue
		}

		report.Applied++
		if res.Crossed {
			report.Alerts = append(report.Alerts, LowStockAlert{
				ItemID:   res.Item.ID,
				ItemName: res.Item.Name,
				Quantity: res.NewQuantity,
				ParLevel: res.Item.ParLevel,
			})
		}
	}
	return report
}

// CycleState is the explicit polling state threaded through the
// scheduler: the set of order IDs already seen. It is a warm cache in
// front of the authoritative upsert-if-absent, so a cold or stale state
// is safe — at worst an already-known order takes one extra round trip.
// Safe for concurrent use; the scheduled poller and on-demand syncs
// share one state.
type CycleState struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewCycleState builds a state pre-seeded with known IDs, typically from
// OrderService.KnownIDs at startup. ids may be nil.
func NewCycleState(ids map[string]struct{}) *CycleState {
	state := &CycleState{seen: make(map[string]struct{}, len(ids))}
	for id := range ids {
		state.seen[id] = struct{}{}
	}
	return state
}

// Seen reports whether id was ingested during an earlier cycle.
func (s *CycleState) Seen(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[id]
	return ok
}

func (s *CycleState) mark(id string) {
	s.mu.Lock()
	s.seen[id] = struct{}{}
	s.mu.Unlock()
}

// CycleReport summarizes one poll cycle for logging and metrics.
type CycleReport struct {
	Fetched  int             `json:"fetched"`
	New      int             `json:"new"`
	Known    int             `json:"known"`
	Failed   int             `json:"failed"`
	LowStock []InventoryItem `json:"low_stock"`
	Duration time.Duration   `json:"duration"`
}

// Reconciler is the poll-cycle orchestrator: fetch the feed snapshot,
// partition new from known, record new orders, and recompute the
// low-stock snapshot. It never deducts inventory — deduction belongs to
// the status workflow's transition into completed.
type Reconciler struct {
	feed      FeedSource
	orders    OrderService
	inventory InventoryService
	log       *zap.Logger
}

func NewReconciler(feed FeedSource, orders OrderService, inventory InventoryService, log *zap.Logger) *Reconciler {
	return &Reconciler{
		feed:      feed,
		orders:    orders,
		inventory: inventory,
		log:       log,
	}
}

// RunCycle runs one poll cycle. A feed failure aborts the cycle before
// any local state changes; a failed insert leaves that order unmarked so
// the next cycle re-sees it as new. Orders are processed in feed order.
func (r *Reconciler) RunCycle(ctx context.Context, state *CycleState) (CycleReport, error) {
	start := time.Now()

	fetched, err := r.feed.SearchOrders(ctx)
	if err != nil {
		return CycleReport{}, fmt.Errorf("order feed fetch failed: %w", err)
	}

	report := CycleReport{Fetched: len(fetched)}
	for _, o := range fetched {
		if state.Seen(o.ID) {
			report.Known++
			continue
		}

		created, err := r.orders.Ingest(ctx, o)
		if err != nil {
			// Re-seen as new next cycle; Ingest is idempotent.
			report.Failed++
			r.log.Error("order ingest failed",
				zap.String("order_id", o.ID),
				zap.Error(err),
			)
			continue
		}

		state.mark(o.ID)
		if created {
			report.New++
			r.log.Info("order ingested",
				zap.String("order_id", o.ID),
				zap.Int("line_items", len(o.LineItems)),
			)
		} else {
			// Another poller won the upsert race, or the state was cold.
			report.Known++
		}
	}

	low, err := r.inventory.LowStock(ctx)
	if err != nil {
		return report, fmt.Errorf("low stock snapshot failed: %w", err)
	}
	report.LowStock = low
	report.Duration = time.Since(start)
	return report, nil
}
