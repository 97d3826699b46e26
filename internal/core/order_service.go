package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// OrderService records orders pulled from the feed and drives their
// kitchen lifecycle. Ingest is an upsert-if-absent so any number of
// pollers racing on the same feed snapshot produce exactly one row per
// order. Deduction happens exactly once, inside CompleteOrder.
type OrderService interface {
	// Ingest persists o with status pending unless an order with the same
	// ID already exists. It reports whether a row was created. It never
	// touches inventory.
	Ingest(ctx context.Context, o Order) (created bool, err error)
	GetOrder(ctx context.Context, id string) (*Order, error)
	// ListOrders returns orders newest-first, optionally filtered by status.
	ListOrders(ctx context.Context, status *OrderStatus) ([]Order, error)
	// KnownIDs returns the set of order IDs already recorded locally.
	KnownIDs(ctx context.Context) (map[string]struct{}, error)
	// StartOrder transitions pending → in_progress. No inventory side
	// effect. Starting an order that is already in progress is a no-op.
	StartOrder(ctx context.Context, id string) (*Order, error)
	// CompleteOrder transitions the order into its terminal status and, if
	// this call won the transition, runs one deduction pass over the
	// order's resolved ingredients. The terminal status doubles as the
	// deducted marker: completing an already-completed order deducts
	// nothing and returns a nil report.
	CompleteOrder(ctx context.Context, id string, catalog CatalogService, inv InventoryService) (*Order, *DeductionReport, error)
}

type orderService struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func NewOrderService(pool *pgxpool.Pool, log *zap.Logger) OrderService {
	return &orderService{pool: pool, log: log}
}

const orderColumns = "id, customer_ref, status, line_items, created_at, ingested_at, started_at, completed_at"

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o     Order
		items []byte
	)
	err := row.Scan(&o.ID, &o.CustomerRef, &o.Status, &items, &o.CreatedAt, &o.IngestedAt, &o.StartedAt, &o.CompletedAt)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.LineItems); err != nil {
			return nil, fmt.Errorf("failed to decode line items for order %s: %w", o.ID, err)
		}
	}
	return &o, nil
}

func (s *orderService) Ingest(ctx context.Context, o Order) (bool, error) {
	if o.ID == "" {
		return false, fmt.Errorf("order id is required")
	}
	customer := o.CustomerRef
	if customer == "" {
		customer = "Guest"
	}
	items, err := json.Marshal(o.LineItems)
	if err != nil {
		return false, fmt.Errorf("failed to encode line items for order %s: %w", o.ID, err)
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO orders (id, customer_ref, status, line_items, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, o.ID, customer, StatusPending, items, o.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to ingest order %s: %w", o.ID, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *orderService) GetOrder(ctx context.Context, id string) (*Order, error) {
	o, err := scanOrder(s.pool.QueryRow(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to fetch order %s: %w", id, err)
	}
	return o, nil
}

func (s *orderService) ListOrders(ctx context.Context, status *OrderStatus) ([]Order, error) {
	query := "SELECT " + orderColumns + " FROM orders"
	args := []any{}
	if status != nil {
		query += " WHERE status = $1"
		args = append(args, *status)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (s *orderService) KnownIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx, "SELECT id FROM orders")
	if err != nil {
		return nil, fmt.Errorf("failed to query known order ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan order id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

func (s *orderService) StartOrder(ctx context.Context, id string) (*Order, error) {
	o, err := scanOrder(s.pool.QueryRow(ctx, `
		UPDATE orders
		SET status = $2, started_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING `+orderColumns,
		id, StatusInProgress, StatusPending))
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to start order %s: %w", id, err)
	}

	// Lost the conditional update: either missing, already started, or final.
	current, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == StatusInProgress {
		return current, nil
	}
	if err := current.Status.checkTransition(StatusInProgress); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("failed to start order %s: concurrent update, retry", id)
}

func (s *orderService) CompleteOrder(ctx context.Context, id string, catalog CatalogService, inv InventoryService) (*Order, *DeductionReport, error) {
	// The conditional update is the at-most-once claim: under any number
	// of racing callers exactly one observes a row here and runs the
	// deduction pass.
	o, err := scanOrder(s.pool.QueryRow(ctx, `
		UPDATE orders
		SET status = $2, completed_at = NOW()
		WHERE id = $1 AND status <> $2
		RETURNING `+orderColumns,
		id, StatusCompleted))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, fmt.Errorf("failed to complete order %s: %w", id, err)
		}
		current, err := s.GetOrder(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		// Already completed: deduction already happened, nothing to do.
		return current, nil, nil
	}

	report := Deduct(ctx, o, catalog, inv, s.log)
	return o, report, nil
}
