package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// StockSummary is a point-in-time rollup of the inventory ledger for the
// dashboard's overview tiles.
type StockSummary struct {
	Items     int             `json:"items"`
	LowStock  int             `json:"low_stock"`
	Valuation decimal.Decimal `json:"valuation"` // Σ quantity × unit_cost
}

// OrderCounts groups the local order table by lifecycle status.
type OrderCounts struct {
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Total      int `json:"total"`
}

// ReportingService serves the dashboard's summary tiles. Point-in-time
// rollups only; historical reporting is deliberately out of scope.
type ReportingService interface {
	StockSummary(ctx context.Context) (*StockSummary, error)
	OrderCounts(ctx context.Context) (*OrderCounts, error)
}

type reportingService struct {
	pool *pgxpool.Pool
}

func NewReportingService(pool *pgxpool.Pool) ReportingService {
	return &reportingService{pool: pool}
}

func (s *reportingService) StockSummary(ctx context.Context) (*StockSummary, error) {
	var summary StockSummary
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE quantity <= par_level),
		       COALESCE(SUM(quantity * unit_cost), 0)
		FROM inventory
	`).Scan(&summary.Items, &summary.LowStock, &summary.Valuation)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stock summary: %w", err)
	}
	return &summary, nil
}

func (s *reportingService) OrderCounts(ctx context.Context) (*OrderCounts, error) {
	var counts OrderCounts
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE status = $1),
		       COUNT(*) FILTER (WHERE status = $2),
		       COUNT(*) FILTER (WHERE status = $3),
		       COUNT(*)
		FROM orders
	`, StatusPending, StatusInProgress, StatusCompleted).Scan(
		&counts.Pending, &counts.InProgress, &counts.Completed, &counts.Total)
	if err != nil {
		return nil, fmt.Errorf("failed to compute order counts: %w", err)
	}
	return &counts, nil
}
