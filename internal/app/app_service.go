package app

import (
	"context"
	"fmt"

	"beans-dashboard/internal/core"
	"beans-dashboard/internal/metrics"

	"github.com/shopspring/decimal"
)

type appService struct {
	orders     core.OrderService
	inventory  core.InventoryService
	catalog    core.CatalogService
	reporting  core.ReportingService
	reconciler *core.Reconciler
	state      *core.CycleState
	metrics    *metrics.Set
}

// NewAppService constructs the facade that satisfies ApplicationService.
// state is the same value the poller threads through its cycles, so
// on-demand syncs and scheduled polls share one seen-ID cache.
func NewAppService(
	orders core.OrderService,
	inventory core.InventoryService,
	catalog core.CatalogService,
	reporting core.ReportingService,
	reconciler *core.Reconciler,
	state *core.CycleState,
	m *metrics.Set,
) ApplicationService {
	return &appService{
		orders:     orders,
		inventory:  inventory,
		catalog:    catalog,
		reporting:  reporting,
		reconciler: reconciler,
		state:      state,
		metrics:    m,
	}
}

func (s *appService) ListOrders(ctx context.Context, status string) (*OrderListResult, error) {
	var filter *core.OrderStatus
	if status != "" {
		st := core.OrderStatus(status)
		if !st.Valid() {
			return nil, fmt.Errorf("unknown order status %q", status)
		}
		filter = &st
	}

	orders, err := s.orders.ListOrders(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &OrderListResult{Orders: orders, Count: len(orders)}, nil
}

func (s *appService) GetOrder(ctx context.Context, id string) (*core.Order, error) {
	return s.orders.GetOrder(ctx, id)
}

func (s *appService) StartOrder(ctx context.Context, id string) (*core.Order, error) {
	return s.orders.StartOrder(ctx, id)
}

func (s *appService) CompleteOrder(ctx context.Context, id string) (*CompleteOrderResult, error) {
	order, report, err := s.orders.CompleteOrder(ctx, id, s.catalog, s.inventory)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDeduction(report)
	}
	return &CompleteOrderResult{Order: order, Report: report}, nil
}

func (s *appService) Sync(ctx context.Context) (*core.CycleReport, error) {
	report, err := s.reconciler.RunCycle(ctx, s.state)
	if s.metrics != nil {
		s.metrics.ObserveCycle(report, err)
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *appService) ListInventory(ctx context.Context) ([]core.InventoryItem, error) {
	return s.inventory.ListItems(ctx)
}

func (s *appService) CreateInventoryItem(ctx context.Context, req CreateInventoryItemRequest) (*core.InventoryItem, error) {
	return s.inventory.CreateItem(ctx, req.Name, req.Quantity, req.ParLevel, req.UnitCost)
}

func (s *appService) SetInventoryQuantity(ctx context.Context, id int, quantity decimal.Decimal) (*core.InventoryItem, error) {
	return s.inventory.SetQuantity(ctx, id, quantity)
}

func (s *appService) LowStock(ctx context.Context) ([]core.InventoryItem, error) {
	return s.inventory.LowStock(ctx)
}

func (s *appService) ListProducts(ctx context.Context) ([]core.Product, error) {
	return s.catalog.ListProducts(ctx)
}

func (s *appService) CreateProduct(ctx context.Context, req CreateProductRequest) (*core.Product, error) {
	return s.catalog.CreateProduct(ctx, req.Name, req.Ingredients)
}

func (s *appService) ProductCost(ctx context.Context, id int) (*ProductCostResult, error) {
	cost, err := s.catalog.ProductCost(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ProductCostResult{ProductID: id, Cost: cost}, nil
}

func (s *appService) Summary(ctx context.Context) (*SummaryResult, error) {
	orders, err := s.reporting.OrderCounts(ctx)
	if err != nil {
		return nil, err
	}
	stock, err := s.reporting.StockSummary(ctx)
	if err != nil {
		return nil, err
	}
	return &SummaryResult{Orders: orders, Stock: stock}, nil
}
