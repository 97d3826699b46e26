package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CatalogService maps sold item names to recipe definitions. Resolve is
// the hot path for reconciliation; an unmatched name is a normal outcome
// (modifiers, one-off items) and surfaces as ErrProductNotFound rather
// than aborting the caller.
type CatalogService interface {
	// Resolve matches itemName against product names case-insensitively.
	Resolve(ctx context.Context, itemName string) (*Product, error)
	GetProduct(ctx context.Context, id int) (*Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	CreateProduct(ctx context.Context, name string, ingredients []Ingredient) (*Product, error)
	// ProductCost rolls up the cost of one unit of the product from its
	// ingredients' unit costs (amount × unit_cost, summed).
	ProductCost(ctx context.Context, id int) (decimal.Decimal, error)
}

type catalogService struct {
	pool *pgxpool.Pool
}

func NewCatalogService(pool *pgxpool.Pool) CatalogService {
	return &catalogService{pool: pool}
}

func (s *catalogService) Resolve(ctx context.Context, itemName string) (*Product, error) {
	var p Product
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, created_at
		FROM products
		WHERE LOWER(name) = LOWER($1)
		ORDER BY id
		LIMIT 1
	`, itemName).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to resolve product %q: %w", itemName, err)
	}

	if err := s.loadIngredients(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id int) (*Product, error) {
	var p Product
	err := s.pool.QueryRow(ctx,
		"SELECT id, name, created_at FROM products WHERE id = $1", id,
	).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to fetch product %d: %w", id, err)
	}

	if err := s.loadIngredients(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *catalogService) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.name, p.created_at, r.inventory_id, r.amount
		FROM products p
		LEFT JOIN recipes r ON r.product_id = p.id
		ORDER BY p.name, r.position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	index := map[int]int{}
	for rows.Next() {
		var (
			p           Product
			inventoryID *int
			amount      *decimal.Decimal
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &inventoryID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		pos, seen := index[p.ID]
		if !seen {
			products = append(products, p)
			pos = len(products) - 1
			index[p.ID] = pos
		}
		if inventoryID != nil && amount != nil {
			products[pos].Ingredients = append(products[pos].Ingredients, Ingredient{
				InventoryID: *inventoryID,
				Amount:      *amount,
			})
		}
	}
	return products, rows.Err()
}

func (s *catalogService) CreateProduct(ctx context.Context, name string, ingredients []Ingredient) (*Product, error) {
	if name == "" {
		return nil, fmt.Errorf("product name is required")
	}
	for _, ing := range ingredients {
		if ing.Amount.IsNegative() || ing.Amount.IsZero() {
			return nil, fmt.Errorf("ingredient amount must be positive, got %s for item %d", ing.Amount, ing.InventoryID)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var p Product
	err = tx.QueryRow(ctx, `
		INSERT INTO products (name) VALUES ($1)
		RETURNING id, name, created_at
	`, name).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create product %s: %w", name, err)
	}

	for pos, ing := range ingredients {
		_, err = tx.Exec(ctx, `
			INSERT INTO recipes (product_id, inventory_id, amount, position)
			VALUES ($1, $2, $3, $4)
		`, p.ID, ing.InventoryID, ing.Amount, pos)
		if err != nil {
			return nil, fmt.Errorf("failed to create recipe line for product %s: %w", name, err)
		}
		p.Ingredients = append(p.Ingredients, ing)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit product %s: %w", name, err)
	}
	return &p, nil
}

func (s *catalogService) ProductCost(ctx context.Context, id int) (decimal.Decimal, error) {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return decimal.Zero, err
	}

	var cost decimal.Decimal
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(r.amount * i.unit_cost), 0)
		FROM recipes r
		JOIN inventory i ON i.id = r.inventory_id
		WHERE r.product_id = $1
	`, id).Scan(&cost)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to compute cost for product %d: %w", id, err)
	}
	return cost, nil
}

// loadIngredients fills p.Ingredients in recipe order.
func (s *catalogService) loadIngredients(ctx context.Context, p *Product) error {
	rows, err := s.pool.Query(ctx, `
		SELECT inventory_id, amount
		FROM recipes
		WHERE product_id = $1
		ORDER BY position
	`, p.ID)
	if err != nil {
		return fmt.Errorf("failed to query recipe for product %d: %w", p.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var ing Ingredient
		if err := rows.Scan(&ing.InventoryID, &ing.Amount); err != nil {
			return fmt.Errorf("failed to scan recipe line: %w", err)
		}
		p.Ingredients = append(p.Ingredients, ing)
	}
	return rows.Err()
}
