// seed is a one-shot tool that loads demo catalog and inventory data for
// local development. Safe to re-run; existing rows are left alone.
//
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"log"

	"beans-dashboard/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	log.Println("Seeding inventory...")
	_, err = tx.Exec(ctx, `
		INSERT INTO inventory (name, quantity, par_level, unit_cost)
		SELECT v.name, v.quantity::numeric, v.par_level::numeric, v.unit_cost::numeric
		FROM (VALUES
			('Whole Milk',     '200', '50',  '0.05'),
			('Oat Milk',       '80',  '20',  '0.09'),
			('Espresso Beans', '150', '40',  '0.12'),
			('Vanilla Syrup',  '60',  '15',  '0.03'),
			('Cups 12oz',      '500', '100', '0.08')
		) AS v(name, quantity, par_level, unit_cost)
		WHERE NOT EXISTS (SELECT 1 FROM inventory i WHERE i.name = v.name);
	`)
	if err != nil {
		log.Fatalf("Failed to seed inventory: %v", err)
	}

	log.Println("Seeding products and recipes...")
	_, err = tx.Exec(ctx, `
		INSERT INTO products (name)
		SELECT v.name
		FROM (VALUES ('Latte'), ('Oat Latte'), ('Espresso'), ('Vanilla Latte')) AS v(name)
		WHERE NOT EXISTS (SELECT 1 FROM products p WHERE LOWER(p.name) = LOWER(v.name));

		INSERT INTO recipes (product_id, inventory_id, amount, position)
		SELECT p.id, i.id, v.amount::numeric, v.position
		FROM (VALUES
			('Latte',         'Whole Milk',     '10', 0),
			('Latte',         'Espresso Beans', '18', 1),
			('Latte',         'Cups 12oz',      '1',  2),
			('Oat Latte',     'Oat Milk',       '10', 0),
			('Oat Latte',     'Espresso Beans', '18', 1),
			('Oat Latte',     'Cups 12oz',      '1',  2),
			('Espresso',      'Espresso Beans', '18', 0),
			('Vanilla Latte', 'Whole Milk',     '10', 0),
			('Vanilla Latte', 'Espresso Beans', '18', 1),
			('Vanilla Latte', 'Vanilla Syrup',  '2',  2),
			('Vanilla Latte', 'Cups 12oz',      '1',  3)
		) AS v(product, ingredient, amount, position)
		JOIN products p ON LOWER(p.name) = LOWER(v.product)
		JOIN inventory i ON i.name = v.ingredient
		WHERE NOT EXISTS (
			SELECT 1 FROM recipes r WHERE r.product_id = p.id AND r.inventory_id = i.id
		);
	`)
	if err != nil {
		log.Fatalf("Failed to seed products: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit seed: %v", err)
	}
	log.Println("Seed complete.")
}
