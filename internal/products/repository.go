package products

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrProductNotFound indicates no matching catalog entry.
var ErrProductNotFound = errors.New("products: not found")

// Repository provides read access to the product catalog.
type Repository interface {
	ListActive(ctx context.Context) ([]Product, error)
}

// PostgresCatalog reads the product catalog from PostgreSQL.
type PostgresCatalog struct {
	db *sql.DB
}

// NewPostgresCatalog creates a Postgres-backed catalog reader.
func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	if db == nil {
		panic("products: db cannot be nil")
	}
	return &PostgresCatalog{db: db}
}

// ListActive returns every active product with its specifications,
// standards and discount tier overrides.
func (c *PostgresCatalog) ListActive(ctx context.Context) ([]Product, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, sku, name, category_slug, COALESCE(description, ''), price, unit_weight_kg,
		       specifications, standards, discount_tiers, featured, in_stock
		FROM products
		WHERE active = TRUE
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("products: list active: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Product
	for rows.Next() {
		var p Product
		var specsJSON, standardsJSON, tiersJSON []byte
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.CategorySlug, &p.Description, &p.Price,
			&p.UnitWeightKg, &specsJSON, &standardsJSON, &tiersJSON, &p.Featured, &p.InStock); err != nil {
			return nil, fmt.Errorf("products: scan product: %w", err)
		}
		p.Active = true
		if len(specsJSON) > 0 {
			if err := json.Unmarshal(specsJSON, &p.Specifications); err != nil {
				return nil, fmt.Errorf("products: decode specifications for %s: %w", p.SKU, err)
			}
		}
		if len(standardsJSON) > 0 {
			if err := json.Unmarshal(standardsJSON, &p.Standards); err != nil {
				return nil, fmt.Errorf("products: decode standards for %s: %w", p.SKU, err)
			}
		}
		if len(tiersJSON) > 0 {
			if err := json.Unmarshal(tiersJSON, &p.DiscountTiers); err != nil {
				return nil, fmt.Errorf("products: decode discount tiers for %s: %w", p.SKU, err)
			}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("products: iterate products: %w", err)
	}
	return out, nil
}

// StaticCatalog serves a fixed product list; used in tests and demos.
type StaticCatalog struct {
	products []Product
}

// NewStaticCatalog wraps a fixed product slice.
func NewStaticCatalog(products []Product) *StaticCatalog {
	return &StaticCatalog{products: products}
}

// ListActive returns the active subset of the fixed list.
func (c *StaticCatalog) ListActive(_ context.Context) ([]Product, error) {
	var out []Product
	for _, p := range c.products {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}
