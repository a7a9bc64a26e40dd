package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mkelly/billgate/internal/model"
)

const upsertProductSQL = `
INSERT INTO catalog_products (
	product_id, product_type, title, description, price, currency, updated_at, refreshed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (product_id, product_type) DO UPDATE SET
	title = EXCLUDED.title,
	description = EXCLUDED.description,
	price = EXCLUDED.price,
	currency = EXCLUDED.currency,
	updated_at = EXCLUDED.updated_at,
	refreshed_at = EXCLUDED.refreshed_at`

// Catalog writes catalog snapshots to the database.
type Catalog struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewCatalog creates a catalog store over the given pool.
func NewCatalog(db *pgxpool.Pool, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		db:     db,
		logger: logger,
	}
}

// UpsertProducts writes a batch of products, replacing any existing
// rows for the same (product_id, product_type).
func (c *Catalog) UpsertProducts(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}

	refreshedAt := time.Now().UnixMicro()

	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(upsertProductSQL,
			p.ID,
			string(p.Type),
			p.Title,
			p.Description,
			p.Price.String(),
			p.Currency,
			p.UpdatedAt,
			refreshedAt,
		)
	}

	start := time.Now()
	results := c.db.SendBatch(ctx, batch)
	defer results.Close()

	for range products {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert product: %w", err)
		}
	}

	c.logger.Debug("catalog snapshot written",
		"products", len(products),
		"duration", time.Since(start),
	)

	return nil
}

// GetProduct reads the last snapshot of a single product.
func (c *Catalog) GetProduct(ctx context.Context, id string, typ model.ProductType) (model.Product, bool, error) {
	const q = `
SELECT product_id, product_type, title, description, price, currency, updated_at
FROM catalog_products
WHERE product_id = $1 AND product_type = $2`

	var p model.Product
	var typeStr, priceStr string

	row := c.db.QueryRow(ctx, q, id, string(typ))
	err := row.Scan(&p.ID, &typeStr, &p.Title, &p.Description, &priceStr, &p.Currency, &p.UpdatedAt)
	if err == pgx.ErrNoRows {
		return model.Product{}, false, nil
	}
	if err != nil {
		return model.Product{}, false, fmt.Errorf("read product: %w", err)
	}

	p.Type = model.ProductType(typeStr)
	p.Price, err = parsePrice(priceStr)
	if err != nil {
		return model.Product{}, false, err
	}

	return p, true, nil
}
