// internal/adapters/db/product_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

// productRepository implements ports.ProductCatalog
type productRepository struct {
	db     *Database
	psql   squirrel.StatementBuilderType
	logger *slog.Logger
}

// NewProductRepository creates a new product catalog backed by PostgreSQL
func NewProductRepository(db *Database, logger *slog.Logger) ports.ProductCatalog {
	return &productRepository{
		db:     db,
		psql:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		logger: logger.With(slog.String("repository", "product")),
	}
}

// FindProduct returns a product by id
func (r *productRepository) FindProduct(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	var p domain.Product
	err := r.db.pool.QueryRow(ctx,
		`SELECT id, name, brand, type, created_at FROM products WHERE id = $1`, productID).
		Scan(&p.ID, &p.Name, &p.Brand, &p.Type, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, translateError("find product", err)
	}
	return &p, nil
}

// FindProducts returns the known products among productIDs
func (r *productRepository) FindProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]domain.Product, error) {
	out := make(map[uuid.UUID]domain.Product, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	query, args, err := r.psql.Select("id", "name", "brand", "type", "created_at").
		From("products").
		Where("id = ANY(?::uuid[])", uuidStrings(productIDs)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translateError("find products", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Brand, &p.Type, &p.CreatedAt); err != nil {
			return nil, translateError("scan product", err)
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, translateError("find products", err)
	}
	return out, nil
}

// SaveProduct inserts or renames a product
func (r *productRepository) SaveProduct(ctx context.Context, product *domain.Product) error {
	product.PrepareForStorage()

	query, args, err := r.psql.Insert("products").
		Columns("id", "name", "brand", "type", "created_at").
		Values(product.ID, product.Name, product.Brand, product.Type, product.CreatedAt).
		Suffix("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, brand = EXCLUDED.brand, type = EXCLUDED.type").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := r.db.pool.Exec(ctx, query, args...); err != nil {
		return translateError("save product", err)
	}
	return nil
}
