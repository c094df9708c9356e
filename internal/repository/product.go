package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/netefood/pos/internal/domain/product"
)

const (
	listProductsSQL = `SELECT id, name, price, category, stock, min_stock, fiscal_code
		FROM products ORDER BY id`

	getProductByIDSQL = `SELECT id, name, price, category, stock, min_stock, fiscal_code
		FROM products WHERE id = $1`

	searchProductsSQL = `SELECT id, name, price, category, stock, min_stock, fiscal_code
		FROM products WHERE name ILIKE '%' || $1 || '%' OR id = $2 ORDER BY id`

	insertProductSQL = `INSERT INTO products (id, name, price, category, stock, min_stock, fiscal_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	updateProductSQL = `UPDATE products
		SET name = $2, price = $3, category = $4, stock = $5, min_stock = $6, fiscal_code = $7
		WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	upsertProductSQL = `INSERT INTO products (id, name, price, category, stock, min_stock, fiscal_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, price = EXCLUDED.price, category = EXCLUDED.category,
			stock = EXCLUDED.stock, min_stock = EXCLUDED.min_stock, fiscal_code = EXCLUDED.fiscal_code`

	// No floor on stock: an oversold product goes negative and is
	// reconciled later.
	decrementStockSQL = `UPDATE products SET stock = stock - $2 WHERE id = $1`

	listCategoriesSQL = `SELECT name FROM categories ORDER BY created_at, name`
	insertCategorySQL = `INSERT INTO categories (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`
	deleteCategorySQL = `DELETE FROM categories WHERE name = $1`
	categoryInUseSQL  = `SELECT EXISTS (SELECT 1 FROM products WHERE category = $1)`
	countProductsSQL  = `SELECT count(*) FROM products`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}
	return &p, nil
}

// Search matches products whose name contains the query (case-insensitive)
// or whose id equals the query when it is numeric.
func (r *ProductRepository) Search(ctx context.Context, query string) ([]product.Product, error) {
	id, err := strconv.ParseInt(query, 10, 64)
	if err != nil {
		id = -1
	}

	rows, err := r.pool.Query(ctx, searchProductsSQL, query, id)
	if err != nil {
		return nil, fmt.Errorf("searching products %q: %w", query, err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	_, err := r.pool.Exec(ctx, insertProductSQL,
		p.ID, p.Name, p.Price, p.Category, p.Stock, p.MinStock, p.FiscalCode,
	)
	if err != nil {
		return fmt.Errorf("creating product %d: %w", p.ID, err)
	}
	return nil
}

// Update replaces all mutable fields of a product.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID, p.Name, p.Price, p.Category, p.Stock, p.MinStock, p.FiscalCode,
	)
	if err != nil {
		return fmt.Errorf("updating product %d: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Delete removes a product from the catalog.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("deleting product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Upsert inserts a product or replaces an existing one by id. Used by the
// bulk catalog ingest tool.
func (r *ProductRepository) Upsert(ctx context.Context, p *product.Product) error {
	_, err := r.pool.Exec(ctx, upsertProductSQL,
		p.ID, p.Name, p.Price, p.Category, p.Stock, p.MinStock, p.FiscalCode,
	)
	if err != nil {
		return fmt.Errorf("upserting product %d: %w", p.ID, err)
	}
	return nil
}

// DecrementStock subtracts quantity from the product's stock, without floor.
func (r *ProductRepository) DecrementStock(ctx context.Context, id int64, quantity int) error {
	tag, err := r.pool.Exec(ctx, decrementStockSQL, id, quantity)
	if err != nil {
		return fmt.Errorf("decrementing stock of product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// ListCategories returns category names in creation order.
func (r *ProductRepository) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var name string
		err := row.Scan(&name)
		return name, err
	})
}

// AddCategory inserts a category; adding an existing name is a no-op.
func (r *ProductRepository) AddCategory(ctx context.Context, name string) error {
	if _, err := r.pool.Exec(ctx, insertCategorySQL, name); err != nil {
		return fmt.Errorf("adding category %q: %w", name, err)
	}
	return nil
}

// RemoveCategory deletes a category unless any product still references it.
func (r *ProductRepository) RemoveCategory(ctx context.Context, name string) error {
	var inUse bool
	if err := r.pool.QueryRow(ctx, categoryInUseSQL, name).Scan(&inUse); err != nil {
		return fmt.Errorf("checking category %q usage: %w", name, err)
	}
	if inUse {
		return product.ErrCategoryInUse
	}
	if _, err := r.pool.Exec(ctx, deleteCategorySQL, name); err != nil {
		return fmt.Errorf("removing category %q: %w", name, err)
	}
	return nil
}

// SeedDefaults populates the starter catalog and category list when the
// products table is empty. This is the load-time fallback for a fresh store.
func (r *ProductRepository) SeedDefaults(ctx context.Context) error {
	var count int
	if err := r.pool.QueryRow(ctx, countProductsSQL).Scan(&count); err != nil {
		return fmt.Errorf("counting products: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, name := range product.DefaultCategories {
		if err := r.AddCategory(ctx, name); err != nil {
			return err
		}
	}
	for _, p := range product.DefaultProducts() {
		if err := r.Create(ctx, &p); err != nil {
			return err
		}
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p     product.Product
		price decimal.Decimal
	)
	err := row.Scan(&p.ID, &p.Name, &price, &p.Category, &p.Stock, &p.MinStock, &p.FiscalCode)
	p.Price = price
	return p, err
}
