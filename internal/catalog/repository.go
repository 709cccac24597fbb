package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jewelms/jewelms/internal/platform/db"
	"github.com/jewelms/jewelms/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the catalog.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func translateUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", shared.ErrConflict, pgErr.ConstraintName)
	}
	return err
}

// --- categories ---

func scanCategory(row pgx.Row) (*Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("category: %w", shared.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const selectCategory = `
	SELECT id, name, COALESCE(description, ''), created_at, updated_at
	FROM categories`

// CreateCategory inserts a category.
func (r *Repository) CreateCategory(ctx context.Context, c *Category) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO categories (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt)
	return translateUnique(err)
}

// UpdateCategory updates name/description.
func (r *Repository) UpdateCategory(ctx context.Context, c *Category) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE categories SET name = $2, description = $3, updated_at = $4
		WHERE id = $1`, c.ID, c.Name, c.Description, c.UpdatedAt)
	if err != nil {
		return translateUnique(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("category: %w", shared.ErrNotFound)
	}
	return nil
}

// GetCategory fetches one category.
func (r *Repository) GetCategory(ctx context.Context, id string) (*Category, error) {
	return scanCategory(r.pool.QueryRow(ctx, selectCategory+` WHERE id = $1`, id))
}

// ListCategories returns all categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, selectCategory+` ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// DeleteCategory removes a category; products keep a null reference.
func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("category: %w", shared.ErrNotFound)
	}
	return nil
}

// --- products ---

const selectProduct = `
	SELECT id, COALESCE(sku, ''), COALESCE(barcode, ''), name,
		COALESCE(category_id::text, ''), COALESCE(hsn_code, ''),
		COALESCE(metal_type, ''), purity, weight_grams,
		base_price, selling_price, making_charges, wastage_pct, stone_charges,
		stock_qty, min_stock, is_active, created_at, updated_at
	FROM products`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.SKU, &p.Barcode, &p.Name,
		&p.CategoryID, &p.HSNCode,
		&p.MetalType, &p.Purity, &p.WeightGrams,
		&p.BasePrice, &p.SellingPrice, &p.MakingCharges, &p.WastagePct, &p.StoneCharges,
		&p.StockQty, &p.MinStock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("product: %w", shared.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct inserts a product. Opening stock is recorded as an
// adjustment ledger entry in the same transaction so the inventory
// integrity check balances from day one.
func (r *Repository) CreateProduct(ctx context.Context, p *Product, actorID string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return r.insertProduct(ctx, tx, p, actorID)
	})
}

func (r *Repository) insertProduct(ctx context.Context, tx pgx.Tx, p *Product, actorID string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO products (
			id, sku, barcode, name, category_id, hsn_code,
			metal_type, purity, weight_grams,
			base_price, selling_price, making_charges, wastage_pct, stone_charges,
			stock_qty, min_stock, is_active, created_at, updated_at
		) VALUES (
			$1, NULLIF($2, ''), NULLIF($3, ''), $4, NULLIF($5, '')::uuid, $6,
			$7, $8, $9,
			$10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19
		)`,
		p.ID, p.SKU, p.Barcode, p.Name, p.CategoryID, p.HSNCode,
		p.MetalType, p.Purity, p.WeightGrams,
		p.BasePrice, p.SellingPrice, p.MakingCharges, p.WastagePct, p.StoneCharges,
		p.StockQty, p.MinStock, p.IsActive, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return translateUnique(err)
	}

	if p.StockQty > 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO inventory_transactions (
				id, product_id, transaction_type, quantity,
				reference_type, notes, created_by, created_at
			) VALUES ($1, $2, 'adjustment', $3, 'opening_stock', 'opening stock', NULLIF($4, '')::uuid, $5)`,
			uuid.NewString(), p.ID, p.StockQty, actorID, p.CreatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

// UpdateProduct persists catalog fields. Stock is deliberately absent;
// only inventory movements change it.
func (r *Repository) UpdateProduct(ctx context.Context, p *Product) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE products
		SET sku = NULLIF($2, ''), barcode = NULLIF($3, ''), name = $4,
			category_id = NULLIF($5, '')::uuid, hsn_code = $6,
			metal_type = $7, purity = $8, weight_grams = $9,
			base_price = $10, selling_price = $11, making_charges = $12,
			wastage_pct = $13, stone_charges = $14,
			min_stock = $15, is_active = $16, updated_at = $17
		WHERE id = $1 AND deleted_at IS NULL`,
		p.ID, p.SKU, p.Barcode, p.Name,
		p.CategoryID, p.HSNCode,
		p.MetalType, p.Purity, p.WeightGrams,
		p.BasePrice, p.SellingPrice, p.MakingCharges,
		p.WastagePct, p.StoneCharges,
		p.MinStock, p.IsActive, p.UpdatedAt)
	if err != nil {
		return translateUnique(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product: %w", shared.ErrNotFound)
	}
	return nil
}

// GetProduct fetches one live product.
func (r *Repository) GetProduct(ctx context.Context, id string) (*Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, selectProduct+` WHERE id = $1 AND deleted_at IS NULL`, id))
}

// SoftDeleteProduct marks a product deleted. Historical invoice items
// keep their nullable reference.
func (r *Repository) SoftDeleteProduct(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE products SET deleted_at = NOW(), is_active = FALSE
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product: %w", shared.ErrNotFound)
	}
	return nil
}

// SearchProducts filters live products by name, SKU or barcode.
func (r *Repository) SearchProducts(ctx context.Context, req SearchRequest) ([]Product, int64, error) {
	where := ` WHERE deleted_at IS NULL`
	args := []any{}
	argNum := 1

	if req.Query != "" {
		where += fmt.Sprintf(" AND (name ILIKE $%d OR sku ILIKE $%d OR barcode = $%d)", argNum, argNum, argNum+1)
		args = append(args, "%"+req.Query+"%", req.Query)
		argNum += 2
	}
	if req.CategoryID != "" {
		where += fmt.Sprintf(" AND category_id = $%d", argNum)
		args = append(args, req.CategoryID)
		argNum++
	}
	if req.ActiveOnly {
		where += " AND is_active = TRUE"
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM products"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := selectProduct + where + " ORDER BY name"
	if req.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, req.Limit)
		argNum++
	}
	if req.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, req.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}
	return products, total, rows.Err()
}
