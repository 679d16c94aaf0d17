package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/insightmart/insightmart/internal/domain"
	"github.com/insightmart/insightmart/pkg/database"
	apperrors "github.com/insightmart/insightmart/pkg/errors"
)

const productColumns = `id, name, slug, sku, price::text, discount::text, category, rating::float8, reviews, stock, owner_id, created_at, updated_at`

const skuConstraint = "products_sku_key"

// sortColumns maps the API sort fields onto columns.
var sortColumns = map[string]string{
	domain.SortByCreatedAt: "created_at",
	domain.SortByPrice:     "price",
	domain.SortByDiscount:  "discount",
	domain.SortByRating:    "rating",
	domain.SortByName:      "name",
	domain.SortByReviews:   "reviews",
	domain.SortByStock:     "stock",
}

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	db database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (err error) {
	query := `
		INSERT INTO products (id, name, slug, sku, price, discount, category, rating, reviews, stock, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	ctx, end := database.TraceQuery(ctx, "products.Create", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query, insertArgs(p)...)
	if err != nil {
		if database.IsUniqueViolation(err, skuConstraint) {
			return apperrors.AlreadyExists(fmt.Sprintf("Product with SKU %q already exists", p.SKU))
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// CreateMany inserts all products in one transaction.
func (r *ProductRepository) CreateMany(ctx context.Context, products []domain.Product) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin bulk insert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO products (id, name, slug, sku, price, discount, category, rating, reviews, stock, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	for i := range products {
		if _, err := tx.Exec(ctx, query, insertArgs(&products[i])...); err != nil {
			if database.IsUniqueViolation(err, skuConstraint) {
				return apperrors.AlreadyExists("One or more products have duplicate SKUs")
			}
			return fmt.Errorf("insert product %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit bulk insert: %w", err)
	}
	return nil
}

func insertArgs(p *domain.Product) []any {
	return []any{
		p.ID, p.Name, p.Slug, p.SKU, p.Price, p.Discount, p.Category,
		p.Rating, p.Reviews, p.Stock, p.OwnerID, p.CreatedAt, p.UpdatedAt,
	}
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (p *domain.Product, err error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "products.GetByID", query)
	defer func() { end(err) }()

	return r.getOne(ctx, query, id)
}

// GetForUpdate retrieves a product and locks its row.
func (r *ProductRepository) GetForUpdate(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

func (r *ProductRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("Product")
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// GetByIDs returns the products that exist among ids.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get products by ids: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

// List returns a page of products matching filter with the total count.
func (r *ProductRepository) List(ctx context.Context, filter domain.ProductFilter) (products []domain.Product, total int, err error) {
	where, args := buildProductWhere(filter)
	argIndex := len(args) + 1

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	// count(*) OVER() returns the total alongside the page in one query.
	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM products
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		productColumns, where, orderBy(filter), argIndex, argIndex+1,
	)
	args = append(args, limit, offset)

	ctx, end := database.TraceQuery(ctx, "products.List", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products = []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	// An offset past the last page returns no rows and therefore no count.
	if len(products) == 0 && offset > 0 {
		countQuery := "SELECT count(*) FROM products " + where
		if err := r.db.QueryRow(ctx, countQuery, args[:len(args)-2]...).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count products: %w", err)
		}
	}

	return products, total, nil
}

// Find returns every product matching filter.
func (r *ProductRepository) Find(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	where, args := buildProductWhere(filter)
	query := fmt.Sprintf(`SELECT %s FROM products %s ORDER BY %s`, productColumns, where, orderBy(filter))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

func buildProductWhere(f domain.ProductFilter) (string, []any) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if f.OwnerID != "" {
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", argIndex))
		args = append(args, f.OwnerID)
		argIndex++
	}
	if f.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR sku ILIKE $%d)", argIndex, argIndex))
		args = append(args, containsPattern(f.Search))
		argIndex++
	}
	if f.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, domain.NormalizeCategory(f.Category))
		argIndex++
	}
	if f.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price >= $%d", argIndex))
		args = append(args, *f.MinPrice)
		argIndex++
	}
	if f.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price <= $%d", argIndex))
		args = append(args, *f.MaxPrice)
		argIndex++
	}
	if f.MinDiscount != nil {
		conditions = append(conditions, fmt.Sprintf("discount >= $%d", argIndex))
		args = append(args, *f.MinDiscount)
		argIndex++
	}
	if f.MaxDiscount != nil {
		conditions = append(conditions, fmt.Sprintf("discount <= $%d", argIndex))
		args = append(args, *f.MaxDiscount)
		argIndex++
	}
	if f.MinRating != nil {
		conditions = append(conditions, fmt.Sprintf("rating >= $%d", argIndex))
		args = append(args, *f.MinRating)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// orderBy returns a whitelisted ORDER BY clause. The id tiebreaker keeps
// pagination stable across equal sort keys.
func orderBy(f domain.ProductFilter) string {
	column, ok := sortColumns[f.SortBy]
	if !ok {
		return "created_at DESC, id"
	}
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}
	return column + " " + dir + ", id"
}

// Update overwrites the mutable fields of a product.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE products
		SET name = $1, slug = $2, sku = $3, price = $4, discount = $5, category = $6, stock = $7, updated_at = $8
		WHERE id = $9`

	tag, err := r.db.Exec(ctx, query,
		p.Name, p.Slug, p.SKU, p.Price, p.Discount, p.Category, p.Stock, p.UpdatedAt, p.ID,
	)
	if err != nil {
		if database.IsUniqueViolation(err, skuConstraint) {
			return apperrors.AlreadyExists(fmt.Sprintf("Product with SKU %q already exists", p.SKU))
		}
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("Product")
	}
	return nil
}

// Delete removes a product owned by ownerID.
func (r *ProductRepository) Delete(ctx context.Context, id, ownerID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("Product")
	}
	return nil
}

// DeleteByCategory removes ownerID's products in category.
func (r *ProductRepository) DeleteByCategory(ctx context.Context, ownerID, category string) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM products WHERE owner_id = $1 AND category = $2`,
		ownerID, domain.NormalizeCategory(category),
	)
	if err != nil {
		return 0, fmt.Errorf("delete products by category: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DecrementStock subtracts quantity when at least that much stock remains.
func (r *ProductRepository) DecrementStock(ctx context.Context, id string, quantity int) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE products
		SET stock = stock - $1, updated_at = NOW()
		WHERE id = $2 AND stock >= $1`,
		quantity, id,
	)
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateRating stores the derived rating fields.
func (r *ProductRepository) UpdateRating(ctx context.Context, id string, s domain.RatingSummary) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE products SET rating = $1, reviews = $2 WHERE id = $3`,
		s.Average, s.Count, id,
	)
	if err != nil {
		return fmt.Errorf("update product rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("Product")
	}
	return nil
}

// scanProduct reads productColumns followed by any extra destinations.
func scanProduct(row scanner, extra ...any) (*domain.Product, error) {
	var (
		p                     domain.Product
		rawPrice, rawDiscount string
	)

	dest := []any{
		&p.ID, &p.Name, &p.Slug, &p.SKU, &rawPrice, &rawDiscount, &p.Category,
		&p.Rating, &p.Reviews, &p.Stock, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	var err error
	if p.Price, err = parseDecimal("price", rawPrice); err != nil {
		return nil, err
	}
	if p.Discount, err = parseDecimal("discount", rawDiscount); err != nil {
		return nil, err
	}
	return &p, nil
}
