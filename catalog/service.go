package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/storefront-go/apperror"
)

// CatalogService defines category and product directory operations.
type CatalogService interface {
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*Category, error)
	ListCategories(ctx context.Context, skip, limit int) ([]Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	ListProducts(ctx context.Context, skip, limit int, categoryID *uuid.UUID) ([]Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type catalogService struct {
	db *pgxpool.Pool
}

// NewCatalogService creates a CatalogService backed by the given pool.
func NewCatalogService(db *pgxpool.Pool) CatalogService {
	return &catalogService{db: db}
}

const productColumns = `id, name, category_id, description, price, stock, is_active,
	discount, discount_starts_at, discount_ends_at, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.Name, &p.CategoryID, &p.Description, &p.Price, &p.Stock,
		&p.IsActive, &p.Discount, &p.DiscountStartsAt, &p.DiscountEndsAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanCategory(row pgx.Row) (*Category, error) {
	var c Category
	if err := row.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCategory inserts a category; duplicate names surface as conflicts.
func (s *catalogService) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*Category, error) {
	row := s.db.QueryRow(ctx,
		`INSERT INTO categories (name) VALUES ($1) RETURNING id, name, created_at, updated_at`,
		strings.TrimSpace(req.Name),
	)
	category, err := scanCategory(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperror.NewConflictError("category name already exists", nil)
		}
		return nil, apperror.NewDatabaseError("failed to create category", err)
	}
	return category, nil
}

// GetCategory retrieves a category by id.
func (s *catalogService) GetCategory(ctx context.Context, id uuid.UUID) (*Category, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM categories WHERE id = $1`, id)
	category, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("category not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to get category", err)
	}
	return category, nil
}

// ListCategories returns categories most-recent-first.
func (s *catalogService) ListCategories(ctx context.Context, skip, limit int) ([]Category, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, created_at, updated_at FROM categories
		 ORDER BY created_at DESC OFFSET $1 LIMIT $2`, skip, limit)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list categories", err)
	}
	defer rows.Close()

	categories := make([]Category, 0, limit)
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, apperror.NewDatabaseError("failed to scan category", err)
		}
		categories = append(categories, *category)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to list categories", err)
	}
	return categories, nil
}

// UpdateCategory renames a category.
func (s *catalogService) UpdateCategory(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*Category, error) {
	row := s.db.QueryRow(ctx,
		`UPDATE categories SET name = $1, updated_at = now() WHERE id = $2
		 RETURNING id, name, created_at, updated_at`,
		strings.TrimSpace(req.Name), id,
	)
	category, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("category not found", nil)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperror.NewConflictError("category name already exists", nil)
		}
		return nil, apperror.NewDatabaseError("failed to update category", err)
	}
	return category, nil
}

// DeleteCategory removes a category. Categories that still hold products
// are protected by the FK and reported as conflicts.
func (s *catalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperror.NewConflictError("category still has products", nil)
		}
		return apperror.NewDatabaseError("failed to delete category", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFoundError("category not found", nil)
	}
	return nil
}

// CreateProduct inserts a product after checking that the referenced
// category exists.
func (s *catalogService) CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error) {
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return nil, apperror.NewValidationError("category_id must be a valid UUID", err)
	}
	if err := s.categoryExists(ctx, categoryID); err != nil {
		return nil, err
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	row := s.db.QueryRow(ctx,
		`INSERT INTO products (name, category_id, description, price, stock, is_active,
		    discount, discount_starts_at, discount_ends_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+productColumns,
		strings.TrimSpace(req.Name), categoryID, req.Description, req.Price, req.Stock,
		isActive, req.Discount, req.DiscountStartsAt, req.DiscountEndsAt,
	)
	product, err := scanProduct(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			// Category vanished between the existence check and the insert.
			return nil, apperror.NewNotFoundError("category not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to create product", err)
	}
	return product, nil
}

func (s *catalogService) categoryExists(ctx context.Context, id uuid.UUID) error {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return apperror.NewDatabaseError("failed to check category", err)
	}
	if !exists {
		return apperror.NewNotFoundError("category not found", nil)
	}
	return nil
}

// GetProduct retrieves a product by id.
func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	row := s.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("product not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to get product", err)
	}
	return product, nil
}

// ListProducts returns products most-recent-first, optionally restricted
// to a category.
func (s *catalogService) ListProducts(ctx context.Context, skip, limit int, categoryID *uuid.UUID) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	args := []interface{}{}
	if categoryID != nil {
		args = append(args, *categoryID)
		query += ` WHERE category_id = $1`
	}
	args = append(args, skip, limit)
	query += fmt.Sprintf(` ORDER BY created_at DESC OFFSET $%d LIMIT $%d`, len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list products", err)
	}
	defer rows.Close()

	products := make([]Product, 0, limit)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, apperror.NewDatabaseError("failed to scan product", err)
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to list products", err)
	}
	return products, nil
}

// UpdateProduct applies the fields present in req and refreshes updated_at.
func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*Product, error) {
	if !req.hasUpdates() {
		return s.GetProduct(ctx, id)
	}

	setClauses, args, err := buildProductUpdate(&req)
	if err != nil {
		return nil, err
	}

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE products SET %s, updated_at = now() WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), len(args), productColumns,
	)

	product, err := scanProduct(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("product not found", nil)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, apperror.NewNotFoundError("category not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to update product", err)
	}
	return product, nil
}

// buildProductUpdate assembles the dynamic SET clause for a partial
// update. Positional placeholders start at $1; the caller appends the id.
func buildProductUpdate(req *UpdateProductRequest) ([]string, []interface{}, error) {
	var setClauses []string
	var args []interface{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.Name != nil {
		add("name", strings.TrimSpace(*req.Name))
	}
	if req.CategoryID != nil {
		categoryID, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return nil, nil, apperror.NewValidationError("category_id must be a valid UUID", err)
		}
		add("category_id", categoryID)
	}
	if req.Description != nil {
		add("description", *req.Description)
	}
	if req.Price != nil {
		add("price", *req.Price)
	}
	if req.Stock != nil {
		add("stock", *req.Stock)
	}
	if req.IsActive != nil {
		add("is_active", *req.IsActive)
	}
	if req.Discount != nil {
		add("discount", *req.Discount)
	}
	if req.DiscountStartsAt != nil {
		add("discount_starts_at", *req.DiscountStartsAt)
	}
	if req.DiscountEndsAt != nil {
		add("discount_ends_at", *req.DiscountEndsAt)
	}

	return setClauses, args, nil
}

// DeleteProduct removes a product record.
func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return apperror.NewDatabaseError("failed to delete product", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFoundError("product not found", nil)
	}
	return nil
}
