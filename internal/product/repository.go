package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"marketplace-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const foreignKeyViolation = "23503"

type Repository interface {
	Create(ctx context.Context, in CreateInput) (*Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context, f ListFilter) ([]*Product, error)
	Update(ctx context.Context, id int64, in UpdateInput) (*Product, error)
	Delete(ctx context.Context, id int64) (*Product, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const productColumns = "id, name, price, in_stock, created_at, updated_at"

func scanProduct(row interface{ Scan(...any) error }) (*Product, error) {
	var p Product
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.InStock, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) Create(ctx context.Context, in CreateInput) (*Product, error) {
	inStock := true
	if in.InStock != nil {
		inStock = *in.InStock
	}

	p, err := scanProduct(r.db.QueryRowContext(ctx,
		"INSERT INTO products (name, price, in_stock) VALUES ($1, $2, $3) RETURNING "+productColumns,
		in.Name, in.Price, inStock,
	))
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to insert product",
			zap.String("name", in.Name),
			zap.Error(err),
		)
		return nil, err
	}
	return p, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1", id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to get product", zap.Int64("product_id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *repository) List(ctx context.Context, f ListFilter) ([]*Product, error) {
	var (
		where []string
		args  []any
	)

	if f.InStock != nil {
		args = append(args, *f.InStock)
		where = append(where, fmt.Sprintf("in_stock = $%d", len(args)))
	}
	if f.MinPrice != nil {
		args = append(args, *f.MinPrice)
		where = append(where, fmt.Sprintf("price >= $%d", len(args)))
	}
	if f.MaxPrice != nil {
		args = append(args, *f.MaxPrice)
		where = append(where, fmt.Sprintf("price <= $%d", len(args)))
	}

	query := "SELECT " + productColumns + " FROM products"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to list products", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	products := []*Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *repository) Update(ctx context.Context, id int64, in UpdateInput) (*Product, error) {
	var (
		set  []string
		args []any
	)

	if in.Name != nil {
		args = append(args, *in.Name)
		set = append(set, fmt.Sprintf("name = $%d", len(args)))
	}
	if in.Price != nil {
		args = append(args, *in.Price)
		set = append(set, fmt.Sprintf("price = $%d", len(args)))
	}
	if in.InStock != nil {
		args = append(args, *in.InStock)
		set = append(set, fmt.Sprintf("in_stock = $%d", len(args)))
	}
	set = append(set, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(
		"UPDATE products SET %s WHERE id = $%d RETURNING %s",
		strings.Join(set, ", "), len(args), productColumns,
	)

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to update product", zap.Int64("product_id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

// Delete removes the product and returns the deleted row. Products still
// referenced by order items are protected by ON DELETE RESTRICT.
func (r *repository) Delete(ctx context.Context, id int64) (*Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		"DELETE FROM products WHERE id = $1 RETURNING "+productColumns, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
		return nil, ErrProductInUse
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to delete product", zap.Int64("product_id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}
