package order

import (
	"context"
	"database/sql"
	"errors"

	"marketplace-be/internal/db"
	"marketplace-be/internal/logger"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Store is the set of queries the lifecycle manager runs, either directly
// or inside a transaction obtained from Repository.WithTx.
type Store interface {
	GetOrder(ctx context.Context, id int64, forUpdate bool) (*Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]*Order, error)
	InsertOrder(ctx context.Context, userID int64, address string) (*Order, error)
	UpdateTotal(ctx context.Context, orderID int64, total decimal.Decimal) error
	UpdateStatus(ctx context.Context, orderID int64, status OrderStatus) error
	DeleteOrder(ctx context.Context, orderID int64) error

	FindProducts(ctx context.Context, ids []int64) (map[int64]*ProductSnapshot, error)

	ListItems(ctx context.Context, orderID int64) ([]*OrderItem, error)
	ListItemsByOrders(ctx context.Context, orderIDs []int64) (map[int64][]*OrderItem, error)
	GetItem(ctx context.Context, orderID, productID int64) (*OrderItem, error)
	InsertItem(ctx context.Context, orderID, productID int64, qty int, price decimal.Decimal) (int64, error)
	UpdateItem(ctx context.Context, itemID int64, qty int, price decimal.Decimal) error
	DeleteItem(ctx context.Context, itemID int64) error
	DeleteItems(ctx context.Context, orderID int64) (int64, error)
}

type Repository interface {
	Store
	// WithTx runs fn against a transactional Store. fn's error rolls back.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type repository struct {
	db *sql.DB
	q  querier
}

func NewRepository(conn *sql.DB) Repository {
	return &repository{db: conn, q: conn}
}

func (r *repository) WithTx(ctx context.Context, fn func(Store) error) error {
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(&repository{db: r.db, q: tx})
	})
}

const (
	orderColumns = "id, user_id, delivery_address, total_price, status, created_at, updated_at"

	itemSelect = `SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price, p.name, p.price, p.in_stock
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id`
)

func scanOrder(row interface{ Scan(...any) error }) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.DeliveryAddress, &o.TotalPrice, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func scanItem(row interface{ Scan(...any) error }) (*OrderItem, error) {
	var it OrderItem
	err := row.Scan(
		&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price,
		&it.Product.Name, &it.Product.Price, &it.Product.InStock,
	)
	if err != nil {
		return nil, err
	}
	it.Product.ID = it.ProductID
	return &it, nil
}

func (r *repository) GetOrder(ctx context.Context, id int64, forUpdate bool) (*Order, error) {
	query := "SELECT " + orderColumns + " FROM orders WHERE id = $1"
	if forUpdate {
		query += " FOR UPDATE"
	}

	o, err := scanOrder(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to get order", zap.Int64("order_id", id), zap.Error(err))
		return nil, err
	}
	return o, nil
}

func (r *repository) ListOrdersByUser(ctx context.Context, userID int64) ([]*Order, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC",
		userID,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to list orders", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	orders := []*Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *repository) InsertOrder(ctx context.Context, userID int64, address string) (*Order, error) {
	o, err := scanOrder(r.q.QueryRowContext(ctx,
		"INSERT INTO orders (user_id, delivery_address, total_price, status) VALUES ($1, $2, 0, $3) RETURNING "+orderColumns,
		userID, address, StatusCreated,
	))
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to insert order", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}
	return o, nil
}

func (r *repository) UpdateTotal(ctx context.Context, orderID int64, total decimal.Decimal) error {
	_, err := r.q.ExecContext(ctx,
		"UPDATE orders SET total_price = $1, updated_at = NOW() WHERE id = $2",
		total, orderID,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to update order total", zap.Int64("order_id", orderID), zap.Error(err))
	}
	return err
}

func (r *repository) UpdateStatus(ctx context.Context, orderID int64, status OrderStatus) error {
	_, err := r.q.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to update order status",
			zap.Int64("order_id", orderID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
	return err
}

func (r *repository) DeleteOrder(ctx context.Context, orderID int64) error {
	_, err := r.q.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", orderID)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to delete order", zap.Int64("order_id", orderID), zap.Error(err))
	}
	return err
}

// FindProducts resolves every id in one round trip. Missing ids are simply
// absent from the result.
func (r *repository) FindProducts(ctx context.Context, ids []int64) (map[int64]*ProductSnapshot, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT id, name, price, in_stock FROM products WHERE id = ANY($1)",
		pq.Array(ids),
	)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to load products", zap.Int64s("product_ids", ids), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	found := make(map[int64]*ProductSnapshot, len(ids))
	for rows.Next() {
		var p ProductSnapshot
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.InStock); err != nil {
			return nil, err
		}
		found[p.ID] = &p
	}
	return found, rows.Err()
}

func (r *repository) ListItems(ctx context.Context, orderID int64) ([]*OrderItem, error) {
	rows, err := r.q.QueryContext(ctx, itemSelect+" WHERE oi.order_id = $1 ORDER BY oi.id", orderID)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to list order items", zap.Int64("order_id", orderID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	items := []*OrderItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) ListItemsByOrders(ctx context.Context, orderIDs []int64) (map[int64][]*OrderItem, error) {
	result := make(map[int64][]*OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return result, nil
	}

	rows, err := r.q.QueryContext(ctx,
		itemSelect+" WHERE oi.order_id = ANY($1) ORDER BY oi.order_id, oi.id",
		pq.Array(orderIDs),
	)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to batch load order items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		result[it.OrderID] = append(result[it.OrderID], it)
	}
	return result, rows.Err()
}

func (r *repository) GetItem(ctx context.Context, orderID, productID int64) (*OrderItem, error) {
	it, err := scanItem(r.q.QueryRowContext(ctx,
		itemSelect+" WHERE oi.order_id = $1 AND oi.product_id = $2",
		orderID, productID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to get order item",
			zap.Int64("order_id", orderID),
			zap.Int64("product_id", productID),
			zap.Error(err),
		)
		return nil, err
	}
	return it, nil
}

func (r *repository) InsertItem(ctx context.Context, orderID, productID int64, qty int, price decimal.Decimal) (int64, error) {
	var id int64
	err := r.q.QueryRowContext(ctx,
		"INSERT INTO order_items (order_id, product_id, quantity, price) VALUES ($1, $2, $3, $4) RETURNING id",
		orderID, productID, qty, price,
	).Scan(&id)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to insert order item",
			zap.Int64("order_id", orderID),
			zap.Int64("product_id", productID),
			zap.Error(err),
		)
		return 0, err
	}
	return id, nil
}

func (r *repository) UpdateItem(ctx context.Context, itemID int64, qty int, price decimal.Decimal) error {
	_, err := r.q.ExecContext(ctx,
		"UPDATE order_items SET quantity = $1, price = $2 WHERE id = $3",
		qty, price, itemID,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to update order item", zap.Int64("item_id", itemID), zap.Error(err))
	}
	return err
}

func (r *repository) DeleteItem(ctx context.Context, itemID int64) error {
	_, err := r.q.ExecContext(ctx, "DELETE FROM order_items WHERE id = $1", itemID)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to delete order item", zap.Int64("item_id", itemID), zap.Error(err))
	}
	return err
}

func (r *repository) DeleteItems(ctx context.Context, orderID int64) (int64, error) {
	res, err := r.q.ExecContext(ctx, "DELETE FROM order_items WHERE order_id = $1", orderID)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to clear order items", zap.Int64("order_id", orderID), zap.Error(err))
		return 0, err
	}
	return res.RowsAffected()
}
