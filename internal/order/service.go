package order

import (
	"context"
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"marketplace-be/internal/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	minAddressLength = 10
	maxAddressLength = 255

	// maxQuantity matches the INTEGER quantity column.
	maxQuantity = math.MaxInt32
)

// maxAmount is the largest value NUMERIC(12,2) holds; it bounds both line
// prices and order totals.
var maxAmount = decimal.RequireFromString("9999999999.99")

// Recorder receives lifecycle events after they are committed.
type Recorder interface {
	OrderCreated()
	ItemMutated(op string)
	StatusChanged(from, to string)
	TransitionRejected(from, to string)
}

type nopRecorder struct{}

func (nopRecorder) OrderCreated()                     {}
func (nopRecorder) ItemMutated(string)                {}
func (nopRecorder) StatusChanged(string, string)      {}
func (nopRecorder) TransitionRejected(string, string) {}

// Item mutation labels passed to Recorder.ItemMutated.
const (
	OpAdd    = "add"
	OpMerge  = "merge"
	OpUpdate = "update"
	OpRemove = "remove"
	OpClear  = "clear"
)

// Service is the order lifecycle manager. Every method that takes userID
// treats orders owned by someone else as not found.
type Service interface {
	CreateOrder(ctx context.Context, userID int64, in CreateInput) (*Order, error)
	GetOrder(ctx context.Context, userID, orderID int64) (*Order, error)
	ListOrders(ctx context.Context, userID int64) ([]*Order, error)

	AddItem(ctx context.Context, userID, orderID, productID int64, qty int) (*OrderItem, error)
	UpdateItemQuantity(ctx context.Context, userID, orderID, productID int64, qty int) (*OrderItem, error)
	RemoveItem(ctx context.Context, userID, orderID, productID int64) (*OrderItem, error)
	ClearItems(ctx context.Context, userID, orderID int64) (*Order, error)

	UpdateStatus(ctx context.Context, userID, orderID int64, status OrderStatus) (*Order, error)
	DeleteOrder(ctx context.Context, userID, orderID int64) error
}

type service struct {
	repo    Repository
	metrics Recorder
}

func NewService(repo Repository, rec Recorder) Service {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &service{repo: repo, metrics: rec}
}

// ensureEditable gates every item mutation.
func ensureEditable(o *Order) error {
	if !o.Status.Editable() {
		return ErrOrderNotEditable
	}
	return nil
}

func checkQuantity(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if qty > maxQuantity {
		return ErrQuantityTooBig
	}
	return nil
}

// pricedLine computes qty * unit and rejects lines the price column cannot hold.
func pricedLine(unit decimal.Decimal, qty int) (decimal.Decimal, error) {
	price := linePrice(unit, qty)
	if price.GreaterThan(maxAmount) {
		return decimal.Zero, ErrAmountTooBig
	}
	return price, nil
}

// recalculateTotal re-derives total_price from the current item rows. It
// must run inside the same transaction as the mutation that triggered it.
func recalculateTotal(ctx context.Context, store Store, o *Order) error {
	items, err := store.ListItems(ctx, o.ID)
	if err != nil {
		return err
	}

	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price)
	}
	if total.GreaterThan(maxAmount) {
		return ErrAmountTooBig
	}

	if err := store.UpdateTotal(ctx, o.ID, total); err != nil {
		return err
	}
	o.TotalPrice = total
	o.Items = items
	return nil
}

func loadOwned(ctx context.Context, store Store, userID, orderID int64, forUpdate bool) (*Order, error) {
	o, err := store.GetOrder(ctx, orderID, forUpdate)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func idList(ids []int64) []string {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strconv.FormatInt(id, 10)
	}
	return out
}

// mergeItems validates quantities and folds duplicate product ids into one
// line, keeping first-seen order.
func mergeItems(items []ItemInput) ([]ItemInput, error) {
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}

	merged := make([]ItemInput, 0, len(items))
	index := make(map[int64]int, len(items))
	for _, it := range items {
		if err := checkQuantity(it.Quantity); err != nil {
			return nil, err
		}
		if i, ok := index[it.ProductID]; ok {
			merged[i].Quantity += it.Quantity
			if merged[i].Quantity > maxQuantity {
				return nil, ErrQuantityTooBig
			}
			continue
		}
		index[it.ProductID] = len(merged)
		merged = append(merged, it)
	}
	return merged, nil
}

// CreateOrder validates everything before the first write. Repeated product
// ids are folded into a single line with the summed quantity, so an order
// holds at most one item per product.
func (s *service) CreateOrder(ctx context.Context, userID int64, in CreateInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(zap.String("layer", "service"), zap.String("method", "CreateOrder"))

	/* ---------- INPUT VALIDATION ---------- */

	address := strings.TrimSpace(in.DeliveryAddress)
	if n := utf8.RuneCountInString(address); n < minAddressLength || n > maxAddressLength {
		return nil, ErrInvalidAddress
	}

	items, err := mergeItems(in.Items)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}

	/* ---------- TRANSACTION ---------- */

	var created *Order
	err = s.repo.WithTx(ctx, func(store Store) error {
		products, err := store.FindProducts(ctx, ids)
		if err != nil {
			return err
		}

		var missing, outOfStock []int64
		for _, id := range ids {
			p, ok := products[id]
			switch {
			case !ok:
				missing = append(missing, id)
			case !p.InStock:
				outOfStock = append(outOfStock, id)
			}
		}
		if len(missing) > 0 {
			return ErrProductsNotFound.WithDetails(idList(missing)...)
		}
		if len(outOfStock) > 0 {
			return ErrOutOfStock.WithDetails(idList(outOfStock)...)
		}

		prices := make([]decimal.Decimal, len(items))
		total := decimal.Zero
		for i, it := range items {
			price, err := pricedLine(products[it.ProductID].Price, it.Quantity)
			if err != nil {
				return err
			}
			prices[i] = price
			total = total.Add(price)
		}
		if total.GreaterThan(maxAmount) {
			return ErrAmountTooBig
		}

		o, err := store.InsertOrder(ctx, userID, address)
		if err != nil {
			return err
		}

		for i, it := range items {
			if _, err := store.InsertItem(ctx, o.ID, it.ProductID, it.Quantity, prices[i]); err != nil {
				return err
			}
		}

		if err := recalculateTotal(ctx, store, o); err != nil {
			return err
		}
		created = o
		return nil
	})
	if err != nil {
		log.Warn("create order failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.metrics.OrderCreated()
	log.Info("order created",
		zap.Int64("order_id", created.ID),
		zap.Int64("user_id", userID),
		zap.Int("items", len(created.Items)),
		zap.String("total", created.TotalPrice.String()),
	)
	return created, nil
}

func (s *service) GetOrder(ctx context.Context, userID, orderID int64) (*Order, error) {
	o, err := loadOwned(ctx, s.repo, userID, orderID, false)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (s *service) ListOrders(ctx context.Context, userID int64) ([]*Order, error) {
	orders, err := s.repo.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	itemsByOrder, err := s.repo.ListItemsByOrders(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		o.Items = itemsByOrder[o.ID]
		if o.Items == nil {
			o.Items = []*OrderItem{}
		}
	}
	return orders, nil
}

// AddItem merges into an existing line for the product, re-pricing the
// whole line at the current product price, or inserts a new line.
func (s *service) AddItem(ctx context.Context, userID, orderID, productID int64, qty int) (*OrderItem, error) {
	if err := checkQuantity(qty); err != nil {
		return nil, err
	}

	var (
		result *OrderItem
		op     string
	)
	err := s.repo.WithTx(ctx, func(store Store) error {
		o, err := loadOwned(ctx, store, userID, orderID, true)
		if err != nil {
			return err
		}
		if err := ensureEditable(o); err != nil {
			return err
		}

		existing, err := store.GetItem(ctx, orderID, productID)
		switch {
		case err == nil:
			merged := existing.Quantity + qty
			if merged > maxQuantity {
				return ErrQuantityTooBig
			}
			price, err := pricedLine(existing.Product.Price, merged)
			if err != nil {
				return err
			}
			existing.Quantity, existing.Price = merged, price
			if err := store.UpdateItem(ctx, existing.ID, existing.Quantity, existing.Price); err != nil {
				return err
			}
			result, op = existing, OpMerge

		case errors.Is(err, ErrItemNotFound):
			products, err := store.FindProducts(ctx, []int64{productID})
			if err != nil {
				return err
			}
			p, ok := products[productID]
			if !ok {
				return ErrProductsNotFound.WithDetails(strconv.FormatInt(productID, 10))
			}

			price, err := pricedLine(p.Price, qty)
			if err != nil {
				return err
			}
			item := &OrderItem{
				OrderID:   orderID,
				ProductID: productID,
				Quantity:  qty,
				Price:     price,
				Product:   *p,
			}
			item.ID, err = store.InsertItem(ctx, orderID, productID, qty, item.Price)
			if err != nil {
				return err
			}
			result, op = item, OpAdd

		default:
			return err
		}

		return recalculateTotal(ctx, store, o)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ItemMutated(op)
	logger.FromCtx(ctx).Info("order item added",
		zap.Int64("order_id", orderID),
		zap.Int64("product_id", productID),
		zap.String("op", op),
		zap.Int("quantity", result.Quantity),
	)
	return result, nil
}

// UpdateItemQuantity sets an absolute quantity and re-prices the line with
// the live product price.
func (s *service) UpdateItemQuantity(ctx context.Context, userID, orderID, productID int64, qty int) (*OrderItem, error) {
	if err := checkQuantity(qty); err != nil {
		return nil, err
	}

	var result *OrderItem
	err := s.repo.WithTx(ctx, func(store Store) error {
		o, err := loadOwned(ctx, store, userID, orderID, true)
		if err != nil {
			return err
		}
		if err := ensureEditable(o); err != nil {
			return err
		}

		item, err := store.GetItem(ctx, orderID, productID)
		if err != nil {
			return err
		}

		price, err := pricedLine(item.Product.Price, qty)
		if err != nil {
			return err
		}
		item.Quantity, item.Price = qty, price
		if err := store.UpdateItem(ctx, item.ID, item.Quantity, item.Price); err != nil {
			return err
		}
		result = item

		return recalculateTotal(ctx, store, o)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ItemMutated(OpUpdate)
	return result, nil
}

// RemoveItem returns the deleted line so callers can name its product.
func (s *service) RemoveItem(ctx context.Context, userID, orderID, productID int64) (*OrderItem, error) {
	var removed *OrderItem
	err := s.repo.WithTx(ctx, func(store Store) error {
		o, err := loadOwned(ctx, store, userID, orderID, true)
		if err != nil {
			return err
		}
		if err := ensureEditable(o); err != nil {
			return err
		}

		item, err := store.GetItem(ctx, orderID, productID)
		if err != nil {
			return err
		}
		if err := store.DeleteItem(ctx, item.ID); err != nil {
			return err
		}
		removed = item

		return recalculateTotal(ctx, store, o)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ItemMutated(OpRemove)
	return removed, nil
}

func (s *service) ClearItems(ctx context.Context, userID, orderID int64) (*Order, error) {
	var cleared *Order
	err := s.repo.WithTx(ctx, func(store Store) error {
		o, err := loadOwned(ctx, store, userID, orderID, true)
		if err != nil {
			return err
		}
		if err := ensureEditable(o); err != nil {
			return err
		}

		if _, err := store.DeleteItems(ctx, orderID); err != nil {
			return err
		}
		if err := recalculateTotal(ctx, store, o); err != nil {
			return err
		}
		cleared = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ItemMutated(OpClear)
	return cleared, nil
}

// UpdateStatus applies a transition from the transition table under a row
// lock. Requesting the current status is a no-op.
func (s *service) UpdateStatus(ctx context.Context, userID, orderID int64, status OrderStatus) (*Order, error) {
	log := logger.FromCtx(ctx).With(zap.String("layer", "service"), zap.String("method", "UpdateStatus"))

	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	var (
		updated *Order
		from    OrderStatus
	)
	err := s.repo.WithTx(ctx, func(store Store) error {
		o, err := loadOwned(ctx, store, userID, orderID, true)
		if err != nil {
			return err
		}
		from = o.Status

		if from != status {
			if !CanTransition(from, status) {
				return ErrTransitionRejected.WithDetails(string(from) + " -> " + string(status))
			}
			if err := store.UpdateStatus(ctx, orderID, status); err != nil {
				return err
			}
			o.Status = status
		}

		items, err := store.ListItems(ctx, orderID)
		if err != nil {
			return err
		}
		o.Items = items
		updated = o
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrTransitionRejected) {
			s.metrics.TransitionRejected(string(from), string(status))
			log.Info("status transition rejected",
				zap.Int64("order_id", orderID),
				zap.String("from", string(from)),
				zap.String("to", string(status)),
			)
		}
		return nil, err
	}

	if from != status {
		s.metrics.StatusChanged(string(from), string(status))
		log.Info("order status changed",
			zap.Int64("order_id", orderID),
			zap.String("from", string(from)),
			zap.String("to", string(status)),
		)
	}
	return updated, nil
}

func (s *service) DeleteOrder(ctx context.Context, userID, orderID int64) error {
	err := s.repo.WithTx(ctx, func(store Store) error {
		o, err := loadOwned(ctx, store, userID, orderID, true)
		if err != nil {
			return err
		}
		if !o.Status.Editable() {
			return ErrOrderNotDeletable
		}
		return store.DeleteOrder(ctx, orderID)
	})
	if err != nil {
		return err
	}

	logger.FromCtx(ctx).Info("order deleted", zap.Int64("order_id", orderID), zap.Int64("user_id", userID))
	return nil
}
