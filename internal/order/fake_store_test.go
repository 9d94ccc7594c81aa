package order

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory Repository. WithTx restores the previous state
// when fn fails, mirroring a rollback.
type fakeStore struct {
	mu sync.Mutex

	orders   map[int64]*Order
	items    map[int64]*OrderItem
	products map[int64]*ProductSnapshot

	nextOrderID int64
	nextItemID  int64
	writes      int
}

func newFakeStore(products ...*ProductSnapshot) *fakeStore {
	f := &fakeStore{
		orders:   map[int64]*Order{},
		items:    map[int64]*OrderItem{},
		products: map[int64]*ProductSnapshot{},
	}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func product(id int64, name, price string, inStock bool) *ProductSnapshot {
	return &ProductSnapshot{ID: id, Name: name, Price: decimal.RequireFromString(price), InStock: inStock}
}

type fakeState struct {
	orders      map[int64]Order
	items       map[int64]OrderItem
	nextOrderID int64
	nextItemID  int64
}

func (f *fakeStore) snapshot() fakeState {
	s := fakeState{
		orders:      map[int64]Order{},
		items:       map[int64]OrderItem{},
		nextOrderID: f.nextOrderID,
		nextItemID:  f.nextItemID,
	}
	for id, o := range f.orders {
		s.orders[id] = *o
	}
	for id, it := range f.items {
		s.items[id] = *it
	}
	return s
}

func (f *fakeStore) restore(s fakeState) {
	f.orders = map[int64]*Order{}
	f.items = map[int64]*OrderItem{}
	for id, o := range s.orders {
		o := o
		f.orders[id] = &o
	}
	for id, it := range s.items {
		it := it
		f.items[id] = &it
	}
	f.nextOrderID = s.nextOrderID
	f.nextItemID = s.nextItemID
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(Store) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	before := f.snapshot()
	if err := fn(f); err != nil {
		f.restore(before)
		return err
	}
	return nil
}

func (f *fakeStore) GetOrder(ctx context.Context, id int64, forUpdate bool) (*Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	cp.Items = nil
	return &cp, nil
}

func (f *fakeStore) ListOrdersByUser(ctx context.Context, userID int64) ([]*Order, error) {
	out := []*Order{}
	for _, o := range f.orders {
		if o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) InsertOrder(ctx context.Context, userID int64, address string) (*Order, error) {
	f.writes++
	f.nextOrderID++
	o := &Order{ID: f.nextOrderID, UserID: userID, DeliveryAddress: address, Status: StatusCreated, TotalPrice: decimal.Zero}
	f.orders[o.ID] = o
	cp := *o
	return &cp, nil
}

func (f *fakeStore) UpdateTotal(ctx context.Context, orderID int64, total decimal.Decimal) error {
	f.writes++
	f.orders[orderID].TotalPrice = total
	return nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, orderID int64, status OrderStatus) error {
	f.writes++
	f.orders[orderID].Status = status
	return nil
}

func (f *fakeStore) DeleteOrder(ctx context.Context, orderID int64) error {
	f.writes++
	delete(f.orders, orderID)
	for id, it := range f.items {
		if it.OrderID == orderID {
			delete(f.items, id)
		}
	}
	return nil
}

func (f *fakeStore) FindProducts(ctx context.Context, ids []int64) (map[int64]*ProductSnapshot, error) {
	out := map[int64]*ProductSnapshot{}
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (f *fakeStore) joined(it *OrderItem) *OrderItem {
	cp := *it
	cp.Product = *f.products[it.ProductID]
	return &cp
}

func (f *fakeStore) ListItems(ctx context.Context, orderID int64) ([]*OrderItem, error) {
	out := []*OrderItem{}
	for _, it := range f.items {
		if it.OrderID == orderID {
			out = append(out, f.joined(it))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ListItemsByOrders(ctx context.Context, orderIDs []int64) (map[int64][]*OrderItem, error) {
	out := map[int64][]*OrderItem{}
	for _, id := range orderIDs {
		items, _ := f.ListItems(ctx, id)
		if len(items) > 0 {
			out[id] = items
		}
	}
	return out, nil
}

func (f *fakeStore) GetItem(ctx context.Context, orderID, productID int64) (*OrderItem, error) {
	for _, it := range f.items {
		if it.OrderID == orderID && it.ProductID == productID {
			return f.joined(it), nil
		}
	}
	return nil, ErrItemNotFound
}

func (f *fakeStore) InsertItem(ctx context.Context, orderID, productID int64, qty int, price decimal.Decimal) (int64, error) {
	f.writes++
	f.nextItemID++
	f.items[f.nextItemID] = &OrderItem{ID: f.nextItemID, OrderID: orderID, ProductID: productID, Quantity: qty, Price: price}
	return f.nextItemID, nil
}

func (f *fakeStore) UpdateItem(ctx context.Context, itemID int64, qty int, price decimal.Decimal) error {
	f.writes++
	f.items[itemID].Quantity = qty
	f.items[itemID].Price = price
	return nil
}

func (f *fakeStore) DeleteItem(ctx context.Context, itemID int64) error {
	f.writes++
	delete(f.items, itemID)
	return nil
}

func (f *fakeStore) DeleteItems(ctx context.Context, orderID int64) (int64, error) {
	f.writes++
	var n int64
	for id, it := range f.items {
		if it.OrderID == orderID {
			delete(f.items, id)
			n++
		}
	}
	return n, nil
}

// storedSum recomputes the item sum straight from stored rows.
func (f *fakeStore) storedSum(orderID int64) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range f.items {
		if it.OrderID == orderID {
			sum = sum.Add(it.Price)
		}
	}
	return sum
}
