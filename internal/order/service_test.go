package order

import (
	"context"
	"errors"
	"testing"

	"marketplace-be/internal/apperr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	owner    int64 = 1
	stranger int64 = 2
	address        = "221B Baker Street, London"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// spyRecorder counts lifecycle events.
type spyRecorder struct {
	created     int
	mutations   []string
	transitions []string
	rejected    []string
}

func (s *spyRecorder) OrderCreated()         { s.created++ }
func (s *spyRecorder) ItemMutated(op string) { s.mutations = append(s.mutations, op) }
func (s *spyRecorder) StatusChanged(from, to string) {
	s.transitions = append(s.transitions, from+"->"+to)
}
func (s *spyRecorder) TransitionRejected(from, to string) {
	s.rejected = append(s.rejected, from+"->"+to)
}

func newCatalogStore() *fakeStore {
	return newFakeStore(
		product(10, "Product A", "10.00", true),
		product(20, "Product B", "5.00", true),
		product(30, "Product C", "2.50", false),
	)
}

func assertConsistent(t *testing.T, store *fakeStore, orderID int64) {
	t.Helper()
	o, ok := store.orders[orderID]
	require.True(t, ok, "order %d missing", orderID)
	assert.True(t, o.TotalPrice.Equal(store.storedSum(orderID)),
		"total %s != sum of items %s", o.TotalPrice, store.storedSum(orderID))
}

func createAB(t *testing.T, svc Service) *Order {
	t.Helper()
	o, err := svc.CreateOrder(context.Background(), owner, CreateInput{
		DeliveryAddress: address,
		Items:           []ItemInput{{ProductID: 10, Quantity: 2}, {ProductID: 20, Quantity: 1}},
	})
	require.NoError(t, err)
	return o
}

func TestService_CreateAndUpdateScenario(t *testing.T) {
	store := newCatalogStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	o := createAB(t, svc)
	assert.True(t, o.TotalPrice.Equal(dec("25")), "got %s", o.TotalPrice)
	assert.Equal(t, StatusCreated, o.Status)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Product A", o.Items[0].Product.Name)
	assert.True(t, o.Items[0].Price.Equal(dec("20")))
	assertConsistent(t, store, o.ID)

	item, err := svc.UpdateItemQuantity(ctx, owner, o.ID, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)
	assert.True(t, item.Price.Equal(dec("30")))

	got, err := svc.GetOrder(ctx, owner, o.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalPrice.Equal(dec("35")), "got %s", got.TotalPrice)
	assertConsistent(t, store, o.ID)
}

func TestService_CreateOrder_Validation(t *testing.T) {
	ctx := context.Background()

	cases := map[string]struct {
		in   CreateInput
		want error
	}{
		"EmptyItems":       {CreateInput{DeliveryAddress: address}, ErrEmptyItems},
		"ZeroQuantity":     {CreateInput{DeliveryAddress: address, Items: []ItemInput{{ProductID: 10, Quantity: 0}}}, ErrInvalidQuantity},
		"NegativeQuantity": {CreateInput{DeliveryAddress: address, Items: []ItemInput{{ProductID: 10, Quantity: -1}}}, ErrInvalidQuantity},
		"ShortAddress":     {CreateInput{DeliveryAddress: "short", Items: []ItemInput{{ProductID: 10, Quantity: 1}}}, ErrInvalidAddress},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			store := newCatalogStore()
			svc := NewService(store, nil)

			_, err := svc.CreateOrder(ctx, owner, tc.in)
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, apperr.Is(err, apperr.InvalidState))
			assert.Zero(t, store.writes)
		})
	}
}

func TestService_CreateOrder_OutOfStockWritesNothing(t *testing.T) {
	store := newCatalogStore()
	svc := NewService(store, nil)

	_, err := svc.CreateOrder(context.Background(), owner, CreateInput{
		DeliveryAddress: address,
		Items:           []ItemInput{{ProductID: 10, Quantity: 1}, {ProductID: 30, Quantity: 1}},
	})

	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.True(t, apperr.Is(err, apperr.InvalidState))
	assert.Equal(t, []string{"30"}, apperr.DetailsOf(err))
	assert.Empty(t, store.orders)
	assert.Empty(t, store.items)
}

func TestService_CreateOrder_ReportsAllMissing(t *testing.T) {
	store := newCatalogStore()
	svc := NewService(store, nil)

	_, err := svc.CreateOrder(context.Background(), owner, CreateInput{
		DeliveryAddress: address,
		Items: []ItemInput{
			{ProductID: 99, Quantity: 1},
			{ProductID: 10, Quantity: 1},
			{ProductID: 77, Quantity: 2},
			{ProductID: 88, Quantity: 1},
		},
	})

	assert.ErrorIs(t, err, ErrProductsNotFound)
	assert.True(t, apperr.Is(err, apperr.NotFound))
	assert.Equal(t, []string{"77", "88", "99"}, apperr.DetailsOf(err))
	assert.Empty(t, store.orders)
}

func TestService_CreateOrder_MergesDuplicateProducts(t *testing.T) {
	store := newCatalogStore()
	svc := NewService(store, nil)

	o, err := svc.CreateOrder(context.Background(), owner, CreateInput{
		DeliveryAddress: address,
		Items:           []ItemInput{{ProductID: 20, Quantity: 1}, {ProductID: 20, Quantity: 2}},
	})
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 3, o.Items[0].Quantity)
	assert.True(t, o.TotalPrice.Equal(dec("15")))
}

func TestService_AddItem(t *testing.T) {
	ctx := context.Background()

	t.Run("SameProductTwiceMerges", func(t *testing.T) {
		store := newCatalogStore()
		rec := &spyRecorder{}
		svc := NewService(store, rec)
		o := createAB(t, svc)

		_, err := svc.AddItem(ctx, owner, o.ID, 20, 1)
		require.NoError(t, err)
		item, err := svc.AddItem(ctx, owner, o.ID, 20, 2)
		require.NoError(t, err)

		assert.Equal(t, 4, item.Quantity)
		assert.True(t, item.Price.Equal(dec("20")))

		got, err := svc.GetOrder(ctx, owner, o.ID)
		require.NoError(t, err)
		assert.Len(t, got.Items, 2)
		assert.True(t, got.TotalPrice.Equal(dec("40")))
		assertConsistent(t, store, o.ID)
		assert.Equal(t, []string{OpMerge, OpMerge}, rec.mutations)
	})

	t.Run("NewProductInserts", func(t *testing.T) {
		store := newCatalogStore()
		rec := &spyRecorder{}
		svc := NewService(store, rec)
		store.products[40] = product(40, "Product D", "1.25", true)
		o := createAB(t, svc)

		item, err := svc.AddItem(ctx, owner, o.ID, 40, 4)
		require.NoError(t, err)
		assert.Equal(t, "Product D", item.Product.Name)
		assert.True(t, item.Price.Equal(dec("5")))
		assert.NotZero(t, item.ID)
		assertConsistent(t, store, o.ID)
		assert.True(t, store.orders[o.ID].TotalPrice.Equal(dec("30")))
		assert.Equal(t, []string{OpAdd}, rec.mutations)
	})

	t.Run("MergeRepricesAtCurrentPrice", func(t *testing.T) {
		store := newCatalogStore()
		svc := NewService(store, nil)
		o := createAB(t, svc)

		store.products[10].Price = dec("12.00")
		item, err := svc.AddItem(ctx, owner, o.ID, 10, 1)
		require.NoError(t, err)

		assert.Equal(t, 3, item.Quantity)
		assert.True(t, item.Price.Equal(dec("36")))
		assertConsistent(t, store, o.ID)
	})

	t.Run("UnknownProduct", func(t *testing.T) {
		store := newCatalogStore()
		svc := NewService(store, nil)
		o := createAB(t, svc)

		_, err := svc.AddItem(ctx, owner, o.ID, 404, 1)
		assert.ErrorIs(t, err, ErrProductsNotFound)
		assert.Equal(t, []string{"404"}, apperr.DetailsOf(err))
	})

	t.Run("InvalidQuantity", func(t *testing.T) {
		svc := NewService(newCatalogStore(), nil)

		_, err := svc.AddItem(ctx, owner, 1, 10, 0)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("NotOwner", func(t *testing.T) {
		store := newCatalogStore()
		svc := NewService(store, nil)
		o := createAB(t, svc)

		_, err := svc.AddItem(ctx, stranger, o.ID, 10, 1)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestService_UpdateItemQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("UsesLivePrice", func(t *testing.T) {
		store := newCatalogStore()
		svc := NewService(store, nil)
		o := createAB(t, svc)

		store.products[20].Price = dec("6.00")
		item, err := svc.UpdateItemQuantity(ctx, owner, o.ID, 20, 2)
		require.NoError(t, err)
		assert.True(t, item.Price.Equal(dec("12")))
		assert.True(t, store.orders[o.ID].TotalPrice.Equal(dec("32")))
	})

	t.Run("MissingItem", func(t *testing.T) {
		store := newCatalogStore()
		svc := NewService(store, nil)
		o := createAB(t, svc)

		_, err := svc.UpdateItemQuantity(ctx, owner, o.ID, 30, 1)
		assert.ErrorIs(t, err, ErrItemNotFound)
	})

	t.Run("InvalidQuantity", func(t *testing.T) {
		svc := NewService(newCatalogStore(), nil)

		_, err := svc.UpdateItemQuantity(ctx, owner, 1, 10, -2)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})
}

func TestService_RemoveAndClear(t *testing.T) {
	ctx := context.Background()

	t.Run("RemoveItem", func(t *testing.T) {
		store := newCatalogStore()
		svc := NewService(store, nil)
		o := createAB(t, svc)

		removed, err := svc.RemoveItem(ctx, owner, o.ID, 10)
		require.NoError(t, err)
		assert.Equal(t, "Product A", removed.Product.Name)
		assert.True(t, store.orders[o.ID].TotalPrice.Equal(dec("5")))
		assertConsistent(t, store, o.ID)

		_, err = svc.RemoveItem(ctx, owner, o.ID, 10)
		assert.ErrorIs(t, err, ErrItemNotFound)
	})

	t.Run("ClearYieldsZero", func(t *testing.T) {
		store := newCatalogStore()
		rec := &spyRecorder{}
		svc := NewService(store, rec)
		o := createAB(t, svc)

		cleared, err := svc.ClearItems(ctx, owner, o.ID)
		require.NoError(t, err)
		assert.True(t, cleared.TotalPrice.IsZero())
		assert.Empty(t, cleared.Items)
		assert.True(t, store.orders[o.ID].TotalPrice.IsZero())
		assert.Equal(t, []string{OpClear}, rec.mutations)
	})
}

func TestService_NonCreatedOrdersAreFrozen(t *testing.T) {
	ctx := context.Background()

	for _, status := range []OrderStatus{StatusShipped, StatusCompleted, StatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			store := newCatalogStore()
			svc := NewService(store, nil)
			o := createAB(t, svc)
			store.orders[o.ID].Status = status
			before := store.orders[o.ID].TotalPrice
			writes := store.writes

			_, err := svc.AddItem(ctx, owner, o.ID, 10, 1)
			assert.ErrorIs(t, err, ErrOrderNotEditable)
			assert.True(t, apperr.Is(err, apperr.InvalidState))

			_, err = svc.UpdateItemQuantity(ctx, owner, o.ID, 10, 5)
			assert.True(t, apperr.Is(err, apperr.InvalidState))

			_, err = svc.RemoveItem(ctx, owner, o.ID, 10)
			assert.True(t, apperr.Is(err, apperr.InvalidState))

			_, err = svc.ClearItems(ctx, owner, o.ID)
			assert.True(t, apperr.Is(err, apperr.InvalidState))

			err = svc.DeleteOrder(ctx, owner, o.ID)
			assert.ErrorIs(t, err, ErrOrderNotDeletable)
			assert.True(t, apperr.Is(err, apperr.Forbidden))

			assert.Equal(t, writes, store.writes)
			assert.True(t, store.orders[o.ID].TotalPrice.Equal(before))
		})
	}
}

func TestService_DeleteOrder(t *testing.T) {
	ctx := context.Background()
	store := newCatalogStore()
	svc := NewService(store, nil)
	o := createAB(t, svc)

	assert.ErrorIs(t, svc.DeleteOrder(ctx, stranger, o.ID), ErrOrderNotFound)

	require.NoError(t, svc.DeleteOrder(ctx, owner, o.ID))
	assert.Empty(t, store.orders)
	assert.Empty(t, store.items)

	assert.ErrorIs(t, svc.DeleteOrder(ctx, owner, o.ID), ErrOrderNotFound)
}

func TestService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("FollowsTransitionTable", func(t *testing.T) {
		store := newCatalogStore()
		rec := &spyRecorder{}
		svc := NewService(store, rec)
		o := createAB(t, svc)

		got, err := svc.UpdateStatus(ctx, owner, o.ID, StatusShipped)
		require.NoError(t, err)
		assert.Equal(t, StatusShipped, got.Status)
		assert.Len(t, got.Items, 2)

		got, err = svc.UpdateStatus(ctx, owner, o.ID, StatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, got.Status)

		_, err = svc.UpdateStatus(ctx, owner, o.ID, StatusShipped)
		assert.ErrorIs(t, err, ErrTransitionRejected)
		assert.True(t, apperr.Is(err, apperr.InvalidState))
		assert.Equal(t, []string{"COMPLETED -> SHIPPED"}, apperr.DetailsOf(err))
		assert.Equal(t, StatusCompleted, store.orders[o.ID].Status)

		assert.Equal(t, []string{"CREATED->SHIPPED", "SHIPPED->COMPLETED"}, rec.transitions)
		assert.Equal(t, []string{"COMPLETED->SHIPPED"}, rec.rejected)
	})

	t.Run("CancelledCannotShip", func(t *testing.T) {
		store := newCatalogStore()
		svc := NewService(store, nil)
		o := createAB(t, svc)

		_, err := svc.UpdateStatus(ctx, owner, o.ID, StatusCancelled)
		require.NoError(t, err)

		_, err = svc.UpdateStatus(ctx, owner, o.ID, StatusShipped)
		assert.ErrorIs(t, err, ErrTransitionRejected)
	})

	t.Run("SameStatusIsNoop", func(t *testing.T) {
		store := newCatalogStore()
		rec := &spyRecorder{}
		svc := NewService(store, rec)
		o := createAB(t, svc)
		writes := store.writes

		got, err := svc.UpdateStatus(ctx, owner, o.ID, StatusCreated)
		require.NoError(t, err)
		assert.Equal(t, StatusCreated, got.Status)
		assert.Equal(t, writes, store.writes)
		assert.Empty(t, rec.transitions)
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		svc := NewService(newCatalogStore(), nil)

		_, err := svc.UpdateStatus(ctx, owner, 1, OrderStatus("LOST"))
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("NotOwner", func(t *testing.T) {
		store := newCatalogStore()
		svc := NewService(store, nil)
		o := createAB(t, svc)

		_, err := svc.UpdateStatus(ctx, stranger, o.ID, StatusShipped)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestService_GetAndListOrders(t *testing.T) {
	ctx := context.Background()
	store := newCatalogStore()
	svc := NewService(store, nil)

	first := createAB(t, svc)
	second := createAB(t, svc)
	_, err := svc.ClearItems(ctx, owner, second.ID)
	require.NoError(t, err)

	t.Run("OwnerSeesOrder", func(t *testing.T) {
		o, err := svc.GetOrder(ctx, owner, first.ID)
		require.NoError(t, err)
		assert.Len(t, o.Items, 2)
	})

	t.Run("StrangerGetsNotFound", func(t *testing.T) {
		_, err := svc.GetOrder(ctx, stranger, first.ID)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		orders, err := svc.ListOrders(ctx, owner)
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, second.ID, orders[0].ID)
		assert.NotNil(t, orders[0].Items)
		assert.Empty(t, orders[0].Items)
		assert.Len(t, orders[1].Items, 2)
	})

	t.Run("ListEmpty", func(t *testing.T) {
		orders, err := svc.ListOrders(ctx, stranger)
		require.NoError(t, err)
		assert.Empty(t, orders)
	})
}

func TestService_TotalAlwaysMatchesItems(t *testing.T) {
	ctx := context.Background()
	store := newCatalogStore()
	store.products[40] = product(40, "Product D", "0.99", true)
	svc := NewService(store, nil)
	o := createAB(t, svc)

	steps := []func() error{
		func() error { _, err := svc.AddItem(ctx, owner, o.ID, 40, 3); return err },
		func() error { _, err := svc.AddItem(ctx, owner, o.ID, 10, 1); return err },
		func() error { _, err := svc.UpdateItemQuantity(ctx, owner, o.ID, 20, 7); return err },
		func() error { _, err := svc.RemoveItem(ctx, owner, o.ID, 10); return err },
		func() error { _, err := svc.AddItem(ctx, owner, o.ID, 10, 2); return err },
		func() error { _, err := svc.ClearItems(ctx, owner, o.ID); return err },
		func() error { _, err := svc.AddItem(ctx, owner, o.ID, 40, 1); return err },
	}

	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		assertConsistent(t, store, o.ID)
	}
}

// --- Mocks ---

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) WithTx(ctx context.Context, fn func(Store) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m)
}

func (m *MockRepository) GetOrder(ctx context.Context, id int64, forUpdate bool) (*Order, error) {
	args := m.Called(ctx, id, forUpdate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) ListOrdersByUser(ctx context.Context, userID int64) ([]*Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Order), args.Error(1)
}

func (m *MockRepository) InsertOrder(ctx context.Context, userID int64, address string) (*Order, error) {
	args := m.Called(ctx, userID, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) UpdateTotal(ctx context.Context, orderID int64, total decimal.Decimal) error {
	return m.Called(ctx, orderID, total).Error(0)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, orderID int64, status OrderStatus) error {
	return m.Called(ctx, orderID, status).Error(0)
}

func (m *MockRepository) DeleteOrder(ctx context.Context, orderID int64) error {
	return m.Called(ctx, orderID).Error(0)
}

func (m *MockRepository) FindProducts(ctx context.Context, ids []int64) (map[int64]*ProductSnapshot, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]*ProductSnapshot), args.Error(1)
}

func (m *MockRepository) ListItems(ctx context.Context, orderID int64) ([]*OrderItem, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*OrderItem), args.Error(1)
}

func (m *MockRepository) ListItemsByOrders(ctx context.Context, orderIDs []int64) (map[int64][]*OrderItem, error) {
	args := m.Called(ctx, orderIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64][]*OrderItem), args.Error(1)
}

func (m *MockRepository) GetItem(ctx context.Context, orderID, productID int64) (*OrderItem, error) {
	args := m.Called(ctx, orderID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*OrderItem), args.Error(1)
}

func (m *MockRepository) InsertItem(ctx context.Context, orderID, productID int64, qty int, price decimal.Decimal) (int64, error) {
	args := m.Called(ctx, orderID, productID, qty, price)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) UpdateItem(ctx context.Context, itemID int64, qty int, price decimal.Decimal) error {
	return m.Called(ctx, itemID, qty, price).Error(0)
}

func (m *MockRepository) DeleteItem(ctx context.Context, itemID int64) error {
	return m.Called(ctx, itemID).Error(0)
}

func (m *MockRepository) DeleteItems(ctx context.Context, orderID int64) (int64, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(int64), args.Error(1)
}

func TestService_StorageErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	dbErr := errors.New("connection reset")

	t.Run("FindProductsFails", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, nil)

		repo.On("WithTx", ctx).Return(nil)
		repo.On("FindProducts", ctx, []int64{10}).Return(nil, dbErr)

		_, err := svc.CreateOrder(ctx, owner, CreateInput{
			DeliveryAddress: address,
			Items:           []ItemInput{{ProductID: 10, Quantity: 1}},
		})
		assert.ErrorIs(t, err, dbErr)
		repo.AssertNotCalled(t, "InsertOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("BeginFails", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, nil)

		repo.On("WithTx", ctx).Return(dbErr)

		_, err := svc.AddItem(ctx, owner, 1, 10, 1)
		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("UpdateTotalFails", func(t *testing.T) {
		repo := new(MockRepository)
		rec := &spyRecorder{}
		svc := NewService(repo, rec)

		item := &OrderItem{ID: 5, OrderID: 1, ProductID: 10, Quantity: 1, Price: dec("10"), Product: ProductSnapshot{ID: 10, Price: dec("10")}}
		repo.On("WithTx", ctx).Return(nil)
		repo.On("GetOrder", ctx, int64(1), true).Return(&Order{ID: 1, UserID: owner, Status: StatusCreated}, nil)
		repo.On("GetItem", ctx, int64(1), int64(10)).Return(item, nil)
		repo.On("UpdateItem", ctx, int64(5), 4, mock.Anything).Return(nil)
		repo.On("ListItems", ctx, int64(1)).Return([]*OrderItem{item}, nil)
		repo.On("UpdateTotal", ctx, int64(1), mock.Anything).Return(dbErr)

		_, err := svc.UpdateItemQuantity(ctx, owner, 1, 10, 4)
		assert.ErrorIs(t, err, dbErr)
		assert.Empty(t, rec.mutations)
	})

	t.Run("ListItemsByOrdersFails", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, nil)

		repo.On("ListOrdersByUser", ctx, owner).Return([]*Order{{ID: 3}}, nil)
		repo.On("ListItemsByOrders", ctx, []int64{3}).Return(nil, dbErr)

		_, err := svc.ListOrders(ctx, owner)
		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("StatusChangeLocksRow", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, nil)

		repo.On("WithTx", ctx).Return(nil)
		repo.On("GetOrder", ctx, int64(1), true).Return(&Order{ID: 1, UserID: owner, Status: StatusCreated}, nil)
		repo.On("UpdateStatus", ctx, int64(1), StatusCancelled).Return(nil)
		repo.On("ListItems", ctx, int64(1)).Return([]*OrderItem{}, nil)

		o, err := svc.UpdateStatus(ctx, owner, 1, StatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, o.Status)
		repo.AssertExpectations(t)
	})
}

func TestService_QuantityAndAmountBounds(t *testing.T) {
	ctx := context.Background()

	t.Run("QuantityAboveColumnRange", func(t *testing.T) {
		store := newCatalogStore()
		svc := NewService(store, nil)

		_, err := svc.CreateOrder(ctx, owner, CreateInput{
			DeliveryAddress: address,
			Items:           []ItemInput{{ProductID: 20, Quantity: maxQuantity + 1}},
		})
		assert.ErrorIs(t, err, ErrQuantityTooBig)
		assert.True(t, apperr.Is(err, apperr.InvalidState))
		assert.Zero(t, store.writes)
	})

	t.Run("MergedQuantityAboveColumnRange", func(t *testing.T) {
		store := newCatalogStore()
		svc := NewService(store, nil)

		_, err := svc.CreateOrder(ctx, owner, CreateInput{
			DeliveryAddress: address,
			Items:           []ItemInput{{ProductID: 20, Quantity: maxQuantity}, {ProductID: 20, Quantity: 1}},
		})
		assert.ErrorIs(t, err, ErrQuantityTooBig)
		assert.Zero(t, store.writes)
	})

	t.Run("LinePriceAboveColumnRange", func(t *testing.T) {
		store := newCatalogStore()
		svc := NewService(store, nil)

		_, err := svc.CreateOrder(ctx, owner, CreateInput{
			DeliveryAddress: address,
			Items:           []ItemInput{{ProductID: 10, Quantity: 1_000_000_000}},
		})
		assert.ErrorIs(t, err, ErrAmountTooBig)
		assert.Zero(t, store.writes)
	})

	t.Run("TotalAboveColumnRange", func(t *testing.T) {
		store := newCatalogStore()
		svc := NewService(store, nil)

		_, err := svc.CreateOrder(ctx, owner, CreateInput{
			DeliveryAddress: address,
			Items: []ItemInput{
				{ProductID: 10, Quantity: 600_000_000},
				{ProductID: 20, Quantity: 900_000_000},
			},
		})
		assert.ErrorIs(t, err, ErrAmountTooBig)
		assert.Zero(t, store.writes)
	})

	t.Run("AddItemMergeOverflowLeavesOrderIntact", func(t *testing.T) {
		store := newCatalogStore()
		svc := NewService(store, nil)
		o := createAB(t, svc)

		_, err := svc.AddItem(ctx, owner, o.ID, 10, maxQuantity)
		assert.ErrorIs(t, err, ErrQuantityTooBig)

		_, err = svc.AddItem(ctx, owner, o.ID, 10, maxQuantity+1)
		assert.ErrorIs(t, err, ErrQuantityTooBig)

		assert.True(t, store.orders[o.ID].TotalPrice.Equal(dec("25")))
		assertConsistent(t, store, o.ID)
	})

	t.Run("UpdateQuantityAmountOverflowLeavesOrderIntact", func(t *testing.T) {
		store := newCatalogStore()
		svc := NewService(store, nil)
		o := createAB(t, svc)

		_, err := svc.UpdateItemQuantity(ctx, owner, o.ID, 10, 1_000_000_000)
		assert.ErrorIs(t, err, ErrAmountTooBig)

		item, err := store.GetItem(ctx, o.ID, 10)
		require.NoError(t, err)
		assert.Equal(t, 2, item.Quantity)
		assert.True(t, store.orders[o.ID].TotalPrice.Equal(dec("25")))
		assertConsistent(t, store, o.ID)
	})
}
