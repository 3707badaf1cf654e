package catalog

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/flexmart/promo-api/internal/common"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

type fakeStore struct {
	items     map[int64]Item
	listCalls int
}

func (f *fakeStore) GetItem(_ context.Context, id int64) (Item, error) {
	item, ok := f.items[id]
	if !ok {
		return Item{}, ErrNotFound
	}
	return item, nil
}

func (f *fakeStore) ListItems(_ context.Context) ([]Item, error) {
	f.listCalls++
	out := make([]Item, 0, len(f.items))
	for _, item := range f.items {
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeStore) SetStock(_ context.Context, id int64, qty decimal.Decimal) (Item, error) {
	item, ok := f.items[id]
	if !ok {
		return Item{}, ErrNotFound
	}
	if qty.IsNegative() {
		return Item{}, ErrStockNegative
	}
	item.StockQuantity = &qty
	f.items[id] = item
	return item, nil
}

func (f *fakeStore) AdjustStock(_ context.Context, id int64, delta decimal.Decimal) (Item, error) {
	item, ok := f.items[id]
	if !ok {
		return Item{}, ErrNotFound
	}
	current := decimal.Zero
	if item.StockQuantity != nil {
		current = *item.StockQuantity
	}
	next := current.Add(delta)
	if next.IsNegative() {
		return Item{}, ErrStockNegative
	}
	item.StockQuantity = &next
	f.items[id] = item
	return item, nil
}

func (f *fakeStore) ListBrands(context.Context) ([]Brand, error) {
	return []Brand{{ID: 1, Name: "Apple"}}, nil
}

func (f *fakeStore) ListCategories(context.Context) ([]Category, error) {
	return []Category{{ID: 1, Name: "Laptops"}}, nil
}

func newTestService(t *testing.T) (*Service, *fakeStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	stock := dec(t, "5")
	store := &fakeStore{items: map[int64]Item{
		1: {ID: 1, Name: "MacBook Pro", Price: dec(t, "2000"), SaleUnit: SaleUnitQuantity, StockQuantity: &stock},
	}}
	svc := &Service{Store: store, Cache: NewCache(client, time.Minute)}
	return svc, store, mr
}

func TestListItemsCacheAside(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, 1, store.listCalls)

	// The second read is served from cache without touching the store.
	second, err := svc.ListItems(ctx)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, store.listCalls)
}

func TestStockWriteInvalidatesListing(t *testing.T) {
	svc, store, mr := newTestService(t)
	ctx := context.Background()

	_, err := svc.ListItems(ctx)
	require.NoError(t, err)
	require.True(t, mr.Exists("catalog:items"))

	_, err = svc.SetStock(ctx, 1, dec(t, "3"))
	require.NoError(t, err)
	require.False(t, mr.Exists("catalog:items"))

	views, err := svc.ListItems(ctx)
	require.NoError(t, err)
	require.InDelta(t, 3.0, views[0].StockQuantity, 1e-9)
	require.Equal(t, 2, store.listCalls)
}

func TestAdjustStockRejectsZeroDelta(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.AdjustStock(context.Background(), 1, decimal.Zero)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeInvalidAmount, appErr.Code)
}

func TestAdjustStockCannotGoNegative(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AdjustStock(ctx, 1, dec(t, "-6"))
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeInvalidAmount, appErr.Code)
	require.Contains(t, appErr.Message, "Stock cannot be negative. Current stock: 5")

	item, err := svc.AdjustStock(ctx, 1, dec(t, "-5"))
	require.NoError(t, err)
	require.True(t, item.StockQuantity.IsZero())
}

func TestGetItemNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.GetItem(context.Background(), 99)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeItemNotFound, appErr.Code)
}
