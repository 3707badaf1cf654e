package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flexmart/promo-api/internal/common"
)

// ItemView is the API representation of an item.
type ItemView struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	SaleUnit      string    `json:"sale_unit"`
	StockQuantity float64   `json:"stock_quantity"`
	Category      *string   `json:"category"`
	Brand         *string   `json:"brand"`
	InStock       bool      `json:"in_stock"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Service orchestrates catalog reads, inventory writes, and browse caching.
type Service struct {
	Store Store
	Cache *Cache
}

// GetItem loads current item data straight from the store. Pricing and cart
// validation depend on this path always reflecting the latest price and
// stock, so it deliberately bypasses the cache.
func (s *Service) GetItem(ctx context.Context, id int64) (Item, error) {
	item, err := s.Store.GetItem(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Item{}, common.NotFoundError(common.CodeItemNotFound, "Item not found")
		}
		return Item{}, common.InternalError(err)
	}
	return item, nil
}

// ListItems returns the browse listing, served from cache when warm.
func (s *Service) ListItems(ctx context.Context) ([]ItemView, error) {
	var cached []ItemView
	if ok, err := s.Cache.GetJSON(ctx, cacheKeyItems, &cached); err == nil && ok {
		return cached, nil
	}
	items, err := s.Store.ListItems(ctx)
	if err != nil {
		return nil, common.InternalError(err)
	}
	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, viewOf(item))
	}
	_ = s.Cache.SetJSON(ctx, cacheKeyItems, views)
	return views, nil
}

// ListInventory returns every item with live stock, bypassing the browse
// cache so operators always see current numbers.
func (s *Service) ListInventory(ctx context.Context) ([]ItemView, error) {
	items, err := s.Store.ListItems(ctx)
	if err != nil {
		return nil, common.InternalError(err)
	}
	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, viewOf(item))
	}
	return views, nil
}

// ListBrands returns every brand, served from cache when warm.
func (s *Service) ListBrands(ctx context.Context) ([]Brand, error) {
	var cached []Brand
	if ok, err := s.Cache.GetJSON(ctx, cacheKeyBrands, &cached); err == nil && ok {
		return cached, nil
	}
	brands, err := s.Store.ListBrands(ctx)
	if err != nil {
		return nil, common.InternalError(err)
	}
	_ = s.Cache.SetJSON(ctx, cacheKeyBrands, brands)
	return brands, nil
}

// ListCategories returns every category, served from cache when warm.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	var cached []Category
	if ok, err := s.Cache.GetJSON(ctx, cacheKeyCategories, &cached); err == nil && ok {
		return cached, nil
	}
	categories, err := s.Store.ListCategories(ctx)
	if err != nil {
		return nil, common.InternalError(err)
	}
	_ = s.Cache.SetJSON(ctx, cacheKeyCategories, categories)
	return categories, nil
}

// SetStock replaces an item's stock quantity.
func (s *Service) SetStock(ctx context.Context, id int64, qty decimal.Decimal) (Item, error) {
	item, err := s.Store.SetStock(ctx, id, qty)
	if err != nil {
		return Item{}, s.stockError(id, err)
	}
	s.Cache.InvalidateItems(ctx)
	return item, nil
}

// AdjustStock applies a relative adjustment. Zero adjustments are rejected
// because they are always caller mistakes.
func (s *Service) AdjustStock(ctx context.Context, id int64, delta decimal.Decimal) (Item, error) {
	if delta.IsZero() {
		return Item{}, common.ValidationError(common.CodeInvalidAmount, "Adjustment cannot be zero")
	}
	item, err := s.Store.AdjustStock(ctx, id, delta)
	if err != nil {
		return Item{}, s.stockError(id, err)
	}
	s.Cache.InvalidateItems(ctx)
	return item, nil
}

func (s *Service) stockError(id int64, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return common.NotFoundError(common.CodeItemNotFound, "Item not found")
	case errors.Is(err, ErrStockNegative):
		current := "0"
		if item, getErr := s.Store.GetItem(context.Background(), id); getErr == nil && item.StockQuantity != nil {
			current = item.StockQuantity.String()
		}
		return common.ValidationError(common.CodeInvalidAmount,
			fmt.Sprintf("Stock cannot be negative. Current stock: %s", current))
	default:
		return common.InternalError(err)
	}
}

func viewOf(item Item) ItemView {
	stock := 0.0
	if item.StockQuantity != nil {
		stock = item.StockQuantity.InexactFloat64()
	}
	return ItemView{
		ID:            item.ID,
		Name:          item.Name,
		Price:         item.Price.InexactFloat64(),
		SaleUnit:      string(item.SaleUnit),
		StockQuantity: stock,
		Category:      item.CategoryName,
		Brand:         item.BrandName,
		InStock:       item.InStock(),
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}
