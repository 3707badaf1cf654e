package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleUnit describes how an item is sold.
type SaleUnit string

const (
	// SaleUnitQuantity marks items sold per unit.
	SaleUnitQuantity SaleUnit = "quantity"
	// SaleUnitWeight marks items sold per gram.
	SaleUnitWeight SaleUnit = "weight"
)

// Item is a catalog entry. Price is per unit for quantity items and per gram
// for weight items. A nil StockQuantity means unbounded stock; for weight
// items the stock is expressed in grams.
type Item struct {
	ID            int64
	Name          string
	Price         decimal.Decimal
	SaleUnit      SaleUnit
	StockQuantity *decimal.Decimal
	BrandID       *int64
	CategoryID    *int64
	BrandName     *string
	CategoryName  *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SoldByQuantity reports whether the item is sold per unit.
func (i Item) SoldByQuantity() bool {
	return i.SaleUnit == SaleUnitQuantity
}

// InStock reports whether the item can currently be added to a cart.
func (i Item) InStock() bool {
	if i.StockQuantity == nil {
		return true
	}
	return i.StockQuantity.IsPositive()
}

// Brand is a flat brand record.
type Brand struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Category is a flat category record; there is no hierarchy.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
