package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotFound indicates the requested catalog record does not exist.
var ErrNotFound = errors.New("item not found")

// ErrStockNegative indicates a stock write would drive stock below zero.
var ErrStockNegative = errors.New("stock cannot be negative")

// Store provides read access to catalog data plus the stock writes exposed to
// inventory operators. The pricing engine only ever reads.
type Store interface {
	GetItem(ctx context.Context, id int64) (Item, error)
	ListItems(ctx context.Context) ([]Item, error)
	SetStock(ctx context.Context, id int64, qty decimal.Decimal) (Item, error)
	AdjustStock(ctx context.Context, id int64, delta decimal.Decimal) (Item, error)
	ListBrands(ctx context.Context) ([]Brand, error)
	ListCategories(ctx context.Context) ([]Category, error)
}

// PGStore is the Postgres-backed catalog store.
type PGStore struct {
	Pool *pgxpool.Pool
}

const itemColumns = `i.id, i.name, i.price, i.sale_unit, i.stock_quantity,
	i.brand_id, i.category_id, b.name, c.name, i.created_at, i.updated_at`

const itemJoin = `FROM items i
	LEFT JOIN brands b ON b.id = i.brand_id
	LEFT JOIN categories c ON c.id = i.category_id`

// GetItem loads a single item with brand and category names resolved.
func (s *PGStore) GetItem(ctx context.Context, id int64) (Item, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+itemColumns+` `+itemJoin+` WHERE i.id = $1`, id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// ListItems returns all items ordered by name.
func (s *PGStore) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+itemColumns+` `+itemJoin+` ORDER BY i.name`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SetStock replaces an item's stock quantity.
func (s *PGStore) SetStock(ctx context.Context, id int64, qty decimal.Decimal) (Item, error) {
	if qty.IsNegative() {
		return Item{}, ErrStockNegative
	}
	tag, err := s.Pool.Exec(ctx,
		`UPDATE items SET stock_quantity = $2, updated_at = now() WHERE id = $1`,
		id, decimalToNumeric(qty))
	if err != nil {
		return Item{}, fmt.Errorf("set stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Item{}, ErrNotFound
	}
	return s.GetItem(ctx, id)
}

// AdjustStock applies a relative stock delta, treating NULL stock as zero.
// The write is rejected when the result would be negative.
func (s *PGStore) AdjustStock(ctx context.Context, id int64, delta decimal.Decimal) (Item, error) {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE items
		 SET stock_quantity = COALESCE(stock_quantity, 0) + $2, updated_at = now()
		 WHERE id = $1 AND COALESCE(stock_quantity, 0) + $2 >= 0`,
		id, decimalToNumeric(delta))
	if err != nil {
		return Item{}, fmt.Errorf("adjust stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetItem(ctx, id); err != nil {
			return Item{}, err
		}
		return Item{}, ErrStockNegative
	}
	return s.GetItem(ctx, id)
}

// ListBrands returns all brands ordered by name.
func (s *PGStore) ListBrands(ctx context.Context) ([]Brand, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, name FROM brands ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()
	var brands []Brand
	for rows.Next() {
		var b Brand
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, err
		}
		brands = append(brands, b)
	}
	return brands, rows.Err()
}

// ListCategories returns all categories ordered by name.
func (s *PGStore) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (Item, error) {
	var (
		item      Item
		price     pgtype.Numeric
		stock     pgtype.Numeric
		brandID   pgtype.Int8
		catID     pgtype.Int8
		brandName pgtype.Text
		catName   pgtype.Text
		saleUnit  string
	)
	if err := row.Scan(&item.ID, &item.Name, &price, &saleUnit, &stock,
		&brandID, &catID, &brandName, &catName, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return Item{}, err
	}
	item.SaleUnit = SaleUnit(saleUnit)
	item.Price = numericToDecimal(price)
	if stock.Valid {
		v := numericToDecimal(stock)
		item.StockQuantity = &v
	}
	if brandID.Valid {
		item.BrandID = &brandID.Int64
	}
	if catID.Valid {
		item.CategoryID = &catID.Int64
	}
	if brandName.Valid {
		item.BrandName = &brandName.String
	}
	if catName.Valid {
		item.CategoryName = &catName.String
	}
	return item, nil
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

// NumericToDecimal converts a scanned numeric value into a decimal.
func NumericToDecimal(n pgtype.Numeric) decimal.Decimal {
	return numericToDecimal(n)
}

// DecimalToNumeric converts a decimal into a pgx numeric parameter.
func DecimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	return decimalToNumeric(d)
}
