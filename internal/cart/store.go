package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/flexmart/promo-api/internal/catalog"
)

var (
	// ErrCartNotFound is returned when a cart id matches nothing.
	ErrCartNotFound = errors.New("cart not found")
	// ErrLineNotFound is returned when an item is not present in a cart.
	ErrLineNotFound = errors.New("cart line not found")
)

// Store abstracts cart persistence.
type Store interface {
	CreateCart(ctx context.Context) (*Cart, error)
	GetCart(ctx context.Context, id uuid.UUID) (*Cart, error)
	TouchCart(ctx context.Context, id uuid.UUID) error

	ListLines(ctx context.Context, cartID uuid.UUID) ([]Line, error)
	GetLine(ctx context.Context, cartID uuid.UUID, itemID int64) (*Line, error)
	InsertLine(ctx context.Context, line *Line) error
	// UpdateLineAmount replaces the line's quantity or weight; the unused
	// unit column is nulled so a line never carries both.
	UpdateLineAmount(ctx context.Context, cartID uuid.UUID, itemID int64, quantity *int64, weight *decimal.Decimal) error
	DeleteLine(ctx context.Context, cartID uuid.UUID, itemID int64) error
	DeleteLines(ctx context.Context, cartID uuid.UUID) error

	ListActivations(ctx context.Context, cartID uuid.UUID) ([]Activation, error)
	AddActivation(ctx context.Context, cartID uuid.UUID, promotionID int64) error
	RemoveActivation(ctx context.Context, cartID uuid.UUID, promotionID int64) (bool, error)
	DeleteActivations(ctx context.Context, cartID uuid.UUID) error
}

// PGStore is the pgx-backed Store.
type PGStore struct {
	Pool *pgxpool.Pool
}

var _ Store = (*PGStore)(nil)

func (s *PGStore) CreateCart(ctx context.Context) (*Cart, error) {
	c := &Cart{ID: uuid.New()}
	err := s.Pool.QueryRow(ctx,
		`INSERT INTO carts (id) VALUES ($1) RETURNING created_at, updated_at`,
		c.ID).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert cart: %w", err)
	}
	return c, nil
}

func (s *PGStore) GetCart(ctx context.Context, id uuid.UUID) (*Cart, error) {
	c := &Cart{ID: id}
	err := s.Pool.QueryRow(ctx,
		`SELECT created_at, updated_at FROM carts WHERE id = $1`,
		id).Scan(&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return c, nil
}

func (s *PGStore) TouchCart(ctx context.Context, id uuid.UUID) error {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE carts SET updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("touch cart: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (s *PGStore) ListLines(ctx context.Context, cartID uuid.UUID) ([]Line, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, cart_id, item_id, quantity, weight, created_at, updated_at
		 FROM cart_lines WHERE cart_id = $1 ORDER BY id`, cartID)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart lines: %w", err)
	}
	return out, nil
}

func (s *PGStore) GetLine(ctx context.Context, cartID uuid.UUID, itemID int64) (*Line, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT id, cart_id, item_id, quantity, weight, created_at, updated_at
		 FROM cart_lines WHERE cart_id = $1 AND item_id = $2`, cartID, itemID)
	l, err := scanLine(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cart line: %w", err)
	}
	return l, nil
}

func (s *PGStore) InsertLine(ctx context.Context, line *Line) error {
	var weight *pgtype.Numeric
	if line.Weight != nil {
		n := catalog.DecimalToNumeric(*line.Weight)
		weight = &n
	}
	err := s.Pool.QueryRow(ctx,
		`INSERT INTO cart_lines (cart_id, item_id, quantity, weight)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		line.CartID, line.ItemID, line.Quantity, weight,
	).Scan(&line.ID, &line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert cart line: %w", err)
	}
	return nil
}

func (s *PGStore) UpdateLineAmount(ctx context.Context, cartID uuid.UUID, itemID int64, quantity *int64, weight *decimal.Decimal) error {
	var num *pgtype.Numeric
	if weight != nil {
		n := catalog.DecimalToNumeric(*weight)
		num = &n
	}
	tag, err := s.Pool.Exec(ctx,
		`UPDATE cart_lines SET quantity = $3, weight = $4, updated_at = now()
		 WHERE cart_id = $1 AND item_id = $2`,
		cartID, itemID, quantity, num)
	if err != nil {
		return fmt.Errorf("update cart line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (s *PGStore) DeleteLine(ctx context.Context, cartID uuid.UUID, itemID int64) error {
	tag, err := s.Pool.Exec(ctx,
		`DELETE FROM cart_lines WHERE cart_id = $1 AND item_id = $2`, cartID, itemID)
	if err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (s *PGStore) DeleteLines(ctx context.Context, cartID uuid.UUID) error {
	if _, err := s.Pool.Exec(ctx,
		`DELETE FROM cart_lines WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart lines: %w", err)
	}
	return nil
}

func (s *PGStore) ListActivations(ctx context.Context, cartID uuid.UUID) ([]Activation, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT cp.cart_id, cp.promotion_id, p.promo_code, cp.activated_at
		 FROM cart_promotions cp
		 JOIN promotions p ON p.id = cp.promotion_id
		 WHERE cp.cart_id = $1
		 ORDER BY cp.promotion_id`, cartID)
	if err != nil {
		return nil, fmt.Errorf("list cart activations: %w", err)
	}
	defer rows.Close()

	var out []Activation
	for rows.Next() {
		var (
			a    Activation
			code pgtype.Text
		)
		if err := rows.Scan(&a.CartID, &a.PromotionID, &code, &a.ActivatedAt); err != nil {
			return nil, fmt.Errorf("scan cart activation: %w", err)
		}
		a.Code = code.String
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart activations: %w", err)
	}
	return out, nil
}

func (s *PGStore) AddActivation(ctx context.Context, cartID uuid.UUID, promotionID int64) error {
	// Re-applying the same code is a no-op.
	if _, err := s.Pool.Exec(ctx,
		`INSERT INTO cart_promotions (cart_id, promotion_id) VALUES ($1, $2)
		 ON CONFLICT (cart_id, promotion_id) DO NOTHING`,
		cartID, promotionID); err != nil {
		return fmt.Errorf("add cart activation: %w", err)
	}
	return nil
}

func (s *PGStore) RemoveActivation(ctx context.Context, cartID uuid.UUID, promotionID int64) (bool, error) {
	tag, err := s.Pool.Exec(ctx,
		`DELETE FROM cart_promotions WHERE cart_id = $1 AND promotion_id = $2`,
		cartID, promotionID)
	if err != nil {
		return false, fmt.Errorf("remove cart activation: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PGStore) DeleteActivations(ctx context.Context, cartID uuid.UUID) error {
	if _, err := s.Pool.Exec(ctx,
		`DELETE FROM cart_promotions WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart activations: %w", err)
	}
	return nil
}

func scanLine(row pgx.Row) (*Line, error) {
	var (
		l      Line
		qty    pgtype.Int8
		weight pgtype.Numeric
	)
	err := row.Scan(&l.ID, &l.CartID, &l.ItemID, &qty, &weight, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if qty.Valid {
		q := qty.Int64
		l.Quantity = &q
	}
	if weight.Valid {
		w := catalog.NumericToDecimal(weight)
		l.Weight = &w
	}
	return &l, nil
}
