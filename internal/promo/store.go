package promo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flexmart/promo-api/internal/catalog"
)

// ErrNotFound is returned when a promotion lookup matches nothing.
var ErrNotFound = errors.New("promotion not found")

// Store abstracts promotion persistence.
type Store interface {
	GetByID(ctx context.Context, id int64) (*Promotion, error)
	// GetByCode looks a promotion up by promo code regardless of its
	// validity window, so expired codes can still be reported as expired
	// rather than unknown.
	GetByCode(ctx context.Context, code string) (*Promotion, error)
	ListActive(ctx context.Context, now time.Time) ([]Promotion, error)
	// ListForTarget returns promotions active at now whose target matches
	// the item directly or through its category.
	ListForTarget(ctx context.Context, itemID int64, categoryID *int64, now time.Time) ([]Promotion, error)
	Create(ctx context.Context, p *Promotion) error
}

// PGStore is the pgx-backed Store.
type PGStore struct {
	Pool *pgxpool.Pool
}

var _ Store = (*PGStore)(nil)

const promotionColumns = `id, name, promo_type, value, target_type, target_id,
	start_time, end_time, config, promo_code, created_at, updated_at`

func (s *PGStore) GetByID(ctx context.Context, id int64) (*Promotion, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT `+promotionColumns+` FROM promotions WHERE id = $1`, id)
	return scanPromotion(row)
}

func (s *PGStore) GetByCode(ctx context.Context, code string) (*Promotion, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT `+promotionColumns+` FROM promotions WHERE promo_code = $1`, code)
	return scanPromotion(row)
}

func (s *PGStore) ListActive(ctx context.Context, now time.Time) ([]Promotion, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT `+promotionColumns+` FROM promotions
		 WHERE start_time <= $1 AND (end_time IS NULL OR end_time > $1)
		 ORDER BY id`, now)
	if err != nil {
		return nil, fmt.Errorf("list active promotions: %w", err)
	}
	defer rows.Close()
	return collectPromotions(rows)
}

func (s *PGStore) ListForTarget(ctx context.Context, itemID int64, categoryID *int64, now time.Time) ([]Promotion, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT `+promotionColumns+` FROM promotions
		 WHERE start_time <= $3 AND (end_time IS NULL OR end_time > $3)
		   AND ((target_type = 'Item' AND target_id = $1)
		     OR (target_type = 'Category' AND target_id = $2))
		 ORDER BY id`, itemID, categoryID, now)
	if err != nil {
		return nil, fmt.Errorf("list promotions for target: %w", err)
	}
	defer rows.Close()
	return collectPromotions(rows)
}

func (s *PGStore) Create(ctx context.Context, p *Promotion) error {
	cfg, err := json.Marshal(p.Config)
	if err != nil {
		return fmt.Errorf("encode promotion config: %w", err)
	}
	err = s.Pool.QueryRow(ctx,
		`INSERT INTO promotions
		   (name, promo_type, value, target_type, target_id, start_time, end_time, config, promo_code)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		p.Name, string(p.Type), catalog.DecimalToNumeric(p.Value),
		string(p.TargetType), p.TargetID, p.StartTime, p.EndTime, cfg, p.PromoCode,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert promotion: %w", err)
	}
	return nil
}

func collectPromotions(rows pgx.Rows) ([]Promotion, error) {
	var out []Promotion
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate promotions: %w", err)
	}
	return out, nil
}

func scanPromotion(row pgx.Row) (*Promotion, error) {
	var (
		p         Promotion
		promoType string
		target    string
		value     pgtype.Numeric
		endTime   pgtype.Timestamptz
		cfg       []byte
		code      pgtype.Text
	)
	err := row.Scan(&p.ID, &p.Name, &promoType, &value, &target, &p.TargetID,
		&p.StartTime, &endTime, &cfg, &code, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan promotion: %w", err)
	}
	p.Type = Type(promoType)
	p.TargetType = TargetType(target)
	p.Value = catalog.NumericToDecimal(value)
	if endTime.Valid {
		t := endTime.Time
		p.EndTime = &t
	}
	if len(cfg) > 0 {
		if err := json.Unmarshal(cfg, &p.Config); err != nil {
			return nil, fmt.Errorf("decode promotion config: %w", err)
		}
	}
	if code.Valid {
		c := code.String
		p.PromoCode = &c
	}
	return &p, nil
}
