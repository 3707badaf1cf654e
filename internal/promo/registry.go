package promo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flexmart/promo-api/internal/common"
)

// Registry exposes promotion lookups to the pricing path and the HTTP
// surface.
type Registry struct {
	Store Store
}

// Get returns a single promotion by id.
func (r *Registry) Get(ctx context.Context, id int64) (*Promotion, error) {
	p, err := r.Store.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, common.NotFoundError(common.CodePromoNotFound, "Promotion not found")
	}
	if err != nil {
		return nil, common.InternalError(fmt.Errorf("get promotion: %w", err))
	}
	return p, nil
}

// ListActive returns every promotion whose window covers now.
func (r *Registry) ListActive(ctx context.Context, now time.Time) ([]Promotion, error) {
	promos, err := r.Store.ListActive(ctx, now)
	if err != nil {
		return nil, common.InternalError(fmt.Errorf("list promotions: %w", err))
	}
	return promos, nil
}

// CandidatesFor returns promotions eligible for a line at pricing time:
// active, matching the item or its category, and either automatic or carrying
// a code present in the activated set.
func (r *Registry) CandidatesFor(ctx context.Context, itemID int64, categoryID *int64, activated map[int64]struct{}, now time.Time) ([]Promotion, error) {
	promos, err := r.Store.ListForTarget(ctx, itemID, categoryID, now)
	if err != nil {
		return nil, common.InternalError(fmt.Errorf("list candidate promotions: %w", err))
	}
	out := promos[:0]
	for _, p := range promos {
		if p.Automatic() {
			out = append(out, p)
			continue
		}
		if _, ok := activated[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// ResolveCode maps a promo code to its promotion, rejecting unknown codes and
// codes outside their validity window with the same client-facing error.
func (r *Registry) ResolveCode(ctx context.Context, code string, now time.Time) (*Promotion, error) {
	p, err := r.Store.GetByCode(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return nil, common.ValidationError(common.CodeInvalidPromoCode, "Invalid promo code")
	}
	if err != nil {
		return nil, common.InternalError(fmt.Errorf("resolve promo code: %w", err))
	}
	if !p.ActiveAt(now) {
		return nil, common.ValidationError(common.CodeInvalidPromoCode, "Promo code is not currently active")
	}
	return p, nil
}

// Create validates and persists a new promotion.
func (r *Registry) Create(ctx context.Context, p *Promotion) error {
	if err := validatePromotion(p); err != nil {
		return err
	}
	if err := r.Store.Create(ctx, p); err != nil {
		return common.InternalError(fmt.Errorf("create promotion: %w", err))
	}
	return nil
}

func validatePromotion(p *Promotion) error {
	switch p.Type {
	case TypeFlatDiscount, TypePercentageDiscount, TypeBuyXGetY, TypeWeightThreshold:
	default:
		return common.ValidationError(common.CodeBadRequest, fmt.Sprintf("Unknown promotion type %q", p.Type))
	}
	switch p.TargetType {
	case TargetItem, TargetCategory:
	default:
		return common.ValidationError(common.CodeBadRequest, fmt.Sprintf("Unknown target type %q", p.TargetType))
	}
	if p.Value.IsNegative() {
		return common.ValidationError(common.CodeBadRequest, "Value must not be negative")
	}
	if p.EndTime != nil && !p.EndTime.After(p.StartTime) {
		return common.ValidationError(common.CodeBadRequest, "End time must be after start time")
	}
	switch p.Type {
	case TypeBuyXGetY:
		if p.Config.BuyQuantity <= 0 || p.Config.GetQuantity <= 0 {
			return common.ValidationError(common.CodeBadRequest, "buy_quantity and get_quantity must be positive")
		}
		if dp := p.Config.DiscountPercent; dp != nil && (dp.IsNegative() || dp.GreaterThan(hundred)) {
			return common.ValidationError(common.CodeBadRequest, "discount_percent must be between 0 and 100")
		}
	case TypeWeightThreshold:
		if p.Config.ThresholdWeight == nil || !p.Config.ThresholdWeight.IsPositive() {
			return common.ValidationError(common.CodeBadRequest, "threshold_weight must be positive")
		}
	}
	return nil
}
