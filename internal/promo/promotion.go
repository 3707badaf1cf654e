package promo

import (
	"time"

	"github.com/shopspring/decimal"
)

// Type enumerates the supported promotion discount strategies. The set is
// closed: evaluation dispatches on the tag, and unknown tags contribute no
// discount.
type Type string

const (
	// TypeFlatDiscount subtracts a fixed amount from the line once.
	TypeFlatDiscount Type = "flat_discount"
	// TypePercentageDiscount subtracts a percentage of the line base price.
	TypePercentageDiscount Type = "percentage_discount"
	// TypeBuyXGetY discounts Y units for every X paid units on quantity lines.
	TypeBuyXGetY Type = "buy_x_get_y"
	// TypeWeightThreshold applies a percentage discount to weight lines at or
	// above a configured weight.
	TypeWeightThreshold Type = "weight_threshold"
)

// TargetType scopes a promotion to a single item or a whole category.
type TargetType string

const (
	// TargetItem targets one catalog item.
	TargetItem TargetType = "Item"
	// TargetCategory targets every item in a category.
	TargetCategory TargetType = "Category"
)

// Config carries the type-specific promotion parameters. Unused fields stay
// zero for the other types.
type Config struct {
	BuyQuantity     int64            `json:"buy_quantity,omitempty"`
	GetQuantity     int64            `json:"get_quantity,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	ThresholdWeight *decimal.Decimal `json:"threshold_weight,omitempty"`
}

// Promotion is a time-bound discount rule. A promotion carrying a promo code
// is never applied automatically; it becomes eligible only once the code has
// been activated on a cart, and even then only for lines matching its target.
type Promotion struct {
	ID         int64
	Name       string
	Type       Type
	Value      decimal.Decimal
	TargetType TargetType
	TargetID   int64
	StartTime  time.Time
	EndTime    *time.Time
	Config     Config
	PromoCode  *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ActiveAt reports whether now falls inside the promotion's validity window
// (start inclusive, end exclusive; a missing end means open-ended).
func (p Promotion) ActiveAt(now time.Time) bool {
	if now.Before(p.StartTime) {
		return false
	}
	if p.EndTime != nil && !now.Before(*p.EndTime) {
		return false
	}
	return true
}

// Automatic reports whether the promotion applies without code activation.
func (p Promotion) Automatic() bool {
	return p.PromoCode == nil || *p.PromoCode == ""
}

// MatchesTarget reports whether the promotion targets the given item
// directly or through its category.
func (p Promotion) MatchesTarget(itemID int64, categoryID *int64) bool {
	switch p.TargetType {
	case TargetItem:
		return p.TargetID == itemID
	case TargetCategory:
		return categoryID != nil && p.TargetID == *categoryID
	}
	return false
}

// Line is the pricing context a promotion is evaluated against. Weight is in
// grams; UnitPrice is per unit for quantity lines and per gram for weight
// lines.
type Line struct {
	Quantity  int64
	Weight    decimal.Decimal
	ByWeight  bool
	UnitPrice decimal.Decimal
	BasePrice decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// Discount computes the discount amount this promotion yields for the line.
// The result is always non-negative; a promotion that does not apply to the
// line's sale unit contributes zero rather than failing.
func (p Promotion) Discount(line Line) decimal.Decimal {
	switch p.Type {
	case TypeFlatDiscount:
		return flatDiscount(p.Value, line.BasePrice)
	case TypePercentageDiscount:
		return percentageDiscount(p.Value, line.BasePrice)
	case TypeBuyXGetY:
		return buyXGetYDiscount(p.Config, line)
	case TypeWeightThreshold:
		return weightThresholdDiscount(p.Value, p.Config, line)
	}
	return decimal.Zero
}

// flatDiscount applies once to the whole line irrespective of quantity.
func flatDiscount(value, base decimal.Decimal) decimal.Decimal {
	if value.IsNegative() {
		return decimal.Zero
	}
	if value.GreaterThan(base) {
		return base
	}
	return value
}

func percentageDiscount(value, base decimal.Decimal) decimal.Decimal {
	discount := base.Mul(value).Div(hundred)
	if discount.IsNegative() {
		return decimal.Zero
	}
	if discount.GreaterThan(base) {
		return base
	}
	return discount
}

// buyXGetYDiscount frees G units per full (B+G) group plus whatever part of
// the G allowance the remainder reaches past B. Quantity lines only.
func buyXGetYDiscount(cfg Config, line Line) decimal.Decimal {
	if line.ByWeight {
		return decimal.Zero
	}
	buy, get := cfg.BuyQuantity, cfg.GetQuantity
	if buy <= 0 || get <= 0 || line.Quantity <= 0 {
		return decimal.Zero
	}
	percent := hundred
	if cfg.DiscountPercent != nil {
		percent = *cfg.DiscountPercent
	}
	groupSize := buy + get
	fullGroups := line.Quantity / groupSize
	free := fullGroups * get
	remainder := line.Quantity % groupSize
	if extra := remainder - buy; extra > 0 {
		if extra > get {
			extra = get
		}
		free += extra
	}
	if free <= 0 {
		return decimal.Zero
	}
	discount := decimal.NewFromInt(free).Mul(line.UnitPrice).Mul(percent).Div(hundred)
	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount
}

// weightThresholdDiscount is all or nothing: below the threshold the line
// pays full price, at or above it the whole line is discounted.
func weightThresholdDiscount(value decimal.Decimal, cfg Config, line Line) decimal.Decimal {
	if !line.ByWeight || cfg.ThresholdWeight == nil {
		return decimal.Zero
	}
	if line.Weight.LessThan(*cfg.ThresholdWeight) {
		return decimal.Zero
	}
	return percentageDiscount(value, line.BasePrice)
}

// Best selects the winning promotion for a line among the candidates: the
// largest discount wins, ties break to the lowest promotion id so repeated
// pricing runs are deterministic. A nil promotion is returned when there are
// no candidates at all; a zero-discount winner is still reported.
func Best(line Line, candidates []Promotion) (*Promotion, decimal.Decimal) {
	var (
		best     *Promotion
		bestDisc decimal.Decimal
	)
	for i := range candidates {
		p := candidates[i]
		discount := p.Discount(line)
		if best == nil || discount.GreaterThan(bestDisc) ||
			(discount.Equal(bestDisc) && p.ID < best.ID) {
			best = &candidates[i]
			bestDisc = discount
		}
	}
	return best, bestDisc
}
