package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is a shopping cart keyed by opaque uuid so cart ids cannot be
// enumerated.
type Cart struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Line is one cart entry. Exactly one of Quantity and Weight is set,
// matching the item's sale unit; Weight is in grams.
type Line struct {
	ID        int64
	CartID    uuid.UUID
	ItemID    int64
	Quantity  *int64
	Weight    *decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Amount returns the line's quantity or weight as a decimal regardless of
// sale unit.
func (l Line) Amount() decimal.Decimal {
	if l.Weight != nil {
		return *l.Weight
	}
	if l.Quantity != nil {
		return decimal.NewFromInt(*l.Quantity)
	}
	return decimal.Zero
}

// Activation records a promo code applied to a cart.
type Activation struct {
	CartID      uuid.UUID
	PromotionID int64
	Code        string
	ActivatedAt time.Time
}
