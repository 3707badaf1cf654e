// Package pricing computes cart totals from catalog prices and promotion
// candidates. The engine is pure: callers assemble the inputs and the same
// inputs always produce the same quote.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/flexmart/promo-api/internal/promo"
)

// Line is one cart line prepared for pricing. Exactly one of Quantity and
// Weight is set, matching the item's sale unit. Candidates holds every
// promotion eligible for this line; the engine picks the winner.
type Line struct {
	ItemID     int64
	ItemName   string
	Quantity   *int64
	Weight     *decimal.Decimal
	UnitPrice  decimal.Decimal
	Candidates []promo.Promotion
}

// LinePricing is the priced form of a line.
type LinePricing struct {
	ItemID      int64
	ItemName    string
	Quantity    *int64
	Weight      *decimal.Decimal
	UnitPrice   decimal.Decimal
	BasePrice   decimal.Decimal
	Discount    decimal.Decimal
	FinalPrice  decimal.Decimal
	PromotionID *int64
	Promotion   *promo.Promotion
}

// Quote is the priced cart. Total always equals Subtotal minus TotalDiscount.
type Quote struct {
	Lines         []LinePricing
	Subtotal      decimal.Decimal
	TotalDiscount decimal.Decimal
	Total         decimal.Decimal
}

// Compute prices every line and sums the cart. Per line the winning
// promotion is the candidate with the largest discount, ties broken toward
// the lowest promotion id.
func Compute(lines []Line) Quote {
	q := Quote{Lines: make([]LinePricing, 0, len(lines))}
	for _, l := range lines {
		lp := priceLine(l)
		q.Lines = append(q.Lines, lp)
		q.Subtotal = q.Subtotal.Add(lp.BasePrice)
		q.TotalDiscount = q.TotalDiscount.Add(lp.Discount)
	}
	q.Total = q.Subtotal.Sub(q.TotalDiscount)
	return q
}

func priceLine(l Line) LinePricing {
	ctx := promo.Line{UnitPrice: l.UnitPrice}
	var base decimal.Decimal
	switch {
	case l.Weight != nil:
		ctx.ByWeight = true
		ctx.Weight = *l.Weight
		base = l.UnitPrice.Mul(*l.Weight)
	case l.Quantity != nil:
		ctx.Quantity = *l.Quantity
		base = l.UnitPrice.Mul(decimal.NewFromInt(*l.Quantity))
	}
	ctx.BasePrice = base

	lp := LinePricing{
		ItemID:    l.ItemID,
		ItemName:  l.ItemName,
		Quantity:  l.Quantity,
		Weight:    l.Weight,
		UnitPrice: l.UnitPrice,
		BasePrice: base,
	}

	best, discount := promo.Best(ctx, l.Candidates)
	// A line never prices below zero even if a formula overshoots.
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(base) {
		discount = base
	}
	lp.Discount = discount
	lp.FinalPrice = base.Sub(discount)
	if best != nil {
		id := best.ID
		lp.PromotionID = &id
		lp.Promotion = best
	}
	return lp
}
