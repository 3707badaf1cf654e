package cart

import (
	"github.com/google/uuid"

	"github.com/flexmart/promo-api/internal/pricing"
)

// AppliedPromotion describes the promotion that won a line.
type AppliedPromotion struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Discount float64 `json:"discount"`
}

// LineView is the priced JSON shape of a cart line.
type LineView struct {
	ItemID           int64             `json:"item_id"`
	ItemName         string            `json:"item_name"`
	Quantity         *int64            `json:"quantity"`
	Weight           *float64          `json:"weight"`
	UnitPrice        float64           `json:"unit_price"`
	BasePrice        float64           `json:"base_price"`
	Discount         float64           `json:"discount"`
	FinalPrice       float64           `json:"final_price"`
	PromotionName    *string           `json:"promotion_name"`
	AppliedPromotion *AppliedPromotion `json:"applied_promotion,omitempty"`
}

// View is the priced JSON shape of a whole cart. ActivePromotionIDs lists the
// promotions whose codes are activated on the cart, ascending.
type View struct {
	ID                 string     `json:"id"`
	Lines              []LineView `json:"lines"`
	Subtotal           float64    `json:"subtotal"`
	TotalDiscount      float64    `json:"total_discount"`
	Total              float64    `json:"total"`
	ActivePromotionIDs []int64    `json:"active_promotion_ids"`
	AppliedCodes       []string   `json:"applied_codes"`
}

func viewOf(cartID uuid.UUID, quote pricing.Quote, promoIDs []int64, codes []string) *View {
	v := &View{
		ID:                 cartID.String(),
		Lines:              make([]LineView, 0, len(quote.Lines)),
		Subtotal:           quote.Subtotal.InexactFloat64(),
		TotalDiscount:      quote.TotalDiscount.InexactFloat64(),
		Total:              quote.Total.InexactFloat64(),
		ActivePromotionIDs: promoIDs,
		AppliedCodes:       codes,
	}
	if v.ActivePromotionIDs == nil {
		v.ActivePromotionIDs = []int64{}
	}
	if v.AppliedCodes == nil {
		v.AppliedCodes = []string{}
	}
	for _, lp := range quote.Lines {
		lv := LineView{
			ItemID:     lp.ItemID,
			ItemName:   lp.ItemName,
			Quantity:   lp.Quantity,
			UnitPrice:  lp.UnitPrice.InexactFloat64(),
			BasePrice:  lp.BasePrice.InexactFloat64(),
			Discount:   lp.Discount.InexactFloat64(),
			FinalPrice: lp.FinalPrice.InexactFloat64(),
		}
		if lp.Weight != nil {
			w := lp.Weight.InexactFloat64()
			lv.Weight = &w
		}
		if lp.Promotion != nil {
			name := lp.Promotion.Name
			lv.PromotionName = &name
			lv.AppliedPromotion = &AppliedPromotion{
				ID:       lp.Promotion.ID,
				Name:     lp.Promotion.Name,
				Type:     string(lp.Promotion.Type),
				Discount: lp.Discount.InexactFloat64(),
			}
		}
		v.Lines = append(v.Lines, lv)
	}
	return v
}
