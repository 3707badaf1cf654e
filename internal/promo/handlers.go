package promo

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/flexmart/promo-api/internal/common"
)

// Handler wires promotion endpoints to HTTP.
type Handler struct {
	Reg      *Registry
	Validate *validator.Validate
	Now      func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// View is the JSON shape of a promotion. The promo code itself is included so
// admin listings can audit code-gated promotions.
type View struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Value      float64    `json:"value"`
	TargetType string     `json:"target_type"`
	TargetID   int64      `json:"target_id"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time,omitempty"`
	Config     ConfigView `json:"config,omitempty"`
	PromoCode  *string    `json:"promo_code,omitempty"`
}

// ConfigView mirrors Config with JSON-friendly numbers.
type ConfigView struct {
	BuyQuantity     int64    `json:"buy_quantity,omitempty"`
	GetQuantity     int64    `json:"get_quantity,omitempty"`
	DiscountPercent *float64 `json:"discount_percent,omitempty"`
	ThresholdWeight *float64 `json:"threshold_weight,omitempty"`
}

// ViewOf converts a promotion to its JSON shape.
func ViewOf(p *Promotion) View {
	v := View{
		ID:         p.ID,
		Name:       p.Name,
		Type:       string(p.Type),
		Value:      p.Value.InexactFloat64(),
		TargetType: string(p.TargetType),
		TargetID:   p.TargetID,
		StartTime:  p.StartTime,
		EndTime:    p.EndTime,
		PromoCode:  p.PromoCode,
	}
	v.Config.BuyQuantity = p.Config.BuyQuantity
	v.Config.GetQuantity = p.Config.GetQuantity
	if p.Config.DiscountPercent != nil {
		f := p.Config.DiscountPercent.InexactFloat64()
		v.Config.DiscountPercent = &f
	}
	if p.Config.ThresholdWeight != nil {
		f := p.Config.ThresholdWeight.InexactFloat64()
		v.Config.ThresholdWeight = &f
	}
	return v
}

// List returns promotions currently inside their validity window.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	promos, err := h.Reg.ListActive(r.Context(), h.now())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	views := make([]View, 0, len(promos))
	for i := range promos {
		views = append(views, ViewOf(&promos[i]))
	}
	common.JSON(w, http.StatusOK, map[string]any{"promotions": views})
}

// Detail returns a single promotion by id.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "promotionID"), 10, 64)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "Invalid promotion id", nil)
		return
	}
	p, err := h.Reg.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"promotion": ViewOf(p)})
}

type createPromotionRequest struct {
	Name       string     `json:"name" validate:"required"`
	Type       string     `json:"type" validate:"required,oneof=flat_discount percentage_discount buy_x_get_y weight_threshold"`
	Value      float64    `json:"value" validate:"gte=0"`
	TargetType string     `json:"target_type" validate:"required,oneof=Item Category"`
	TargetID   int64      `json:"target_id" validate:"required,gt=0"`
	StartTime  time.Time  `json:"start_time" validate:"required"`
	EndTime    *time.Time `json:"end_time"`
	PromoCode  *string    `json:"promo_code"`
	Config     struct {
		BuyQuantity     int64    `json:"buy_quantity"`
		GetQuantity     int64    `json:"get_quantity"`
		DiscountPercent *float64 `json:"discount_percent"`
		ThresholdWeight *float64 `json:"threshold_weight"`
	} `json:"config"`
}

// Create registers a new promotion.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPromotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "Invalid request body", nil)
		return
	}
	if err := h.Validate.Struct(&req); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeBadRequest, err.Error(), nil)
		return
	}
	p := &Promotion{
		Name:       req.Name,
		Type:       Type(req.Type),
		Value:      decimal.NewFromFloat(req.Value),
		TargetType: TargetType(req.TargetType),
		TargetID:   req.TargetID,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		PromoCode:  req.PromoCode,
	}
	p.Config.BuyQuantity = req.Config.BuyQuantity
	p.Config.GetQuantity = req.Config.GetQuantity
	if req.Config.DiscountPercent != nil {
		d := decimal.NewFromFloat(*req.Config.DiscountPercent)
		p.Config.DiscountPercent = &d
	}
	if req.Config.ThresholdWeight != nil {
		d := decimal.NewFromFloat(*req.Config.ThresholdWeight)
		p.Config.ThresholdWeight = &d
	}
	if err := h.Reg.Create(r.Context(), p); err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"promotion": ViewOf(p)})
}
