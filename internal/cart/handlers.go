package cart

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flexmart/promo-api/internal/common"
)

// Handler wires cart endpoints to HTTP.
type Handler struct {
	Svc *Service
}

// Create opens a new cart and returns its priced (empty) view.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	c, err := h.Svc.Create(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	view, err := h.Svc.Pricing(r.Context(), c.ID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"cart": view})
}

// Get returns the priced cart.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := cartID(w, r)
	if !ok {
		return
	}
	view, err := h.Svc.Pricing(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"cart": view})
}

type lineRequest struct {
	ItemID   int64    `json:"item_id"`
	Quantity *int64   `json:"quantity"`
	Weight   *float64 `json:"weight"`
}

func (req lineRequest) amounts() (*int64, *decimal.Decimal) {
	var weight *decimal.Decimal
	if req.Weight != nil {
		d := decimal.NewFromFloat(*req.Weight)
		weight = &d
	}
	return req.Quantity, weight
}

// AddItem adds an item to the cart.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := cartID(w, r)
	if !ok {
		return
	}
	var req lineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ItemID == 0 {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "item_id is required", nil)
		return
	}
	qty, weight := req.amounts()
	view, err := h.Svc.AddItem(r.Context(), id, req.ItemID, qty, weight)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"cart": view})
}

// UpdateItem replaces the amount of an item already in the cart.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := cartID(w, r)
	if !ok {
		return
	}
	itemID, ok := lineItemID(w, r)
	if !ok {
		return
	}
	var req lineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "Invalid request body", nil)
		return
	}
	qty, weight := req.amounts()
	view, err := h.Svc.UpdateItem(r.Context(), id, itemID, qty, weight)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"cart": view})
}

// RemoveItem drops an item from the cart.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := cartID(w, r)
	if !ok {
		return
	}
	itemID, ok := lineItemID(w, r)
	if !ok {
		return
	}
	view, err := h.Svc.RemoveItem(r.Context(), id, itemID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"cart": view})
}

// Clear empties the cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	id, ok := cartID(w, r)
	if !ok {
		return
	}
	view, err := h.Svc.Clear(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"cart": view})
}

type promoCodeRequest struct {
	Code string `json:"code"`
}

// ApplyPromo activates a promo code on the cart.
func (h *Handler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	id, ok := cartID(w, r)
	if !ok {
		return
	}
	var req promoCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "code is required", nil)
		return
	}
	view, err := h.Svc.ActivateCode(r.Context(), id, req.Code)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"cart": view})
}

// RemovePromo deactivates a promo code on the cart.
func (h *Handler) RemovePromo(w http.ResponseWriter, r *http.Request) {
	id, ok := cartID(w, r)
	if !ok {
		return
	}
	var req promoCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "code is required", nil)
		return
	}
	view, err := h.Svc.DeactivateCode(r.Context(), id, req.Code)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"cart": view})
}

func cartID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "cartID"))
	if err != nil {
		common.JSONError(w, http.StatusNotFound, common.CodeCartNotFound, "Cart not found", nil)
		return uuid.Nil, false
	}
	return id, true
}

func lineItemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "Invalid item id", nil)
		return 0, false
	}
	return id, true
}
