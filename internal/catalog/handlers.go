package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/flexmart/promo-api/internal/common"
)

// Handler wires catalog and inventory endpoints to HTTP.
type Handler struct {
	Svc *Service
}

// Items returns the catalog browse listing.
func (h *Handler) Items(w http.ResponseWriter, r *http.Request) {
	views, err := h.Svc.ListItems(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if views == nil {
		views = []ItemView{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"items": views})
}

// ItemDetail returns a single item.
func (h *Handler) ItemDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	item, err := h.Svc.GetItem(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"item": viewOf(item)})
}

// Brands returns the brand listing.
func (h *Handler) Brands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.Svc.ListBrands(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if brands == nil {
		brands = []Brand{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"brands": brands})
}

// Categories returns the category listing.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Svc.ListCategories(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if categories == nil {
		categories = []Category{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"categories": categories})
}

// Inventory returns every item with live stock numbers.
func (h *Handler) Inventory(w http.ResponseWriter, r *http.Request) {
	views, err := h.Svc.ListInventory(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"items": views})
}

// UpdateStock replaces an item's stock quantity.
func (h *Handler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	var payload struct {
		StockQuantity *float64 `json:"stock_quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.StockQuantity == nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "stock_quantity is required", nil)
		return
	}
	item, err := h.Svc.SetStock(r.Context(), id, decimal.NewFromFloat(*payload.StockQuantity))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"item":    viewOf(item),
		"message": "Inventory updated successfully",
	})
}

// AdjustStock applies a relative stock adjustment.
func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	var payload struct {
		Adjustment *float64 `json:"adjustment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Adjustment == nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "adjustment is required", nil)
		return
	}
	item, err := h.Svc.AdjustStock(r.Context(), id, decimal.NewFromFloat(*payload.Adjustment))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"item":    viewOf(item),
		"message": "Stock adjusted by " + decimal.NewFromFloat(*payload.Adjustment).String(),
	})
}

func itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid item id", nil)
		return 0, false
	}
	return id, true
}
