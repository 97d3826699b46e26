package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"beans-dashboard/internal/app"
	"beans-dashboard/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// listInventory handles GET /api/inventory.
func (h *Handler) listInventory(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListInventory(r.Context())
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

// createInventoryItem handles POST /api/inventory.
func (h *Handler) createInventoryItem(w http.ResponseWriter, r *http.Request) {
	var req app.CreateInventoryItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid request body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	item, err := h.svc.CreateInventoryItem(r.Context(), req)
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// setInventoryQuantity handles PATCH /api/inventory/{id}.
func (h *Handler) setInventoryQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "invalid inventory id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	var req struct {
		Quantity decimal.Decimal `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid request body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	item, err := h.svc.SetInventoryQuantity(r.Context(), id, req.Quantity)
	if err != nil {
		if errors.Is(err, core.ErrItemNotFound) {
			writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
			return
		}
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// lowStock handles GET /api/inventory/low-stock.
func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.LowStock(r.Context())
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}
