package web

import (
	"errors"
	"net/http"

	"beans-dashboard/internal/core"

	"github.com/go-chi/chi/v5"
)

// listOrders handles GET /api/orders?status=pending|in_progress|completed.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListOrders(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// getOrder handles GET /api/orders/{id}.
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// startOrder handles POST /api/orders/{id}/start.
func (h *Handler) startOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.StartOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// completeOrder handles POST /api/orders/{id}/complete. Safe to call
// repeatedly: a second completion returns the order unchanged with no
// deduction report.
func (h *Handler) completeOrder(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.CompleteOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// sync handles POST /api/sync — one reconcile cycle on demand.
func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Sync(r.Context())
	if err != nil {
		writeError(w, r, err.Error(), "SYNC_FAILED", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrOrderNotFound):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrOrderFinal), errors.Is(err, core.ErrInvalidTransition):
		writeError(w, r, err.Error(), "CONFLICT", http.StatusConflict)
	default:
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
