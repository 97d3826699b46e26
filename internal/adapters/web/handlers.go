// Package web is the JSON HTTP adapter the dashboard frontend talks to.
package web

import (
	"net/http"

	"beans-dashboard/internal/app"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc app.ApplicationService
	log *zap.Logger
}

// NewHandler creates and wires the chi router with all routes. metricsHandler
// serves the Prometheus registry and may be nil to disable the endpoint.
func NewHandler(svc app.ApplicationService, log *zap.Logger, allowedOrigins string, metricsHandler http.Handler) http.Handler {
	h := &Handler{svc: svc, log: log}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(allowedOrigins))

	r.Get("/api/health", h.health)
	r.Get("/api/summary", h.summary)

	r.Route("/api/orders", func(r chi.Router) {
		r.Get("/", h.listOrders)
		r.Get("/{id}", h.getOrder)
		r.Post("/{id}/start", h.startOrder)
		r.Post("/{id}/complete", h.completeOrder)
	})
	r.Post("/api/sync", h.sync)

	r.Route("/api/inventory", func(r chi.Router) {
		r.Get("/", h.listInventory)
		r.Post("/", h.createInventoryItem)
		r.Patch("/{id}", h.setInventoryQuantity)
		r.Get("/low-stock", h.lowStock)
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Get("/{id}/cost", h.productCost)
	})

	if metricsHandler != nil {
		r.Get("/metrics", metricsHandler.ServeHTTP)
	}

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// summary handles GET /api/summary — the dashboard overview tiles.
func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Summary(r.Context())
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
