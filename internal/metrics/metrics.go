// Package metrics exposes Prometheus instrumentation for the poll loop
// and the deduction path.
package metrics

import (
	"net/http"

	"beans-dashboard/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Set struct {
	registry *prometheus.Registry

	cycles        *prometheus.CounterVec
	ordersNew     prometheus.Counter
	skips         *prometheus.CounterVec
	lowStockItems prometheus.Gauge
	cycleSeconds  prometheus.Histogram
}

func New() *Set {
	s := &Set{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "beans",
			Subsystem: "reconcile",
			Name:      "cycles_total",
			Help:      "Poll cycles by outcome.",
		}, []string{"outcome"}),
		ordersNew: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "beans",
			Subsystem: "reconcile",
			Name:      "orders_ingested_total",
			Help:      "Orders persisted for the first time.",
		}),
		skips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "beans",
			Subsystem: "deduction",
			Name:      "skips_total",
			Help:      "Line items or ingredients passed over during deduction, by reason.",
		}, []string{"reason"}),
		lowStockItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "beans",
			Subsystem: "inventory",
			Name:      "low_stock_items",
			Help:      "Items at or below par level in the latest snapshot.",
		}),
		cycleSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "beans",
			Subsystem: "reconcile",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a full poll cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	s.registry.MustRegister(s.cycles, s.ordersNew, s.skips, s.lowStockItems, s.cycleSeconds)
	return s
}

// ObserveCycle records the outcome of one poll cycle.
func (s *Set) ObserveCycle(report core.CycleReport, err error) {
	if err != nil {
		s.cycles.WithLabelValues("error").Inc()
		return
	}
	s.cycles.WithLabelValues("ok").Inc()
	s.ordersNew.Add(float64(report.New))
	s.lowStockItems.Set(float64(len(report.LowStock)))
	s.cycleSeconds.Observe(report.Duration.Seconds())
}

// ObserveDeduction records the skips of one deduction pass. report may be
// nil for an idempotent no-op completion.
func (s *Set) ObserveDeduction(report *core.DeductionReport) {
	if report == nil {
		return
	}
	for _, skip := range report.Skips {
		s.skips.WithLabelValues(string(skip.Reason)).Inc()
	}
}

// Handler serves the registry in Prometheus exposition format.
func (s *Set) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
