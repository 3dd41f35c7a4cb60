// Package metrics expone contadores de asignación en formato Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder implementa inventory.Recorder sobre un registro propio.
type Recorder struct {
	registry *prometheus.Registry
	outcomes *prometheus.CounterVec
	quantity *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewRecorder registra las métricas de asignación y las del proceso Go.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "granja",
			Subsystem: "allocation",
			Name:      "requests_total",
			Help:      "Solicitudes de asignación por tipo de producto y resultado.",
		}, []string{"product_type", "outcome"}),
		quantity: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "granja",
			Subsystem: "allocation",
			Name:      "quantity_total",
			Help:      "Cantidad asignada con éxito por tipo de producto.",
		}, []string{"product_type"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "granja",
			Subsystem: "allocation",
			Name:      "duration_seconds",
			Help:      "Duración de la asignación (incluye reintentos).",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		r.outcomes, r.quantity, r.latency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveAllocation registra una solicitud terminada.
func (r *Recorder) ObserveAllocation(productType, outcome string, quantity, seconds float64) {
	if productType == "" {
		productType = "unknown"
	}
	r.outcomes.WithLabelValues(productType, outcome).Inc()
	if outcome == "allocated" && quantity > 0 {
		r.quantity.WithLabelValues(productType).Add(quantity)
	}
	r.latency.WithLabelValues(outcome).Observe(seconds)
}

// Registry registro subyacente (para pruebas o colectores adicionales).
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler handler HTTP de exposición (/metrics).
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
