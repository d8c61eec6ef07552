// README: Prometheus collectors for quotes, orders and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"benne/internal/modules/pricing"
)

const namespace = "benne"

const (
	FallbackWasteType = "waste_type"
	FallbackDistance  = "distance"
)

type Metrics struct {
	registry *prometheus.Registry

	quotes           *prometheus.CounterVec
	quoteFallbacks   *prometheus.CounterVec
	quoteTotal       prometheus.Histogram
	orderTransitions *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New registers every collector on a fresh registry, plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Quotes computed, by container service.",
		}, []string{"service"}),
		quoteFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_fallbacks_total",
			Help:      "Quotes that used a default tariff or the fallback distance.",
		}, []string{"kind"}),
		quoteTotal: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_total_ttc_euros",
			Help:      "Distribution of quoted totals including VAT.",
			Buckets:   []float64{200, 400, 600, 800, 1000, 1500, 2000, 3000, 5000},
		}),
		orderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Order status transitions, by target status.",
		}, []string{"status"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.registry.MustRegister(
		m.quotes, m.quoteFallbacks, m.quoteTotal, m.orderTransitions,
		m.httpRequests, m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveQuote(res pricing.QuoteResult) {
	m.quotes.WithLabelValues(res.Details.ServiceID).Inc()
	if res.Details.WasteTypeDefaulted {
		m.quoteFallbacks.WithLabelValues(FallbackWasteType).Inc()
	}
	if res.Details.DistanceSource == pricing.SourceFallback {
		m.quoteFallbacks.WithLabelValues(FallbackDistance).Inc()
	}
	m.quoteTotal.Observe(res.Totals.TotalTTC.Float())
}

func (m *Metrics) ObserveTransition(status string) {
	m.orderTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, code int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
