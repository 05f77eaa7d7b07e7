package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPCollector holds the Prometheus metrics for the HTTP surface
type HTTPCollector struct {
	registry *prometheus.Registry

	Requests    *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	PanelStates *prometheus.CounterVec
	PageSources *prometheus.CounterVec
}

// NewHTTPCollector creates a collector with its own registry
func NewHTTPCollector(namespace string) *HTTPCollector {
	registry := prometheus.NewRegistry()

	c := &HTTPCollector{
		registry: registry,
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		PanelStates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nft_details_responses_total",
				Help:      "NFT details panel responses by fetch state and visibility",
			},
			[]string{"state", "visible"},
		),
		PageSources: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "category_page_responses_total",
				Help:      "Category page responses by snapshot source",
			},
			[]string{"source"},
		),
	}

	registry.MustRegister(c.Requests, c.Duration, c.PanelStates, c.PageSources)
	return c
}

// Handler exposes the registry in the Prometheus text format
func (c *HTTPCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency by chi route pattern
func (c *HTTPCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		c.Requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.Duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// ObservePanel counts one NFT details response
func (c *HTTPCollector) ObservePanel(state string, visible bool) {
	c.PanelStates.WithLabelValues(state, strconv.FormatBool(visible)).Inc()
}

// ObservePage counts one category page response
func (c *HTTPCollector) ObservePage(source string) {
	c.PageSources.WithLabelValues(source).Inc()
}
