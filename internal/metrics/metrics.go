package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upstream outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeBadStatus = "bad_status"
	OutcomeNoRates   = "no_rates"
	OutcomeError     = "error"
)

// UnmatchedRoute labels requests no route matched, keeping label cardinality
// bounded.
const UnmatchedRoute = "unmatched"


// Metrics holds all application metrics. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Upstream metrics
	UpstreamRequestsTotal   *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec
	FallbacksTotal          prometheus.Counter

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		UpstreamRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fx_upstream_requests_total",
				Help: "Upstream rate source requests by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		UpstreamRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fx_upstream_request_duration_seconds",
				Help:    "Upstream rate source latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		FallbacksTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "fx_upstream_fallbacks_total",
			Help: "Number of times the fallback rate source was queried",
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "fx_cache_hits_total",
			Help: "Rate payloads served from cache",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "fx_cache_misses_total",
			Help: "Rate payload lookups that missed the cache",
		}),
	}
}

func (m *Metrics) ObserveUpstream(source, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequestsTotal.WithLabelValues(source, outcome).Inc()
	m.UpstreamRequestDuration.WithLabelValues(source).Observe(d.Seconds())
}

func (m *Metrics) Fallback() {
	if m == nil {
		return
	}
	m.FallbacksTotal.Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.Inc()
		return
	}
	m.CacheMisses.Inc()
}

// Middleware records request count and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := UnmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
