package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/velvetcart/secauth"
)

// httpMetrics instruments the router with per-route counters and
// latency histograms.
type httpMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newHTTPMetrics(reg prometheus.Registerer) *httpMetrics {
	return &httpMetrics{
		requests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "secauth",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served, by route pattern and status.",
		}, []string{"method", "route", "status"}),
		duration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "secauth",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency, by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *httpMetrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// EngineCollector exports the engine's internal counters through a
// prometheus registry, so /metrics shows login and session activity
// next to the HTTP numbers.
type EngineCollector struct {
	engine  *secauth.Engine
	events  *prometheus.Desc
	dropped *prometheus.Desc
}

// NewEngineCollector wraps the engine for registry registration.
func NewEngineCollector(engine *secauth.Engine) *EngineCollector {
	return &EngineCollector{
		engine: engine,
		events: prometheus.NewDesc(
			"secauth_engine_events_total",
			"Authentication engine events, by event name.",
			[]string{"event"}, nil,
		),
		dropped: prometheus.NewDesc(
			"secauth_audit_dropped_total",
			"Audit events dropped because the sink was full.",
			nil, nil,
		),
	}
}

func (c *EngineCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.events
	ch <- c.dropped
}

func (c *EngineCollector) Collect(ch chan<- prometheus.Metric) {
	snapshot := c.engine.MetricsSnapshot()
	for id, value := range snapshot.Counters {
		if id == secauth.MetricValidateLatency {
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.events, prometheus.CounterValue, float64(value), id.String())
	}
	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(c.engine.AuditDropped()))
}
