/*
Package metrics exposes Prometheus instrumentation for the HTTP boundary and
the purchase flow.

It registers a request counter, a latency histogram, and business counters for
room purchases and coupon grants on a dedicated registry served at /metrics.
*/
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	labelMethod = "method"
	labelPath   = "path"
	labelStatus = "status"
	labelResult = "result"

	defaultStatusCode = http.StatusOK
)

// Metrics bundles all Prometheus collectors used by the service.
type Metrics struct {
	registry *prometheus.Registry

	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec

	// Purchases counts purchase attempts by outcome ("success", "already_owned", ...).
	Purchases *prometheus.CounterVec

	// CouponsGranted totals coupons credited through the payment widget flow.
	CouponsGranted prometheus.Counter
}

// New creates a Metrics instance backed by its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{labelMethod, labelPath, labelStatus},
		),
		Latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP latency",
			},
			[]string{labelMethod, labelPath},
		),
		Purchases: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "room_purchases_total",
				Help: "Room purchase attempts by outcome",
			},
			[]string{labelResult},
		),
		CouponsGranted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "coupons_granted_total",
				Help: "Coupons credited via payment confirmations",
			},
		),
	}

	reg.MustRegister(m.Requests, m.Latency, m.Purchases, m.CouponsGranted)
	return m
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack delegates to the underlying writer. WebSocket upgrades assert
// http.Hijacker on the writer they are handed, so the wrapper must expose it.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("underlying response writer does not support hijacking")
	}
	return hj.Hijack()
}

// Flush delegates to the underlying writer when it supports streaming.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware instruments every request with the counter and latency histogram.
// pathLabel maps a request to a bounded label value (e.g. the chi route pattern)
// so raw URLs with ids do not explode the cardinality.
func (m *Metrics) Middleware(pathLabel func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{
				ResponseWriter: w,
				status:         defaultStatusCode,
			}

			start := time.Now()
			next.ServeHTTP(sw, r)

			path := pathLabel(r)
			m.Latency.WithLabelValues(r.Method, path).
				Observe(time.Since(start).Seconds())

			m.Requests.WithLabelValues(r.Method, path, strconv.Itoa(sw.status)).
				Inc()
		})
	}
}
