// Package metrics holds the Prometheus collectors for the auth service.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tgauth"

type Metrics struct {
	gatherer prometheus.Gatherer

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	handshakeBegin    prometheus.Counter
	handshakeComplete *prometheus.CounterVec
	handshakePoll     *prometheus.CounterVec
	signIn            *prometheus.CounterVec
	sessionGuard      *prometheus.CounterVec
}

// New registers every collector with reg. Pass prometheus.NewRegistry() in
// tests to avoid clashing with the default registry.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,

		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),

		handshakeBegin: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshake_begin_total",
			Help:      "Pairing sessions started.",
		}),
		handshakeComplete: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshake_complete_total",
			Help:      "Bot completion attempts by outcome.",
		}, []string{"outcome"}),
		handshakePoll: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshake_poll_total",
			Help:      "Poll requests by reported status.",
		}, []string{"status"}),
		signIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signin_total",
			Help:      "Direct sign-in attempts by outcome.",
		}, []string{"outcome"}),
		sessionGuard: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_guard_total",
			Help:      "Protected request authentications by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.httpInFlight, m.httpRequestsTotal, m.httpRequestDuration,
		m.handshakeBegin, m.handshakeComplete, m.handshakePoll,
		m.signIn, m.sessionGuard,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) HandshakeBegun() {
	if m == nil {
		return
	}
	m.handshakeBegin.Inc()
}

func (m *Metrics) HandshakeCompleted(outcome string) {
	if m == nil {
		return
	}
	m.handshakeComplete.WithLabelValues(outcome).Inc()
}

func (m *Metrics) HandshakePolled(status string) {
	if m == nil {
		return
	}
	m.handshakePoll.WithLabelValues(status).Inc()
}

func (m *Metrics) SignedIn(outcome string) {
	if m == nil {
		return
	}
	m.signIn.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SessionGuarded(outcome string) {
	if m == nil {
		return
	}
	m.sessionGuard.WithLabelValues(outcome).Inc()
}

// Instrument records RPS, latency and in-flight requests. It must wrap the
// ServeMux directly so the matched route pattern is visible afterwards.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(sw.code)

		m.httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code        int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.code = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
