package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sol"

// Metrics holds the collectors for panels, predictions and the HTTP API. A
// nil *Metrics is valid and records nothing.
type Metrics struct {
	polls         *prometheus.CounterVec
	pollDuration  *prometheus.HistogramVec
	panelState    *prometheus.GaugeVec
	predictions   *prometheus.CounterVec
	journalWrites *prometheus.CounterVec
	wsClients     prometheus.Gauge
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New registers every collector with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		polls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_attempts_total",
			Help:      "Poll attempts by panel and outcome.",
		}, []string{"panel", "outcome"}),
		pollDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Duration of backend fetches by panel.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"panel"}),
		panelState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "panel_state",
			Help:      "Panel state (0 loading, 1 ready, 2 stale, 3 stopped).",
		}, []string{"panel"}),
		predictions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "On-demand prediction requests by outcome.",
		}, []string{"outcome"}),
		journalWrites: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_writes_total",
			Help:      "Reading journal inserts by outcome.",
		}, []string{"outcome"}),
		wsClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_clients",
			Help:      "Connected WebSocket clients.",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request duration by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObservePoll records one delivered attempt. outcome is "ok" or an error kind.
func (m *Metrics) ObservePoll(panel, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(panel, outcome).Inc()
	m.pollDuration.WithLabelValues(panel).Observe(d.Seconds())
}

// SetPanelState publishes a panel's state code.
func (m *Metrics) SetPanelState(panel string, code int) {
	if m == nil {
		return
	}
	m.panelState.WithLabelValues(panel).Set(float64(code))
}

// ObservePrediction counts an on-demand prediction.
func (m *Metrics) ObservePrediction(outcome string) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(outcome).Inc()
}

// ObserveJournalWrite counts a journal insert.
func (m *Metrics) ObserveJournalWrite(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.journalWrites.WithLabelValues(outcome).Inc()
}

// WSClients adjusts the connected client gauge by delta.
func (m *Metrics) WSClients(delta int) {
	if m == nil {
		return
	}
	m.wsClients.Add(float64(delta))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Hijack lets websocket upgrades pass through the recorder.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// Flush forwards to the underlying writer when it supports flushing.
func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware records request counts and durations keyed by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
