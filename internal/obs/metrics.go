package obs

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks application metrics using atomic counters.
type Metrics struct {
	requests        atomic.Int64
	cacheHits       atomic.Int64
	runs            atomic.Int64
	transportErrors atomic.Int64
	malformed       atomic.Int64
	logger          *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger,
	}
}

// IncRequests increments the total HTTP request counter.
func (m *Metrics) IncRequests() {
	m.requests.Add(1)
}

// IncCacheHits increments the cache hits counter.
func (m *Metrics) IncCacheHits() {
	m.cacheHits.Add(1)
}

// IncRuns increments the fare search run counter.
func (m *Metrics) IncRuns() {
	m.runs.Add(1)
}

// IncTransportErrors increments the failed upstream request counter.
func (m *Metrics) IncTransportErrors() {
	m.transportErrors.Add(1)
}

// IncMalformed increments the unparsable response counter.
func (m *Metrics) IncMalformed() {
	m.malformed.Add(1)
}

// Snapshot returns current metric values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Requests:           m.requests.Load(),
		CacheHits:          m.cacheHits.Load(),
		Runs:               m.runs.Load(),
		TransportErrors:    m.transportErrors.Load(),
		MalformedResponses: m.malformed.Load(),
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	Requests           int64
	CacheHits          int64
	Runs               int64
	TransportErrors    int64
	MalformedResponses int64
}

// HealthHandler returns a handler for /healthz requests.
func HealthHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write health response", "error", err)
		}
	}
}

// MetricsHandler returns a handler for /metrics requests in Prometheus format.
func (m *Metrics) MetricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.WriteHeader(http.StatusOK)

		if err := m.WritePrometheus(w); err != nil {
			m.logger.Error("failed to write metrics", "error", err)
		}
	}
}

// WritePrometheus writes every counter in the Prometheus text exposition format.
func (m *Metrics) WritePrometheus(w io.Writer) error {
	s := m.Snapshot()
	counters := []struct {
		name  string
		help  string
		value int64
	}{
		{"requests_total", "Total number of HTTP requests", s.Requests},
		{"cache_hits_total", "Total number of cache hits", s.CacheHits},
		{"fare_runs_total", "Total number of fare search runs", s.Runs},
		{"transport_errors_total", "Total number of failed upstream requests", s.TransportErrors},
		{"malformed_responses_total", "Total number of unparsable upstream responses", s.MalformedResponses},
	}

	for _, c := range counters {
		if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n", c.name, c.help, c.name, c.name, c.value); err != nil {
			return err
		}
	}
	return nil
}
