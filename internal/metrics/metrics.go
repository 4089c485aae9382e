// Package metrics exposes roster counters and request latencies to Prometheus.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/route-roster/backend/internal/domain"
)

type Metrics struct {
	gatherer    prometheus.Gatherer
	operations  *prometheus.CounterVec
	pairSkipped prometheus.Counter
	requests    *prometheus.HistogramVec
}

// New registers the collectors on reg. Collectors that are already registered are reused.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_operations_total",
		Help: "Roster mutations by operation and outcome",
	}, []string{"operation", "outcome"})
	pairSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roster_pair_skipped_total",
		Help: "Route assignments whose paired route was left to another employee",
	})
	requests := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "roster_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	if err := register(reg, &operations); err != nil {
		return nil, err
	}
	if err := register(reg, &pairSkipped); err != nil {
		return nil, err
	}
	if err := register(reg, &requests); err != nil {
		return nil, err
	}

	return &Metrics{gatherer: reg, operations: operations, pairSkipped: pairSkipped, requests: requests}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c *C) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return err
		}
		*c = are.ExistingCollector.(C)
	}
	return nil
}

// Outcome classifies an operation error the way clients see it.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}

func (m *Metrics) Operation(name string, err error) {
	m.operations.WithLabelValues(name, Outcome(err)).Inc()
}

func (m *Metrics) PairSkipped() {
	m.pairSkipped.Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
