// Package metrics holds the relay's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "relay"

// Metrics is a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	Events           *prometheus.CounterVec
	Outcomes         *prometheus.CounterVec
	SendAttempts     *prometheus.CounterVec
	AutoDisabled     prometheus.Counter
	DeliveryDuration *prometheus.HistogramVec
	QueueDepth       prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Inbound events accepted, by kind.",
		}, []string{"kind"}),
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outcomes_total",
			Help:      "Terminal per-pair outcomes, by pair and state.",
		}, []string{"pair_id", "state"}),
		SendAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_attempts_total",
			Help:      "Transport calls made, including retries.",
		}, []string{"op"}),
		AutoDisabled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairs_auto_disabled_total",
			Help:      "Pairs disabled after repeated delivery failures.",
		}),
		DeliveryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "delivery_duration_seconds",
			Help:      "Time from first attempt to final result of a transport call.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"op"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dispatch_queue_depth",
			Help:      "Events waiting in dispatcher queues.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Events,
		m.Outcomes,
		m.SendAttempts,
		m.AutoDisabled,
		m.DeliveryDuration,
		m.QueueDepth,
	)
	return m
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Outcome counts one terminal state for a pair.
func (m *Metrics) Outcome(pairID int64, state string) {
	m.Outcomes.WithLabelValues(strconv.FormatInt(pairID, 10), state).Inc()
}

// ObserveDelivery records the duration of a transport call since start.
func (m *Metrics) ObserveDelivery(op string, start time.Time) {
	m.DeliveryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
