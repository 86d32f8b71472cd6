// Package metrics exports Prometheus collectors for the dashboard backend.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "teamboard"

var histogramBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// Metrics holds every collector. Its methods satisfy the observer
// interfaces of the broadcast registry and the change watcher.
type Metrics struct {
	registry *prometheus.Registry

	streamClients   prometheus.Gauge
	eventsSent      *prometheus.CounterVec
	sendFailures    *prometheus.CounterVec
	clientsRemoved  *prometheus.CounterVec
	fileEvents      *prometheus.CounterVec
	reloadFailures  *prometheus.CounterVec
	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates the collectors on a private registry, alongside the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		streamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "clients",
			Help:      "Number of connected streaming clients",
		}),
		eventsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "events_delivered_total",
			Help:      "Events delivered to streaming clients, by event name",
		}, []string{"event"}),
		sendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "send_failures_total",
			Help:      "Failed event deliveries, by event name",
		}, []string{"event"}),
		clientsRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "clients_removed_total",
			Help:      "Streaming clients removed from the registry, by reason",
		}, []string{"reason"}),
		fileEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watcher",
			Name:      "file_events_total",
			Help:      "Settled file changes handled by the watcher, by kind",
		}, []string{"kind"}),
		reloadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watcher",
			Name:      "reload_failures_total",
			Help:      "Reloads that failed after a file change, by kind",
		}, []string{"kind"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Count of processed HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency distribution of HTTP handlers",
			Buckets:   histogramBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.streamClients,
		m.eventsSent,
		m.sendFailures,
		m.clientsRemoved,
		m.fileEvents,
		m.reloadFailures,
		m.requestTotal,
		m.requestDuration,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ClientsChanged records the current number of streaming clients.
func (m *Metrics) ClientsChanged(n int) {
	m.streamClients.Set(float64(n))
}

// EventBroadcast records one fan-out pass.
func (m *Metrics) EventBroadcast(event string, delivered, failed int) {
	m.eventsSent.WithLabelValues(event).Add(float64(delivered))
	if failed > 0 {
		m.sendFailures.WithLabelValues(event).Add(float64(failed))
	}
}

// ClientRemoved records why a client left the registry.
func (m *Metrics) ClientRemoved(reason string) {
	m.clientsRemoved.WithLabelValues(reason).Inc()
}

// FileEvent records a settled file change of the given kind.
func (m *Metrics) FileEvent(kind string) {
	m.fileEvents.WithLabelValues(kind).Inc()
}

// ReloadFailed records a reload error after a file change.
func (m *Metrics) ReloadFailed(kind string) {
	m.reloadFailures.WithLabelValues(kind).Inc()
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	labels := prometheus.Labels{
		"method": method,
		"route":  route,
		"status": strconv.Itoa(status),
	}
	m.requestTotal.With(labels).Inc()
	m.requestDuration.With(labels).Observe(d.Seconds())
}
