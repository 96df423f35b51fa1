// Package metrics — счётчики Prometheus по разбору архивов.
// В режиме analyze пишутся в textfile, в режиме watch отдаются по HTTP.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vpnlogsift"

// Metrics — набор метрик на собственном реестре
type Metrics struct {
	Registry *prometheus.Registry

	LinesTotal        prometheus.Counter
	LinesDroppedTotal *prometheus.CounterVec // reason: no_timestamp | out_of_range
	EventsTotal       *prometheus.CounterVec // event_type
	SessionsTotal     *prometheus.CounterVec // outcome
	BundlesTotal      *prometheus.CounterVec // status: ok | error
	ConnectSeconds    prometheus.Histogram
}

// New регистрирует метрики в новом реестре
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		LinesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_total",
			Help:      "Total number of log lines read.",
		}),
		LinesDroppedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_dropped_total",
			Help:      "Log lines excluded from the event stream, by reason.",
		}, []string{"reason"}),
		EventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Classified events by event type.",
		}, []string{"event_type"}),
		SessionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Reconstructed connection attempts by outcome.",
		}, []string{"outcome"}),
		BundlesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bundles_total",
			Help:      "Log bundles handled, by status.",
		}, []string{"status"}),
		ConnectSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "connect_seconds",
			Help:      "Time from session start to tunnel up.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms .. ~2m
		}),
	}
}

// WriteTextfile сохраняет текущие значения в формате textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

// Handler — HTTP-обработчик /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
