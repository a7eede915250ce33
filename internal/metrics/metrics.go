// Package metrics provides Prometheus metrics for a generation run.
//
// A batch run writes its metrics once to a node-exporter textfile; the
// serve command exposes the same registry over HTTP.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the run's metric collectors. A nil *Manager is valid and
// records nothing.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	tickersFetched   prometheus.Counter
	tickersSkipped   prometheus.Counter
	observations     prometheus.Counter
	fetchDuration    prometheus.Histogram
	chartsBuilt      *prometheus.CounterVec
	artifactsWritten *prometheus.CounterVec
	eventsApplied    *prometheus.CounterVec
	pageBytes        prometheus.Gauge
}

// NewManager creates a manager with its own registry unless one is supplied.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "ledstory",
		histogramBuckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	m.tickersFetched = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "market",
		Name:      "tickers_fetched_total",
		Help:      "Tickers whose history returned at least one row.",
	})
	m.tickersSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "market",
		Name:      "tickers_skipped_total",
		Help:      "Tickers skipped because the provider had no history.",
	})
	m.observations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "market",
		Name:      "observations_total",
		Help:      "Daily observations written to the snapshot.",
	})
	m.fetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "market",
		Name:      "fetch_duration_seconds",
		Help:      "Latency of one ticker history fetch.",
		Buckets:   m.histogramBuckets,
	})
	m.chartsBuilt = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "compose",
		Name:      "charts_built_total",
		Help:      "Charts composed and validated.",
	}, []string{"chart"})
	m.artifactsWritten = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "artifact",
		Name:      "written_total",
		Help:      "Files written to the output directory.",
	}, []string{"kind"})
	m.eventsApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "engine",
		Name:      "events_applied_total",
		Help:      "Interaction events applied by the evaluator.",
	}, []string{"kind"})
	m.pageBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "page",
		Name:      "bytes",
		Help:      "Size of the last assembled narrative page.",
	})

	m.registry.MustRegister(
		m.tickersFetched,
		m.tickersSkipped,
		m.observations,
		m.fetchDuration,
		m.chartsBuilt,
		m.artifactsWritten,
		m.eventsApplied,
		m.pageBytes,
	)
}

// Registry returns the registry the collectors live in.
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// TickerFetched records a ticker with rows and the fetch latency.
func (m *Manager) TickerFetched(d time.Duration) {
	if m == nil {
		return
	}
	m.tickersFetched.Inc()
	m.fetchDuration.Observe(d.Seconds())
}

// TickerSkipped records a ticker without history and the fetch latency.
func (m *Manager) TickerSkipped(d time.Duration) {
	if m == nil {
		return
	}
	m.tickersSkipped.Inc()
	m.fetchDuration.Observe(d.Seconds())
}

// ObservationsStored adds n written observations.
func (m *Manager) ObservationsStored(n int) {
	if m == nil {
		return
	}
	m.observations.Add(float64(n))
}

// ChartBuilt records one composed chart.
func (m *Manager) ChartBuilt(chart string) {
	if m == nil {
		return
	}
	m.chartsBuilt.WithLabelValues(chart).Inc()
}

// ArtifactWritten records one written file of the given kind
// ("spec", "document", "manifest", "page", "asset").
func (m *Manager) ArtifactWritten(kind string) {
	if m == nil {
		return
	}
	m.artifactsWritten.WithLabelValues(kind).Inc()
}

// EventApplied records one evaluator event of the given kind.
func (m *Manager) EventApplied(kind string) {
	if m == nil {
		return
	}
	m.eventsApplied.WithLabelValues(kind).Inc()
}

// PageAssembled records the size of the assembled page.
func (m *Manager) PageAssembled(bytes int) {
	if m == nil {
		return
	}
	m.pageBytes.Set(float64(bytes))
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (m *Manager) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

// Handler serves the registry over HTTP.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
