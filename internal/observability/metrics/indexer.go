package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// IndexerMetrics covers corpus ingestion and index rebuilds.
type IndexerMetrics struct {
	registry *prometheus.Registry

	buildTotal     *prometheus.CounterVec
	buildDuration  *prometheus.HistogramVec
	chunksIndexed  prometheus.Gauge
	sourcesSkipped *prometheus.CounterVec
}

func NewIndexerMetrics(service string) *IndexerMetrics {
	registry := prometheus.NewRegistry()

	buildTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "orgassist",
			Subsystem: "indexer",
			Name:      "builds_total",
			Help:      "Total index builds by status.",
		},
		[]string{"service", "status"},
	)
	buildDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "orgassist",
			Subsystem: "indexer",
			Name:      "build_duration_seconds",
			Help:      "Index build duration in seconds by status.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"service", "status"},
	)
	chunksIndexed := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "orgassist",
			Subsystem: "indexer",
			Name:      "chunks_indexed",
			Help:      "Chunks in the currently active index.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	sourcesSkipped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "orgassist",
			Subsystem: "indexer",
			Name:      "sources_skipped_total",
			Help:      "Corpus sources skipped during ingestion.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		buildTotal,
		buildDuration,
		chunksIndexed,
		sourcesSkipped,
	)

	return &IndexerMetrics{
		registry:       registry,
		buildTotal:     buildTotal,
		buildDuration:  buildDuration,
		chunksIndexed:  chunksIndexed,
		sourcesSkipped: sourcesSkipped,
	}
}

func (m *IndexerMetrics) ObserveBuild(service, status string, elapsed time.Duration) {
	m.buildTotal.WithLabelValues(service, status).Inc()
	m.buildDuration.WithLabelValues(service, status).Observe(elapsed.Seconds())
}

func (m *IndexerMetrics) SetChunksIndexed(n int) {
	m.chunksIndexed.Set(float64(n))
}

func (m *IndexerMetrics) AddSourcesSkipped(service string, n int) {
	m.sourcesSkipped.WithLabelValues(service).Add(float64(n))
}

func (m *IndexerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
