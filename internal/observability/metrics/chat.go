package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ChatMetrics covers the api process: HTTP surface plus per-turn
// conversation counters.
type ChatMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	turnsTotal        *prometheus.CounterVec
	turnDuration      *prometheus.HistogramVec
	retrievalOutcomes *prometheus.CounterVec
}

func NewChatMetrics(service string) *ChatMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "orgassist",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "orgassist",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "orgassist",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	turnsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "orgassist",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total conversation turns by result and augmentation.",
		},
		[]string{"service", "status", "augmentation"},
	)
	turnDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "orgassist",
			Subsystem: "chat",
			Name:      "turn_duration_seconds",
			Help:      "End-to-end conversation turn duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"service"},
	)
	retrievalOutcomes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "orgassist",
			Subsystem: "chat",
			Name:      "retrieval_outcomes_total",
			Help:      "Retrieval outcomes per turn: hit, filtered or error.",
		},
		[]string{"service", "outcome"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		turnsTotal,
		turnDuration,
		retrievalOutcomes,
	)

	return &ChatMetrics{
		registry:          registry,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		turnsTotal:        turnsTotal,
		turnDuration:      turnDuration,
		retrievalOutcomes: retrievalOutcomes,
	}
}

func (m *ChatMetrics) ObserveRequest(service, method, path string, status int, elapsed time.Duration) {
	m.requestTotal.WithLabelValues(service, method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(service, method, path).Observe(elapsed.Seconds())
}

func (m *ChatMetrics) RequestStarted()  { m.requestInFlight.Inc() }
func (m *ChatMetrics) RequestFinished() { m.requestInFlight.Dec() }

func (m *ChatMetrics) ObserveTurn(service, status, augmentation string, elapsed time.Duration) {
	m.turnsTotal.WithLabelValues(service, status, augmentation).Inc()
	m.turnDuration.WithLabelValues(service).Observe(elapsed.Seconds())
}

func (m *ChatMetrics) ObserveRetrieval(service, outcome string) {
	m.retrievalOutcomes.WithLabelValues(service, outcome).Inc()
}

func (m *ChatMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
