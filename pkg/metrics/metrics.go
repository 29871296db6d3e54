package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the service.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// MongoDB
	mongoOperationsTotal   *prometheus.CounterVec
	mongoOperationDuration *prometheus.HistogramVec

	// Kafka
	kafkaMessagesPublished *prometheus.CounterVec
	kafkaPublishErrors     *prometheus.CounterVec

	// Business
	movementsApplied      *prometheus.CounterVec
	versionConflicts      *prometheus.CounterVec
	wavesPlanned          prometheus.Counter
	wavesCompleted        prometheus.Counter
	waveStopsPlanned      prometheus.Histogram
	suggestionsCreated    *prometheus.CounterVec
	suggestionsExecuted   *prometheus.CounterVec
	cycleCountAdjustments *prometheus.CounterVec
}

// New creates a metrics set registered on a fresh registry.
func New(service string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	constLabels := prometheus.Labels{"service": service}

	return &Metrics{
		registry: registry,

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total HTTP requests processed",
			ConstLabels: constLabels,
		}, []string{"method", "path", "status"}),

		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency",
			ConstLabels: constLabels,
			Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "path"}),

		mongoOperationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "mongodb_operations_total",
			Help:        "Total MongoDB operations",
			ConstLabels: constLabels,
		}, []string{"operation", "collection", "status"}),

		mongoOperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "mongodb_operation_duration_seconds",
			Help:        "MongoDB operation latency",
			ConstLabels: constLabels,
			Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation", "collection"}),

		kafkaMessagesPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "kafka_messages_published_total",
			Help:        "Total events published to Kafka",
			ConstLabels: constLabels,
		}, []string{"topic", "event_type"}),

		kafkaPublishErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "kafka_publish_errors_total",
			Help:        "Total Kafka publish failures",
			ConstLabels: constLabels,
		}, []string{"topic"}),

		movementsApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "inventory_movements_applied_total",
			Help:        "Inventory movements applied to the ledger",
			ConstLabels: constLabels,
		}, []string{"type"}),

		versionConflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "inventory_version_conflicts_total",
			Help:        "Optimistic concurrency conflicts by resolution outcome",
			ConstLabels: constLabels,
		}, []string{"outcome"}),

		wavesPlanned: factory.NewCounter(prometheus.CounterOpts{
			Name:        "waves_planned_total",
			Help:        "Pick waves successfully planned",
			ConstLabels: constLabels,
		}),

		wavesCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name:        "waves_completed_total",
			Help:        "Pick waves fully executed",
			ConstLabels: constLabels,
		}),

		waveStopsPlanned: factory.NewHistogram(prometheus.HistogramOpts{
			Name:        "wave_stops_planned",
			Help:        "Pick stops per planned wave",
			ConstLabels: constLabels,
			Buckets:     []float64{1, 5, 10, 25, 50, 100, 250},
		}),

		suggestionsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "suggestions_created_total",
			Help:        "Replenishment and slotting suggestions created",
			ConstLabels: constLabels,
		}, []string{"engine"}),

		suggestionsExecuted: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "suggestions_executed_total",
			Help:        "Replenishment and slotting suggestions executed",
			ConstLabels: constLabels,
		}, []string{"engine"}),

		cycleCountAdjustments: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "cycle_count_adjustments_total",
			Help:        "Ledger adjustments produced by cycle count reviews",
			ConstLabels: constLabels,
		}, []string{"direction"}),
	}
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *Metrics) RecordMongoOperation(operation, collection string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.mongoOperationsTotal.WithLabelValues(operation, collection, status).Inc()
	m.mongoOperationDuration.WithLabelValues(operation, collection).Observe(duration.Seconds())
}

func (m *Metrics) RecordKafkaPublish(topic, eventType string) {
	m.kafkaMessagesPublished.WithLabelValues(topic, eventType).Inc()
}

func (m *Metrics) RecordKafkaPublishError(topic string) {
	m.kafkaPublishErrors.WithLabelValues(topic).Inc()
}

func (m *Metrics) RecordMovementApplied(movementType string) {
	m.movementsApplied.WithLabelValues(movementType).Inc()
}

// RecordVersionConflict tracks a CAS miss. Outcome is "retried" when the
// operation was re-attempted and "exhausted" when retries ran out.
func (m *Metrics) RecordVersionConflict(outcome string) {
	m.versionConflicts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordWavePlanned(stops int) {
	m.wavesPlanned.Inc()
	m.waveStopsPlanned.Observe(float64(stops))
}

func (m *Metrics) RecordWaveCompleted() {
	m.wavesCompleted.Inc()
}

func (m *Metrics) RecordSuggestionCreated(engine string) {
	m.suggestionsCreated.WithLabelValues(engine).Inc()
}

func (m *Metrics) RecordSuggestionExecuted(engine string) {
	m.suggestionsExecuted.WithLabelValues(engine).Inc()
}

func (m *Metrics) RecordCycleCountAdjustment(direction string) {
	m.cycleCountAdjustments.WithLabelValues(direction).Inc()
}
