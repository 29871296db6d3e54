package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"

	"github.com/wms-platform/inventory-ops-service/pkg/logging"
)

// EventEnvelope is the wire format for published domain events.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Subject       string          `json:"subject,omitempty"`
	TenantID      string          `json:"tenantId"`
	CorrelationID string          `json:"correlationId,omitempty"`
	Time          time.Time       `json:"time"`
	Data          json.RawMessage `json:"data"`
}

// Producer publishes event envelopes to Kafka behind a circuit breaker.
// When the breaker is open publishes fail fast so ledger writes are never
// held hostage by a broker outage.
type Producer struct {
	writer  *kafka.Writer
	breaker *gobreaker.CircuitBreaker
	source  string
	logger  *slog.Logger
}

// NewProducer builds a Kafka producer for the given source service.
func NewProducer(cfg Config, source string, logger *slog.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		MaxAttempts:  cfg.MaxAttempts,
	}

	settings := gobreaker.Settings{
		Name:        "kafka-producer",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("kafka circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}

	return &Producer{
		writer:  writer,
		breaker: gobreaker.NewCircuitBreaker(settings),
		source:  source,
		logger:  logger,
	}
}

// Publish serializes data into an envelope and writes it to the topic,
// keyed by subject so events for one entity stay ordered.
func (p *Producer) Publish(ctx context.Context, topic, eventType, tenantID, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling event data: %w", err)
	}

	envelope := EventEnvelope{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        p.source,
		Subject:       subject,
		TenantID:      tenantID,
		CorrelationID: logging.CorrelationIDFromContext(ctx),
		Time:          time.Now().UTC(),
		Data:          payload,
	}

	value, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshaling event envelope: %w", err)
	}

	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.writer.WriteMessages(ctx, kafka.Message{
			Topic: topic,
			Key:   []byte(subject),
			Value: value,
			Headers: []kafka.Header{
				{Key: "event-type", Value: []byte(eventType)},
				{Key: "tenant-id", Value: []byte(tenantID)},
			},
		})
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return fmt.Errorf("kafka circuit breaker open: %w", err)
		}
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
