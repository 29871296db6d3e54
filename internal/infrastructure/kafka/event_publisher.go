package kafka

import (
	"context"

	"github.com/wms-platform/inventory-ops-service/internal/domain"
	pkgkafka "github.com/wms-platform/inventory-ops-service/pkg/kafka"
)

// EventPublisher publishes domain events to the inventory events topic.
type EventPublisher struct {
	producer *pkgkafka.Producer
}

// NewEventPublisher wraps a Kafka producer as a domain event publisher.
func NewEventPublisher(producer *pkgkafka.Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// Publish sends a single domain event keyed by subject.
func (p *EventPublisher) Publish(ctx context.Context, tenantID, subject string, event domain.DomainEvent) error {
	return p.producer.Publish(ctx, pkgkafka.TopicInventoryEvents, event.EventType(), tenantID, subject, event)
}
