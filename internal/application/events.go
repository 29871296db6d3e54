package application

import (
	"context"
	"log/slog"

	"github.com/wms-platform/inventory-ops-service/internal/domain"
	"github.com/wms-platform/inventory-ops-service/pkg/logging"
)

// EventPublisher emits domain events to the outside world. Publishing is
// best-effort: the ledger write has already happened when events go out.
type EventPublisher interface {
	Publish(ctx context.Context, tenantID, subject string, event domain.DomainEvent) error
}

// publishEvents sends events after a successful state change, logging
// failures instead of propagating them.
func publishEvents(ctx context.Context, publisher EventPublisher, logger *slog.Logger, tenantID, subject string, events []domain.DomainEvent) {
	if publisher == nil {
		return
	}
	for _, event := range events {
		if err := publisher.Publish(ctx, tenantID, subject, event); err != nil {
			logging.WithContext(ctx, logger).Warn("failed to publish event",
				slog.String("eventType", event.EventType()),
				slog.String("subject", subject),
				slog.String("error", err.Error()),
			)
		}
	}
}
