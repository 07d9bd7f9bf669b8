package policies

import (
	"context"

	"staycal/internal/domain/shared/events"
)

// EventPublisher receives domain events after the unit of work that
// produced them has committed. Implementations must not fail the
// calling operation; delivery problems are theirs to log.
type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent)
}

// NoopEvents discards events; used when no broker is configured.
type NoopEvents struct{}

func (NoopEvents) Publish(context.Context, events.DomainEvent) {}
