package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"staycal/internal/app/policies"
	"staycal/internal/domain/shared/events"
)

// EventPublisher forwards calendar domain events to Kafka, one topic
// per event name. Delivery problems are logged and swallowed: the
// operation that produced the event has already committed.
type EventPublisher struct {
	Producer    *Producer
	TopicPrefix string
	Logger      *slog.Logger
}

type eventEnvelope struct {
	Name       string          `json:"name"`
	Aggregate  string          `json:"aggregate_id"`
	OccurredAt string          `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

func (p EventPublisher) Publish(ctx context.Context, event events.DomainEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logError("encode event", event, err)
		return
	}
	envelope, err := json.Marshal(eventEnvelope{
		Name:       event.EventName(),
		Aggregate:  event.AggregateID(),
		OccurredAt: event.OccurredAt().UTC().Format("2006-01-02T15:04:05Z07:00"),
		Payload:    payload,
	})
	if err != nil {
		p.logError("encode envelope", event, err)
		return
	}
	topic := p.TopicPrefix + event.EventName()
	if err := p.Producer.Publish(ctx, topic, event.AggregateID(), envelope, nil); err != nil {
		p.logError("publish event", event, err)
	}
}

func (p EventPublisher) logError(stage string, event events.DomainEvent, err error) {
	if p.Logger != nil {
		p.Logger.Error("kafka event dropped", "stage", stage, "event", event.EventName(), "aggregate_id", event.AggregateID(), "error", err)
	}
}

var _ policies.EventPublisher = EventPublisher{}
