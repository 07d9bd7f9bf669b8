package events

import "time"

// DomainEvent is implemented by every calendar-related event the core
// emits after a successful commit.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}
