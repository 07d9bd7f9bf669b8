package feeds

import "time"

type CalendarSynced struct {
	PropertyID     string
	SubscriptionID string
	Events         int
	At             time.Time
}

func (e CalendarSynced) EventName() string     { return "calendar.synced" }
func (e CalendarSynced) AggregateID() string   { return e.PropertyID }
func (e CalendarSynced) OccurredAt() time.Time { return e.At }

type CalendarSyncFailed struct {
	PropertyID     string
	SubscriptionID string
	Cause          string
	At             time.Time
}

func (e CalendarSyncFailed) EventName() string     { return "calendar.sync_failed" }
func (e CalendarSyncFailed) AggregateID() string   { return e.PropertyID }
func (e CalendarSyncFailed) OccurredAt() time.Time { return e.At }

type ConflictDetected struct {
	PropertyID string
	Runs       int
	At         time.Time
}

func (e ConflictDetected) EventName() string     { return "calendar.conflict_detected" }
func (e ConflictDetected) AggregateID() string   { return e.PropertyID }
func (e ConflictDetected) OccurredAt() time.Time { return e.At }
