package feeds

import (
	"context"
	"errors"
	"time"
)

var (
	ErrSubscriptionNotFound = errors.New("feeds: subscription not found")
	ErrNameRequired         = errors.New("feeds: calendar name required")
	ErrURLRequired          = errors.New("feeds: feed url required")
)

// Subscription is an external occupancy calendar (OTA, channel
// manager) a property follows. The sync engine is the only writer of
// LastSyncAt, LastSyncError and TotalEvents.
type Subscription struct {
	ID         string
	PropertyID string
	Name       string
	FeedURL    string
	Enabled    bool
	LastSyncAt time.Time
	// LastSyncError holds the diagnostic of the most recent failed
	// sync, empty after a successful one.
	LastSyncError string
	// TotalEvents is the event count of the last successful fetch.
	TotalEvents int
	CreatedAt   time.Time
}

type Repository interface {
	ByID(ctx context.Context, id string) (*Subscription, error)
	// ByProperty returns a property's subscriptions ordered by creation.
	ByProperty(ctx context.Context, propertyID string) ([]*Subscription, error)
	Save(ctx context.Context, sub *Subscription) error
	Delete(ctx context.Context, propertyID, id string) error
	// PropertiesWithEnabled lists the distinct property ids that have at
	// least one enabled subscription. Used by the periodic sync runner.
	PropertiesWithEnabled(ctx context.Context) ([]string, error)
}
