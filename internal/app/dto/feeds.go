package dto

import (
	"staycal/internal/domain/feeds"
)

type Subscription struct {
	ID            string `json:"id"`
	PropertyID    string `json:"property_id"`
	Name          string `json:"calendar_name"`
	FeedURL       string `json:"feed_url"`
	Enabled       bool   `json:"is_enabled"`
	LastSyncAt    string `json:"last_sync_at,omitempty"`
	LastSyncError string `json:"last_sync_error,omitempty"`
	TotalEvents   int    `json:"total_events"`
}

type AddSubscriptionResult struct {
	SubscriptionID string `json:"subscription_id"`
	EventsCount    int    `json:"events_count"`
}

type SyncFailure struct {
	SubscriptionID string `json:"subscription_id"`
	Name           string `json:"calendar_name"`
	Error          string `json:"error"`
}

type SyncReport struct {
	PropertyID  string        `json:"property_id"`
	SyncedCount int           `json:"synced_count"`
	TotalEvents int           `json:"total_events"`
	ExportURL   string        `json:"export_url,omitempty"`
	Failures    []SyncFailure `json:"failures,omitempty"`
}

type ContestedRun struct {
	Start   string   `json:"start"`
	End     string   `json:"end"`
	Sources []string `json:"sources"`
}

type ConflictReport struct {
	PropertyID    string         `json:"property_id"`
	ContestedRuns []ContestedRun `json:"contested_runs"`
}

func MapSubscription(s *feeds.Subscription) Subscription {
	out := Subscription{
		ID:            s.ID,
		PropertyID:    s.PropertyID,
		Name:          s.Name,
		FeedURL:       s.FeedURL,
		Enabled:       s.Enabled,
		LastSyncError: s.LastSyncError,
		TotalEvents:   s.TotalEvents,
	}
	if !s.LastSyncAt.IsZero() {
		out.LastSyncAt = s.LastSyncAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return out
}

func MapSubscriptions(subs []*feeds.Subscription) []Subscription {
	out := make([]Subscription, 0, len(subs))
	for _, s := range subs {
		out = append(out, MapSubscription(s))
	}
	return out
}
