package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainavailability "staycal/internal/domain/availability"
	domainexport "staycal/internal/domain/export"
	domainfeeds "staycal/internal/domain/feeds"
)

// BlockedDateStore is an in-memory availability.Store used by tests
// and the storage=memory dev mode.
type BlockedDateStore struct {
	mu sync.RWMutex
	// rows is property id -> day -> record. Days are normalized UTC
	// midnights, so plain map keys are safe.
	rows map[string]map[time.Time]domainavailability.BlockedDate
}

func NewBlockedDateStore() *BlockedDateStore {
	return &BlockedDateStore{rows: make(map[string]map[time.Time]domainavailability.BlockedDate)}
}

func (s *BlockedDateStore) Upsert(ctx context.Context, b domainavailability.BlockedDate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byDay, ok := s.rows[b.PropertyID]
	if !ok {
		byDay = make(map[time.Time]domainavailability.BlockedDate)
		s.rows[b.PropertyID] = byDay
	}
	byDay[b.Date] = b
	return nil
}

func (s *BlockedDateStore) DeleteByDates(ctx context.Context, propertyID string, dates []time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byDay := s.rows[propertyID]
	var removed int64
	for _, d := range dates {
		if _, ok := byDay[d]; ok {
			delete(byDay, d)
			removed++
		}
	}
	return removed, nil
}

func (s *BlockedDateStore) DeleteBySource(ctx context.Context, propertyID, sourceCalendarID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byDay := s.rows[propertyID]
	var removed int64
	for day, row := range byDay {
		if row.SourceCalendarID == sourceCalendarID {
			delete(byDay, day)
			removed++
		}
	}
	return removed, nil
}

func (s *BlockedDateStore) ListActive(ctx context.Context, propertyID string, from time.Time) ([]domainavailability.BlockedDate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byDay := s.rows[propertyID]
	out := make([]domainavailability.BlockedDate, 0, len(byDay))
	for _, row := range byDay {
		if !from.IsZero() && row.Date.Before(from) {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *BlockedDateStore) snapshot() map[string]map[time.Time]domainavailability.BlockedDate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[string]map[time.Time]domainavailability.BlockedDate, len(s.rows))
	for prop, byDay := range s.rows {
		inner := make(map[time.Time]domainavailability.BlockedDate, len(byDay))
		for day, row := range byDay {
			inner[day] = row
		}
		snap[prop] = inner
	}
	return snap
}

func (s *BlockedDateStore) restore(snap map[string]map[time.Time]domainavailability.BlockedDate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = snap
}

// SubscriptionRepository keeps feed subscriptions in memory.
type SubscriptionRepository struct {
	mu    sync.RWMutex
	items map[string]domainfeeds.Subscription
}

func NewSubscriptionRepository() *SubscriptionRepository {
	return &SubscriptionRepository{items: make(map[string]domainfeeds.Subscription)}
}

func (r *SubscriptionRepository) ByID(ctx context.Context, id string) (*domainfeeds.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.items[id]
	if !ok {
		return nil, domainfeeds.ErrSubscriptionNotFound
	}
	out := sub
	return &out, nil
}

func (r *SubscriptionRepository) ByProperty(ctx context.Context, propertyID string) ([]*domainfeeds.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainfeeds.Subscription, 0)
	for _, sub := range r.items {
		if sub.PropertyID != propertyID {
			continue
		}
		copied := sub
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *SubscriptionRepository) Save(ctx context.Context, sub *domainfeeds.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[sub.ID] = *sub
	return nil
}

func (r *SubscriptionRepository) Delete(ctx context.Context, propertyID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.items[id]
	if !ok || sub.PropertyID != propertyID {
		return domainfeeds.ErrSubscriptionNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *SubscriptionRepository) PropertiesWithEnabled(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, sub := range r.items {
		if sub.Enabled {
			seen[sub.PropertyID] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for prop := range seen {
		out = append(out, prop)
	}
	sort.Strings(out)
	return out, nil
}

func (r *SubscriptionRepository) snapshot() map[string]domainfeeds.Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := make(map[string]domainfeeds.Subscription, len(r.items))
	for id, sub := range r.items {
		snap[id] = sub
	}
	return snap
}

func (r *SubscriptionRepository) restore(snap map[string]domainfeeds.Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = snap
}

// ExportRepository keeps export artifacts in memory.
type ExportRepository struct {
	mu    sync.RWMutex
	items map[string]domainexport.Artifact
}

func NewExportRepository() *ExportRepository {
	return &ExportRepository{items: make(map[string]domainexport.Artifact)}
}

func (r *ExportRepository) ByProperty(ctx context.Context, propertyID string) (*domainexport.Artifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.items[propertyID]
	if !ok {
		return nil, domainexport.ErrArtifactNotFound
	}
	out := a
	return &out, nil
}

func (r *ExportRepository) Upsert(ctx context.Context, a domainexport.Artifact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[a.PropertyID] = a
	return nil
}

func (r *ExportRepository) Delete(ctx context.Context, propertyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, propertyID)
	return nil
}

func (r *ExportRepository) snapshot() map[string]domainexport.Artifact {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := make(map[string]domainexport.Artifact, len(r.items))
	for id, a := range r.items {
		snap[id] = a
	}
	return snap
}

func (r *ExportRepository) restore(snap map[string]domainexport.Artifact) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = snap
}
