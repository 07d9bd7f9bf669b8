package feeds

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"staycal/internal/app/dto"
	"staycal/internal/app/policies"
	exportsvc "staycal/internal/app/services/export"
	"staycal/internal/app/uow"
	"staycal/internal/domain/availability"
	domainexport "staycal/internal/domain/export"
	domainfeeds "staycal/internal/domain/feeds"
	"staycal/internal/domain/shared/dateutil"
)

// Syncer pulls every enabled external calendar of a property and
// replaces that feed's blocked days with the freshly parsed set. Feeds
// are independent: one feed failing leaves the others, and its own
// previously synced days, untouched. The export feed regenerates
// exactly once at the end regardless of per-feed outcomes.
type Syncer struct {
	UoW          uow.UoWFactory
	Fetcher      domainfeeds.Fetcher
	Exporter     *exportsvc.Regenerator
	Events       policies.EventPublisher
	FetchTimeout time.Duration
	Logger       *slog.Logger
	Now          func() time.Time
}

// SyncAll refreshes every enabled subscription of the property. The
// call itself succeeds even when individual feeds fail; failures are
// reported per feed in the result.
func (s *Syncer) SyncAll(ctx context.Context, propertyID string) (dto.SyncReport, error) {
	subs, err := s.loadSubscriptions(ctx, propertyID)
	if err != nil {
		return dto.SyncReport{}, err
	}

	report := dto.SyncReport{PropertyID: propertyID}
	for _, sub := range subs {
		if !sub.Enabled {
			continue
		}
		events, err := s.syncOne(ctx, sub)
		if err != nil {
			report.Failures = append(report.Failures, dto.SyncFailure{
				SubscriptionID: sub.ID,
				Name:           sub.Name,
				Error:          err.Error(),
			})
			continue
		}
		report.SyncedCount++
		report.TotalEvents += events
	}

	artifact, err := s.regenerate(ctx, propertyID)
	if err != nil {
		return dto.SyncReport{}, err
	}
	if artifact != nil {
		report.ExportURL = artifact.URL
	}
	return report, nil
}

// SyncOne refreshes a single subscription of the property, then
// regenerates the export feed.
func (s *Syncer) SyncOne(ctx context.Context, propertyID, subscriptionID string) (dto.SyncReport, error) {
	sub, err := s.loadSubscription(ctx, propertyID, subscriptionID)
	if err != nil {
		return dto.SyncReport{}, err
	}

	report := dto.SyncReport{PropertyID: propertyID}
	events, err := s.syncOne(ctx, sub)
	if err != nil {
		report.Failures = append(report.Failures, dto.SyncFailure{
			SubscriptionID: sub.ID,
			Name:           sub.Name,
			Error:          err.Error(),
		})
	} else {
		report.SyncedCount = 1
		report.TotalEvents = events
	}

	artifact, err := s.regenerate(ctx, propertyID)
	if err != nil {
		return dto.SyncReport{}, err
	}
	if artifact != nil {
		report.ExportURL = artifact.URL
	}
	return report, nil
}

// syncOne performs the fetch-diff-replace cycle for one feed. The
// delete-by-source and the re-inserts share one unit of work, so a
// feed's day set is replaced atomically or not at all.
func (s *Syncer) syncOne(ctx context.Context, sub *domainfeeds.Subscription) (int, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout())
	defer cancel()
	ranges, err := s.Fetcher.Fetch(fetchCtx, sub.FeedURL)
	if err != nil {
		s.recordFailure(ctx, sub, err)
		return 0, err
	}

	days := eventDays(ranges)
	now := s.now()

	unit, err := s.UoW.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return 0, err
	}
	ctx = uow.BindContext(ctx, unit)
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	if _, err := unit.BlockedDates().DeleteBySource(ctx, sub.PropertyID, sub.ID); err != nil {
		return 0, fmt.Errorf("feeds: clear synced days: %w", err)
	}
	for _, day := range days {
		row := availability.BlockedDate{
			PropertyID:       sub.PropertyID,
			Date:             day,
			SourceCalendarID: sub.ID,
			UpdatedAt:        now,
		}
		if err := unit.BlockedDates().Upsert(ctx, row); err != nil {
			return 0, fmt.Errorf("feeds: write synced day: %w", err)
		}
	}

	sub.LastSyncAt = now
	sub.LastSyncError = ""
	sub.TotalEvents = len(ranges)
	if err := unit.Subscriptions().Save(ctx, sub); err != nil {
		return 0, fmt.Errorf("feeds: save subscription: %w", err)
	}
	if err := unit.Commit(ctx); err != nil {
		return 0, err
	}
	committed = true

	if s.Events != nil {
		s.Events.Publish(ctx, domainfeeds.CalendarSynced{
			PropertyID:     sub.PropertyID,
			SubscriptionID: sub.ID,
			Events:         len(ranges),
			At:             now,
		})
	}
	if s.Logger != nil {
		s.Logger.Info("calendar feed synced", "property_id", sub.PropertyID, "subscription_id", sub.ID, "events", len(ranges), "days", len(days))
	}
	return len(ranges), nil
}

// recordFailure writes the sync error onto the subscription in its own
// unit of work. The feed's previously synced days stay as they are.
func (s *Syncer) recordFailure(ctx context.Context, sub *domainfeeds.Subscription, cause error) {
	now := s.now()
	unit, err := s.UoW.Begin(ctx, uow.TxOptions{})
	if err != nil {
		if s.Logger != nil {
			s.Logger.Error("cannot record sync failure", "subscription_id", sub.ID, "error", err)
		}
		return
	}
	ctx = uow.BindContext(ctx, unit)
	sub.LastSyncAt = now
	sub.LastSyncError = cause.Error()
	if err := unit.Subscriptions().Save(ctx, sub); err != nil {
		_ = unit.Rollback(ctx)
		if s.Logger != nil {
			s.Logger.Error("cannot record sync failure", "subscription_id", sub.ID, "error", err)
		}
		return
	}
	if err := unit.Commit(ctx); err != nil {
		if s.Logger != nil {
			s.Logger.Error("cannot record sync failure", "subscription_id", sub.ID, "error", err)
		}
		return
	}

	if s.Events != nil {
		s.Events.Publish(ctx, domainfeeds.CalendarSyncFailed{
			PropertyID:     sub.PropertyID,
			SubscriptionID: sub.ID,
			Cause:          cause.Error(),
			At:             now,
		})
	}
	if s.Logger != nil {
		s.Logger.Warn("calendar feed sync failed", "property_id", sub.PropertyID, "subscription_id", sub.ID, "error", cause)
	}
}

func (s *Syncer) regenerate(ctx context.Context, propertyID string) (artifact *domainexport.Artifact, err error) {
	unit, err := s.UoW.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	ctx = uow.BindContext(ctx, unit)
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()
	artifact, err = s.Exporter.Regenerate(ctx, unit, propertyID)
	if err != nil {
		return nil, err
	}
	if err := unit.Commit(ctx); err != nil {
		return nil, err
	}
	committed = true
	return artifact, nil
}

func (s *Syncer) loadSubscriptions(ctx context.Context, propertyID string) ([]*domainfeeds.Subscription, error) {
	unit, err := s.UoW.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	ctx = uow.BindContext(ctx, unit)
	defer unit.Rollback(ctx)
	return unit.Subscriptions().ByProperty(ctx, propertyID)
}

func (s *Syncer) loadSubscription(ctx context.Context, propertyID, subscriptionID string) (*domainfeeds.Subscription, error) {
	unit, err := s.UoW.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	ctx = uow.BindContext(ctx, unit)
	defer unit.Rollback(ctx)
	sub, err := unit.Subscriptions().ByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.PropertyID != propertyID {
		return nil, domainfeeds.ErrSubscriptionNotFound
	}
	return sub, nil
}

// eventDays flattens event ranges into a deduplicated, ascending list
// of calendar days. Ranges with end before start are skipped rather
// than failing the whole feed.
func eventDays(ranges []domainfeeds.EventRange) []time.Time {
	seen := make(map[time.Time]struct{})
	for _, r := range ranges {
		days, err := dateutil.ExpandRange(r.Start, r.End)
		if err != nil {
			continue
		}
		for _, d := range days {
			seen[d] = struct{}{}
		}
	}
	out := make([]time.Time, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func (s *Syncer) fetchTimeout() time.Duration {
	if s.FetchTimeout > 0 {
		return s.FetchTimeout
	}
	return defaultFetchTimeout
}

func (s *Syncer) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
