package feeds

import (
	"context"
	"fmt"
	"sort"
	"time"

	"staycal/internal/app/dto"
	"staycal/internal/app/policies"
	"staycal/internal/app/uow"
	domainfeeds "staycal/internal/domain/feeds"
	"staycal/internal/domain/shared/dateutil"
)

// Conflicts detects double-bookings: days claimed as blocked by more
// than one of the selected calendars at once.
//
// The blocked-date store keeps at most one row per (property, day), so
// overlapping claims cannot coexist there; the analyzer therefore
// compares the calendars' own day sets, fetched through the same
// adapter the sync engine uses. Manually blocked days are not part of
// the comparison.
type Conflicts struct {
	UoW          uow.UoWFactory
	Fetcher      domainfeeds.Fetcher
	Events       policies.EventPublisher
	FetchTimeout time.Duration
	Now          func() time.Time
}

// Analyze reports every day claimed by two or more of the given
// calendars, grouped into contiguous runs with the owning calendar
// names. Calendar ids that do not exist or belong to another property
// are rejected outright; an unreachable feed fails the analysis, since
// a partial comparison could hide a double-booking.
func (c *Conflicts) Analyze(ctx context.Context, propertyID string, calendarIDs []string) (dto.ConflictReport, error) {
	subs, err := c.loadSelection(ctx, propertyID, calendarIDs)
	if err != nil {
		return dto.ConflictReport{}, err
	}

	// owners maps each claimed day to the calendars claiming it.
	owners := make(map[time.Time]map[string]struct{})
	for _, sub := range subs {
		fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout())
		ranges, err := c.Fetcher.Fetch(fetchCtx, sub.FeedURL)
		cancel()
		if err != nil {
			return dto.ConflictReport{}, fmt.Errorf("feeds: analyze %q: %w", sub.Name, err)
		}
		for _, day := range eventDays(ranges) {
			set, ok := owners[day]
			if !ok {
				set = make(map[string]struct{})
				owners[day] = set
			}
			set[sub.Name] = struct{}{}
		}
	}

	contested := make([]time.Time, 0)
	for day, set := range owners {
		if len(set) > 1 {
			contested = append(contested, day)
		}
	}
	sort.Slice(contested, func(i, j int) bool { return contested[i].Before(contested[j]) })

	report := dto.ConflictReport{PropertyID: propertyID, ContestedRuns: []dto.ContestedRun{}}
	for run := range dateutil.Runs(contested) {
		sources := make(map[string]struct{})
		for d := run.Start; !d.After(run.End); d = d.AddDate(0, 0, 1) {
			for name := range owners[d] {
				sources[name] = struct{}{}
			}
		}
		sourceNames := make([]string, 0, len(sources))
		for name := range sources {
			sourceNames = append(sourceNames, name)
		}
		sort.Strings(sourceNames)
		report.ContestedRuns = append(report.ContestedRuns, dto.ContestedRun{
			Start:   run.Start.Format(dto.DateLayout),
			End:     run.End.Format(dto.DateLayout),
			Sources: sourceNames,
		})
	}

	if c.Events != nil && len(report.ContestedRuns) > 0 {
		c.Events.Publish(ctx, domainfeeds.ConflictDetected{
			PropertyID: propertyID,
			Runs:       len(report.ContestedRuns),
			At:         c.now(),
		})
	}
	return report, nil
}

func (c *Conflicts) loadSelection(ctx context.Context, propertyID string, calendarIDs []string) ([]*domainfeeds.Subscription, error) {
	unit, err := c.UoW.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	ctx = uow.BindContext(ctx, unit)
	defer unit.Rollback(ctx)

	subs := make([]*domainfeeds.Subscription, 0, len(calendarIDs))
	for _, id := range calendarIDs {
		sub, err := unit.Subscriptions().ByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", domainfeeds.ErrSubscriptionNotFound, id)
		}
		if sub.PropertyID != propertyID {
			return nil, fmt.Errorf("%w: %s", domainfeeds.ErrSubscriptionNotFound, id)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (c *Conflicts) fetchTimeout() time.Duration {
	if c.FetchTimeout > 0 {
		return c.FetchTimeout
	}
	return defaultFetchTimeout
}

func (c *Conflicts) now() time.Time {
	if c.Now != nil {
		return c.Now().UTC()
	}
	return time.Now().UTC()
}
