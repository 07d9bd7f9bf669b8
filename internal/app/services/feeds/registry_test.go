package feeds

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainavailability "staycal/internal/domain/availability"
	domainfeeds "staycal/internal/domain/feeds"
)

func (f *fixture) registry() *Registry {
	return &Registry{
		UoW:      f.factory,
		Fetcher:  f.fetcher,
		Exporter: f.exporter,
		Now:      func() time.Time { return f.now },
	}
}

func TestAddSubscriptionValidatesAgainstLiveFeed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fetcher.feeds["https://a.test/cal.ics"] = []domainfeeds.EventRange{
		span(2026, time.April, 12, 14),
	}

	result, err := f.registry().AddSubscription(ctx, "p1", "Airbnb", "https://a.test/cal.ics")
	require.NoError(t, err)

	assert.NotEmpty(t, result.SubscriptionID)
	assert.Equal(t, 1, result.EventsCount)

	sub, err := f.factory.SubscriptionsRepo.ByID(ctx, result.SubscriptionID)
	require.NoError(t, err)
	assert.True(t, sub.Enabled)
	assert.Equal(t, "Airbnb", sub.Name)
	assert.Equal(t, 1, sub.TotalEvents)

	// Validation only; days come from an explicit sync.
	rows := f.blockedDates(t, "p1")
	assert.Empty(t, rows)
}

func TestAddSubscriptionRejectsBrokenFeed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fetcher.errs["https://bad.test/cal.ics"] = fmt.Errorf("%w: not a calendar", domainfeeds.ErrMalformed)

	_, err := f.registry().AddSubscription(ctx, "p1", "Broken", "https://bad.test/cal.ics")
	require.ErrorIs(t, err, ErrInvalidFeed)

	subs, lerr := f.factory.SubscriptionsRepo.ByProperty(ctx, "p1")
	require.NoError(t, lerr)
	assert.Empty(t, subs, "a failed validation must not persist anything")
}

func TestAddSubscriptionRequiresNameAndURL(t *testing.T) {
	f := newFixture(t)

	_, err := f.registry().AddSubscription(context.Background(), "p1", "  ", "https://a.test/cal.ics")
	assert.ErrorIs(t, err, domainfeeds.ErrNameRequired)

	_, err = f.registry().AddSubscription(context.Background(), "p1", "Airbnb", "")
	assert.ErrorIs(t, err, domainfeeds.ErrURLRequired)
}

func TestToggleFlipsEnabled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addSubscription(t, "sub-a", "p1", "Airbnb", "https://a.test/cal.ics", true)

	require.NoError(t, f.registry().Toggle(ctx, "sub-a", false))

	sub, err := f.factory.SubscriptionsRepo.ByID(ctx, "sub-a")
	require.NoError(t, err)
	assert.False(t, sub.Enabled)
}

func TestToggleUnknownSubscription(t *testing.T) {
	f := newFixture(t)
	err := f.registry().Toggle(context.Background(), "missing", true)
	assert.ErrorIs(t, err, domainfeeds.ErrSubscriptionNotFound)
}

func TestRemoveKeepsDaysByDefault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addSubscription(t, "sub-a", "p1", "Airbnb", "https://a.test/cal.ics", true)
	require.NoError(t, f.factory.BlockedDatesRepo.Upsert(ctx, domainavailability.BlockedDate{
		PropertyID: "p1", Date: day(2026, time.April, 12), SourceCalendarID: "sub-a",
	}))

	require.NoError(t, f.registry().Remove(ctx, "p1", "sub-a", false))

	_, err := f.factory.SubscriptionsRepo.ByID(ctx, "sub-a")
	assert.ErrorIs(t, err, domainfeeds.ErrSubscriptionNotFound)
	assert.Len(t, f.blockedDates(t, "p1"), 1)
}

func TestRemoveWithDatesCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addSubscription(t, "sub-a", "p1", "Airbnb", "https://a.test/cal.ics", true)
	require.NoError(t, f.factory.BlockedDatesRepo.Upsert(ctx, domainavailability.BlockedDate{
		PropertyID: "p1", Date: day(2026, time.April, 12), SourceCalendarID: "sub-a",
	}))
	require.NoError(t, f.factory.BlockedDatesRepo.Upsert(ctx, domainavailability.BlockedDate{
		PropertyID: "p1", Date: day(2026, time.April, 13), Reason: "manual",
	}))

	require.NoError(t, f.registry().Remove(ctx, "p1", "sub-a", true))

	rows := f.blockedDates(t, "p1")
	require.Len(t, rows, 1)
	assert.Equal(t, "manual", rows[0].Reason)
}

func TestRemoveScopedToProperty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addSubscription(t, "sub-a", "p1", "Airbnb", "https://a.test/cal.ics", true)

	err := f.registry().Remove(ctx, "other-property", "sub-a", false)
	assert.ErrorIs(t, err, domainfeeds.ErrSubscriptionNotFound)

	_, err = f.factory.SubscriptionsRepo.ByID(ctx, "sub-a")
	assert.NoError(t, err)
}
