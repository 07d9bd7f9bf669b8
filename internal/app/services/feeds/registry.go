package feeds

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"staycal/internal/app/dto"
	exportsvc "staycal/internal/app/services/export"
	"staycal/internal/app/uow"
	domainfeeds "staycal/internal/domain/feeds"
)

var (
	// ErrInvalidFeed means the submitted URL failed validation: it did
	// not fetch or did not parse as a calendar. The wrapped cause
	// carries the adapter's diagnostic.
	ErrInvalidFeed = errors.New("feeds: feed url failed validation")
)

const defaultFetchTimeout = 15 * time.Second

// Registry manages a property's external calendar subscriptions. A
// feed URL must survive a full fetch-and-parse round trip before the
// subscription is persisted.
type Registry struct {
	UoW          uow.UoWFactory
	Fetcher      domainfeeds.Fetcher
	Exporter     *exportsvc.Regenerator
	FetchTimeout time.Duration
	Logger       *slog.Logger
	Now          func() time.Time
}

// AddSubscription validates the feed URL against the live feed and, on
// success, persists an enabled subscription. Nothing is persisted when
// validation fails. Blocked days are only written by a later sync.
func (r *Registry) AddSubscription(ctx context.Context, propertyID, name, feedURL string) (dto.AddSubscriptionResult, error) {
	name = strings.TrimSpace(name)
	feedURL = strings.TrimSpace(feedURL)
	if name == "" {
		return dto.AddSubscriptionResult{}, domainfeeds.ErrNameRequired
	}
	if feedURL == "" {
		return dto.AddSubscriptionResult{}, domainfeeds.ErrURLRequired
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.fetchTimeout())
	defer cancel()
	events, err := r.Fetcher.Fetch(fetchCtx, feedURL)
	if err != nil {
		return dto.AddSubscriptionResult{}, fmt.Errorf("%w: %v", ErrInvalidFeed, err)
	}

	unit, err := r.UoW.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return dto.AddSubscriptionResult{}, err
	}
	ctx = uow.BindContext(ctx, unit)
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	sub := &domainfeeds.Subscription{
		ID:          uuid.NewString(),
		PropertyID:  propertyID,
		Name:        name,
		FeedURL:     feedURL,
		Enabled:     true,
		TotalEvents: len(events),
		CreatedAt:   r.now(),
	}
	if err := unit.Subscriptions().Save(ctx, sub); err != nil {
		return dto.AddSubscriptionResult{}, fmt.Errorf("feeds: save subscription: %w", err)
	}
	if err := unit.Commit(ctx); err != nil {
		return dto.AddSubscriptionResult{}, err
	}
	committed = true

	if r.Logger != nil {
		r.Logger.Info("calendar subscription added", "property_id", propertyID, "subscription_id", sub.ID, "events", len(events))
	}
	return dto.AddSubscriptionResult{SubscriptionID: sub.ID, EventsCount: len(events)}, nil
}

// Toggle flips the enabled flag. Disabling stops future syncs but
// leaves previously synced days in place.
func (r *Registry) Toggle(ctx context.Context, subscriptionID string, enabled bool) error {
	unit, err := r.UoW.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	ctx = uow.BindContext(ctx, unit)
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	sub, err := unit.Subscriptions().ByID(ctx, subscriptionID)
	if err != nil {
		return err
	}
	sub.Enabled = enabled
	if err := unit.Subscriptions().Save(ctx, sub); err != nil {
		return fmt.Errorf("feeds: save subscription: %w", err)
	}
	if err := unit.Commit(ctx); err != nil {
		return err
	}
	committed = true
	return nil
}

// Remove deletes a subscription. With alsoRemoveDates the days it
// synced are removed too and the export feed regenerated; without it
// they persist as orphaned manual-equivalent entries.
func (r *Registry) Remove(ctx context.Context, propertyID, subscriptionID string, alsoRemoveDates bool) error {
	unit, err := r.UoW.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	ctx = uow.BindContext(ctx, unit)
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	sub, err := unit.Subscriptions().ByID(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if sub.PropertyID != propertyID {
		return domainfeeds.ErrSubscriptionNotFound
	}
	if err := unit.Subscriptions().Delete(ctx, propertyID, subscriptionID); err != nil {
		return fmt.Errorf("feeds: delete subscription: %w", err)
	}
	if alsoRemoveDates {
		if _, err := unit.BlockedDates().DeleteBySource(ctx, propertyID, subscriptionID); err != nil {
			return fmt.Errorf("feeds: delete synced days: %w", err)
		}
		if _, err := r.Exporter.Regenerate(ctx, unit, propertyID); err != nil {
			return err
		}
	}
	if err := unit.Commit(ctx); err != nil {
		return err
	}
	committed = true

	if r.Logger != nil {
		r.Logger.Info("calendar subscription removed", "property_id", propertyID, "subscription_id", subscriptionID, "dates_removed", alsoRemoveDates)
	}
	return nil
}

func (r *Registry) fetchTimeout() time.Duration {
	if r.FetchTimeout > 0 {
		return r.FetchTimeout
	}
	return defaultFetchTimeout
}

func (r *Registry) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}
