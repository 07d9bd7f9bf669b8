package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"staycal/internal/app/dto"
	"staycal/internal/app/policies"
	exportsvc "staycal/internal/app/services/export"
	"staycal/internal/app/uow"
	domainavailability "staycal/internal/domain/availability"
	"staycal/internal/domain/shared/dateutil"
	"staycal/internal/domain/shared/events"
)

// Service owns the manual side of a property's availability calendar:
// blocking a period, unblocking individual days and reading the
// calendar back. Every mutation runs in a single unit of work that
// ends with export regeneration.
type Service struct {
	UoW      uow.UoWFactory
	Exporter *exportsvc.Regenerator
	Events   policies.EventPublisher
	Logger   *slog.Logger
	Now      func() time.Time
}

// BlockPeriod marks every day from start to end inclusive as
// unavailable. The first day is flagged check-in, the last check-out;
// a single-day period is both. Re-blocking already blocked days
// overwrites their reason and flags.
func (s *Service) BlockPeriod(ctx context.Context, propertyID string, start, end time.Time, reason string) (dto.BlockPeriodResult, error) {
	propertyID = strings.TrimSpace(propertyID)
	if propertyID == "" {
		return dto.BlockPeriodResult{}, domainavailability.ErrPropertyRequired
	}
	days, err := dateutil.ExpandRange(start, end)
	if err != nil {
		return dto.BlockPeriodResult{}, err
	}

	unit, err := s.UoW.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return dto.BlockPeriodResult{}, err
	}
	ctx = uow.BindContext(ctx, unit)
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	now := s.now()
	written := make([]domainavailability.BlockedDate, 0, len(days))
	for i, day := range days {
		row := domainavailability.BlockedDate{
			PropertyID: propertyID,
			Date:       day,
			Reason:     reason,
			IsCheckIn:  i == 0,
			IsCheckOut: i == len(days)-1,
			UpdatedAt:  now,
		}
		if err := unit.BlockedDates().Upsert(ctx, row); err != nil {
			return dto.BlockPeriodResult{}, fmt.Errorf("calendar: block day %s: %w", day.Format(dto.DateLayout), err)
		}
		written = append(written, row)
	}

	artifact, err := s.Exporter.Regenerate(ctx, unit, propertyID)
	if err != nil {
		return dto.BlockPeriodResult{}, err
	}
	if err := unit.Commit(ctx); err != nil {
		return dto.BlockPeriodResult{}, err
	}
	committed = true

	s.publish(ctx, domainavailability.CalendarBlocked{
		PropertyID: propertyID,
		Start:      days[0],
		End:        days[len(days)-1],
		Reason:     reason,
		At:         now,
	})
	if s.Logger != nil {
		s.Logger.Info("period blocked", "property_id", propertyID, "days", len(days))
	}

	result := dto.BlockPeriodResult{
		PropertyID:  propertyID,
		BlockedDays: dto.MapBlockedDays(written),
	}
	if artifact != nil {
		result.ExportURL = artifact.URL
	}
	return result, nil
}

// UnblockDates removes the given days from the blocked set. Inputs may
// carry a time component; they are normalized before deletion. Days
// that are not blocked are silently ignored.
func (s *Service) UnblockDates(ctx context.Context, propertyID string, dates []time.Time) (dto.UnblockResult, error) {
	propertyID = strings.TrimSpace(propertyID)
	if propertyID == "" {
		return dto.UnblockResult{}, domainavailability.ErrPropertyRequired
	}
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		days = append(days, dateutil.Day(d))
	}

	unit, err := s.UoW.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return dto.UnblockResult{}, err
	}
	ctx = uow.BindContext(ctx, unit)
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	removed, err := unit.BlockedDates().DeleteByDates(ctx, propertyID, days)
	if err != nil {
		return dto.UnblockResult{}, fmt.Errorf("calendar: unblock dates: %w", err)
	}
	artifact, err := s.Exporter.Regenerate(ctx, unit, propertyID)
	if err != nil {
		return dto.UnblockResult{}, err
	}
	if err := unit.Commit(ctx); err != nil {
		return dto.UnblockResult{}, err
	}
	committed = true

	if removed > 0 {
		s.publish(ctx, domainavailability.CalendarReleased{
			PropertyID: propertyID,
			Days:       int(removed),
			At:         s.now(),
		})
	}

	result := dto.UnblockResult{PropertyID: propertyID, RemovedCount: removed}
	if artifact != nil {
		result.ExportURL = artifact.URL
	}
	return result, nil
}

// ListCalendar returns the blocked days of a property together with
// its feed subscriptions and the nearest upcoming blocked run.
func (s *Service) ListCalendar(ctx context.Context, propertyID string, from time.Time) (dto.Calendar, error) {
	propertyID = strings.TrimSpace(propertyID)
	if propertyID == "" {
		return dto.Calendar{}, domainavailability.ErrPropertyRequired
	}
	if !from.IsZero() {
		from = dateutil.Day(from)
	}

	unit, err := s.UoW.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.Calendar{}, err
	}
	ctx = uow.BindContext(ctx, unit)
	defer unit.Rollback(ctx)

	rows, err := unit.BlockedDates().ListActive(ctx, propertyID, from)
	if err != nil {
		return dto.Calendar{}, fmt.Errorf("calendar: list blocked days: %w", err)
	}
	subs, err := unit.Subscriptions().ByProperty(ctx, propertyID)
	if err != nil {
		return dto.Calendar{}, fmt.Errorf("calendar: list subscriptions: %w", err)
	}

	out := dto.Calendar{
		PropertyID:    propertyID,
		BlockedDays:   dto.MapBlockedDays(rows),
		Subscriptions: dto.MapSubscriptions(subs),
	}
	cutoff := from
	if cutoff.IsZero() {
		cutoff = dateutil.Day(s.now())
	}
	if runs := domainavailability.RunsFrom(rows, cutoff); len(runs) > 0 {
		next := dto.MapRun(runs[0])
		out.NextBlocked = &next
	}
	return out, nil
}

func (s *Service) publish(ctx context.Context, event events.DomainEvent) {
	if s.Events == nil {
		return
	}
	s.Events.Publish(ctx, event)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
