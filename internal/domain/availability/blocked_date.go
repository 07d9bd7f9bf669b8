package availability

import (
	"context"
	"errors"
	"time"

	"staycal/internal/domain/shared/dateutil"
)

var (
	ErrPropertyRequired = errors.New("availability: property id required")
)

// BlockedDate marks a single calendar day on which a property is
// unavailable. At most one record exists per (PropertyID, Date);
// repeated writes to the same day overwrite the remaining fields.
type BlockedDate struct {
	PropertyID string
	// Date is always a normalized calendar day (midnight UTC).
	Date   time.Time
	Reason string
	// IsCheckIn/IsCheckOut tag the boundary days of a manually blocked
	// period. Feed-synced days never carry these flags.
	IsCheckIn  bool
	IsCheckOut bool
	// SourceCalendarID references the subscription that produced this
	// day. Empty means the day was entered manually.
	SourceCalendarID string
	UpdatedAt        time.Time
}

// Manual reports whether the day was entered by an operator rather
// than synced from an external feed.
func (b BlockedDate) Manual() bool { return b.SourceCalendarID == "" }

// Store is the per-property blocked-day set. All writes are idempotent
// upserts keyed by (property, day); deletes of absent days are no-ops.
type Store interface {
	Upsert(ctx context.Context, b BlockedDate) error
	// DeleteByDates removes exactly the given days and reports how many
	// rows actually existed. Days not present are silently ignored.
	DeleteByDates(ctx context.Context, propertyID string, dates []time.Time) (int64, error)
	// DeleteBySource removes every day attributed to the subscription.
	DeleteBySource(ctx context.Context, propertyID, sourceCalendarID string) (int64, error)
	// ListActive returns the blocked days for a property ordered by
	// date ascending. A non-zero from restricts to days >= from.
	ListActive(ctx context.Context, propertyID string, from time.Time) ([]BlockedDate, error)
}

// RunsFrom groups the blocked days at or after cutoff into contiguous
// runs, for "nearest upcoming blocked period" style summaries.
func RunsFrom(rows []BlockedDate, cutoff time.Time) []dateutil.Run {
	cutoff = dateutil.Day(cutoff)
	days := make([]time.Time, 0, len(rows))
	for _, row := range rows {
		if row.Date.Before(cutoff) {
			continue
		}
		days = append(days, row.Date)
	}
	var runs []dateutil.Run
	for run := range dateutil.Runs(days) {
		runs = append(runs, run)
	}
	return runs
}
