package dateutil

import (
	"errors"
	"iter"
	"time"
)

var (
	ErrInvalidRange = errors.New("dateutil: end date precedes start date")
)

// Day normalizes any timestamp to its calendar day: midnight UTC.
// Every date entering the system passes through here before it is
// compared or persisted, so the same logical day can never be stored
// twice under different time offsets.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole days from a to b. Negative
// when b precedes a. Both inputs are normalized first.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// Contiguous reports whether b is exactly the day after a.
func Contiguous(a, b time.Time) bool {
	return DaysBetween(a, b) == 1
}

// ExpandRange returns every calendar day from start to end inclusive.
// A same-day range yields a single element.
func ExpandRange(start, end time.Time) ([]time.Time, error) {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return nil, ErrInvalidRange
	}
	days := make([]time.Time, 0, DaysBetween(start, end)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days, nil
}

// Run is a contiguous span of blocked days, both bounds inclusive.
type Run struct {
	Start time.Time
	End   time.Time
}

// Days returns the number of calendar days the run covers.
func (r Run) Days() int {
	return DaysBetween(r.Start, r.End) + 1
}

// Runs groups an ascending sequence of days into contiguous runs.
// The returned sequence is lazy and can be ranged over more than once.
// Input must be sorted ascending; duplicates collapse into their run.
func Runs(sorted []time.Time) iter.Seq[Run] {
	return func(yield func(Run) bool) {
		if len(sorted) == 0 {
			return
		}
		current := Run{Start: Day(sorted[0]), End: Day(sorted[0])}
		for _, t := range sorted[1:] {
			d := Day(t)
			if d.Equal(current.End) {
				continue
			}
			if Contiguous(current.End, d) {
				current.End = d
				continue
			}
			if !yield(current) {
				return
			}
			current = Run{Start: d, End: d}
		}
		yield(current)
	}
}
