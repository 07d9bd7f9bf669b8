package ical

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	domainavailability "staycal/internal/domain/availability"
	"staycal/internal/domain/shared/dateutil"
)

// Builder renders a property's blocked-day set as an iCalendar feed,
// one all-day VEVENT per contiguous run. The output is deterministic
// for a given row set: UIDs derive from the run start and DTSTAMP from
// the newest row, never from the wall clock.
type Builder struct {
	// ProdID identifies this publisher in the VCALENDAR header.
	ProdID string
}

func (b Builder) Build(propertyID string, rows []domainavailability.BlockedDate) ([]byte, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("ical: no blocked days for property %s", propertyID)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	prodID := b.ProdID
	if prodID == "" {
		prodID = "-//staycal//availability export//EN"
	}
	cal.SetProductId(prodID)

	days := make([]time.Time, 0, len(rows))
	stamp := time.Time{}
	for _, row := range rows {
		days = append(days, row.Date)
		if row.UpdatedAt.After(stamp) {
			stamp = row.UpdatedAt
		}
	}
	if stamp.IsZero() {
		stamp = days[len(days)-1]
	}

	for run := range dateutil.Runs(days) {
		uid := fmt.Sprintf("%s-%s@staycal", propertyID, run.Start.Format("20060102"))
		event := cal.AddEvent(uid)
		event.SetDtStampTime(stamp.UTC())
		event.SetAllDayStartAt(run.Start)
		// DTEND is exclusive in iCalendar: the day after the last
		// blocked day.
		event.SetAllDayEndAt(run.End.AddDate(0, 0, 1))
		event.SetSummary("Not available")
	}
	return []byte(cal.Serialize()), nil
}
