package dto

import (
	"time"

	"staycal/internal/domain/availability"
	"staycal/internal/domain/shared/dateutil"
)

// DateLayout is the wire format for calendar days; there is no time
// component anywhere on this surface.
const DateLayout = "2006-01-02"

type BlockedDay struct {
	Date             string `json:"date"`
	Reason           string `json:"reason,omitempty"`
	IsCheckIn        bool   `json:"is_check_in"`
	IsCheckOut       bool   `json:"is_check_out"`
	SourceCalendarID string `json:"source_calendar_id,omitempty"`
}

type BlockedRun struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days"`
}

type BlockPeriodResult struct {
	PropertyID  string       `json:"property_id"`
	BlockedDays []BlockedDay `json:"blocked_days"`
	ExportURL   string       `json:"export_url,omitempty"`
}

type UnblockResult struct {
	PropertyID   string `json:"property_id"`
	RemovedCount int64  `json:"removed_count"`
	ExportURL    string `json:"export_url,omitempty"`
}

type Calendar struct {
	PropertyID    string         `json:"property_id"`
	BlockedDays   []BlockedDay   `json:"blocked_days"`
	Subscriptions []Subscription `json:"external_subscriptions"`
	// NextBlocked is the nearest upcoming contiguous blocked run, when
	// one exists.
	NextBlocked *BlockedRun `json:"next_blocked,omitempty"`
}

func MapBlockedDay(b availability.BlockedDate) BlockedDay {
	return BlockedDay{
		Date:             b.Date.Format(DateLayout),
		Reason:           b.Reason,
		IsCheckIn:        b.IsCheckIn,
		IsCheckOut:       b.IsCheckOut,
		SourceCalendarID: b.SourceCalendarID,
	}
}

func MapBlockedDays(rows []availability.BlockedDate) []BlockedDay {
	out := make([]BlockedDay, 0, len(rows))
	for _, row := range rows {
		out = append(out, MapBlockedDay(row))
	}
	return out
}

func MapRun(r dateutil.Run) BlockedRun {
	return BlockedRun{
		Start: r.Start.Format(DateLayout),
		End:   r.End.Format(DateLayout),
		Days:  r.Days(),
	}
}

// ParseDate accepts either a bare calendar day or a full RFC 3339
// timestamp and normalizes it to a day.
func ParseDate(value string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, value); err == nil {
		return dateutil.Day(t), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return dateutil.Day(t), nil
}
