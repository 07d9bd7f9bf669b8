package ical

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	domainfeeds "staycal/internal/domain/feeds"
	"staycal/internal/domain/shared/dateutil"
)

const maxFeedBytes = 5 << 20

// Fetcher downloads an iCalendar feed over HTTP and maps its VEVENTs
// to inclusive day ranges. It satisfies the feeds.Fetcher contract.
type Fetcher struct {
	Client *http.Client
}

// NewFetcher builds a fetcher with a dedicated HTTP client. The
// overall deadline still comes from the caller's context; the client
// timeout is a backstop.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{Client: &http.Client{Timeout: timeout}}
}

// Fetch downloads and parses the feed. Network-level problems map to
// feeds.ErrUnreachable, payloads that do not parse as a calendar map
// to feeds.ErrMalformed.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]domainfeeds.EventRange, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainfeeds.ErrUnreachable, err)
	}
	req.Header.Set("Accept", "text/calendar")

	resp, err := f.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainfeeds.ErrUnreachable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", domainfeeds.ErrUnreachable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainfeeds.ErrUnreachable, err)
	}
	return Parse(body)
}

// Parse maps an ICS payload to event day ranges. DTEND is exclusive
// per RFC 5545, so an event [DTSTART, DTEND) occupies the days
// DTSTART .. DTEND-1; events without DTEND, or ending the day they
// start, occupy a single day.
func Parse(body []byte) ([]domainfeeds.EventRange, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, fmt.Errorf("%w: empty payload", domainfeeds.ErrMalformed)
	}
	cal, err := ics.ParseCalendar(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainfeeds.ErrMalformed, err)
	}

	ranges := make([]domainfeeds.EventRange, 0, len(cal.Events()))
	for _, ev := range cal.Events() {
		start, err := ev.GetStartAt()
		if err != nil {
			// An event without a usable DTSTART cannot block anything;
			// skip it rather than failing the whole feed.
			continue
		}
		startDay := dateutil.Day(start)
		endDay := startDay
		if end, err := ev.GetEndAt(); err == nil {
			last := dateutil.Day(end).AddDate(0, 0, -1)
			if last.After(startDay) {
				endDay = last
			}
		}
		ranges = append(ranges, domainfeeds.EventRange{Start: startDay, End: endDay})
	}
	return ranges, nil
}

func (f *Fetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}
