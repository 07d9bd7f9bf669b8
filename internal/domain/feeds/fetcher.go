package feeds

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnreachable covers network failures and timeouts while
	// downloading a feed.
	ErrUnreachable = errors.New("feeds: calendar feed unreachable")
	// ErrMalformed covers payloads that download but do not parse as a
	// calendar.
	ErrMalformed = errors.New("feeds: calendar feed malformed")
)

// EventRange is one occupied span reported by an external feed. Both
// bounds are normalized calendar days, inclusive.
type EventRange struct {
	Start time.Time
	End   time.Time
}

// Fetcher downloads and parses an external calendar feed. A successful
// call with zero events is valid (an empty but well-formed calendar).
// Failures are typed via ErrUnreachable / ErrMalformed.
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]EventRange, error)
}
