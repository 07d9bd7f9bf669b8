package ical

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainavailability "staycal/internal/domain/availability"
)

func rowsFor(propertyID string, days ...time.Time) []domainavailability.BlockedDate {
	out := make([]domainavailability.BlockedDate, 0, len(days))
	for _, d := range days {
		out = append(out, domainavailability.BlockedDate{
			PropertyID: propertyID,
			Date:       d,
			UpdatedAt:  day(2026, time.March, 1),
		})
	}
	return out
}

func TestBuildGroupsRunsIntoEvents(t *testing.T) {
	rows := rowsFor("p1",
		day(2026, time.April, 1),
		day(2026, time.April, 2),
		day(2026, time.April, 3),
		day(2026, time.April, 10),
	)

	content, err := Builder{}.Build("p1", rows)
	require.NoError(t, err)
	feed := string(content)

	assert.Equal(t, 2, strings.Count(feed, "BEGIN:VEVENT"))
	assert.Contains(t, feed, "DTSTART;VALUE=DATE:20260401")
	// DTEND is exclusive: the run 01..03 ends on the 4th.
	assert.Contains(t, feed, "DTEND;VALUE=DATE:20260404")
	assert.Contains(t, feed, "DTSTART;VALUE=DATE:20260410")
	assert.Contains(t, feed, "DTEND;VALUE=DATE:20260411")
	assert.Contains(t, feed, "SUMMARY:Not available")
	assert.Contains(t, feed, "METHOD:PUBLISH")
	assert.Contains(t, feed, "UID:p1-20260401@staycal")
}

func TestBuildIsDeterministic(t *testing.T) {
	rows := rowsFor("p1", day(2026, time.April, 1), day(2026, time.April, 2))

	first, err := Builder{}.Build("p1", rows)
	require.NoError(t, err)
	second, err := Builder{}.Build("p1", rows)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	// DTSTAMP comes from the rows, not the wall clock.
	assert.Contains(t, string(first), "DTSTAMP:20260301T000000Z")
}

func TestBuildCustomProdID(t *testing.T) {
	rows := rowsFor("p1", day(2026, time.April, 1))

	content, err := Builder{ProdID: "-//acme//calendar//EN"}.Build("p1", rows)
	require.NoError(t, err)
	assert.Contains(t, string(content), "PRODID:-//acme//calendar//EN")
}

func TestBuildRejectsEmptySet(t *testing.T) {
	_, err := Builder{}.Build("p1", nil)
	assert.Error(t, err)
}

func TestBuildRoundTripsThroughParse(t *testing.T) {
	rows := rowsFor("p1",
		day(2026, time.April, 1),
		day(2026, time.April, 2),
		day(2026, time.April, 10),
	)

	content, err := Builder{}.Build("p1", rows)
	require.NoError(t, err)

	ranges, err := Parse(content)
	require.NoError(t, err)
	require.Len(t, ranges, 2)
	assert.Equal(t, day(2026, time.April, 1), ranges[0].Start)
	assert.Equal(t, day(2026, time.April, 2), ranges[0].End)
	assert.Equal(t, day(2026, time.April, 10), ranges[1].Start)
	assert.Equal(t, day(2026, time.April, 10), ranges[1].End)
}
