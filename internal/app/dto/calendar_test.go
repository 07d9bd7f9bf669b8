package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staycal/internal/domain/availability"
)

func TestParseDateAcceptsBareDay(t *testing.T) {
	got, err := ParseDate("2026-04-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDateAcceptsRFC3339(t *testing.T) {
	got, err := ParseDate("2026-04-01T18:30:00+03:00")
	require.NoError(t, err)
	// Normalized to the UTC calendar day.
	assert.Equal(t, time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDateRejectsGarbage(t *testing.T) {
	_, err := ParseDate("first of April")
	assert.Error(t, err)
}

func TestMapBlockedDay(t *testing.T) {
	got := MapBlockedDay(availability.BlockedDate{
		PropertyID:       "p1",
		Date:             time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC),
		Reason:           "renovation",
		IsCheckIn:        true,
		SourceCalendarID: "",
	})

	assert.Equal(t, "2026-04-01", got.Date)
	assert.Equal(t, "renovation", got.Reason)
	assert.True(t, got.IsCheckIn)
	assert.False(t, got.IsCheckOut)
	assert.Empty(t, got.SourceCalendarID)
}
