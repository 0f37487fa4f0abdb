package timezone_test

import (
	"testing"
	"time"
	"tourbook/shared/timezone"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimezoneInit(t *testing.T) {
	assert.False(t, timezone.Now().IsZero())
	assert.NotNil(t, timezone.GetLocation())
}

func TestTimezoneFormatAndParse(t *testing.T) {
	testTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.NotEmpty(t, timezone.Format(testTime, "2006-01-02 15:04:05 MST"))

	parsed, err := timezone.ParseDate("2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, parsed.Location())
	assert.Equal(t, "2024-01-01", timezone.FormatDate(parsed))
}

func TestDayBounds(t *testing.T) {
	loc := timezone.GetLocation()
	noon := time.Date(2024, 3, 10, 12, 30, 0, 0, loc)

	start, end := timezone.DayBounds(noon)

	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, loc), start)
	assert.Equal(t, 23, end.Hour())
	assert.Equal(t, 59, end.Minute())
	assert.Equal(t, 10, end.Day())
	assert.True(t, start.Before(noon))
	assert.True(t, end.After(noon))
}

func TestToday(t *testing.T) {
	start, end := timezone.Today()
	current := timezone.Now()

	assert.False(t, current.Before(start))
	assert.False(t, current.After(end))
}
