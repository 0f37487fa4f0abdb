package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withLocation(t *testing.T, name string) {
	t.Helper()

	loc, err := time.LoadLocation(name)
	require.NoError(t, err)

	previous := appLocation
	appLocation = loc

	t.Cleanup(func() { appLocation = previous })
}

func TestCalendarDateIgnoresApplicationTimezone(t *testing.T) {
	for _, name := range []string{"America/New_York", "Pacific/Kiritimati", "UTC"} {
		t.Run(name, func(t *testing.T) {
			withLocation(t, name)

			date, err := ParseDate("2026-10-19")
			require.NoError(t, err)
			assert.Equal(t, time.UTC, date.Location())
			assert.Equal(t, "2026-10-19", FormatDate(date))

			// a DATE column scanned by the driver is midnight at offset zero
			scanned := time.Date(2026, 10, 19, 0, 0, 0, 0, time.FixedZone("", 0))
			assert.Equal(t, "2026-10-19", FormatDate(scanned))
		})
	}
}

func TestTodayDateUsesApplicationTimezone(t *testing.T) {
	withLocation(t, "America/New_York")

	assert.Equal(t, time.Now().In(appLocation).Format(time.DateOnly), TodayDate())

	_, err := ParseDate("19/10/2026")
	assert.Error(t, err)
}
