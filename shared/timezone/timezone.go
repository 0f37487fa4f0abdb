package timezone

import (
	"time"
	"tourbook/config"

	"github.com/jinzhu/now"
	"github.com/rs/zerolog/log"
)

var (
	appLocation *time.Location
)

func init() {
	cfg := config.Get()

	name := cfg.App.Timezone
	if name == "" {
		log.Warn().Msg("No timezone configured, using UTC as default")

		name = "UTC"
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Error().
			Err(err).
			Str("timezone", name).
			Msg("Failed to load timezone, falling back to UTC")

		appLocation = time.UTC

		return
	}

	appLocation = loc
	log.Info().
		Str("timezone", name).
		Msg("Application timezone initialized")
}

// GetLocation returns the application timezone, UTC when it failed to load.
func GetLocation() *time.Location {
	if appLocation == nil {
		return time.UTC
	}

	return appLocation
}

// Now returns the current time in the application timezone.
func Now() time.Time {
	return time.Now().In(GetLocation())
}

// ToAppTime converts a time to the application timezone.
func ToAppTime(t time.Time) time.Time {
	return t.In(GetLocation())
}

// Format formats a time in the application timezone.
func Format(t time.Time, layout string) string {
	return ToAppTime(t).Format(layout)
}

// DayBounds returns the first and last instant of the calendar day containing t,
// in the application timezone.
func DayBounds(t time.Time) (time.Time, time.Time) {
	day := now.With(ToAppTime(t))

	return day.BeginningOfDay(), day.EndOfDay()
}

// Today returns the bounds of the current calendar day.
func Today() (time.Time, time.Time) {
	return DayBounds(Now())
}

// ParseDate parses a YYYY-MM-DD calendar date. The result is midnight UTC,
// which is how postgres DATE values are scanned back, so it must be rendered
// with FormatDate and never shifted into the application timezone.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(time.DateOnly, value) //nolint:wrapcheck
}

// FormatDate renders the calendar date of t as stored, without conversion.
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

// TodayDate returns the current calendar date in the application timezone.
func TodayDate() string {
	return Now().Format(time.DateOnly)
}
