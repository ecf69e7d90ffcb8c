package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/habitthemes/internal/models"
)

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return loc, nil
}

// TodayIn returns the calendar date of now as seen in loc.
func TodayIn(now time.Time, loc *time.Location) models.Date {
	if loc == nil {
		loc = time.Local
	}
	return models.DateOf(now.In(loc))
}

// ParseDateOrToday parses a YYYY-MM-DD flag value, falling back to today
// when it is empty. "today" and "yesterday" are accepted as well.
func ParseDateOrToday(value string, today models.Date) (models.Date, error) {
	switch value {
	case "", "today":
		return today, nil
	case "yesterday":
		return today.AddDays(-1), nil
	}
	return models.ParseDate(value)
}
