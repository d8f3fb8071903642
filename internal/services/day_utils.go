package services

import (
	"strings"
	"time"

	"github.com/stintlabs/stint/internal/models"
)

func DateAtLocation(value time.Time, location *time.Location) time.Time {
	if location == nil {
		location = time.UTC
	}
	localized := value.In(location)
	year, month, day := localized.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, location)
}

func DayRange(value time.Time, location *time.Location) (time.Time, time.Time) {
	start := DateAtLocation(value, location)
	return start, start.AddDate(0, 0, 1)
}

// DaysBetween counts whole calendar days from one local midnight to
// another. Both dates are re-anchored in UTC so the count survives DST
// transitions in the configured location.
func DaysBetween(from time.Time, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toDay.Sub(fromDay).Hours() / 24)
}

// NormalizeDurationDays converts a duration value plus unit into a day
// count. An empty unit means days.
func NormalizeDurationDays(value int, unit string) (int, error) {
	if value <= 0 {
		return 0, ErrInvalidDuration
	}
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "", models.DurationUnitDay, "days":
		return value, nil
	case models.DurationUnitWeek, "weeks":
		return value * 7, nil
	default:
		return 0, ErrInvalidDuration
	}
}
