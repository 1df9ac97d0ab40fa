package calendar

import (
	"time"

	"attendance-service/internal/models"
)

// DateFormat is the canonical date-only layout used across the service.
const DateFormat = "2006-01-02"

// HolidaySet holds holiday dates keyed by their DateFormat string.
type HolidaySet map[string]struct{}

func NewHolidaySet(holidays []*models.Holiday) HolidaySet {
	set := make(HolidaySet, len(holidays))
	for _, h := range holidays {
		set[Normalize(h.Date).Format(DateFormat)] = struct{}{}
	}
	return set
}

func (s HolidaySet) Contains(date time.Time) bool {
	_, ok := s[Normalize(date).Format(DateFormat)]
	return ok
}

// Normalize truncates a timestamp to its UTC calendar date.
func Normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsSchoolDay reports whether date is a regular school day:
// not a Saturday or Sunday and not a listed holiday.
func IsSchoolDay(date time.Time, holidays HolidaySet) bool {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	return !holidays.Contains(date)
}

// SchoolDays counts school days in the inclusive range [start, end].
// An inverted range counts as zero.
func SchoolDays(start, end time.Time, holidays HolidaySet) int {
	start = Normalize(start)
	end = Normalize(end)

	days := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if IsSchoolDay(d, holidays) {
			days++
		}
	}

	return days
}
