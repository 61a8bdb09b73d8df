package dateutil

import (
	"fmt"
	"strings"
	"time"
)

// DayCount is a year-fraction convention
type DayCount string

const (
	Actual365Fixed DayCount = "act/365"
	Actual360      DayCount = "act/360"
	Actual36525    DayCount = "act/365.25"
	ActualActual   DayCount = "act/act"
)

// ParseDayCount resolves a convention name; the empty string means Actual365Fixed.
func ParseDayCount(s string) (DayCount, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "act/365", "actual/365", "act365":
		return Actual365Fixed, nil
	case "act/360", "actual/360", "act360":
		return Actual360, nil
	case "act/365.25", "actual/365.25":
		return Actual36525, nil
	case "act/act", "actual/actual":
		return ActualActual, nil
	}
	return "", fmt.Errorf("unknown day count convention %q", s)
}

// DaysBetween counts calendar days from one date to another, ignoring time of day
func DaysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

// YearFraction converts the span between two dates into years. A negative span
// gives a negative fraction.
func YearFraction(from, to time.Time, dc DayCount) float64 {
	switch dc {
	case Actual360:
		return float64(DaysBetween(from, to)) / 360
	case Actual36525:
		return float64(DaysBetween(from, to)) / 365.25
	case ActualActual:
		return actualActual(from, to)
	default:
		return float64(DaysBetween(from, to)) / 365
	}
}

// actualActual splits the span at year boundaries and divides each piece by the
// length of its own year.
func actualActual(from, to time.Time) float64 {
	if to.Before(from) {
		return -actualActual(to, from)
	}
	var years float64
	cur := from
	for cur.Year() < to.Year() {
		next := time.Date(cur.Year()+1, 1, 1, 0, 0, 0, 0, time.UTC)
		years += float64(DaysBetween(cur, next)) / float64(DaysInYear(cur.Year()))
		cur = next
	}
	return years + float64(DaysBetween(cur, to))/float64(DaysInYear(to.Year()))
}

// IsLeapYear checks if a year is a leap year
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInYear returns the number of days in a year
func DaysInYear(year int) int {
	if IsLeapYear(year) {
		return 366
	}
	return 365
}

// AddMonths adds a number of months to a date
func AddMonths(date time.Time, months int) time.Time {
	return date.AddDate(0, months, 0)
}
