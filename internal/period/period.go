// Package period buckets calendar dates into days, Monday-based weeks, months and
// years. All functions work on local calendar dates; the time of day is discarded.
package period

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the storage and wire format for calendar dates.
const DateLayout = "2006-01-02"

// Kind is a period granularity.
type Kind int

const (
	Daily Kind = iota
	Weekly
	Monthly
	Yearly
)

// Kinds lists every granularity from finest to coarsest.
var Kinds = []Kind{Daily, Weekly, Monthly, Yearly}

var kindNames = []string{"daily", "weekly", "monthly", "yearly"}

func (k Kind) String() string {
	if k < Daily || k > Yearly {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Title returns the capitalised name used for tab headers.
func (k Kind) Title() string {
	s := k.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

// Valid reports whether k is one of the four granularities.
func (k Kind) Valid() bool {
	return k >= Daily && k <= Yearly
}

// ParseKind accepts "daily", "weekly", "monthly" or "yearly" (case-insensitive).
func ParseKind(s string) (Kind, error) {
	lower := strings.ToLower(strings.TrimSpace(s))
	for i, name := range kindNames {
		if lower == name {
			return Kind(i), nil
		}
	}
	return Daily, fmt.Errorf("unknown period kind %q", s)
}

// Date returns local midnight of the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.Local)
}

// ParseDate parses a YYYY-MM-DD string as a local date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate formats t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DayStart returns midnight of d's calendar day.
func DayStart(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}

// WeekStart returns Monday 00:00 of d's week.
func WeekStart(d time.Time) time.Time {
	day := DayStart(d)
	weekday := day.Weekday()
	if weekday == time.Sunday {
		weekday = 7
	}
	return day.AddDate(0, 0, -int(weekday-time.Monday))
}

// MonthStart returns the first day of d's month.
func MonthStart(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
}

// YearStart returns January 1st of d's year.
func YearStart(d time.Time) time.Time {
	return time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, d.Location())
}

// Start returns the first day of the bucket containing d.
func (k Kind) Start(d time.Time) time.Time {
	switch k {
	case Weekly:
		return WeekStart(d)
	case Monthly:
		return MonthStart(d)
	case Yearly:
		return YearStart(d)
	default:
		return DayStart(d)
	}
}

// End returns the first day after the bucket starting at start.
func (k Kind) End(start time.Time) time.Time {
	start = k.Start(start)
	switch k {
	case Weekly:
		return start.AddDate(0, 0, 7)
	case Monthly:
		return start.AddDate(0, 1, 0)
	case Yearly:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// Shift moves start by n buckets (negative n moves back).
func (k Kind) Shift(start time.Time, n int) time.Time {
	start = k.Start(start)
	switch k {
	case Weekly:
		return start.AddDate(0, 0, 7*n)
	case Monthly:
		return start.AddDate(0, n, 0)
	case Yearly:
		return start.AddDate(n, 0, 0)
	default:
		return start.AddDate(0, 0, n)
	}
}

// Length returns the number of days in the bucket containing start.
func (k Kind) Length(start time.Time) int {
	s := k.Start(start)
	return DaysBetween(s, k.End(s))
}

// Days returns every day of the bucket containing start, in order.
func (k Kind) Days(start time.Time) []time.Time {
	s := k.Start(start)
	end := k.End(s)
	days := make([]time.Time, 0, DaysBetween(s, end))
	for d := s; d.Before(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Contains reports whether d falls inside the bucket starting at start.
func (k Kind) Contains(start, d time.Time) bool {
	s := k.Start(start)
	day := DayStart(d)
	return !day.Before(s) && day.Before(k.End(s))
}

// Coarser reports whether k spans more days than other.
func (k Kind) Coarser(other Kind) bool {
	return k > other
}

// DaysElapsed returns how many days of the bucket have started by now, today
// included. A past bucket reports its full length and a future bucket reports 0.
func DaysElapsed(start time.Time, k Kind, now time.Time) int {
	s := k.Start(start)
	end := k.End(s)
	today := DayStart(now)
	if today.Before(s) {
		return 0
	}
	if !today.Before(end) {
		return DaysBetween(s, end)
	}
	return DaysBetween(s, today) + 1
}

// AveragingDays is DaysElapsed floored at 1, for use as a divisor.
func AveragingDays(start time.Time, k Kind, now time.Time) int {
	if n := DaysElapsed(start, k, now); n > 0 {
		return n
	}
	return 1
}

// MonthsElapsed returns how many months of the year starting at yearStart have
// started by now (0..12).
func MonthsElapsed(yearStart time.Time, now time.Time) int {
	s := YearStart(yearStart)
	if now.Before(s) {
		return 0
	}
	if now.Year() > s.Year() {
		return 12
	}
	return int(now.Month())
}

// IsFuture reports whether the bucket starting at start begins after today.
func IsFuture(start time.Time, k Kind, now time.Time) bool {
	return k.Start(start).After(DayStart(now))
}

// DaysBetween counts calendar days from a to b, tolerating DST shifts.
func DaysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
