package domain

import "time"

// =============================================================================
// PERIOD - Inclusive date range for commission aggregation
// =============================================================================

// Period is an inclusive [Start, End] range at day granularity.
// All period math is calendar-date only, in UTC; wall-clock time and
// zones never influence which period a commission falls into.
type Period struct {
	Start time.Time
	End   time.Time
}

// Date builds a day-granular UTC time.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// MonthOf returns the calendar-month period containing t.
func MonthOf(t time.Time) Period {
	start := Date(t.Year(), t.Month(), 1)
	end := start.AddDate(0, 1, -1)
	return Period{Start: start, End: end}
}

// Contains reports whether t falls within [Start, End].
func (p Period) Contains(t time.Time) bool {
	d := Date(t.Year(), t.Month(), t.Day())
	return !d.Before(p.Start) && !d.After(p.End)
}

// Valid reports whether the period is well-formed.
func (p Period) Valid() bool { return !p.Start.After(p.End) }

func (p Period) String() string {
	return "[" + p.Start.Format("2006-01-02") + ", " + p.End.Format("2006-01-02") + "]"
}

// =============================================================================
// WORKING DAYS - Weekend-exclusive day counting
// =============================================================================

// WorkingDays counts Monday-Friday days in [start, end], inclusive of
// both endpoints. Returns 0 when start is after end.
func WorkingDays(start, end time.Time) int {
	current := Date(start.Year(), start.Month(), start.Day())
	last := Date(end.Year(), end.Month(), end.Day())

	days := 0
	for !current.After(last) {
		wd := current.Weekday()
		if wd != time.Saturday && wd != time.Sunday {
			days++
		}
		current = current.AddDate(0, 0, 1)
	}
	return days
}

// PeriodWorkingDays is WorkingDays over a Period.
func PeriodWorkingDays(p Period) int { return WorkingDays(p.Start, p.End) }
