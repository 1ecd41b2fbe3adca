package domain

import "time"

// Window is a time interval used to filter ledger queries.
//
// Range aggregations (day, month, trailing) use the half-open convention
// [Start, End). Single-day point-in-time reports use a closed interval
// [Start, End] at millisecond precision, marked by EndInclusive. The two
// conventions are distinct on purpose and must not be merged: a transaction
// stamped exactly 23:59:59.999 belongs to that day's report, while one at
// 00:00:00.000 the next day does not.
type Window struct {
	Start        time.Time
	End          time.Time
	EndInclusive bool
}

// AllTime returns an unbounded window. Stores treat zero Start/End as "no bound".
func AllTime() Window {
	return Window{}
}

// DayWindow returns the half-open window [startOfDay, startOfNextDay) for the
// calendar day containing ref, in ref's location.
func DayWindow(ref time.Time) Window {
	start := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	return Window{Start: start, End: start.AddDate(0, 0, 1)}
}

// MonthWindow returns the half-open window [startOfMonth, startOfNextMonth).
// time.Date normalizes month 13 to January of the next year, so December
// rolls over correctly.
func MonthWindow(year int, month time.Month, loc *time.Location) Window {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return Window{Start: start, End: time.Date(year, month+1, 1, 0, 0, 0, 0, loc)}
}

// TrailingWindow returns the half-open window [ref-days, ref).
func TrailingWindow(ref time.Time, days int) Window {
	return Window{Start: ref.AddDate(0, 0, -days), End: ref}
}

// ReportDayWindow returns the closed window [00:00:00.000, 23:59:59.999] of
// the calendar day containing date, in loc. Any time-of-day component of
// date is ignored.
func ReportDayWindow(date time.Time, loc *time.Location) Window {
	d := date.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return Window{
		Start:        start,
		End:          start.AddDate(0, 0, 1).Add(-time.Millisecond),
		EndInclusive: true,
	}
}

// Contains reports whether t falls inside the window. A zero Start or End
// means the window is unbounded on that side.
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if w.End.IsZero() {
		return true
	}
	if w.EndInclusive {
		return !t.After(w.End)
	}
	return t.Before(w.End)
}
