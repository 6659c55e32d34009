package ledger

import "time"

// DateOnly truncates t to a calendar date at UTC midnight.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthWindow returns the first and last calendar day of t's month, both at
// UTC midnight. This is the conventional budget period.
func MonthWindow(t time.Time) (start, end time.Time) {
	y, m, _ := t.UTC().Date()
	start = time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, -1)
	return start, end
}

// FirstOfMonth returns the first day of t's month at UTC midnight.
func FirstOfMonth(t time.Time) time.Time {
	s, _ := MonthWindow(t)
	return s
}

// MonthKey formats t's month as "yyyy-MM". Keys compare chronologically as
// strings, which the net-worth walk relies on.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
