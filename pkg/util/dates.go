package util

import "time"

// StartOfDay truncates t to midnight in t's location. Attendance and leave
// rows are keyed by this value.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween counts calendar days in [from, to], both ends included.
func DaysBetween(from, to time.Time) int {
	from, to = StartOfDay(from), StartOfDay(to)
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours()/24) + 1
}

// MonthKey formats t as YYYY-MM.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}
