package core

import "time"

// Window identifies one of the calendar counting windows.
type Window int

const (
	WindowHourly Window = iota
	WindowDaily
	WindowMonthly
)

func (w Window) String() string {
	switch w {
	case WindowHourly:
		return "hourly"
	case WindowDaily:
		return "daily"
	case WindowMonthly:
		return "monthly"
	default:
		return "unknown"
	}
}

// Window keys encode calendar periods as integers whose numeric ordering
// matches chronological ordering, so counting queries are plain equality
// lookups instead of range scans. All keys use UTC date parts.

// MonthKey returns year*100 + month for t.
func MonthKey(t time.Time) int {
	year, month, _ := t.UTC().Date()
	return year*100 + int(month)
}

// DayKey returns MonthKey*100 + day for t.
func DayKey(t time.Time) int {
	return MonthKey(t)*100 + t.UTC().Day()
}

// HourKey returns DayKey*100 + hour for t.
func HourKey(t time.Time) int {
	return DayKey(t)*100 + t.UTC().Hour()
}

// WindowKey returns the key for t in the given window.
func WindowKey(w Window, t time.Time) int {
	switch w {
	case WindowHourly:
		return HourKey(t)
	case WindowDaily:
		return DayKey(t)
	default:
		return MonthKey(t)
	}
}
