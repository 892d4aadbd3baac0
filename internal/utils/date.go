package contextutils

import "time"

// DateLayout is the wire format for calendar days.
const DateLayout = "2006-01-02"

// NormalizeDate truncates a timestamp to midnight UTC. Quest catalogs, quest
// assignments and streak bookkeeping are all keyed by calendar day, so every
// date entering the engine goes through this first.
func NormalizeDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from a to b.
// Both inputs are normalized to midnight UTC before differencing, so the
// result is insensitive to the time-of-day component.
func DaysBetween(a, b time.Time) int {
	a = NormalizeDate(a)
	b = NormalizeDate(b)
	return int(b.Sub(a).Hours() / 24)
}

// ParseDate parses a YYYY-MM-DD string as a UTC calendar day.
// An empty string means "today".
func ParseDate(dateStr string) (time.Time, error) {
	if dateStr == "" {
		return NormalizeDate(time.Now()), nil
	}
	d, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return time.Time{}, WrapError(err, "invalid date format")
	}
	return NormalizeDate(d), nil
}
