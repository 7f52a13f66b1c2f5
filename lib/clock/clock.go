package clock

import (
	"fmt"
	"time"
)

// Layout is the storage format for all timestamps. Fixed-width UTC, so
// lexicographic comparison matches chronological order in SQL.
const Layout = "2006-01-02T15:04:05Z"

// ScheduleLayout is the timestamp format accepted by the /schedule command.
const ScheduleLayout = "2006-01-02_15:04"

func Now() string {
	return Format(time.Now())
}

func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("not a valid time: %s", s)
	}
	return t, nil
}

// ParseSchedule parses an admin-supplied schedule timestamp
// (YYYY-MM-DD_HH:MM, interpreted as UTC).
func ParseSchedule(s string) (time.Time, error) {
	t, err := time.Parse(ScheduleLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("not a valid schedule time: %s", s)
	}
	return t.UTC(), nil
}
