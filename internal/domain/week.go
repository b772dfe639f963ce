package domain

import (
	"sort"
	"time"
)

// Weekday names indexed 0=Sunday through 6=Saturday; weeks start on Sunday.
var Weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// MostRecentSunday returns the Sunday on or before d.
func MostRecentSunday(d time.Time) time.Time {
	d = Midnight(d)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// WeekIndexFromAnchor returns the number of whole weeks between the anchor
// Sunday and the given week start. Week 0 is the anchor's own week.
func WeekIndexFromAnchor(anchor, weekStart time.Time) int {
	days := int(Midnight(weekStart).Sub(Midnight(anchor)).Hours() / 24)
	if days < 0 {
		return -((-days + 6) / 7)
	}
	return days / 7
}

// DayOn places a due timestamp on weekday dow (0=Sunday) of the week
// beginning at weekStart.
func DayOn(weekStart time.Time, dow int, hour, minute int) time.Time {
	d := Midnight(weekStart).AddDate(0, 0, dow)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, time.UTC)
}

// Midnight truncates t to its date in UTC.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// UniqueSortedDays removes duplicates and sorts weekday indices.
func UniqueSortedDays(days []int) []int {
	seen := map[int]bool{}
	var out []int
	for _, d := range days {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Ints(out)
	return out
}
