package engine

import (
	"fmt"
	"sort"
	"time"

	"houseduty/internal/domain"
)

// due time for every occurrence, end of day.
const (
	dueHour   = 23
	dueMinute = 59
)

// ExpandWeek turns the catalog into the concrete occurrences due in the
// week starting at weekStart. weekIndex is the whole-week offset from the
// rotation anchor and drives biweekly parity. Malformed templates are a
// fatal configuration error, not a per-occurrence skip.
func ExpandWeek(templates []domain.TaskTemplate, weekStart time.Time, weekIndex int) ([]domain.Occurrence, error) {
	var occs []domain.Occurrence
	for _, t := range templates {
		days, err := activeDays(t, weekIndex)
		if err != nil {
			return nil, err
		}
		for _, dow := range days {
			occs = append(occs, occurrenceOn(t, weekStart, weekIndex, dow, false))
		}
	}
	sortOccurrences(occs)
	return occs, nil
}

// activeDays resolves which weekdays of the target week the template
// fires on, or nil when a biweekly template is off-parity this week.
func activeDays(t domain.TaskTemplate, weekIndex int) ([]int, error) {
	switch t.Cadence {
	case domain.CadenceWeekly:
		if len(t.DaysOfWeek) == 0 {
			return nil, fmt.Errorf("template %s: weekly cadence without days_of_week", t.Key)
		}
		return checkedDays(t.Key, domain.UniqueSortedDays(t.DaysOfWeek))
	case domain.CadenceBiweekly:
		if len(t.DaysOfWeek) == 0 {
			return nil, fmt.Errorf("template %s: biweekly cadence without days_of_week", t.Key)
		}
		if !t.Parity.Matches(weekIndex) {
			return nil, nil
		}
		return checkedDays(t.Key, domain.UniqueSortedDays(t.DaysOfWeek))
	case domain.CadenceNPerWeek:
		if t.TimesPerWeek < 1 || t.TimesPerWeek > 7 {
			return nil, fmt.Errorf("template %s: n_per_week cadence needs times_per_week 1-7", t.Key)
		}
		days := make([]int, t.TimesPerWeek)
		if len(t.PreferredDays) > 0 {
			// Cycle preferred days to the target count; truncation is the
			// degenerate case of cycling.
			for i := range days {
				days[i] = t.PreferredDays[i%len(t.PreferredDays)]
			}
		} else {
			// Stable even spread across the Sunday-start week.
			for i := range days {
				days[i] = i * 7 / t.TimesPerWeek
			}
		}
		return checkedDays(t.Key, days)
	default:
		return nil, fmt.Errorf("template %s: unknown cadence %q", t.Key, t.Cadence)
	}
}

func checkedDays(key string, days []int) ([]int, error) {
	for _, d := range days {
		if d < 0 || d > 6 {
			return nil, fmt.Errorf("template %s: weekday %d out of range 0-6", key, d)
		}
	}
	return days, nil
}

func occurrenceOn(t domain.TaskTemplate, weekStart time.Time, weekIndex, dow int, bonus bool) domain.Occurrence {
	return domain.Occurrence{
		TaskKey:      t.Key,
		Label:        t.Label,
		Deck:         t.Deck,
		Category:     t.Category,
		PeopleNeeded: t.PeopleNeeded,
		Due:          domain.DayOn(weekStart, dow, dueHour, dueMinute),
		WeekIndex:    weekIndex,
		Weight:       t.Weight(),
		Bonus:        bonus,
	}
}

// sortOccurrences fixes the staffing order: due date, then heavier tasks
// first, then template key, bonus occurrences after their base siblings.
// Later occurrences see the load of earlier ones, so this order is part
// of the engine's contract.
func sortOccurrences(occs []domain.Occurrence) {
	sort.SliceStable(occs, func(i, j int) bool {
		a, b := occs[i], occs[j]
		if !a.Due.Equal(b.Due) {
			return a.Due.Before(b.Due)
		}
		if a.Weight != b.Weight {
			return a.Weight > b.Weight
		}
		if a.TaskKey != b.TaskKey {
			return a.TaskKey < b.TaskKey
		}
		return !a.Bonus && b.Bonus
	})
}
