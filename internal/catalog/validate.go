package catalog

import (
	"fmt"

	"houseduty/internal/domain"
)

// Validate checks the catalog for structural errors. Any failure is a
// fatal configuration error; scheduling must not proceed past it.
func Validate(templates []domain.TaskTemplate) error {
	if len(templates) == 0 {
		return fmt.Errorf("catalog is empty")
	}
	seen := map[string]bool{}
	for _, t := range templates {
		if t.Key == "" {
			return fmt.Errorf("template with empty key (label %q)", t.Label)
		}
		if seen[t.Key] {
			return fmt.Errorf("duplicate template key %s", t.Key)
		}
		seen[t.Key] = true
		if err := validateTemplate(t); err != nil {
			return err
		}
	}
	return nil
}

func validateTemplate(t domain.TaskTemplate) error {
	if t.Label == "" {
		return fmt.Errorf("template %s: label is required", t.Key)
	}
	if !t.Category.Valid() {
		return fmt.Errorf("template %s: invalid category %q", t.Key, t.Category)
	}
	if t.PeopleNeeded < 1 {
		return fmt.Errorf("template %s: people_needed must be >= 1", t.Key)
	}
	if !t.Cadence.Valid() {
		return fmt.Errorf("template %s: invalid cadence %q", t.Key, t.Cadence)
	}
	if t.Severity < 1 || t.Severity > 5 {
		return fmt.Errorf("template %s: severity must be 1-5, got %d", t.Key, t.Severity)
	}
	if t.EffortMultiplier <= 0 {
		return fmt.Errorf("template %s: effort_multiplier must be positive", t.Key)
	}
	if t.Parity != "" && t.Parity != domain.ParityEven && t.Parity != domain.ParityOdd {
		return fmt.Errorf("template %s: parity must be even or odd, got %q", t.Key, t.Parity)
	}

	switch t.Cadence {
	case domain.CadenceWeekly, domain.CadenceBiweekly:
		if len(t.DaysOfWeek) == 0 {
			return fmt.Errorf("template %s: days_of_week required for %s cadence", t.Key, t.Cadence)
		}
		for _, d := range t.DaysOfWeek {
			if d < 0 || d > 6 {
				return fmt.Errorf("template %s: day %d out of range 0-6 (Sun-Sat)", t.Key, d)
			}
		}
	case domain.CadenceNPerWeek:
		if t.TimesPerWeek < 1 || t.TimesPerWeek > 7 {
			return fmt.Errorf("template %s: times_per_week must be 1-7 for n_per_week cadence", t.Key)
		}
		for _, d := range t.PreferredDays {
			if d < 0 || d > 6 {
				return fmt.Errorf("template %s: preferred day %d out of range 0-6 (Sun-Sat)", t.Key, d)
			}
		}
	}
	return nil
}
