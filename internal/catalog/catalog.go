package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"houseduty/internal/domain"
)

// base2xDays are the default weekdays for twice-a-week chores (Tue, Thu).
var base2xDays = []int{2, 4}

// Builtin returns the house task catalog, grouped by deck.
func Builtin() []domain.TaskTemplate {
	var templates []domain.TaskTemplate
	add := func(t domain.TaskTemplate) {
		if t.Severity == 0 {
			t.Severity = defaultSeverity(t.Category)
		}
		if t.EffortMultiplier == 0 {
			t.EffortMultiplier = 1.0
		}
		templates = append(templates, t)
	}

	// Zero Deck
	add(domain.TaskTemplate{
		Key: "ZD_RATSKELLER_FLOOR", Deck: "Zero Deck", Label: "Ratskeller Sweep+Mop",
		Category: domain.CategoryFloors, PeopleNeeded: 2, Cadence: domain.CadenceNPerWeek,
		TimesPerWeek: 2, PreferredDays: base2xDays, EffortMultiplier: 1.1, BonusEligible: true,
	})
	add(domain.TaskTemplate{
		Key: "ZD_GAMEX_FLOOR", Deck: "Zero Deck", Label: "Game Room + X-Room Sweep+Mop",
		Category: domain.CategoryFloors, PeopleNeeded: 2, Cadence: domain.CadenceNPerWeek,
		TimesPerWeek: 2, PreferredDays: base2xDays, EffortMultiplier: 1.1, BonusEligible: true,
	})
	add(domain.TaskTemplate{
		Key: "ZD_LAUNDRY", Deck: "Zero Deck", Label: "Laundry Room Clean",
		Category: domain.CategoryLaundry, PeopleNeeded: 1, Cadence: domain.CadenceWeekly,
		DaysOfWeek: []int{6},
	})

	// First Deck
	add(domain.TaskTemplate{
		Key: "FD_KM_SUN", Deck: "First Deck", Label: "K&M",
		Category: domain.CategoryKitchen, PeopleNeeded: 3, Cadence: domain.CadenceWeekly,
		DaysOfWeek: []int{0}, EffortMultiplier: 1.2,
	})
	for i, suffix := range []string{"MON", "TUE", "WED", "THU"} {
		add(domain.TaskTemplate{
			Key: "FD_KM_" + suffix, Deck: "First Deck", Label: "K&M",
			Category: domain.CategoryKitchen, PeopleNeeded: 2, Cadence: domain.CadenceWeekly,
			DaysOfWeek: []int{i + 1}, EffortMultiplier: 1.1,
		})
	}
	add(domain.TaskTemplate{
		Key: "FD_LIVING_FLOOR", Deck: "First Deck", Label: "Living Room Sweep+Mop",
		Category: domain.CategoryFloors, PeopleNeeded: 2, Cadence: domain.CadenceNPerWeek,
		TimesPerWeek: 2, PreferredDays: base2xDays, EffortMultiplier: 1.05, BonusEligible: true,
	})
	add(domain.TaskTemplate{
		Key: "FD_DINING_FLOOR", Deck: "First Deck", Label: "Dining Room Sweep+Mop",
		Category: domain.CategoryFloors, PeopleNeeded: 2, Cadence: domain.CadenceNPerWeek,
		TimesPerWeek: 2, PreferredDays: base2xDays, EffortMultiplier: 1.05, BonusEligible: true,
	})

	// Second Deck
	add(domain.TaskTemplate{
		Key: "SD_HALL_FLOOR", Deck: "Second Deck", Label: "Hallway Sweep+Mop",
		Category: domain.CategoryFloors, PeopleNeeded: 2, Cadence: domain.CadenceNPerWeek,
		TimesPerWeek: 2, PreferredDays: base2xDays, BonusEligible: true,
	})
	add(domain.TaskTemplate{
		Key: "SD_SINKS", Deck: "Second Deck", Label: "Sinks Clean/Sweep Bathroom",
		Category: domain.CategoryBathrooms, PeopleNeeded: 1, Cadence: domain.CadenceNPerWeek,
		TimesPerWeek: 2, PreferredDays: base2xDays, BonusEligible: true,
	})
	add(domain.TaskTemplate{
		Key: "SD_TOILETS", Deck: "Second Deck", Label: "Toilets Clean/Mop Bathroom",
		Category: domain.CategoryBathrooms, PeopleNeeded: 1, Cadence: domain.CadenceNPerWeek,
		TimesPerWeek: 2, PreferredDays: base2xDays, BonusEligible: true,
	})
	add(domain.TaskTemplate{
		Key: "SD_SHOWERS", Deck: "Second Deck", Label: "Showers Clean",
		Category: domain.CategoryBathrooms, PeopleNeeded: 2, Cadence: domain.CadenceWeekly,
		DaysOfWeek: []int{6}, EffortMultiplier: 1.2,
	})
	add(domain.TaskTemplate{
		Key: "SD_STAIRS_FLOOR", Deck: "Second Deck", Label: "Stairs Sweep+Mop",
		Category: domain.CategoryFloors, PeopleNeeded: 2, Cadence: domain.CadenceNPerWeek,
		TimesPerWeek: 2, PreferredDays: base2xDays, EffortMultiplier: 1.1, BonusEligible: true,
	})
	add(domain.TaskTemplate{
		Key: "SD_LROOM", Deck: "Second Deck", Label: "L-Room Clean",
		Category: domain.CategoryCommon, PeopleNeeded: 1, Cadence: domain.CadenceWeekly,
		DaysOfWeek: []int{6},
	})
	add(domain.TaskTemplate{
		Key: "SD_LIBRARY", Deck: "Second Deck", Label: "Library Clean",
		Category: domain.CategoryCommon, PeopleNeeded: 1, Cadence: domain.CadenceWeekly,
		DaysOfWeek: []int{6},
	})
	add(domain.TaskTemplate{
		Key: "SD_BRASSO", Deck: "Second Deck", Label: "Brasso",
		Category: domain.CategoryOther, PeopleNeeded: 1, Cadence: domain.CadenceBiweekly,
		DaysOfWeek: []int{6}, Severity: 3,
	})
	add(domain.TaskTemplate{
		Key: "SD_BLUE", Deck: "Second Deck", Label: "Blue",
		Category: domain.CategoryOther, PeopleNeeded: 1, Cadence: domain.CadenceBiweekly,
		DaysOfWeek: []int{6}, Severity: 3,
	})

	// Third Deck
	add(domain.TaskTemplate{
		Key: "TD_HALL_FLOOR", Deck: "Third Deck", Label: "Hallway Sweep+Mop",
		Category: domain.CategoryFloors, PeopleNeeded: 2, Cadence: domain.CadenceNPerWeek,
		TimesPerWeek: 2, PreferredDays: base2xDays, BonusEligible: true,
	})
	add(domain.TaskTemplate{
		Key: "TD_SINKS", Deck: "Third Deck", Label: "Sinks Clean/Sweep Bathroom",
		Category: domain.CategoryBathrooms, PeopleNeeded: 1, Cadence: domain.CadenceNPerWeek,
		TimesPerWeek: 2, PreferredDays: base2xDays, BonusEligible: true,
	})
	add(domain.TaskTemplate{
		Key: "TD_TOILETS", Deck: "Third Deck", Label: "Toilets Clean/Mop Bathroom",
		Category: domain.CategoryBathrooms, PeopleNeeded: 1, Cadence: domain.CadenceNPerWeek,
		TimesPerWeek: 2, PreferredDays: base2xDays, BonusEligible: true,
	})
	add(domain.TaskTemplate{
		Key: "TD_SHOWERS", Deck: "Third Deck", Label: "Showers Clean",
		Category: domain.CategoryBathrooms, PeopleNeeded: 2, Cadence: domain.CadenceWeekly,
		DaysOfWeek: []int{6}, EffortMultiplier: 1.2,
	})
	add(domain.TaskTemplate{
		Key: "TD_STAIRS_FLOOR", Deck: "Third Deck", Label: "Stairs Sweep+Mop",
		Category: domain.CategoryFloors, PeopleNeeded: 2, Cadence: domain.CadenceNPerWeek,
		TimesPerWeek: 2, PreferredDays: base2xDays, EffortMultiplier: 1.1, BonusEligible: true,
	})
	add(domain.TaskTemplate{
		Key: "TD_BRASSO", Deck: "Third Deck", Label: "Brasso",
		Category: domain.CategoryOther, PeopleNeeded: 1, Cadence: domain.CadenceBiweekly,
		DaysOfWeek: []int{6}, Severity: 3,
	})
	add(domain.TaskTemplate{
		Key: "TD_BLUE", Deck: "Third Deck", Label: "Blue",
		Category: domain.CategoryOther, PeopleNeeded: 1, Cadence: domain.CadenceBiweekly,
		DaysOfWeek: []int{6}, Severity: 3,
	})

	return templates
}

func defaultSeverity(cat domain.Category) int {
	switch cat {
	case domain.CategoryKitchen:
		return 5
	case domain.CategoryBathrooms:
		return 4
	case domain.CategoryLaundry:
		return 2
	default:
		return 3
	}
}

// FromFile loads a catalog from a YAML file of templates.
func FromFile(path string) ([]domain.TaskTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Tasks []domain.TaskTemplate `yaml:"tasks"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid catalog yaml: %w", err)
	}
	for i := range doc.Tasks {
		if doc.Tasks[i].Severity == 0 {
			doc.Tasks[i].Severity = defaultSeverity(doc.Tasks[i].Category)
		}
		if doc.Tasks[i].EffortMultiplier == 0 {
			doc.Tasks[i].EffortMultiplier = 1.0
		}
	}
	if err := Validate(doc.Tasks); err != nil {
		return nil, err
	}
	return doc.Tasks, nil
}

// ApplySeverityOverrides replaces per-key severities, returning a copy.
func ApplySeverityOverrides(templates []domain.TaskTemplate, overrides map[string]int) []domain.TaskTemplate {
	if len(overrides) == 0 {
		return templates
	}
	out := make([]domain.TaskTemplate, len(templates))
	copy(out, templates)
	for i := range out {
		if sev, ok := overrides[out[i].Key]; ok {
			out[i].Severity = sev
		}
	}
	return out
}
