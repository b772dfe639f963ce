package engine_test

import (
	"testing"
	"time"

	"houseduty/internal/domain"
	"houseduty/internal/engine"
)

var sunday = time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)

func weekly(key string, people int, days ...int) domain.TaskTemplate {
	return domain.TaskTemplate{
		Key: key, Label: key, Deck: "First Deck", Category: domain.CategoryCommon,
		PeopleNeeded: people, Cadence: domain.CadenceWeekly, DaysOfWeek: days,
		Severity: 3, EffortMultiplier: 1.0,
	}
}

func TestExpandWeekly(t *testing.T) {
	occs, err := engine.ExpandWeek([]domain.TaskTemplate{weekly("K1", 1, 0, 3)}, sunday, 0)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if len(occs) != 2 {
		t.Fatalf("want 2 occurrences, got %d", len(occs))
	}
	wantSun := time.Date(2026, 1, 4, 23, 59, 0, 0, time.UTC)
	wantWed := time.Date(2026, 1, 7, 23, 59, 0, 0, time.UTC)
	if !occs[0].Due.Equal(wantSun) || !occs[1].Due.Equal(wantWed) {
		t.Fatalf("wrong due dates: %v, %v", occs[0].Due, occs[1].Due)
	}
}

func TestExpandBiweeklyParity(t *testing.T) {
	tpl := weekly("B1", 1, 6)
	tpl.Cadence = domain.CadenceBiweekly

	for week, want := range map[int]int{0: 1, 1: 0, 2: 1, 3: 0} {
		occs, err := engine.ExpandWeek([]domain.TaskTemplate{tpl}, sunday.AddDate(0, 0, 7*week), week)
		if err != nil {
			t.Fatalf("week %d: %v", week, err)
		}
		if len(occs) != want {
			t.Fatalf("week %d: want %d occurrences, got %d", week, want, len(occs))
		}
	}

	tpl.Parity = domain.ParityOdd
	occs, err := engine.ExpandWeek([]domain.TaskTemplate{tpl}, sunday, 0)
	if err != nil {
		t.Fatalf("odd parity week 0: %v", err)
	}
	if len(occs) != 0 {
		t.Fatalf("odd parity task must skip week 0")
	}
}

func TestExpandNPerWeekSpread(t *testing.T) {
	tpl := domain.TaskTemplate{
		Key: "N1", Label: "N1", Deck: "Zero Deck", Category: domain.CategoryFloors,
		PeopleNeeded: 1, Cadence: domain.CadenceNPerWeek, TimesPerWeek: 3,
		Severity: 3, EffortMultiplier: 1.0,
	}
	occs, err := engine.ExpandWeek([]domain.TaskTemplate{tpl}, sunday, 0)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	var days []int
	for _, occ := range occs {
		days = append(days, int(occ.Due.Weekday()))
	}
	if len(days) != 3 || days[0] != 0 || days[1] != 2 || days[2] != 4 {
		t.Fatalf("uneven spread: %v", days)
	}
}

func TestExpandNPerWeekCyclesPreferredDays(t *testing.T) {
	tpl := domain.TaskTemplate{
		Key: "N2", Label: "N2", Deck: "Zero Deck", Category: domain.CategoryFloors,
		PeopleNeeded: 1, Cadence: domain.CadenceNPerWeek, TimesPerWeek: 3,
		PreferredDays: []int{2, 4},
		Severity:      3, EffortMultiplier: 1.0,
	}
	occs, err := engine.ExpandWeek([]domain.TaskTemplate{tpl}, sunday, 0)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	var days []int
	for _, occ := range occs {
		days = append(days, int(occ.Due.Weekday()))
	}
	// cycled [2 4 2], then ordered by due date
	if len(days) != 3 || days[0] != 2 || days[1] != 2 || days[2] != 4 {
		t.Fatalf("preferred days not cycled: %v", days)
	}
}

func TestExpandOrdersHeavierFirstWithinDay(t *testing.T) {
	light := weekly("LIGHT", 1, 2)
	heavy := weekly("HEAVY", 1, 2)
	heavy.Severity = 5
	occs, err := engine.ExpandWeek([]domain.TaskTemplate{light, heavy}, sunday, 0)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if occs[0].TaskKey != "HEAVY" || occs[1].TaskKey != "LIGHT" {
		t.Fatalf("wrong order: %s, %s", occs[0].TaskKey, occs[1].TaskKey)
	}
}

func TestExpandRejectsMalformedTemplates(t *testing.T) {
	noDays := weekly("W1", 1)
	if _, err := engine.ExpandWeek([]domain.TaskTemplate{noDays}, sunday, 0); err == nil {
		t.Fatalf("weekly without days must fail")
	}
	badDay := weekly("W2", 1, 7)
	if _, err := engine.ExpandWeek([]domain.TaskTemplate{badDay}, sunday, 0); err == nil {
		t.Fatalf("weekday 7 must fail")
	}
	badTimes := domain.TaskTemplate{
		Key: "W3", Label: "W3", Category: domain.CategoryCommon, PeopleNeeded: 1,
		Cadence: domain.CadenceNPerWeek, TimesPerWeek: 0, Severity: 3, EffortMultiplier: 1.0,
	}
	if _, err := engine.ExpandWeek([]domain.TaskTemplate{badTimes}, sunday, 0); err == nil {
		t.Fatalf("times_per_week 0 must fail")
	}
}
