package engine_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"houseduty/internal/domain"
	"houseduty/internal/engine"
	"houseduty/internal/rotation"
)

func newEngine(templates []domain.TaskTemplate, roster []string) engine.Engine {
	return engine.Engine{
		Catalog:  templates,
		Roster:   roster,
		Fairness: engine.DefaultFairness(),
		Bonus:    engine.DefaultBonusPolicy(),
	}
}

func TestRunIsDeterministic(t *testing.T) {
	templates := []domain.TaskTemplate{
		weekly("K1", 3, 0),
		weekly("K2", 2, 1),
		bonusTpl("F1", domain.CategoryFloors),
		bonusTpl("B1", domain.CategoryBathrooms),
	}
	eng := newEngine(templates, names(14))

	run := func() ([]byte, []byte) {
		result, next, err := eng.Run(rotation.Empty(), sunday)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		rb, _ := json.Marshal(result)
		sb, _ := json.Marshal(next)
		return rb, sb
	}
	r1, s1 := run()
	r2, s2 := run()
	if string(r1) != string(r2) {
		t.Fatalf("results differ between identical runs")
	}
	if string(s1) != string(s2) {
		t.Fatalf("states differ between identical runs")
	}
}

func TestFirstRunFixesAnchor(t *testing.T) {
	eng := newEngine([]domain.TaskTemplate{weekly("K1", 1, 0)}, []string{"Alice", "Bob"})

	result, next, err := eng.Run(rotation.Empty(), sunday)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if next.AnchorSunday != "2026-01-04" {
		t.Fatalf("anchor not fixed: %q", next.AnchorSunday)
	}
	if result.WeekIndex != 0 {
		t.Fatalf("first run must be week 0, got %d", result.WeekIndex)
	}

	result2, after, err := eng.Run(next, sunday.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if after.AnchorSunday != "2026-01-04" {
		t.Fatalf("anchor moved: %q", after.AnchorSunday)
	}
	if result2.WeekIndex != 1 {
		t.Fatalf("second week must index 1, got %d", result2.WeekIndex)
	}
}

func TestRunDoesNotMutateInputState(t *testing.T) {
	eng := newEngine([]domain.TaskTemplate{weekly("K1", 1, 0)}, []string{"Alice", "Bob"})
	state := rotation.Empty()
	before, _ := state.Encode()
	if _, _, err := eng.Run(state, sunday); err != nil {
		t.Fatalf("run: %v", err)
	}
	after, _ := state.Encode()
	if string(before) != string(after) {
		t.Fatalf("input state mutated")
	}
}

func TestLoadSpreadsAcrossRoster(t *testing.T) {
	// one person needed twice a week: the second occurrence must go to
	// whoever sat out the first
	tpl := domain.TaskTemplate{
		Key: "N1", Label: "N1", Deck: "Zero Deck", Category: domain.CategoryFloors,
		PeopleNeeded: 1, Cadence: domain.CadenceNPerWeek, TimesPerWeek: 2,
		PreferredDays: []int{2, 4}, Severity: 3, EffortMultiplier: 1.0,
	}
	eng := newEngine([]domain.TaskTemplate{tpl}, []string{"Alice", "Bob"})
	result, _, err := eng.Run(rotation.Empty(), sunday)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("want 2 occurrences, got %d", len(result.Items))
	}
	if result.Items[0].Assigned[0] == result.Items[1].Assigned[0] {
		t.Fatalf("same person got both occurrences: %v", result.Items)
	}
}

func TestRecentPenaltyRotatesPeople(t *testing.T) {
	eng := newEngine([]domain.TaskTemplate{weekly("K1", 1, 0)}, []string{"Alice", "Bob"})

	state := rotation.Empty()
	state.LastWeek["Alice"] = []string{"K1"}
	state.TaskCounts["Alice"] = map[string]int{"K1": 1}

	result, _, err := eng.Run(state, sunday)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := result.Items[0].Assigned[0]; got != "Bob" {
		t.Fatalf("task must rotate away from last week's assignee, got %s", got)
	}
}

func TestExemptPeopleAreNeverAssigned(t *testing.T) {
	eng := newEngine([]domain.TaskTemplate{weekly("K1", 2, 0), weekly("K2", 2, 3)}, []string{"Alice", "Bob", "Carol"})
	eng.Constraints = domain.Constraints{ExemptAll: []string{"Carol"}}

	result, _, err := eng.Run(rotation.Empty(), sunday)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, item := range result.Items {
		for _, p := range item.Assigned {
			if p == "Carol" {
				t.Fatalf("exempt person assigned: %+v", item)
			}
		}
	}
}

func TestOnCallUsedOnlyWhenPoolExhausted(t *testing.T) {
	eng := newEngine([]domain.TaskTemplate{weekly("K1", 1, 0)}, []string{"Alice", "Bob"})
	eng.Constraints = domain.Constraints{OnCallOnly: []string{"Bob"}}

	result, _, err := eng.Run(rotation.Empty(), sunday)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := result.Items[0].Assigned[0]; got != "Alice" {
		t.Fatalf("on-call person used while normal pool available: %s", got)
	}

	// Alice unavailable on the due date: the backup pool steps in
	eng.Constraints.UnavailableDates = map[string][]string{"Alice": {"2026-01-04"}}
	result, _, err = eng.Run(rotation.Empty(), sunday)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := result.Items[0].Assigned[0]; got != "Bob" {
		t.Fatalf("backup pool not used: %s", got)
	}
}

func TestOnCallTopsUpShortPools(t *testing.T) {
	eng := newEngine([]domain.TaskTemplate{weekly("K1", 2, 0)}, []string{"Alice", "Bob"})
	eng.Constraints = domain.Constraints{OnCallOnly: []string{"Bob"}}

	result, _, err := eng.Run(rotation.Empty(), sunday)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	item := result.Items[0]
	if !reflect.DeepEqual(item.Assigned, []string{"Alice", "Bob"}) {
		t.Fatalf("backup must fill the remaining slots: %v", item.Assigned)
	}
	if item.Understaffed {
		t.Fatalf("fully staffed occurrence flagged understaffed")
	}
}

func TestCategoryBanRespected(t *testing.T) {
	bath := weekly("BATH", 2, 0)
	bath.Category = domain.CategoryBathrooms
	eng := newEngine([]domain.TaskTemplate{bath}, []string{"Alice", "Bob"})
	eng.Constraints = domain.Constraints{
		CategoryBans: map[string][]domain.Category{"Bob": {domain.CategoryBathrooms}},
	}

	result, _, err := eng.Run(rotation.Empty(), sunday)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	item := result.Items[0]
	if !reflect.DeepEqual(item.Assigned, []string{"Alice"}) {
		t.Fatalf("banned person assigned: %v", item.Assigned)
	}
	if !item.Understaffed || len(result.Warnings) != 1 {
		t.Fatalf("short staffing must be flagged, not hidden: %+v", result)
	}
}

func TestTaskBanRespected(t *testing.T) {
	eng := newEngine([]domain.TaskTemplate{weekly("K1", 2, 0)}, []string{"Alice", "Bob"})
	eng.Constraints = domain.Constraints{
		TaskBans: map[string][]string{"Bob": {"K1"}},
	}

	result, _, err := eng.Run(rotation.Empty(), sunday)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	item := result.Items[0]
	if !reflect.DeepEqual(item.Assigned, []string{"Alice"}) {
		t.Fatalf("task-banned person assigned: %v", item.Assigned)
	}
	if !item.Understaffed {
		t.Fatalf("short staffing must be flagged: %+v", item)
	}
}

func TestDailyCapRespected(t *testing.T) {
	// three one-person tasks on the same day, two people, one slot each
	eng := newEngine([]domain.TaskTemplate{
		weekly("K1", 1, 2),
		weekly("K2", 1, 2),
		weekly("K3", 1, 2),
	}, []string{"Alice", "Bob"})
	eng.Constraints = domain.Constraints{MaxPerDay: 1}

	result, _, err := eng.Run(rotation.Empty(), sunday)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	perDay := map[string]int{}
	var understaffed int
	for _, item := range result.Items {
		if item.Understaffed {
			understaffed++
		}
		for _, p := range item.Assigned {
			perDay[p]++
		}
	}
	if perDay["Alice"] != 1 || perDay["Bob"] != 1 {
		t.Fatalf("daily cap violated: %v", perDay)
	}
	if understaffed != 1 || len(result.Warnings) != 1 {
		t.Fatalf("third occurrence must be flagged, not hidden: %+v", result)
	}
}

func TestPreferenceBreaksTies(t *testing.T) {
	floor := weekly("F1", 1, 0)
	floor.Category = domain.CategoryFloors
	eng := newEngine([]domain.TaskTemplate{floor}, []string{"Alice", "Bob"})
	eng.Constraints = domain.Constraints{
		PreferredCategories: map[string][]domain.Category{"Bob": {domain.CategoryFloors}},
	}

	result, _, err := eng.Run(rotation.Empty(), sunday)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := result.Items[0].Assigned[0]; got != "Bob" {
		t.Fatalf("preferred person must win an otherwise tied occurrence, got %s", got)
	}
}

func TestWeeklyCapRespected(t *testing.T) {
	eng := newEngine([]domain.TaskTemplate{weekly("K1", 1, 1), weekly("K2", 1, 3)}, []string{"Alice", "Bob"})
	eng.Constraints = domain.Constraints{MaxPerWeek: 1}

	result, _, err := eng.Run(rotation.Empty(), sunday)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	got := map[string]int{}
	for _, item := range result.Items {
		for _, p := range item.Assigned {
			got[p]++
		}
	}
	if got["Alice"] != 1 || got["Bob"] != 1 {
		t.Fatalf("weekly cap violated: %v", got)
	}
}

func TestSmallRosterGetsNoBonus(t *testing.T) {
	eng := newEngine([]domain.TaskTemplate{bonusTpl("F1", domain.CategoryFloors)}, names(10))

	result, next, err := eng.Run(rotation.Empty(), sunday)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("want only the 2 base occurrences, got %d", len(result.Items))
	}
	for _, item := range result.Items {
		if item.Bonus {
			t.Fatalf("bonus created below min roster: %+v", item)
		}
	}
	if len(next.BonusCounts) != 0 {
		t.Fatalf("bonus counts moved without a bonus: %v", next.BonusCounts)
	}
}

func TestFullRosterGetsBonusAndCountMoves(t *testing.T) {
	eng := newEngine([]domain.TaskTemplate{bonusTpl("F1", domain.CategoryFloors)}, names(14))

	result, next, err := eng.Run(rotation.Empty(), sunday)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Items) != 3 {
		t.Fatalf("want 2 base + 1 bonus occurrences, got %d", len(result.Items))
	}
	var bonus int
	for _, item := range result.Items {
		if item.Bonus {
			bonus++
			if got := int(item.Due.Weekday()); got != 5 {
				t.Fatalf("bonus occurrence on weekday %d, want Friday", got)
			}
		}
	}
	if bonus != 1 {
		t.Fatalf("want exactly one bonus occurrence, got %d", bonus)
	}
	if next.BonusCounts["F1"] != 1 {
		t.Fatalf("staffed bonus must increment its count: %v", next.BonusCounts)
	}
}

func TestUnstaffedBonusDoesNotCount(t *testing.T) {
	tpl := bonusTpl("F1", domain.CategoryFloors)
	tpl.PeopleNeeded = 20
	eng := newEngine([]domain.TaskTemplate{tpl}, names(14))

	result, next, err := eng.Run(rotation.Empty(), sunday)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Warnings) == 0 {
		t.Fatalf("expected understaffed warnings")
	}
	if next.BonusCounts["F1"] != 0 {
		t.Fatalf("understaffed bonus must not count: %v", next.BonusCounts)
	}
}

func TestRunFailsFast(t *testing.T) {
	eng := newEngine([]domain.TaskTemplate{weekly("K1", 1, 0)}, nil)
	if _, _, err := eng.Run(rotation.Empty(), sunday); err == nil {
		t.Fatalf("empty roster must fail")
	}

	eng = newEngine([]domain.TaskTemplate{weekly("K1", 1, 0)}, []string{"Alice"})
	eng.Constraints = domain.Constraints{ExemptAll: []string{"Alice"}}
	if _, _, err := eng.Run(rotation.Empty(), sunday); err == nil {
		t.Fatalf("fully exempt roster must fail")
	}

	eng = newEngine([]domain.TaskTemplate{weekly("K1", 1, 0), weekly("K1", 1, 1)}, []string{"Alice"})
	if _, _, err := eng.Run(rotation.Empty(), sunday); err == nil {
		t.Fatalf("duplicate template keys must fail")
	}
}
