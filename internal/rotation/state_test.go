package rotation_test

import (
	"testing"
	"time"

	"houseduty/internal/rotation"
)

func TestAnchorIsSetOnce(t *testing.T) {
	s := rotation.Empty()
	if s.Active() {
		t.Fatalf("empty state must not be active")
	}
	sunday := time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)
	anchored, err := s.WithAnchor(sunday)
	if err != nil {
		t.Fatalf("set anchor: %v", err)
	}
	if !anchored.Active() || anchored.AnchorSunday != "2026-01-04" {
		t.Fatalf("anchor not set: %+v", anchored)
	}
	if _, err := anchored.WithAnchor(sunday.AddDate(0, 0, 7)); err == nil {
		t.Fatalf("expected error when re-anchoring an active state")
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := rotation.Empty()
	s.BonusCounts["K1"] = 1
	s.TaskCounts["Alice"] = map[string]int{"K1": 2}
	s.LastWeek["Alice"] = []string{"K1"}

	c := s.Clone()
	c.BonusCounts["K1"] = 9
	c.TaskCounts["Alice"]["K1"] = 9
	c.LastWeek["Alice"][0] = "K9"

	if s.BonusCounts["K1"] != 1 || s.TaskCounts["Alice"]["K1"] != 2 || s.LastWeek["Alice"][0] != "K1" {
		t.Fatalf("clone leaked mutations into original: %+v", s)
	}
}

func TestApplyReplacesLastWeek(t *testing.T) {
	s := rotation.Empty()
	s.LastWeek["Alice"] = []string{"OLD"}
	s.TaskCounts["Alice"] = map[string]int{"OLD": 1}

	next := s.Apply(rotation.RunEffects{
		AssignedTasks:    map[string][]string{"Bob": {"K1", "K1"}},
		StaffedBonusKeys: []string{"K1"},
	})

	if next.TaskCounts["Bob"]["K1"] != 2 {
		t.Fatalf("task counts not incremented: %+v", next.TaskCounts)
	}
	if next.TaskCounts["Alice"]["OLD"] != 1 {
		t.Fatalf("historical counts must never shrink: %+v", next.TaskCounts)
	}
	if _, ok := next.LastWeek["Alice"]; ok {
		t.Fatalf("last week must only reflect the latest run: %+v", next.LastWeek)
	}
	if len(next.LastWeek["Bob"]) != 2 {
		t.Fatalf("last week missing run assignments: %+v", next.LastWeek)
	}
	if next.BonusCounts["K1"] != 1 {
		t.Fatalf("bonus count not incremented: %+v", next.BonusCounts)
	}
	if len(s.LastWeek["Alice"]) != 1 || s.BonusCounts["K1"] != 0 {
		t.Fatalf("apply mutated its receiver: %+v", s)
	}
}

func TestDecodeDefaultsMissingFields(t *testing.T) {
	s, err := rotation.Decode([]byte(`{"anchor_sunday":"2026-01-04"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Version != rotation.CurrentVersion {
		t.Fatalf("version not defaulted: %d", s.Version)
	}
	if s.BonusCounts == nil || s.TaskCounts == nil || s.LastWeek == nil {
		t.Fatalf("maps not defaulted: %+v", s)
	}
	if !s.Active() {
		t.Fatalf("anchor lost in decode")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := rotation.Decode([]byte(`{not json`)); err == nil {
		t.Fatalf("expected decode error")
	}
}
