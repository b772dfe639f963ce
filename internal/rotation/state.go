// Package rotation models the persisted fairness ledger. A State moves
// through two phases: Uninitialized (no anchor yet) and Active (anchor
// fixed). The anchor is set exactly once, on the first run, and is never
// mutated afterwards; resetting it means discarding the persisted snapshot
// entirely, which is the caller's decision, not this package's.
package rotation

import (
	"encoding/json"
	"fmt"
	"time"
)

// CurrentVersion is the snapshot schema version written by this build.
const CurrentVersion = 1

const dateLayout = "2006-01-02"

// State is the rotation ledger snapshot. Counts only ever grow; the
// last-week lists are replaced wholesale on every completed run.
type State struct {
	Version      int                       `json:"version"`
	AnchorSunday string                    `json:"anchor_sunday,omitempty"`
	BonusCounts  map[string]int            `json:"bonus_counts"`
	TaskCounts   map[string]map[string]int `json:"task_counts"`
	LastWeek     map[string][]string       `json:"last_week"`
}

// Empty returns a fresh Uninitialized state.
func Empty() State {
	return State{
		Version:     CurrentVersion,
		BonusCounts: map[string]int{},
		TaskCounts:  map[string]map[string]int{},
		LastWeek:    map[string][]string{},
	}
}

// Active reports whether the anchor has been fixed.
func (s State) Active() bool {
	return s.AnchorSunday != ""
}

// Anchor returns the anchor Sunday. Only valid when Active.
func (s State) Anchor() (time.Time, error) {
	if !s.Active() {
		return time.Time{}, fmt.Errorf("rotation state has no anchor")
	}
	t, err := time.Parse(dateLayout, s.AnchorSunday)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid anchor %q: %w", s.AnchorSunday, err)
	}
	return t, nil
}

// WithAnchor returns a copy of s with the anchor fixed to weekStart.
// Calling it on an Active state is an error; the anchor is immutable.
func (s State) WithAnchor(weekStart time.Time) (State, error) {
	if s.Active() {
		return State{}, fmt.Errorf("rotation anchor already set to %s", s.AnchorSunday)
	}
	out := s.Clone()
	out.AnchorSunday = weekStart.Format(dateLayout)
	return out, nil
}

// Clone deep-copies the state so a run can fail without leaking partial
// mutations into the caller's snapshot.
func (s State) Clone() State {
	out := State{
		Version:      s.Version,
		AnchorSunday: s.AnchorSunday,
		BonusCounts:  make(map[string]int, len(s.BonusCounts)),
		TaskCounts:   make(map[string]map[string]int, len(s.TaskCounts)),
		LastWeek:     make(map[string][]string, len(s.LastWeek)),
	}
	for k, v := range s.BonusCounts {
		out.BonusCounts[k] = v
	}
	for person, counts := range s.TaskCounts {
		m := make(map[string]int, len(counts))
		for k, v := range counts {
			m[k] = v
		}
		out.TaskCounts[person] = m
	}
	for person, keys := range s.LastWeek {
		out.LastWeek[person] = append([]string(nil), keys...)
	}
	return out
}

// TaskCount returns the historical count for one person and template.
func (s State) TaskCount(person, taskKey string) int {
	return s.TaskCounts[person][taskKey]
}

// DidLastWeek reports whether person had taskKey in the previous run.
func (s State) DidLastWeek(person, taskKey string) bool {
	for _, k := range s.LastWeek[person] {
		if k == taskKey {
			return true
		}
	}
	return false
}

// RunEffects is the cumulative outcome of one completed scheduling run,
// folded into the ledger as a single step.
type RunEffects struct {
	// AssignedTasks maps person to the template keys assigned this run,
	// one entry per assignment (repeats allowed).
	AssignedTasks map[string][]string
	// StaffedBonusKeys lists template keys whose bonus occurrence was
	// fully staffed this run.
	StaffedBonusKeys []string
}

// Apply folds the run's effects into a copy of s. Historical counts only
// increase, the last-week map is replaced with this run's assignments,
// and bonus counts grow by one per staffed bonus occurrence.
func (s State) Apply(eff RunEffects) State {
	out := s.Clone()
	out.LastWeek = make(map[string][]string, len(eff.AssignedTasks))
	for person, keys := range eff.AssignedTasks {
		counts := out.TaskCounts[person]
		if counts == nil {
			counts = map[string]int{}
			out.TaskCounts[person] = counts
		}
		for _, k := range keys {
			counts[k]++
		}
		out.LastWeek[person] = append([]string(nil), keys...)
	}
	for _, k := range eff.StaffedBonusKeys {
		out.BonusCounts[k]++
	}
	return out
}

// Decode parses a persisted snapshot, defaulting missing keys so older
// snapshots load cleanly.
func Decode(data []byte) (State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("decode rotation state: %w", err)
	}
	if s.Version == 0 {
		s.Version = CurrentVersion
	}
	if s.BonusCounts == nil {
		s.BonusCounts = map[string]int{}
	}
	if s.TaskCounts == nil {
		s.TaskCounts = map[string]map[string]int{}
	}
	if s.LastWeek == nil {
		s.LastWeek = map[string][]string{}
	}
	return s, nil
}

// Encode serializes the snapshot for persistence.
func (s State) Encode() ([]byte, error) {
	return json.Marshal(s)
}
