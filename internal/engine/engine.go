// Package engine is the scheduling core: it expands the task catalog into
// dated occurrences, selects bonus cleanings, and staffs every occurrence
// with a fairness score over the rotation ledger.
//
// A run is a single-threaded, synchronous computation. Callers that might
// trigger overlapping runs against the same persisted rotation state must
// serialize them; the engine reads a snapshot and returns a new one, it
// does not lock.
package engine

import (
	"fmt"
	"sort"
	"time"

	"houseduty/internal/domain"
	"houseduty/internal/rotation"
)

// FairnessConfig carries the scoring coefficients and the tie-break seed.
// It is passed in per run so tests can override weights without shared
// globals.
type FairnessConfig struct {
	// RepeatPenalty multiplies the historical+in-run count of the same
	// task for a candidate.
	RepeatPenalty float64
	// RecentPenalty is added when the candidate had the task last week.
	RecentPenalty float64
	// DayStackPenalty multiplies the candidate's same-day assignment count.
	DayStackPenalty float64
	// PreferenceBonus is added (negative) when the candidate prefers the
	// occurrence's category.
	PreferenceBonus float64
	// Seed feeds the deterministic tie-break jitter.
	Seed int64
}

// DefaultFairness returns the tuning the house has been running with.
func DefaultFairness() FairnessConfig {
	return FairnessConfig{
		RepeatPenalty:   1.50,
		RecentPenalty:   0.60,
		DayStackPenalty: 0.75,
		PreferenceBonus: -0.35,
		Seed:            42,
	}
}

// Engine staffs one week of chores. All fields are read-only during Run.
type Engine struct {
	Catalog     []domain.TaskTemplate
	Roster      []string
	Constraints domain.Constraints
	Fairness    FairnessConfig
	Bonus       BonusPolicy
}

// Result is the outcome of one scheduling run.
type Result struct {
	WeekStart time.Time           `json:"week_start"`
	WeekIndex int                 `json:"week_index"`
	Items     []domain.Assignment `json:"items"`
	Warnings  []string            `json:"warnings,omitempty"`
}

// Run schedules the week starting at weekStart and returns the assignment
// result plus the updated rotation snapshot. The input state is never
// mutated; on error no new state is produced (all-or-nothing update).
func (e Engine) Run(state rotation.State, weekStart time.Time) (Result, rotation.State, error) {
	if len(e.Roster) == 0 {
		return Result{}, rotation.State{}, fmt.Errorf("roster is empty")
	}
	if err := checkDuplicateKeys(e.Catalog); err != nil {
		return Result{}, rotation.State{}, err
	}
	weekStart = domain.Midnight(weekStart)

	normal, backup := e.pools()
	if len(normal) == 0 && len(backup) == 0 {
		return Result{}, rotation.State{}, fmt.Errorf("no assignable people: constraints exclude the entire roster")
	}

	next := state.Clone()
	if !next.Active() {
		var err error
		next, err = state.WithAnchor(weekStart)
		if err != nil {
			return Result{}, rotation.State{}, err
		}
	}
	anchor, err := next.Anchor()
	if err != nil {
		return Result{}, rotation.State{}, err
	}
	weekIndex := domain.WeekIndexFromAnchor(anchor, weekStart)

	occs, err := ExpandWeek(e.Catalog, weekStart, weekIndex)
	if err != nil {
		return Result{}, rotation.State{}, err
	}
	selected := SelectBonus(e.Catalog, e.Bonus, anchor, weekIndex, e.Roster, next.BonusCounts, e.Fairness.Seed)
	occs = append(occs, BonusOccurrences(e.Catalog, selected, occs, weekStart, weekIndex, e.Bonus)...)
	sortOccurrences(occs)

	result := Result{WeekStart: weekStart, WeekIndex: weekIndex}
	run := newRunCounters(next)
	var staffedBonus []string

	for _, occ := range occs {
		assigned := e.pick(e.eligible(normal, occ, run), occ.PeopleNeeded, occ, run)
		if missing := occ.PeopleNeeded - len(assigned); missing > 0 {
			assigned = append(assigned, e.pick(e.eligible(backup, occ, run), missing, occ, run)...)
		}
		for _, person := range assigned {
			run.record(person, occ)
		}
		item := domain.Assignment{
			TaskKey:      occ.TaskKey,
			Label:        occ.Label,
			Deck:         occ.Deck,
			Category:     occ.Category,
			Due:          occ.Due,
			PeopleNeeded: occ.PeopleNeeded,
			Assigned:     assigned,
			Weight:       occ.Weight,
			Bonus:        occ.Bonus,
			Understaffed: len(assigned) < occ.PeopleNeeded,
		}
		if item.Understaffed {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"%s on %s understaffed: %d of %d assigned",
				occ.TaskKey, occ.Due.Format("2006-01-02"), len(assigned), occ.PeopleNeeded))
		}
		if occ.Bonus && !item.Understaffed {
			staffedBonus = append(staffedBonus, occ.TaskKey)
		}
		result.Items = append(result.Items, item)
	}

	next = next.Apply(rotation.RunEffects{
		AssignedTasks:    run.tasks,
		StaffedBonusKeys: staffedBonus,
	})
	return result, next, nil
}

// pools splits the roster into the normal pool and the on-call backup
// pool, dropping permanently exempt people from both.
func (e Engine) pools() (normal, backup []string) {
	exempt := toSet(e.Constraints.ExemptAll)
	onCall := toSet(e.Constraints.OnCallOnly)
	for _, p := range e.Roster {
		switch {
		case exempt[p]:
		case onCall[p]:
			backup = append(backup, p)
		default:
			normal = append(normal, p)
		}
	}
	return normal, backup
}

// eligible filters a pool by bans, unavailability and caps for one
// occurrence, given the run's counters so far.
func (e Engine) eligible(pool []string, occ domain.Occurrence, run *runCounters) []string {
	var out []string
	for _, p := range pool {
		if e.Constraints.Banned(p, occ) {
			continue
		}
		if e.Constraints.Unavailable(p, occ.Due) {
			continue
		}
		if e.Constraints.MaxPerWeek > 0 && run.weekCount(p) >= e.Constraints.MaxPerWeek {
			continue
		}
		if e.Constraints.MaxPerDay > 0 && run.dayCount(p, occ.Due) >= e.Constraints.MaxPerDay {
			continue
		}
		out = append(out, p)
	}
	return out
}

// pick scores the pool and returns the lowest-scoring n distinct
// candidates. Fewer are returned when the pool is smaller; the caller
// tops up from the backup pool and flags what remains as understaffed.
func (e Engine) pick(pool []string, n int, occ domain.Occurrence, run *runCounters) []string {
	type scored struct {
		person string
		score  float64
		tie    float64
	}
	due := occ.Due.Format("2006-01-02")
	candidates := make([]scored, 0, len(pool))
	for _, p := range pool {
		score := run.load(p)
		score += float64(run.repeatCount(p, occ.TaskKey)) * e.Fairness.RepeatPenalty
		if run.state.DidLastWeek(p, occ.TaskKey) {
			score += e.Fairness.RecentPenalty
		}
		score += float64(run.dayCount(p, occ.Due)) * e.Fairness.DayStackPenalty
		if e.Constraints.Prefers(p, occ.Category) {
			score += e.Fairness.PreferenceBonus
		}
		candidates = append(candidates, scored{
			person: p,
			score:  score,
			tie:    jitter(e.Fairness.Seed, occ.TaskKey, due, p),
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score < candidates[j].score
		}
		if candidates[i].tie != candidates[j].tie {
			return candidates[i].tie < candidates[j].tie
		}
		return candidates[i].person < candidates[j].person
	})
	if n > len(candidates) {
		n = len(candidates)
	}
	out := make([]string, 0, n)
	for _, c := range candidates[:n] {
		out = append(out, c.person)
	}
	return out
}

// runCounters is the shared mutable state within one run: later
// occurrences must see the load of earlier ones.
type runCounters struct {
	state rotation.State
	loads map[string]float64
	days  map[string]map[string]int
	tasks map[string][]string
}

func newRunCounters(state rotation.State) *runCounters {
	return &runCounters{
		state: state,
		loads: map[string]float64{},
		days:  map[string]map[string]int{},
		tasks: map[string][]string{},
	}
}

func (r *runCounters) record(person string, occ domain.Occurrence) {
	r.loads[person] += occ.Weight
	day := occ.Due.Format("2006-01-02")
	if r.days[person] == nil {
		r.days[person] = map[string]int{}
	}
	r.days[person][day]++
	r.tasks[person] = append(r.tasks[person], occ.TaskKey)
}

func (r *runCounters) load(person string) float64 { return r.loads[person] }

func (r *runCounters) weekCount(person string) int { return len(r.tasks[person]) }

func (r *runCounters) dayCount(person string, due time.Time) int {
	return r.days[person][due.Format("2006-01-02")]
}

// repeatCount is the historical count plus assignments of the same task
// earlier in this run.
func (r *runCounters) repeatCount(person, taskKey string) int {
	n := r.state.TaskCount(person, taskKey)
	for _, k := range r.tasks[person] {
		if k == taskKey {
			n++
		}
	}
	return n
}

func checkDuplicateKeys(templates []domain.TaskTemplate) error {
	seen := map[string]bool{}
	for _, t := range templates {
		if seen[t.Key] {
			return fmt.Errorf("duplicate template key %s", t.Key)
		}
		seen[t.Key] = true
	}
	return nil
}

func toSet(items []string) map[string]bool {
	s := make(map[string]bool, len(items))
	for _, v := range items {
		s[v] = true
	}
	return s
}
