package engine

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"houseduty/internal/domain"
)

// BonusPolicy controls the extra weekly cleaning for bonus-eligible tasks.
type BonusPolicy struct {
	// MinRoster gates bonus occurrences entirely: below this roster size
	// none are created.
	MinRoster int
	// MaxShare is the fraction of eligible templates that may receive a
	// bonus in one week. The candidate count is floor(MaxShare*eligible),
	// clamped to at least 1 while any template is eligible.
	MaxShare float64
	// Day is the weekday (0=Sunday) the bonus occurrence lands on.
	Day int
	// Priority ranks categories; higher wins. Missing categories rank 0.
	Priority map[domain.Category]int
}

// DefaultBonusPolicy mirrors the house defaults: Friday bonus, half the
// eligible tasks at most, 14 brothers required.
func DefaultBonusPolicy() BonusPolicy {
	return BonusPolicy{
		MinRoster: 14,
		MaxShare:  0.5,
		Day:       5,
		Priority: map[domain.Category]int{
			domain.CategoryBathrooms: 3,
			domain.CategoryFloors:    2,
			domain.CategoryCommon:    1,
		},
	}
}

// SelectBonus decides which bonus-eligible templates get one extra
// occurrence this week. Selection is pure: it reads bonus counts but
// never mutates them — counts move only when the assignment engine
// confirms the occurrence was staffed, so re-running selection on the
// same inputs always yields the same keys.
func SelectBonus(
	templates []domain.TaskTemplate,
	policy BonusPolicy,
	anchor time.Time,
	weekIndex int,
	roster []string,
	bonusCounts map[string]int,
	seed int64,
) []string {
	if len(roster) < policy.MinRoster {
		return nil
	}
	var eligible []domain.TaskTemplate
	for _, t := range templates {
		if t.BonusEligible {
			eligible = append(eligible, t)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	limit := int(policy.MaxShare * float64(len(eligible)))
	if limit < 1 {
		limit = 1
	}

	rosterSig := rosterSignature(roster)
	anchorStr := anchor.Format("2006-01-02")
	rank := func(t domain.TaskTemplate) (int, int, uint64) {
		tie := stableHash(anchorStr, strconv.Itoa(weekIndex), rosterSig, t.Key, strconv.FormatInt(seed, 10))
		return policy.Priority[t.Category], bonusCounts[t.Key], tie
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		pi, ci, ti := rank(eligible[i])
		pj, cj, tj := rank(eligible[j])
		if pi != pj {
			return pi > pj
		}
		if ci != cj {
			return ci < cj
		}
		return ti < tj
	})

	keys := make([]string, 0, limit)
	for _, t := range eligible[:min(limit, len(eligible))] {
		keys = append(keys, t.Key)
	}
	return keys
}

// BonusOccurrences materializes one extra occurrence per selected key on
// the policy's bonus day, skipping templates already due that day.
func BonusOccurrences(
	templates []domain.TaskTemplate,
	selected []string,
	base []domain.Occurrence,
	weekStart time.Time,
	weekIndex int,
	policy BonusPolicy,
) []domain.Occurrence {
	chosen := map[string]bool{}
	for _, k := range selected {
		chosen[k] = true
	}
	onBonusDay := map[string]bool{}
	bonusDate := domain.Midnight(weekStart).AddDate(0, 0, policy.Day)
	for _, occ := range base {
		if domain.Midnight(occ.Due).Equal(bonusDate) {
			onBonusDay[occ.TaskKey] = true
		}
	}
	var out []domain.Occurrence
	for _, t := range templates {
		if chosen[t.Key] && !onBonusDay[t.Key] {
			out = append(out, occurrenceOn(t, weekStart, weekIndex, policy.Day, true))
		}
	}
	return out
}

// rosterSignature is a stable encoding of roster composition for seeding.
func rosterSignature(roster []string) string {
	names := append([]string(nil), roster...)
	sort.Strings(names)
	return strings.Join(names, ",")
}
