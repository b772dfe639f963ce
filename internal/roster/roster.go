// Package roster loads the people roster and the constraint set supplied
// by the house, and cross-validates them against the catalog before the
// engine runs.
package roster

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"houseduty/internal/domain"
)

// Load reads the roster file: one name per line, blank lines and
// #-comments skipped, duplicates dropped preserving first occurrence.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("missing roster file %s: create it with one name per line", path)
		}
		return nil, err
	}
	defer f.Close()

	seen := map[string]bool{}
	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("roster file %s is empty", path)
	}
	return names, nil
}

// LoadConstraints reads the constraints JSON file. A missing file means
// no constraints at all.
func LoadConstraints(path string) (domain.Constraints, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Constraints{}, nil
		}
		return domain.Constraints{}, err
	}
	var c domain.Constraints
	if err := json.Unmarshal(data, &c); err != nil {
		return domain.Constraints{}, fmt.Errorf("invalid constraints json %s: %w", path, err)
	}
	return c, nil
}

// ValidateConstraints rejects constraints that reference people outside
// the roster, unknown categories or task keys, malformed unavailability
// dates, or that would exempt the entire roster. These are fatal before
// the engine ever runs.
func ValidateConstraints(c domain.Constraints, people []string, templates []domain.TaskTemplate) error {
	roster := map[string]bool{}
	for _, p := range people {
		roster[p] = true
	}
	keys := map[string]bool{}
	for _, t := range templates {
		keys[t.Key] = true
	}

	checkPeople := func(field string, names []string) error {
		for _, n := range names {
			if !roster[n] {
				return fmt.Errorf("constraints.%s: %q not in roster", field, n)
			}
		}
		return nil
	}
	if err := checkPeople("exempt_all", c.ExemptAll); err != nil {
		return err
	}
	if err := checkPeople("on_call_only", c.OnCallOnly); err != nil {
		return err
	}
	if len(c.ExemptAll) >= len(people) && len(people) > 0 {
		exempt := map[string]bool{}
		for _, n := range c.ExemptAll {
			exempt[n] = true
		}
		all := true
		for _, p := range people {
			if !exempt[p] {
				all = false
				break
			}
		}
		if all {
			return fmt.Errorf("constraints.exempt_all covers the entire roster")
		}
	}
	if c.MaxPerDay < 0 {
		return fmt.Errorf("constraints.max_per_brother_per_day must be >= 0")
	}
	if c.MaxPerWeek < 0 {
		return fmt.Errorf("constraints.max_per_brother_per_week must be >= 0")
	}

	for person, cats := range c.CategoryBans {
		if !roster[person] {
			return fmt.Errorf("constraints.brother_category_bans: %q not in roster", person)
		}
		for _, cat := range cats {
			if !cat.Valid() {
				return fmt.Errorf("constraints.brother_category_bans.%s: unknown category %q", person, cat)
			}
		}
	}
	for person, banned := range c.TaskBans {
		if !roster[person] {
			return fmt.Errorf("constraints.brother_task_bans: %q not in roster", person)
		}
		for _, key := range banned {
			if !keys[key] {
				return fmt.Errorf("constraints.brother_task_bans.%s: unknown task key %q", person, key)
			}
		}
	}
	for person, cats := range c.PreferredCategories {
		if !roster[person] {
			return fmt.Errorf("constraints.brother_preferred_categories: %q not in roster", person)
		}
		for _, cat := range cats {
			if !cat.Valid() {
				return fmt.Errorf("constraints.brother_preferred_categories.%s: unknown category %q", person, cat)
			}
		}
	}
	for person, dates := range c.UnavailableDates {
		if !roster[person] {
			return fmt.Errorf("constraints.brother_unavailable_dates: %q not in roster", person)
		}
		for _, raw := range dates {
			if _, err := domain.ParseDateSpan(raw); err != nil {
				return fmt.Errorf("constraints.brother_unavailable_dates.%s: bad date %q: %w", person, raw, err)
			}
		}
	}
	return nil
}
