package domain

import "time"

// Category classifies a chore for bans, preferences and bonus priority.
type Category string

const (
	CategoryKitchen   Category = "k&m"
	CategoryBathrooms Category = "bathrooms"
	CategoryFloors    Category = "floors"
	CategoryLaundry   Category = "laundry"
	CategoryCommon    Category = "common"
	CategoryOther     Category = "other"
)

// Categories lists every valid category, in display order.
var Categories = []Category{
	CategoryKitchen,
	CategoryBathrooms,
	CategoryFloors,
	CategoryLaundry,
	CategoryCommon,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Cadence is the recurrence rule of a task template.
type Cadence string

const (
	CadenceWeekly   Cadence = "weekly"
	CadenceBiweekly Cadence = "biweekly"
	CadenceNPerWeek Cadence = "n_per_week"
)

func (c Cadence) Valid() bool {
	return c == CadenceWeekly || c == CadenceBiweekly || c == CadenceNPerWeek
}

// Parity selects which weeks a biweekly task is active on, counted from
// the rotation anchor (week 0 is the anchor's own week).
type Parity string

const (
	ParityEven Parity = "even"
	ParityOdd  Parity = "odd"
)

// Matches reports whether weekIndex falls on this parity. The zero value
// behaves as "even", matching the historical default.
func (p Parity) Matches(weekIndex int) bool {
	if p == ParityOdd {
		return weekIndex%2 != 0
	}
	return weekIndex%2 == 0
}

// TaskTemplate is the immutable definition of a recurring chore.
type TaskTemplate struct {
	Key              string   `yaml:"key" json:"key"`
	Label            string   `yaml:"label" json:"label"`
	Deck             string   `yaml:"deck" json:"deck"`
	Category         Category `yaml:"category" json:"category"`
	PeopleNeeded     int      `yaml:"people_needed" json:"people_needed"`
	Cadence          Cadence  `yaml:"cadence" json:"cadence"`
	DaysOfWeek       []int    `yaml:"days_of_week,omitempty" json:"days_of_week,omitempty"`
	TimesPerWeek     int      `yaml:"times_per_week,omitempty" json:"times_per_week,omitempty"`
	PreferredDays    []int    `yaml:"preferred_days,omitempty" json:"preferred_days,omitempty"`
	Parity           Parity   `yaml:"parity,omitempty" json:"parity,omitempty"`
	Severity         int      `yaml:"severity" json:"severity"`
	EffortMultiplier float64  `yaml:"effort_multiplier" json:"effort_multiplier"`
	BonusEligible    bool     `yaml:"bonus_eligible,omitempty" json:"bonus_eligible,omitempty"`
}

// Weight is the fairness weight one occurrence of this task contributes.
func (t TaskTemplate) Weight() float64 {
	return float64(t.Severity) * t.EffortMultiplier
}

// Occurrence is one dated instance of a template within a target week.
// It lives for a single scheduling run; only its effects are folded into
// rotation state.
type Occurrence struct {
	TaskKey      string    `json:"task_key"`
	Label        string    `json:"label"`
	Deck         string    `json:"deck"`
	Category     Category  `json:"category"`
	PeopleNeeded int       `json:"people_needed"`
	Due          time.Time `json:"due"`
	WeekIndex    int       `json:"week_index"`
	Weight       float64   `json:"weight"`
	Bonus        bool      `json:"bonus,omitempty"`
}

// Assignment is the staffed form of an occurrence, produced by the engine.
type Assignment struct {
	TaskKey      string    `json:"task_key"`
	Label        string    `json:"label"`
	Deck         string    `json:"deck"`
	Category     Category  `json:"category"`
	Due          time.Time `json:"due"`
	PeopleNeeded int       `json:"people_needed"`
	Assigned     []string  `json:"assigned"`
	Weight       float64   `json:"weight"`
	Bonus        bool      `json:"bonus,omitempty"`
	Understaffed bool      `json:"understaffed,omitempty"`
}

// DateSpan is an inclusive unavailability range. Single dates use
// Start == End.
type DateSpan struct {
	Start time.Time
	End   time.Time
}

func (s DateSpan) Contains(day time.Time) bool {
	d := Midnight(day)
	return !d.Before(Midnight(s.Start)) && !d.After(Midnight(s.End))
}

// Constraints restrict who may be assigned what. The zero value means
// everyone is available with no bans and no caps.
type Constraints struct {
	ExemptAll           []string                `json:"exempt_all,omitempty"`
	OnCallOnly          []string                `json:"on_call_only,omitempty"`
	MaxPerDay           int                     `json:"max_per_brother_per_day,omitempty"`
	MaxPerWeek          int                     `json:"max_per_brother_per_week,omitempty"`
	CategoryBans        map[string][]Category   `json:"brother_category_bans,omitempty"`
	TaskBans            map[string][]string     `json:"brother_task_bans,omitempty"`
	PreferredCategories map[string][]Category   `json:"brother_preferred_categories,omitempty"`
	UnavailableDates    map[string][]string     `json:"brother_unavailable_dates,omitempty"`
}

// Banned reports whether person may not take this occurrence at all.
func (c Constraints) Banned(person string, occ Occurrence) bool {
	for _, cat := range c.CategoryBans[person] {
		if cat == occ.Category {
			return true
		}
	}
	for _, key := range c.TaskBans[person] {
		if key == occ.TaskKey {
			return true
		}
	}
	return false
}

// Prefers reports whether person listed this category as preferred.
func (c Constraints) Prefers(person string, cat Category) bool {
	for _, p := range c.PreferredCategories[person] {
		if p == cat {
			return true
		}
	}
	return false
}

// Unavailable reports whether person is marked unavailable on day.
// Entries are "YYYY-MM-DD" or inclusive "YYYY-MM-DD..YYYY-MM-DD" ranges;
// entries that fail to parse were rejected during constraint validation,
// so they are skipped here.
func (c Constraints) Unavailable(person string, day time.Time) bool {
	for _, raw := range c.UnavailableDates[person] {
		span, err := ParseDateSpan(raw)
		if err != nil {
			continue
		}
		if span.Contains(day) {
			return true
		}
	}
	return false
}

// ParseDateSpan parses a single date or an inclusive "start..end" range.
func ParseDateSpan(raw string) (DateSpan, error) {
	const layout = "2006-01-02"
	if i := indexDots(raw); i >= 0 {
		start, err := time.Parse(layout, raw[:i])
		if err != nil {
			return DateSpan{}, err
		}
		end, err := time.Parse(layout, raw[i+2:])
		if err != nil {
			return DateSpan{}, err
		}
		return DateSpan{Start: start, End: end}, nil
	}
	d, err := time.Parse(layout, raw)
	if err != nil {
		return DateSpan{}, err
	}
	return DateSpan{Start: d, End: d}, nil
}

func indexDots(s string) int {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '.' && s[i+1] == '.' {
			return i
		}
	}
	return -1
}
