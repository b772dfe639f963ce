package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"houseduty/internal/domain"
	"houseduty/internal/engine"
)

// Config models houseduty.yml.
type Config struct {
	Files struct {
		Roster      string `yaml:"roster"`
		Constraints string `yaml:"constraints"`
		Catalog     string `yaml:"catalog"`
		OutputCSV   string `yaml:"output_csv"`
		OutputJSON  string `yaml:"output_json"`
	} `yaml:"files"`
	Scheduling struct {
		StartSunday string `yaml:"start_sunday"`
		Weeks       int    `yaml:"weeks_to_generate"`
		Seed        int64  `yaml:"random_seed"`
	} `yaml:"scheduling"`
	Bonus struct {
		MinRoster int            `yaml:"min_roster"`
		MaxShare  float64        `yaml:"max_task_share"`
		Day       int            `yaml:"third_day"`
		Priority  map[string]int `yaml:"priority"`
	} `yaml:"bonus"`
	Fairness struct {
		RepeatTaskPenalty   float64 `yaml:"repeat_task_penalty"`
		RecentWeekPenalty   float64 `yaml:"recent_week_penalty"`
		SameDayStackPenalty float64 `yaml:"same_day_stack_penalty"`
		PreferenceBonus     float64 `yaml:"preference_bonus"`
	} `yaml:"fairness"`
	Display struct {
		DeckOrder []string `yaml:"deck_order"`
	} `yaml:"display"`
	SeverityOverrides map[string]int `yaml:"severity_overrides"`
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "houseduty.yml")
}

// Load reads config from the workspace, falling back to defaults when the
// file does not exist.
func Load(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes. Missing keys
// keep their default values.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	cfg.Files.Roster = "config/brothers.txt"
	cfg.Files.Constraints = "config/constraints.json"
	cfg.Files.OutputCSV = "data/schedule.csv"
	cfg.Files.OutputJSON = "data/schedule.json"
	cfg.Scheduling.Weeks = 1
	cfg.Scheduling.Seed = 42
	cfg.Bonus.MinRoster = 14
	cfg.Bonus.MaxShare = 0.50
	cfg.Bonus.Day = 5
	cfg.Bonus.Priority = map[string]int{
		string(domain.CategoryBathrooms): 3,
		string(domain.CategoryFloors):    2,
		string(domain.CategoryCommon):    1,
	}
	cfg.Fairness.RepeatTaskPenalty = 1.50
	cfg.Fairness.RecentWeekPenalty = 0.60
	cfg.Fairness.SameDayStackPenalty = 0.75
	cfg.Fairness.PreferenceBonus = -0.35
	cfg.Display.DeckOrder = []string{"Zero Deck", "First Deck", "Second Deck", "Third Deck", "Other"}
	cfg.SeverityOverrides = map[string]int{}
	return &cfg
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Scheduling.Weeks < 1 {
		return fmt.Errorf("scheduling.weeks_to_generate must be >= 1")
	}
	if c.Bonus.MinRoster < 1 {
		return fmt.Errorf("bonus.min_roster must be >= 1")
	}
	if c.Bonus.MaxShare < 0 || c.Bonus.MaxShare > 1 {
		return fmt.Errorf("bonus.max_task_share must be between 0.0 and 1.0")
	}
	if c.Bonus.Day < 0 || c.Bonus.Day > 6 {
		return fmt.Errorf("bonus.third_day must be 0-6 (Sun-Sat)")
	}
	for cat := range c.Bonus.Priority {
		if !domain.Category(cat).Valid() {
			return fmt.Errorf("bonus.priority: unknown category %q", cat)
		}
	}
	for key, sev := range c.SeverityOverrides {
		if sev < 1 || sev > 5 {
			return fmt.Errorf("severity_overrides.%s must be 1-5, got %d", key, sev)
		}
	}
	return nil
}

// FairnessConfig converts the fairness section for the engine.
func (c *Config) FairnessConfig() engine.FairnessConfig {
	return engine.FairnessConfig{
		RepeatPenalty:   c.Fairness.RepeatTaskPenalty,
		RecentPenalty:   c.Fairness.RecentWeekPenalty,
		DayStackPenalty: c.Fairness.SameDayStackPenalty,
		PreferenceBonus: c.Fairness.PreferenceBonus,
		Seed:            c.Scheduling.Seed,
	}
}

// BonusPolicy converts the bonus section for the engine.
func (c *Config) BonusPolicy() engine.BonusPolicy {
	priority := make(map[domain.Category]int, len(c.Bonus.Priority))
	for cat, p := range c.Bonus.Priority {
		priority[domain.Category(cat)] = p
	}
	return engine.BonusPolicy{
		MinRoster: c.Bonus.MinRoster,
		MaxShare:  c.Bonus.MaxShare,
		Day:       c.Bonus.Day,
		Priority:  priority,
	}
}
