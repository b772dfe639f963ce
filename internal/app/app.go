// Package app wires config, storage and scheduling inputs into a ready
// engine for the CLI.
package app

import (
	"database/sql"
	"os"
	"path/filepath"

	"houseduty/internal/catalog"
	"houseduty/internal/config"
	"houseduty/internal/db"
	"houseduty/internal/domain"
	"houseduty/internal/engine"
	"houseduty/internal/migrate"
	"houseduty/internal/repo"
	"houseduty/internal/roster"
)

// App is one opened workspace: loaded config plus migrated database.
type App struct {
	Workspace string
	Config    *config.Config
	DB        *sql.DB
	Repo      repo.Repo
}

// Open loads the workspace config (or configPath when given), opens the
// workspace database and applies pending migrations.
func Open(workspace, configPath string) (*App, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.FromFile(configPath)
	} else {
		cfg, err = config.Load(workspace)
	}
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, err
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &App{
		Workspace: workspace,
		Config:    cfg,
		DB:        conn,
		Repo:      repo.New(conn),
	}, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}

// Inputs bundles the parsed scheduling inputs for one run.
type Inputs struct {
	Roster      []string
	Constraints domain.Constraints
	Catalog     []domain.TaskTemplate
}

// LoadInputs reads roster, constraints and catalog per the config and
// cross-validates them. The builtin catalog is used when no catalog file
// is configured.
func (a *App) LoadInputs() (Inputs, error) {
	people, err := roster.Load(a.resolve(a.Config.Files.Roster))
	if err != nil {
		return Inputs{}, err
	}
	constraints, err := roster.LoadConstraints(a.resolve(a.Config.Files.Constraints))
	if err != nil {
		return Inputs{}, err
	}
	templates, err := a.LoadCatalog()
	if err != nil {
		return Inputs{}, err
	}
	if err := roster.ValidateConstraints(constraints, people, templates); err != nil {
		return Inputs{}, err
	}
	return Inputs{Roster: people, Constraints: constraints, Catalog: templates}, nil
}

// LoadCatalog returns the configured catalog file, or the builtin catalog
// when none is configured, with severity overrides applied.
func (a *App) LoadCatalog() ([]domain.TaskTemplate, error) {
	var templates []domain.TaskTemplate
	if a.Config.Files.Catalog != "" {
		var err error
		templates, err = catalog.FromFile(a.resolve(a.Config.Files.Catalog))
		if err != nil {
			return nil, err
		}
	} else {
		templates = catalog.Builtin()
	}
	return catalog.ApplySeverityOverrides(templates, a.Config.SeverityOverrides), nil
}

// Engine builds the scheduling engine from loaded inputs and config.
func (a *App) Engine(in Inputs) engine.Engine {
	return engine.Engine{
		Catalog:     in.Catalog,
		Roster:      in.Roster,
		Constraints: in.Constraints,
		Fairness:    a.Config.FairnessConfig(),
		Bonus:       a.Config.BonusPolicy(),
	}
}

// resolve makes config-relative paths workspace-relative; absolute paths
// pass through.
func (a *App) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if a.Workspace == "" {
		return path
	}
	return filepath.Join(a.Workspace, path)
}

// OutputPath resolves a configured output file, creating its directory.
func (a *App) OutputPath(path string) (string, error) {
	full := a.resolve(path)
	if dir := filepath.Dir(full); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}
	return full, nil
}
