package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"houseduty/internal/events"
	"houseduty/internal/rotation"
)

// Repo persists rotation snapshots and run history. It is the
// single-writer boundary the engine documents: one process
// reads-modifies-writes the snapshot at a time.
type Repo struct {
	DB     *sql.DB
	Events events.Writer
	Now    func() time.Time
}

var ErrNotFound = errors.New("not found")

func New(db *sql.DB) Repo {
	return Repo{DB: db, Events: events.Writer{DB: db}, Now: time.Now}
}

func (r Repo) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Run is one persisted scheduling run.
type Run struct {
	ID         string `json:"id"`
	WeekStart  string `json:"week_start"`
	WeekIndex  int    `json:"week_index"`
	RosterSize int    `json:"roster_size"`
	ResultJSON string `json:"result_json"`
	CreatedAt  string `json:"created_at"`
}

// LoadState returns the persisted rotation snapshot, or an empty
// Uninitialized state when none has been written yet.
func (r Repo) LoadState(ctx context.Context) (rotation.State, error) {
	var snapshot string
	err := r.DB.QueryRowContext(ctx, `SELECT snapshot_json FROM rotation_state WHERE id=1`).Scan(&snapshot)
	if err == sql.ErrNoRows {
		return rotation.Empty(), nil
	}
	if err != nil {
		return rotation.State{}, err
	}
	return rotation.Decode([]byte(snapshot))
}

// SaveRun writes the run row and the updated snapshot in one transaction.
func (r Repo) SaveRun(ctx context.Context, run Run, state rotation.State) error {
	snapshot, err := state.Encode()
	if err != nil {
		return fmt.Errorf("encode rotation state: %w", err)
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := r.now().UTC().Format(time.RFC3339)
	if run.CreatedAt == "" {
		run.CreatedAt = now
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs(id,week_start,week_index,roster_size,result_json,created_at) VALUES (?,?,?,?,?,?)`,
		run.ID, run.WeekStart, run.WeekIndex, run.RosterSize, run.ResultJSON, run.CreatedAt); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO rotation_state(id,version,snapshot_json,updated_at) VALUES (1,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET version=excluded.version, snapshot_json=excluded.snapshot_json, updated_at=excluded.updated_at`,
		state.Version, string(snapshot), now); err != nil {
		return fmt.Errorf("upsert rotation state: %w", err)
	}
	if err := r.Events.Append(ctx, tx, "run.completed", run.ID, events.EventPayload{
		"week_start":  run.WeekStart,
		"week_index":  run.WeekIndex,
		"roster_size": run.RosterSize,
	}); err != nil {
		return err
	}
	return tx.Commit()
}

// ResetState deletes the persisted snapshot. This is the deliberate
// external reset: the next run re-anchors.
func (r Repo) ResetState(ctx context.Context) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM rotation_state WHERE id=1`); err != nil {
		return err
	}
	if err := r.Events.Append(ctx, tx, "state.reset", "", nil); err != nil {
		return err
	}
	return tx.Commit()
}

// ListRuns returns the most recent runs, newest first.
func (r Repo) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id,week_start,week_index,roster_size,result_json,created_at FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.WeekStart, &run.WeekIndex, &run.RosterSize, &run.ResultJSON, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns one run by id.
func (r Repo) GetRun(ctx context.Context, id string) (Run, error) {
	var run Run
	err := r.DB.QueryRowContext(ctx,
		`SELECT id,week_start,week_index,roster_size,result_json,created_at FROM runs WHERE id=?`, id).
		Scan(&run.ID, &run.WeekStart, &run.WeekIndex, &run.RosterSize, &run.ResultJSON, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return run, ErrNotFound
	}
	return run, err
}
