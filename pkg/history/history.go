// Package history persists supervisor run results in SQLite and derives the
// usage statistics the router consumes. The orchestration core issues no
// writes here during a run; persistence happens after a run completes.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	"github.com/troupelabs/troupe/pkg/core"
)

// Store is a SQLite-backed run history.
type Store struct {
	db *sql.DB
}

// Run is one persisted run history row.
type Run struct {
	ID           string
	Task         string
	TaskType     core.TaskType
	SolverAgent  string
	TeamAgents   []string
	TeamProfile  string
	Critique     string
	CritiqueTags []string
	Final        string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Open opens (or creates) the history database at path and ensures schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history: path is empty")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores one completed run.
func (s *Store) SaveRun(ctx context.Context, res *core.RunResult) error {
	if res == nil {
		return errors.New("history: run result is nil")
	}
	team, err := json.Marshal(res.TeamAgents)
	if err != nil {
		return err
	}
	tags, err := json.Marshal(res.CritiqueTags)
	if err != nil {
		return err
	}
	plan, err := json.Marshal(res.Plan)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (
			id, task, task_type, solver_agent, team_agents, team_profile,
			plan, draft, critique, critique_tags, final, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		res.ID,
		res.Task,
		string(res.TaskType),
		res.SolverAgent,
		string(team),
		res.TeamProfile,
		string(plan),
		res.Draft,
		res.Critique,
		string(tags),
		res.Final,
		res.StartedAt.UTC(),
		res.FinishedAt.UTC(),
	)
	return err
}

// RecentRuns returns the most recent runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task, task_type, solver_agent, team_agents, team_profile,
		       critique, critique_tags, final, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run      Run
			taskType string
			team     string
			tags     string
			started  sql.NullTime
			finished sql.NullTime
		)
		if err := rows.Scan(
			&run.ID,
			&run.Task,
			&taskType,
			&run.SolverAgent,
			&team,
			&run.TeamProfile,
			&run.Critique,
			&tags,
			&run.Final,
			&started,
			&finished,
		); err != nil {
			return nil, err
		}
		run.TaskType = core.ParseTaskType(taskType)
		if team != "" {
			if err := json.Unmarshal([]byte(team), &run.TeamAgents); err != nil {
				return nil, err
			}
		}
		if tags != "" {
			if err := json.Unmarshal([]byte(tags), &run.CritiqueTags); err != nil {
				return nil, err
			}
		}
		if started.Valid {
			run.StartedAt = started.Time
		}
		if finished.Valid {
			run.FinishedAt = finished.Time
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// SolverStats returns per-worker usage counts for one task type, counting
// both single-mode solvers and team membership. Implements the router's
// StatsProvider contract; may return an empty map.
func (s *Store) SolverStats(ctx context.Context, taskType core.TaskType) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT solver_agent, team_agents
		FROM runs
		WHERE task_type = ?
	`, string(taskType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var solver, team string
		if err := rows.Scan(&solver, &team); err != nil {
			return nil, err
		}
		if solver != "" {
			counts[solver]++
		}
		if team != "" {
			var members []string
			if err := json.Unmarshal([]byte(team), &members); err != nil {
				return nil, err
			}
			for _, m := range members {
				counts[m]++
			}
		}
	}
	return counts, rows.Err()
}

// TaskTypeCounts returns how many runs were recorded per task type.
func (s *Store) TaskTypeCounts(ctx context.Context) (map[core.TaskType]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_type, COUNT(*) FROM runs GROUP BY task_type
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[core.TaskType]int{}
	for rows.Next() {
		var tt string
		var n int
		if err := rows.Scan(&tt, &n); err != nil {
			return nil, err
		}
		counts[core.ParseTaskType(tt)] = n
	}
	return counts, rows.Err()
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			task TEXT NOT NULL,
			task_type TEXT NOT NULL,
			solver_agent TEXT,
			team_agents TEXT,
			team_profile TEXT,
			plan TEXT,
			draft TEXT,
			critique TEXT,
			critique_tags TEXT,
			final TEXT,
			started_at TIMESTAMP,
			finished_at TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_runs_task_type ON runs(task_type);

		CREATE TABLE IF NOT EXISTS dataset_examples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			task TEXT NOT NULL,
			output TEXT,
			label TEXT NOT NULL,
			note TEXT,
			created_at TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_examples_label ON dataset_examples(label);
	`)
	return err
}
