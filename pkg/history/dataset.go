package history

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Example is a labeled run output kept for later review and tuning.
type Example struct {
	ID        int64
	RunID     string
	Task      string
	Output    string
	Label     string // good, bad, edge
	Note      string
	CreatedAt time.Time
}

// AddExample stores a labeled example.
func (s *Store) AddExample(ctx context.Context, ex Example) error {
	if ex.Label == "" {
		return errors.New("history: example label is empty")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dataset_examples (run_id, task, output, label, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, ex.RunID, ex.Task, ex.Output, ex.Label, ex.Note, time.Now().UTC())
	return err
}

// Examples returns the most recent labeled examples, newest first.
func (s *Store) Examples(ctx context.Context, limit int) ([]Example, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, task, output, label, note, created_at
		FROM dataset_examples
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var examples []Example
	for rows.Next() {
		var (
			ex      Example
			created sql.NullTime
		)
		if err := rows.Scan(&ex.ID, &ex.RunID, &ex.Task, &ex.Output, &ex.Label, &ex.Note, &created); err != nil {
			return nil, err
		}
		if created.Valid {
			ex.CreatedAt = created.Time
		}
		examples = append(examples, ex)
	}
	return examples, rows.Err()
}

// LabelCounts returns how many examples carry each label.
func (s *Store) LabelCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT label, COUNT(*) FROM dataset_examples GROUP BY label
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		counts[label] = n
	}
	return counts, rows.Err()
}
