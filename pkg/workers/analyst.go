package workers

import (
	"context"
	"fmt"
	"strings"

	"github.com/troupelabs/troupe/pkg/core"
	"github.com/troupelabs/troupe/pkg/memory"
)

// AnalystWorker is the general-purpose solver and the usual fallback when no
// specialist wins the ranking. It is also the default reviser: Revise appends
// a revisions section built from the critique.
type AnalystWorker struct{}

var (
	_ core.Worker  = (*AnalystWorker)(nil)
	_ core.Reviser = (*AnalystWorker)(nil)
)

// NewAnalyst creates the general-purpose solver.
func NewAnalyst() *AnalystWorker { return &AnalystWorker{} }

func (w *AnalystWorker) Name() string { return "analyst" }

var analysisMarkers = []string{"analyze", "analysis", "dataset", "database", "sql", "runs", "report"}

// Score stays moderate: strong only on analysis tasks, low but positive
// elsewhere so the analyst remains a viable fallback.
func (w *AnalystWorker) Score(task string, rc *core.RoutingContext) float64 {
	t := strings.ToLower(task)

	hits := countHits(t, analysisMarkers)
	if hits == 0 {
		return 0.2
	}
	score := 0.55 + float64(hits)*0.1
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// Revise appends the critique as a revisions section.
func (w *AnalystWorker) Revise(_ context.Context, draft, critique string) (string, error) {
	return draft + "\n\n## Revisions\n" + critique, nil
}

func (w *AnalystWorker) Run(ctx context.Context, task string, mem core.Memory, rc *core.RoutingContext) (core.Result, error) {
	forceStructure := memory.FlagEnabled(ctx, mem, "force_structure")

	var plan []string
	if rc != nil {
		plan = rc.Plan
	}

	basePoints := []string{
		"Identify the core request and constraints.",
		"Provide a concise answer with actionable points.",
		"Include a quick self-check for gaps.",
	}

	var out string
	if forceStructure {
		var numbered []string
		for i, p := range plan {
			numbered = append(numbered, fmt.Sprintf("%d. %s", i+1, p))
		}
		out = strings.Join([]string{
			"## Task",
			task,
			"",
			"## Plan",
			strings.Join(numbered, "\n"),
			"",
			"## Answer",
			bullets(basePoints),
		}, "\n")
	} else {
		out = fmt.Sprintf("Task: %s\nPlan: %s\nAnswer: %s",
			task, strings.Join(plan, ", "), strings.Join(basePoints, " "))
	}

	return core.Result{
		Worker: w.Name(),
		Output: out,
		Meta:   map[string]string{"mode": "draft"},
	}, nil
}
