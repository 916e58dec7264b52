package workers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/troupelabs/troupe/pkg/core"
	"github.com/troupelabs/troupe/pkg/history"
)

// MetaWorker is the system-level analyst. It does not solve end-user tasks;
// it reads the run history and the example dataset and reports on how the
// worker ensemble is behaving. A nil store is allowed and simply reported.
type MetaWorker struct {
	store *history.Store
}

var _ core.Worker = (*MetaWorker)(nil)

// NewMeta creates the meta worker over an optional history store.
func NewMeta(store *history.Store) *MetaWorker { return &MetaWorker{store: store} }

func (w *MetaWorker) Name() string { return "meta" }

var metaStrong = []string{
	"meta agent", "meta-agent", "metaagent",
	"agent analysis", "agent stats", "optimize agents",
}

// Score is near-zero by default so the meta worker never captures ordinary
// tasks.
func (w *MetaWorker) Score(task string, rc *core.RoutingContext) float64 {
	t := strings.ToLower(task)
	if containsAny(t, metaStrong) {
		return 0.98
	}
	if containsAny(t, []string{"roadmap", "agents", "agent"}) {
		return 0.9
	}
	if strings.Contains(t, "dataset") {
		return 0.8
	}
	return 0.05
}

func (w *MetaWorker) Run(ctx context.Context, task string, _ core.Memory, _ *core.RoutingContext) (core.Result, error) {
	sections := []string{
		"## Meta report",
		"",
		"### Input task",
		task,
	}

	if w.store == nil {
		sections = append(sections, "", "### Run history", "- No history store configured.")
	} else {
		sections = append(sections, "", w.runSummary(ctx))
		sections = append(sections, "", w.datasetSummary(ctx))
	}

	return core.Result{
		Worker: w.Name(),
		Output: strings.Join(sections, "\n"),
		Meta:   map[string]string{"mode": "meta_analysis"},
	}, nil
}

func (w *MetaWorker) runSummary(ctx context.Context) string {
	lines := []string{"### Worker usage"}

	runs, err := w.store.RecentRuns(ctx, 100)
	if err != nil || len(runs) == 0 {
		lines = append(lines, "- Not enough run data yet.")
		return strings.Join(lines, "\n")
	}

	type stat struct{ runs, tagged int }
	byWorker := map[string]*stat{}
	for _, r := range runs {
		name := r.SolverAgent
		if name == "" {
			name = "unknown"
		}
		s := byWorker[name]
		if s == nil {
			s = &stat{}
			byWorker[name] = s
		}
		s.runs++
		if len(r.CritiqueTags) > 0 {
			s.tagged++
		}
	}

	names := make([]string, 0, len(byWorker))
	for name := range byWorker {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := byWorker[names[i]], byWorker[names[j]]
		if a.runs != b.runs {
			return a.runs > b.runs
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		s := byWorker[name]
		pct := 0.0
		if s.runs > 0 {
			pct = float64(s.tagged) / float64(s.runs) * 100
		}
		lines = append(lines, fmt.Sprintf("- %s: %d runs, tagged: %d (~%.0f%%)", name, s.runs, s.tagged, pct))
	}

	lines = append(lines, "", "### Task types")
	counts, err := w.store.TaskTypeCounts(ctx)
	if err != nil || len(counts) == 0 {
		lines = append(lines, "- No task type data yet.")
		return strings.Join(lines, "\n")
	}
	types := make([]core.TaskType, 0, len(counts))
	for tt := range counts {
		types = append(types, tt)
	}
	sort.Slice(types, func(i, j int) bool {
		if counts[types[i]] != counts[types[j]] {
			return counts[types[i]] > counts[types[j]]
		}
		return types[i] < types[j]
	})
	for _, tt := range types {
		lines = append(lines, fmt.Sprintf("- %s: %d runs", tt, counts[tt]))
	}
	return strings.Join(lines, "\n")
}

func (w *MetaWorker) datasetSummary(ctx context.Context) string {
	lines := []string{"### Example dataset"}

	counts, err := w.store.LabelCounts(ctx)
	if err != nil || len(counts) == 0 {
		lines = append(lines, "- No labeled examples yet.")
		return strings.Join(lines, "\n")
	}

	labels := make([]string, 0, len(counts))
	total := 0
	for label, n := range counts {
		labels = append(labels, label)
		total += n
	}
	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}
		return labels[i] < labels[j]
	})
	for _, label := range labels {
		lines = append(lines, fmt.Sprintf("- %s: %d examples", label, counts[label]))
	}
	lines = append(lines, fmt.Sprintf("- Total labeled examples: %d", total))
	return strings.Join(lines, "\n")
}
