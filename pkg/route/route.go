// Package route ranks registered workers for a task. The final score is the
// worker's self-reported suitability plus two bonuses derived from external
// collaborators: historical usage statistics and configured preferences.
package route

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/troupelabs/troupe/pkg/classify"
	"github.com/troupelabs/troupe/pkg/core"
	"github.com/troupelabs/troupe/pkg/registry"
	"github.com/troupelabs/troupe/pkg/telemetry"
)

const (
	// usageBonusWeight scales the historical-usage bonus: a worker that
	// dominates past runs for the task type gets the full 0.2.
	usageBonusWeight = 0.2

	// preferenceBonus is the flat bonus when the task type is in the
	// worker's configured preferred set.
	preferenceBonus = 0.3
)

// Note: with both bonuses a poorly-scoring worker can exceed a well-scoring
// one that has no configured preference, and totals can exceed 1.0. Kept
// as-is deliberately; see DESIGN.md.

// ScoredCandidate pairs a worker name with its recomputed per-run score.
type ScoredCandidate struct {
	Name  string
	Score float64
}

// StatsProvider supplies historical usage counts per worker for a task type,
// derived from persisted run history. May return an empty map.
type StatsProvider interface {
	SolverStats(ctx context.Context, taskType core.TaskType) (map[string]int, error)
}

// PreferenceProvider supplies each worker's configured preferred task types,
// sourced from a configuration store editable independently of code.
type PreferenceProvider interface {
	PreferredTaskTypes(worker string) []core.TaskType
}

// DefaultExclusions returns the roles that never appear as solving or
// drafting candidates.
func DefaultExclusions() map[string]struct{} {
	return map[string]struct{}{
		"planner":     {},
		"critic":      {},
		"synthesizer": {},
	}
}

// Router ranks the workers of one registry. It issues no writes to its
// collaborators; both providers are read-only during a run.
type Router struct {
	reg     *registry.Registry
	stats   StatsProvider
	prefs   PreferenceProvider
	exclude map[string]struct{}
	logger  *slog.Logger
	metrics *telemetry.RunMetrics
}

// Option configures a Router.
type Option func(*Router)

// WithStats attaches the historical statistics collaborator.
func WithStats(sp StatsProvider) Option {
	return func(r *Router) { r.stats = sp }
}

// WithPreferences attaches the preference configuration collaborator.
func WithPreferences(pp PreferenceProvider) Option {
	return func(r *Router) { r.prefs = pp }
}

// WithExclusions replaces the default exclusion set.
func WithExclusions(names ...string) Option {
	return func(r *Router) {
		r.exclude = make(map[string]struct{}, len(names))
		for _, n := range names {
			r.exclude[n] = struct{}{}
		}
	}
}

// WithLogger sets the router logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) { r.logger = logger }
}

// WithMetrics attaches run metrics for scoring-failure accounting.
func WithMetrics(m *telemetry.RunMetrics) Option {
	return func(r *Router) { r.metrics = m }
}

// New creates a Router over the given registry.
func New(reg *registry.Registry, opts ...Option) *Router {
	r := &Router{
		reg:     reg,
		exclude: DefaultExclusions(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank scores every registered worker not in the exclusion set and returns
// candidates in descending score order. Exact ties keep the registry's
// lexicographic name order (stable sort). Scores are recomputed on every
// call, never cached across runs. Passing a nil exclude uses the router's
// configured exclusion set.
func (r *Router) Rank(ctx context.Context, task string, rc *core.RoutingContext, exclude map[string]struct{}) []ScoredCandidate {
	if exclude == nil {
		exclude = r.exclude
	}
	taskType := classify.Classify(task)

	stats := map[string]int{}
	if r.stats != nil {
		s, err := r.stats.SolverStats(ctx, taskType)
		if err != nil {
			// A failing statistics collaborator must not abort routing.
			r.logger.WarnContext(ctx, "stats provider failed, skipping usage bonus",
				"task_type", taskType, "error", err)
		} else if s != nil {
			stats = s
		}
	}
	maxCount := 0
	for _, c := range stats {
		if c > maxCount {
			maxCount = c
		}
	}

	candidates := make([]ScoredCandidate, 0, len(r.reg.Names()))
	for _, name := range r.reg.Names() {
		if _, skip := exclude[name]; skip {
			continue
		}

		score := r.baseScore(ctx, name, task, rc)
		if maxCount > 0 {
			score += usageBonusWeight * float64(stats[name]) / float64(maxCount)
		}
		if r.prefs != nil && hasTaskType(r.prefs.PreferredTaskTypes(name), taskType) {
			score += preferenceBonus
		}

		candidates = append(candidates, ScoredCandidate{Name: name, Score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// PickTop returns the names of the first k positive-scoring candidates of
// Rank, fewer when not enough qualify. It never fabricates candidates.
func (r *Router) PickTop(ctx context.Context, task string, k int, rc *core.RoutingContext) []string {
	var names []string
	for _, c := range r.Rank(ctx, task, rc, nil) {
		if len(names) >= k {
			break
		}
		if c.Score > 0 {
			names = append(names, c.Name)
		}
	}
	return names
}

// baseScore instantiates the worker and asks it to score the task. A
// panicking Score is recovered as 0.0: a misbehaving scorer must never abort
// routing (fail-open). Non-finite results are sanitized the same way.
func (r *Router) baseScore(ctx context.Context, name, task string, rc *core.RoutingContext) (score float64) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.WarnContext(ctx, "worker score panicked, treating as 0.0",
				"worker", name, "panic", rec)
			r.metrics.RecordScoringFailure(ctx, name)
			score = 0
		}
	}()

	w, err := r.reg.Create(name)
	if err != nil {
		return 0
	}
	s := w.Score(task, rc)
	if math.IsNaN(s) || math.IsInf(s, 0) || s < 0 {
		r.metrics.RecordScoringFailure(ctx, name)
		return 0
	}
	return s
}

func hasTaskType(types []core.TaskType, tt core.TaskType) bool {
	for _, t := range types {
		if t == tt {
			return true
		}
	}
	return false
}
