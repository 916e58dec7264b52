package route

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/troupelabs/troupe/pkg/core"
	"github.com/troupelabs/troupe/pkg/registry"
)

type scoreWorker struct {
	name  string
	score func() float64
}

func (w *scoreWorker) Name() string { return w.name }

func (w *scoreWorker) Score(task string, rc *core.RoutingContext) float64 { return w.score() }

func (w *scoreWorker) Run(ctx context.Context, task string, mem core.Memory, rc *core.RoutingContext) (core.Result, error) {
	return core.Result{Worker: w.name, Output: "output from " + w.name}, nil
}

func fixedScore(name string, score float64) (string, registry.Constructor) {
	return name, func() core.Worker {
		return &scoreWorker{name: name, score: func() float64 { return score }}
	}
}

func newTestRegistry(t *testing.T, workers map[string]float64) *registry.Registry {
	t.Helper()
	reg := registry.New()
	for name, score := range workers {
		n, ctor := fixedScore(name, score)
		if err := reg.Register(n, ctor); err != nil {
			t.Fatalf("register %s failed: %v", name, err)
		}
	}
	return reg
}

type stubStats struct {
	counts map[string]int
	err    error
}

func (s *stubStats) SolverStats(ctx context.Context, tt core.TaskType) (map[string]int, error) {
	return s.counts, s.err
}

type stubPrefs map[string][]core.TaskType

func (p stubPrefs) PreferredTaskTypes(worker string) []core.TaskType { return p[worker] }

func TestRankOrdersDescending(t *testing.T) {
	reg := newTestRegistry(t, map[string]float64{
		"docs":   0.9,
		"writer": 0.5,
		"coder":  0.1,
	})
	router := New(reg)

	ranked := router.Rank(context.Background(), "Write a README installation section", nil, nil)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(ranked))
	}
	want := []string{"docs", "writer", "coder"}
	for i, name := range want {
		if ranked[i].Name != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, ranked[i].Name)
		}
	}
}

func TestRankBreaksTiesLexicographically(t *testing.T) {
	reg := newTestRegistry(t, map[string]float64{
		"zeta":  0.5,
		"alpha": 0.5,
		"mid":   0.5,
	})
	router := New(reg)

	ranked := router.Rank(context.Background(), "anything at all", nil, nil)
	want := []string{"alpha", "mid", "zeta"}
	for i, name := range want {
		if ranked[i].Name != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, ranked[i].Name)
		}
	}
}

func TestRankExcludesRoles(t *testing.T) {
	reg := newTestRegistry(t, map[string]float64{
		"planner":     1.0,
		"critic":      1.0,
		"synthesizer": 1.0,
		"docs":        0.4,
	})
	router := New(reg)

	ranked := router.Rank(context.Background(), "task", nil, nil)
	if len(ranked) != 1 || ranked[0].Name != "docs" {
		t.Fatalf("expected only docs, got %+v", ranked)
	}
}

func TestRankFailOpenOnPanic(t *testing.T) {
	reg := newTestRegistry(t, map[string]float64{"docs": 0.4})
	if err := reg.Register("broken", func() core.Worker {
		return &scoreWorker{name: "broken", score: func() float64 { panic("boom") }}
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	router := New(reg)
	ranked := router.Rank(context.Background(), "task", nil, nil)
	if len(ranked) != 2 {
		t.Fatalf("expected both candidates, got %d", len(ranked))
	}
	if ranked[0].Name != "docs" {
		t.Fatalf("expected docs first, got %s", ranked[0].Name)
	}
	if ranked[1].Name != "broken" || ranked[1].Score != 0 {
		t.Fatalf("expected broken scored 0, got %+v", ranked[1])
	}
}

func TestRankSanitizesNonFiniteScores(t *testing.T) {
	reg := registry.New()
	if err := reg.Register("nan", func() core.Worker {
		return &scoreWorker{name: "nan", score: func() float64 { return math.NaN() }}
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	router := New(reg)
	ranked := router.Rank(context.Background(), "task", nil, nil)
	if ranked[0].Score != 0 {
		t.Fatalf("expected NaN sanitized to 0, got %v", ranked[0].Score)
	}
}

func TestUsageBonus(t *testing.T) {
	reg := newTestRegistry(t, map[string]float64{
		"docs":   0.5,
		"writer": 0.5,
	})
	stats := &stubStats{counts: map[string]int{"docs": 10, "writer": 5}}
	router := New(reg, WithStats(stats))

	ranked := router.Rank(context.Background(), "Write a README installation section", nil, nil)
	byName := map[string]float64{}
	for _, c := range ranked {
		byName[c.Name] = c.Score
	}

	// docs: 0.5 + 0.2*10/10, writer: 0.5 + 0.2*5/10.
	if got, want := byName["docs"], 0.7; math.Abs(got-want) > 1e-9 {
		t.Fatalf("docs score = %v, want %v", got, want)
	}
	if got, want := byName["writer"], 0.6; math.Abs(got-want) > 1e-9 {
		t.Fatalf("writer score = %v, want %v", got, want)
	}
}

func TestStatsFailureSkipsBonus(t *testing.T) {
	reg := newTestRegistry(t, map[string]float64{"docs": 0.5})
	router := New(reg, WithStats(&stubStats{err: errors.New("db gone")}))

	ranked := router.Rank(context.Background(), "readme", nil, nil)
	if ranked[0].Score != 0.5 {
		t.Fatalf("expected base score only, got %v", ranked[0].Score)
	}
}

func TestPreferenceBonus(t *testing.T) {
	reg := newTestRegistry(t, map[string]float64{
		"docs":   0.5,
		"writer": 0.5,
	})
	prefs := stubPrefs{"writer": {core.TaskDocs}}
	router := New(reg, WithPreferences(prefs))

	ranked := router.Rank(context.Background(), "Write a README installation section", nil, nil)
	if ranked[0].Name != "writer" {
		t.Fatalf("expected preferred writer first, got %s", ranked[0].Name)
	}
	if got, want := ranked[0].Score, 0.8; math.Abs(got-want) > 1e-9 {
		t.Fatalf("writer score = %v, want %v", got, want)
	}
}

// Bonuses have no upper clamp: a preferred, historically dominant worker can
// exceed 1.0.
func TestScoreCanExceedOne(t *testing.T) {
	reg := newTestRegistry(t, map[string]float64{"docs": 0.9})
	router := New(reg,
		WithStats(&stubStats{counts: map[string]int{"docs": 3}}),
		WithPreferences(stubPrefs{"docs": {core.TaskDocs}}),
	)

	ranked := router.Rank(context.Background(), "update the readme", nil, nil)
	if got, want := ranked[0].Score, 1.4; math.Abs(got-want) > 1e-9 {
		t.Fatalf("docs score = %v, want %v", got, want)
	}
}

func TestPickTopMatchesRankPrefix(t *testing.T) {
	reg := newTestRegistry(t, map[string]float64{
		"docs":    0.9,
		"writer":  0.5,
		"coder":   0.2,
		"analyst": 0.0,
	})
	router := New(reg)

	ranked := router.Rank(context.Background(), "task", nil, nil)
	for k := 0; k <= 5; k++ {
		picked := router.PickTop(context.Background(), "task", k, nil)

		var want []string
		for _, c := range ranked {
			if len(want) >= k {
				break
			}
			if c.Score > 0 {
				want = append(want, c.Name)
			}
		}
		if len(picked) != len(want) {
			t.Fatalf("k=%d: expected %d names, got %d", k, len(want), len(picked))
		}
		for i := range want {
			if picked[i] != want[i] {
				t.Fatalf("k=%d position %d: expected %s, got %s", k, i, want[i], picked[i])
			}
		}
	}
}

func TestPickTopSkipsNonPositive(t *testing.T) {
	reg := newTestRegistry(t, map[string]float64{
		"docs":   0.0,
		"writer": 0.0,
	})
	router := New(reg)

	if picked := router.PickTop(context.Background(), "task", 2, nil); len(picked) != 0 {
		t.Fatalf("expected no positive candidates, got %v", picked)
	}
}
