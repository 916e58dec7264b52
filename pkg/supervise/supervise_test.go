package supervise

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/troupelabs/troupe/pkg/core"
	trperrors "github.com/troupelabs/troupe/pkg/errors"
	"github.com/troupelabs/troupe/pkg/memory"
	"github.com/troupelabs/troupe/pkg/registry"
	"github.com/troupelabs/troupe/pkg/route"
	"github.com/troupelabs/troupe/pkg/workers"
)

func newTestSupervisor(t *testing.T, opts ...Option) *Supervisor {
	t.Helper()
	reg := registry.New()
	if err := workers.RegisterDefaults(reg, nil); err != nil {
		t.Fatalf("register defaults: %v", err)
	}
	sup, err := New(reg, route.New(reg), opts...)
	if err != nil {
		t.Fatalf("new supervisor: %v", err)
	}
	return sup
}

func TestRunSingleDocsScenario(t *testing.T) {
	sup := newTestSupervisor(t)

	res, err := sup.Run(context.Background(), "Write a README installation section", memory.NewInMemory())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if res.TaskType != core.TaskDocs {
		t.Fatalf("expected docs task type, got %s", res.TaskType)
	}
	if res.SolverAgent != "docs" {
		t.Fatalf("expected docs solver, got %q", res.SolverAgent)
	}
	if res.Mode() != "single" {
		t.Fatalf("expected single mode, got %s", res.Mode())
	}
	if len(res.Plan) != 5 {
		t.Fatalf("expected 5 plan steps, got %d", len(res.Plan))
	}
	if res.Final == "" {
		t.Fatalf("expected non-empty final")
	}
	if res.Final == res.Draft {
		t.Fatalf("critique fired, final should differ from draft")
	}
	if res.ID == "" || res.FinishedAt.Before(res.StartedAt) {
		t.Fatalf("bad run bookkeeping: id=%q started=%v finished=%v", res.ID, res.StartedAt, res.FinishedAt)
	}
}

func TestRunDeterminism(t *testing.T) {
	sup := newTestSupervisor(t)
	ctx := context.Background()

	first, err := sup.Run(ctx, "Explain the difference between maps and slices", memory.NewInMemory())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	second, err := sup.Run(ctx, "Explain the difference between maps and slices", memory.NewInMemory())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// IDs and timestamps are intentionally non-deterministic.
	first.ID, second.ID = "", ""
	first.StartedAt = second.StartedAt
	first.FinishedAt = second.FinishedAt

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("runs differ:\n%+v\n---\n%+v", first, second)
	}
}

func TestRunExclusionInvariant(t *testing.T) {
	sup := newTestSupervisor(t, WithAutoTeam(true), WithTeamSize(4))
	excluded := route.DefaultExclusions()

	tasks := []string{
		"Write a README installation section",
		"Explain the roles of planner and critic",
		"Fix this Python traceback",
		"Analyze the runs in the database",
		"Create a short plan to add a new agent safely",
		"hello there",
	}
	for _, task := range tasks {
		res, err := sup.Run(context.Background(), task, memory.NewInMemory())
		if err != nil {
			t.Fatalf("run %q: %v", task, err)
		}
		if len(res.TeamAgents) < 1 || len(res.TeamAgents) > 4 {
			t.Fatalf("%q: team size out of bounds: %v", task, res.TeamAgents)
		}
		for _, name := range res.TeamAgents {
			if _, bad := excluded[name]; bad {
				t.Fatalf("%q: excluded role %q in team %v", task, name, res.TeamAgents)
			}
		}
	}
}

func TestRunTeamProfileSeeding(t *testing.T) {
	sup := newTestSupervisor(t, WithAutoTeam(true))

	res, err := sup.Run(context.Background(), "Write a README installation section", memory.NewInMemory())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if res.Mode() != "team" {
		t.Fatalf("expected team mode, got %s", res.Mode())
	}
	if res.TeamProfile != "docs" {
		t.Fatalf("expected docs profile, got %q", res.TeamProfile)
	}
	want := []string{"docs", "writer"}
	if !reflect.DeepEqual(res.TeamAgents, want) {
		t.Fatalf("expected team %v, got %v", want, res.TeamAgents)
	}
	for _, name := range want {
		if res.TeamOutputs[name] == "" {
			t.Fatalf("missing output for team member %q", name)
		}
	}
	if res.SolverAgent != "" {
		t.Fatalf("team mode must not set a single solver, got %q", res.SolverAgent)
	}
}

func TestRunTeamTopUpFromRanking(t *testing.T) {
	sup := newTestSupervisor(t, WithAutoTeam(true), WithTeamSize(3))

	res, err := sup.Run(context.Background(), "Write a README installation section", memory.NewInMemory())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(res.TeamAgents) != 3 {
		t.Fatalf("expected 3 members, got %v", res.TeamAgents)
	}
	if res.TeamAgents[0] != "docs" || res.TeamAgents[1] != "writer" {
		t.Fatalf("profile members must come first: %v", res.TeamAgents)
	}
}

func TestRunCritiqueGatingOther(t *testing.T) {
	for _, autoTeam := range []bool{false, true} {
		sup := newTestSupervisor(t, WithAutoTeam(autoTeam))

		res, err := sup.Run(context.Background(), "hello there", memory.NewInMemory())
		if err != nil {
			t.Fatalf("run (team=%v): %v", autoTeam, err)
		}
		if res.TaskType != core.TaskOther {
			t.Fatalf("expected other, got %s", res.TaskType)
		}
		if res.Critique != CritiqueSkipped {
			t.Fatalf("expected auto-skip marker, got %q", res.Critique)
		}
		if len(res.CritiqueTags) != 0 {
			t.Fatalf("expected no tags, got %v", res.CritiqueTags)
		}
		if res.Final != res.Draft {
			t.Fatalf("skipped critique must keep final == draft")
		}
	}
}

// zeroWorker scores zero for everything.
type zeroWorker struct{ name string }

func (w *zeroWorker) Name() string                                  { return w.name }
func (w *zeroWorker) Score(string, *core.RoutingContext) float64    { return 0 }
func (w *zeroWorker) Run(_ context.Context, task string, _ core.Memory, _ *core.RoutingContext) (core.Result, error) {
	return core.Result{Worker: w.name, Output: "zero output for " + task}, nil
}

// failingWorker always fails its run.
type failingWorker struct{}

func (w *failingWorker) Name() string                               { return "boom" }
func (w *failingWorker) Score(string, *core.RoutingContext) float64 { return 1 }
func (w *failingWorker) Run(context.Context, string, core.Memory, *core.RoutingContext) (core.Result, error) {
	return core.Result{}, errors.New("worker exploded")
}

func TestRunFallbackToDefaultSolver(t *testing.T) {
	reg := registry.New()
	for _, name := range []string{"alpha", "beta", "fallback"} {
		reg.Register(name, func() core.Worker { return &zeroWorker{name: name} })
	}
	reg.Register("planner", func() core.Worker { return workers.NewPlanner() })
	reg.Register("critic", func() core.Worker { return workers.NewCritic() })
	reg.Register("synthesizer", func() core.Worker { return workers.NewSynthesizer() })

	sup, err := New(reg, route.New(reg), WithSolver("fallback"))
	if err != nil {
		t.Fatalf("new supervisor: %v", err)
	}

	res, err := sup.Run(context.Background(), "hello there", memory.NewInMemory())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.SolverAgent != "fallback" {
		t.Fatalf("expected fallback solver, got %q", res.SolverAgent)
	}
}

func TestRunExecutionFailurePropagates(t *testing.T) {
	reg := registry.New()
	reg.Register("planner", func() core.Worker { return workers.NewPlanner() })
	reg.Register("critic", func() core.Worker { return workers.NewCritic() })
	reg.Register("synthesizer", func() core.Worker { return workers.NewSynthesizer() })
	reg.Register("boom", func() core.Worker { return &failingWorker{} })

	sup, err := New(reg, route.New(reg), WithAutoSolver(false), WithSolver("boom"))
	if err != nil {
		t.Fatalf("new supervisor: %v", err)
	}

	_, err = sup.Run(context.Background(), "explain something", memory.NewInMemory())
	if err == nil {
		t.Fatalf("expected execution failure")
	}
	if !trperrors.HasCode(err, trperrors.CodeExecutionFailure) {
		t.Fatalf("expected EXECUTION_FAILURE, got %v", err)
	}
}

func TestRunFixedSolver(t *testing.T) {
	sup := newTestSupervisor(t, WithAutoSolver(false), WithSolver("writer"))

	res, err := sup.Run(context.Background(), "Write a README installation section", memory.NewInMemory())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.SolverAgent != "writer" {
		t.Fatalf("expected fixed writer solver, got %q", res.SolverAgent)
	}
}

func TestRunSingleReviserSolver(t *testing.T) {
	// The analyst implements Revise; its final must be draft + revisions.
	sup := newTestSupervisor(t, WithAutoSolver(false), WithSolver("analyst"))

	res, err := sup.Run(context.Background(), "Analyze the recent runs", memory.NewInMemory())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := res.Draft + "\n\n## Revisions\n" + res.Critique
	if res.Final != want {
		t.Fatalf("expected revised final, got:\n%s", res.Final)
	}
}

func TestDefaultTeamProfilesCoverCritiqueWorthyTypes(t *testing.T) {
	profiles := DefaultTeamProfiles()
	for tt := range critiqueWorthy {
		if len(profiles[tt]) == 0 {
			t.Fatalf("no team profile for %s", tt)
		}
	}
	if len(profiles[core.TaskOther]) != 0 {
		t.Fatalf("other must have no profile, got %v", profiles[core.TaskOther])
	}
}

func TestLoadTeamProfiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teams.yaml")
	data := "docs: [writer]\ncode: [coder, analyst, meta]\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	profiles, err := LoadTeamProfiles(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(profiles[core.TaskDocs], []string{"writer"}) {
		t.Fatalf("docs override not applied: %v", profiles[core.TaskDocs])
	}
	if len(profiles[core.TaskCode]) != 3 {
		t.Fatalf("code override not applied: %v", profiles[core.TaskCode])
	}
	// Unlisted types keep their defaults.
	if !reflect.DeepEqual(profiles[core.TaskExplain], []string{"explainer", "writer"}) {
		t.Fatalf("explain default lost: %v", profiles[core.TaskExplain])
	}
}

func TestLoadTeamProfilesRejectsUnknownType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teams.yaml")
	if err := os.WriteFile(path, []byte("poetry: [writer]\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadTeamProfiles(path); err == nil {
		t.Fatalf("expected unknown task type error")
	}
}
