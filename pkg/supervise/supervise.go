// Package supervise sequences one orchestrated run: plan, solve (single
// worker or team), conditional critique, and finalization. The state machine
// never retries and never moves backwards; a run either completes with a
// RunResult or fails with a propagated execution error.
package supervise

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/troupelabs/troupe/pkg/classify"
	"github.com/troupelabs/troupe/pkg/core"
	trperrors "github.com/troupelabs/troupe/pkg/errors"
	"github.com/troupelabs/troupe/pkg/registry"
	"github.com/troupelabs/troupe/pkg/route"
	"github.com/troupelabs/troupe/pkg/telemetry"
)

// Supervisor states.
const (
	StatePlanning      = "PLANNING"
	StateSolvingSingle = "SOLVING_SINGLE"
	StateSolvingTeam   = "SOLVING_TEAM"
	StateCritiquing    = "CRITIQUING"
	StateFinalizing    = "FINALIZING"
	StateDone          = "DONE"
)

// CritiqueSkipped is the placeholder critique recorded when the task type is
// not critique-worthy. The result shape stays uniform; tags stay empty and
// the final answer equals the draft.
const CritiqueSkipped = "[critique skipped automatically for this task type]"

// critiqueWorthy is the fixed allow-list of task types that get a critique
// pass. Everything else (i.e. "other") is auto-skipped.
var critiqueWorthy = map[core.TaskType]struct{}{
	core.TaskPlan:       {},
	core.TaskExplain:    {},
	core.TaskDocs:       {},
	core.TaskCode:       {},
	core.TaskDBAnalysis: {},
	core.TaskMeta:       {},
}

// Supervisor owns the end-to-end run over one registry and router. It is safe
// for concurrent use; each Run gets its own RoutingContext.
type Supervisor struct {
	reg    *registry.Registry
	router *route.Router

	plannerName string
	criticName  string
	solverName  string
	synthName   string

	autoSolver      bool
	autoTeam        bool
	teamSize        int
	useTeamProfiles bool
	teamConcurrency int
	exclude         map[string]struct{}
	profiles        map[core.TaskType][]string

	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *telemetry.RunMetrics
}

// New creates a Supervisor over the given registry and router.
func New(reg *registry.Registry, router *route.Router, opts ...Option) (*Supervisor, error) {
	if reg == nil {
		return nil, trperrors.Newf(trperrors.CodeInternal, "supervisor requires a registry")
	}
	if router == nil {
		return nil, trperrors.Newf(trperrors.CodeInternal, "supervisor requires a router")
	}

	s := &Supervisor{
		reg:             reg,
		router:          router,
		plannerName:     "planner",
		criticName:      "critic",
		solverName:      "analyst",
		synthName:       "synthesizer",
		autoSolver:      true,
		teamSize:        2,
		useTeamProfiles: true,
		teamConcurrency: 4,
		exclude:         route.DefaultExclusions(),
		profiles:        DefaultTeamProfiles(),
		logger:          slog.Default(),
		tracer:          otel.Tracer("troupe/supervise"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run executes one task end to end and returns the immutable run result.
// Execution failures from any worker propagate unchanged; only scoring
// failures are swallowed (inside the router).
func (s *Supervisor) Run(ctx context.Context, task string, mem core.Memory) (*core.RunResult, error) {
	ctx, runID := core.EnsureRunID(ctx)
	started := time.Now()

	rc := core.NewRoutingContext(task)
	rc.TaskType = classify.Classify(task)

	ctx, span := s.tracer.Start(ctx, "Supervisor.Run", trace.WithAttributes(
		attribute.String(telemetry.AttrRunID, runID),
		attribute.String(telemetry.AttrTaskType, string(rc.TaskType)),
	))
	defer span.End()

	res, err := s.run(ctx, task, mem, rc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	res.ID = runID
	res.StartedAt = started
	res.FinishedAt = time.Now()
	span.SetAttributes(attribute.String(telemetry.AttrRunMode, res.Mode()))
	s.metrics.RecordRun(ctx, res.Mode(), string(res.TaskType), res.FinishedAt.Sub(res.StartedAt).Seconds())
	return res, nil
}

func (s *Supervisor) run(ctx context.Context, task string, mem core.Memory, rc *core.RoutingContext) (*core.RunResult, error) {
	res := &core.RunResult{
		Task:     task,
		TaskType: rc.TaskType,
	}

	// PLANNING
	s.logState(ctx, StatePlanning, rc)
	plan, err := s.plan(ctx, task, mem, rc)
	if err != nil {
		return nil, err
	}
	rc.Plan = plan
	res.Plan = plan

	// SOLVING
	if s.autoTeam {
		s.logState(ctx, StateSolvingTeam, rc)
		if err := s.solveTeam(ctx, task, mem, rc, res); err != nil {
			return nil, err
		}
	} else {
		s.logState(ctx, StateSolvingSingle, rc)
		if err := s.solveSingle(ctx, task, mem, rc, res); err != nil {
			return nil, err
		}
	}
	res.Draft = rc.Draft
	res.TeamOutputs = rc.TeamOutputs

	// CRITIQUING (conditional)
	_, critiqued := critiqueWorthy[rc.TaskType]
	if critiqued {
		s.logState(ctx, StateCritiquing, rc)
		if err := s.critique(ctx, task, rc); err != nil {
			return nil, err
		}
	} else {
		rc.Critique = CritiqueSkipped
	}
	res.Critique = rc.Critique
	res.CritiqueTags = rc.CritiqueTags

	// FINALIZING. When critique was skipped the draft already is the final
	// answer; no revision or second synthesis runs.
	s.logState(ctx, StateFinalizing, rc)
	if !critiqued {
		res.Final = rc.Draft
		s.logState(ctx, StateDone, rc)
		return res, nil
	}
	final, err := s.finalize(ctx, task, rc, res)
	if err != nil {
		return nil, err
	}
	res.Final = final

	s.logState(ctx, StateDone, rc)
	return res, nil
}

// plan runs the planner. Workers with the Planner capability return the step
// list directly; otherwise the run output is split into lines.
func (s *Supervisor) plan(ctx context.Context, task string, mem core.Memory, rc *core.RoutingContext) ([]string, error) {
	w, err := s.reg.Create(s.plannerName)
	if err != nil {
		return nil, err
	}

	if p, ok := w.(core.Planner); ok {
		return p.Plan(ctx, task, mem)
	}

	out, err := w.Run(ctx, task, mem, rc)
	if err != nil {
		return nil, err
	}
	var steps []string
	for _, line := range strings.Split(out.Output, "\n") {
		if l := strings.TrimSpace(line); l != "" {
			steps = append(steps, l)
		}
	}
	return steps, nil
}

func (s *Supervisor) solveSingle(ctx context.Context, task string, mem core.Memory, rc *core.RoutingContext, res *core.RunResult) error {
	name := s.solverName
	if s.autoSolver {
		name = s.pickSolver(ctx, task, rc)
	}

	w, err := s.reg.Create(name)
	if err != nil {
		return err
	}
	out, err := w.Run(ctx, task, mem, rc)
	if err != nil {
		return trperrors.New(trperrors.CodeExecutionFailure, "solver run failed", err).WithWorker(name)
	}

	rc.Draft = out.Output
	res.SolverAgent = name
	return nil
}

// pickSolver takes the first positive-scoring ranked candidate, falling back
// to the configured default solver when none qualifies. It never fails.
func (s *Supervisor) pickSolver(ctx context.Context, task string, rc *core.RoutingContext) string {
	for _, c := range s.router.Rank(ctx, task, rc, s.exclude) {
		if c.Score > 0 {
			return c.Name
		}
	}
	s.logger.InfoContext(ctx, "no positive-scoring candidate, using default solver",
		"task_type", rc.TaskType, "solver", s.solverName)
	s.metrics.RecordFallback(ctx, string(rc.TaskType))
	return s.solverName
}

// solveTeam seeds the team from the profile table, tops it up from the
// ranking, runs every member, and merges the outputs into a preliminary
// draft.
func (s *Supervisor) solveTeam(ctx context.Context, task string, mem core.Memory, rc *core.RoutingContext, res *core.RunResult) error {
	team, profile := s.seedTeam(ctx, task, rc)
	res.TeamAgents = team
	res.TeamProfile = profile

	outputs, err := s.runTeam(ctx, task, mem, rc, team)
	if err != nil {
		return err
	}
	rc.TeamOutputs = outputs

	draft, err := s.synthesize(ctx, task, outputs, "")
	if err != nil {
		return err
	}
	rc.Draft = draft
	return nil
}

// seedTeam builds the ordered member list. Profile names come first
// (deduplicated, registered, non-excluded), then ranked positive-scoring
// candidates fill the remaining slots. An empty seed falls back to the
// default solver as a one-member team.
func (s *Supervisor) seedTeam(ctx context.Context, task string, rc *core.RoutingContext) ([]string, string) {
	var team []string
	seen := map[string]struct{}{}
	profile := "ranked"

	add := func(name string) {
		if len(team) >= s.teamSize {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		if _, skip := s.exclude[name]; skip {
			return
		}
		if !s.reg.Has(name) {
			return
		}
		seen[name] = struct{}{}
		team = append(team, name)
	}

	if s.useTeamProfiles {
		for _, name := range s.profiles[rc.TaskType] {
			add(name)
		}
		if len(team) > 0 {
			profile = string(rc.TaskType)
		}
	}

	if len(team) < s.teamSize {
		for _, c := range s.router.Rank(ctx, task, rc, s.exclude) {
			if len(team) >= s.teamSize {
				break
			}
			if c.Score > 0 {
				add(c.Name)
			}
		}
	}

	if len(team) == 0 {
		s.logger.InfoContext(ctx, "empty team seed, using default solver",
			"task_type", rc.TaskType, "solver", s.solverName)
		s.metrics.RecordFallback(ctx, string(rc.TaskType))
		team = []string{s.solverName}
	}
	return team, profile
}

// runTeam executes the members with bounded concurrency and joins before
// returning. Members only read the shared routing context; outputs are
// aggregated by name so ordering cannot matter.
func (s *Supervisor) runTeam(ctx context.Context, task string, mem core.Memory, rc *core.RoutingContext, team []string) (map[string]string, error) {
	outputs := make(map[string]string, len(team))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.teamConcurrency)
	for _, name := range team {
		g.Go(func() error {
			w, err := s.reg.Create(name)
			if err != nil {
				return err
			}
			out, err := w.Run(gctx, task, mem, rc)
			if err != nil {
				return trperrors.New(trperrors.CodeExecutionFailure, "team member run failed", err).WithWorker(name)
			}
			mu.Lock()
			outputs[name] = out.Output
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// critique reviews the current draft: the solver output in single mode, the
// preliminary synthesis in team mode.
func (s *Supervisor) critique(ctx context.Context, task string, rc *core.RoutingContext) error {
	w, err := s.reg.Create(s.criticName)
	if err != nil {
		return err
	}
	critic, ok := w.(core.Critic)
	if !ok {
		return trperrors.Newf(trperrors.CodeInvalidWorker, "worker does not implement Critic").WithWorker(s.criticName)
	}

	crit, err := critic.Review(ctx, task, rc.Draft)
	if err != nil {
		return trperrors.New(trperrors.CodeExecutionFailure, "critic review failed", err).WithWorker(s.criticName)
	}

	var b strings.Builder
	for _, note := range crit.Notes {
		b.WriteString("- ")
		b.WriteString(note)
		b.WriteString("\n")
	}
	rc.Critique = strings.TrimRight(b.String(), "\n")
	rc.CritiqueTags = crit.Tags
	return nil
}

// finalize produces the final answer after a critique pass. Team mode re-runs
// the synthesizer critique-aware; single mode asks the solver to revise, with
// plain concatenation as the degraded fallback for non-revising solvers.
func (s *Supervisor) finalize(ctx context.Context, task string, rc *core.RoutingContext, res *core.RunResult) (string, error) {
	if res.Mode() == "team" {
		return s.synthesize(ctx, task, rc.TeamOutputs, rc.Critique)
	}

	w, err := s.reg.Create(res.SolverAgent)
	if err != nil {
		return "", err
	}
	if reviser, ok := w.(core.Reviser); ok {
		final, err := reviser.Revise(ctx, rc.Draft, rc.Critique)
		if err != nil {
			return "", trperrors.New(trperrors.CodeExecutionFailure, "revise failed", err).WithWorker(res.SolverAgent)
		}
		return final, nil
	}
	return rc.Draft + "\n\n" + rc.Critique, nil
}

func (s *Supervisor) synthesize(ctx context.Context, task string, outputs map[string]string, critique string) (string, error) {
	w, err := s.reg.Create(s.synthName)
	if err != nil {
		return "", err
	}
	synth, ok := w.(core.Synthesizer)
	if !ok {
		return "", trperrors.Newf(trperrors.CodeInvalidWorker, "worker does not implement Synthesizer").WithWorker(s.synthName)
	}
	merged, err := synth.Merge(ctx, task, outputs, critique)
	if err != nil {
		return "", trperrors.New(trperrors.CodeExecutionFailure, "synthesis failed", err).WithWorker(s.synthName)
	}
	return merged, nil
}

func (s *Supervisor) logState(ctx context.Context, state string, rc *core.RoutingContext) {
	s.logger.DebugContext(ctx, "supervisor state",
		telemetry.AttrSupervisorState, state,
		"task_type", rc.TaskType)
}
