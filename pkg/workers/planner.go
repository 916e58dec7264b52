package workers

import (
	"context"
	"strings"

	"github.com/troupelabs/troupe/pkg/core"
)

// PlannerWorker produces the ordered plan every run starts with. It is an
// excluded role: the router never offers it as a solving candidate.
type PlannerWorker struct{}

var (
	_ core.Worker  = (*PlannerWorker)(nil)
	_ core.Planner = (*PlannerWorker)(nil)
)

// NewPlanner creates the planner role worker.
func NewPlanner() *PlannerWorker { return &PlannerWorker{} }

func (w *PlannerWorker) Name() string { return "planner" }

// Score is always 0: the planner is not meant to be chosen by the router.
func (w *PlannerWorker) Score(task string, rc *core.RoutingContext) float64 { return 0.0 }

// Plan returns the ordered step list for a task.
func (w *PlannerWorker) Plan(_ context.Context, task string, _ core.Memory) ([]string, error) {
	return []string{
		"Understand the task and expected output format",
		"Extract key points and constraints",
		"Draft an answer",
		"Run self-critique",
		"Revise and finalize",
	}, nil
}

func (w *PlannerWorker) Run(ctx context.Context, task string, mem core.Memory, rc *core.RoutingContext) (core.Result, error) {
	steps, err := w.Plan(ctx, task, mem)
	if err != nil {
		return core.Result{}, err
	}
	return core.Result{
		Worker: w.Name(),
		Output: strings.Join(steps, "\n"),
		Meta:   map[string]string{"mode": "plan"},
	}, nil
}
