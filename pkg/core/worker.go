// Package core defines the contracts shared by the troupe orchestration
// packages: the Worker interface, the routing data model, and the run result.
package core

import "context"

// Worker is the minimal pluggable unit of work. Implementations are created
// fresh per invocation through a registry constructor; they must not keep
// mutable state across runs.
type Worker interface {
	// Name returns the unique lowercase registry key of the worker.
	Name() string

	// Score reports how suitable the worker is for the task, in [0.0, 1.0].
	// A panicking or out-of-range Score is treated as 0.0 by the router.
	Score(task string, rc *RoutingContext) float64

	// Run executes the worker once and returns its output.
	Run(ctx context.Context, task string, mem Memory, rc *RoutingContext) (Result, error)
}

// Result is the output of a single Worker.Run invocation.
type Result struct {
	Worker string
	Output string
	Meta   map[string]string
}

// Planner is an optional capability: produce an ordered plan for a task.
// Workers without it have their Run output split into lines instead.
type Planner interface {
	Plan(ctx context.Context, task string, mem Memory) ([]string, error)
}

// Reviser is an optional capability: rework a draft using critique text.
type Reviser interface {
	Revise(ctx context.Context, draft, critique string) (string, error)
}

// Critique is the structured outcome of a review pass.
type Critique struct {
	Notes []string
	Tags  []string
}

// Critic is an optional capability: review a draft against the task.
// Review must be side-effect free and must not fail on empty input; it
// reports a missing-input tag instead.
type Critic interface {
	Review(ctx context.Context, task, draft string) (Critique, error)
}

// Synthesizer is an optional capability: merge several workers' outputs into
// one answer. Merge must be deterministic for identical inputs and callable
// more than once per run.
type Synthesizer interface {
	Merge(ctx context.Context, task string, outputs map[string]string, critique string) (string, error)
}
