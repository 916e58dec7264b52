package core

import (
	"context"

	"github.com/google/uuid"
)

type runIDKey struct{}

// WithRunID attaches a run id to the context.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the run id if present.
func RunID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey{}).(string)
	return id, ok
}

// EnsureRunID ensures a run id exists in the context.
func EnsureRunID(ctx context.Context) (context.Context, string) {
	if id, ok := RunID(ctx); ok {
		return ctx, id
	}
	id := uuid.NewString()
	return WithRunID(ctx, id), id
}

// RoutingContext is the accumulating key-value bag scoped to one run. Keys
// are only ever added within a run, never removed; the whole context is
// discarded when the run ends. It is exclusively owned by its run and must
// not be shared across concurrent Supervisor invocations.
type RoutingContext struct {
	Task     string
	TaskType TaskType

	// Plan is the ordered list of step descriptions from the planning state.
	Plan []string

	// Draft is the running draft text (single solver output or the
	// preliminary team synthesis).
	Draft string

	// TeamOutputs holds per-worker raw outputs in team mode, keyed by
	// worker name. A map rather than a sequence: aggregation must stay
	// order-independent.
	TeamOutputs map[string]string

	Critique     string
	CritiqueTags []string

	// Values carries free-form worker extras.
	Values map[string]any
}

// NewRoutingContext creates the routing context for one run.
func NewRoutingContext(task string) *RoutingContext {
	return &RoutingContext{
		Task:        task,
		TeamOutputs: map[string]string{},
		Values:      map[string]any{},
	}
}

// Set stores a free-form value. Existing keys are kept as-is: the context is
// add-only within a run.
func (rc *RoutingContext) Set(key string, value any) {
	if rc.Values == nil {
		rc.Values = map[string]any{}
	}
	if _, exists := rc.Values[key]; exists {
		return
	}
	rc.Values[key] = value
}

// Get returns a free-form value.
func (rc *RoutingContext) Get(key string) (any, bool) {
	v, ok := rc.Values[key]
	return v, ok
}
