package workers

import (
	"context"
	"strings"

	"github.com/troupelabs/troupe/pkg/core"
)

// CoderWorker handles code-related tasks: snippets, debugging and simple
// scripts.
type CoderWorker struct{}

var _ core.Worker = (*CoderWorker)(nil)

// NewCoder creates the code specialist.
func NewCoder() *CoderWorker { return &CoderWorker{} }

func (w *CoderWorker) Name() string { return "coder" }

var (
	errorMarkers = []string{"traceback", "error", "exception"}
	codeMarkers  = []string{"python", ".py", "script", "code", "function", "class", "refactor", "bug"}
)

func (w *CoderWorker) Score(task string, rc *core.RoutingContext) float64 {
	t := strings.ToLower(task)

	if containsAny(t, errorMarkers) {
		return 0.9
	}

	hits := countHits(t, codeMarkers)
	if hits == 0 {
		return 0.1
	}
	score := 0.6 + float64(hits)*0.1
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func (w *CoderWorker) Run(_ context.Context, task string, _ core.Memory, _ *core.RoutingContext) (core.Result, error) {
	t := strings.ToLower(task)

	if containsAny(t, errorMarkers) {
		out := strings.Join([]string{
			"## Error analysis",
			"",
			"### Breakdown steps",
			"1. Find the last block of the traceback: error type, file, line.",
			"2. Note the error type (SyntaxError, TypeError, ImportError, ...).",
			"3. Look at the exact line the traceback points to.",
			"4. Work out what is wrong there (bad call, missing module, wrong type).",
			"",
			"### What to do next",
			bullets([]string{
				"Read the error text carefully; it usually states the problem directly.",
				"Check library versions for ImportError or AttributeError cases.",
				"Reduce the suspect fragment to a minimal example and test it alone.",
			}),
		}, "\n")
		return core.Result{Worker: w.Name(), Output: out, Meta: map[string]string{"mode": "debugging"}}, nil
	}

	out := strings.Join([]string{
		"## Plan for a coding task",
		"",
		"### 1. Clarify the task",
		bullets([]string{"State what the script must do: inputs, outputs, constraints."}),
		"",
		"### 2. Shape the solution",
		bullets([]string{
			"List the main algorithm steps.",
			"Decide which functions deserve to be separate.",
		}),
		"",
		"### 3. Implement",
		bullets([]string{
			"Start with a minimal skeleton and an entry point.",
			"Add each step one at a time, testing after changes.",
		}),
		"",
		"### 4. Verify",
		bullets([]string{
			"Cover the normal case, empty input and invalid values.",
			"Comment only where the logic is not obvious.",
		}),
	}, "\n")
	return core.Result{Worker: w.Name(), Output: out, Meta: map[string]string{"mode": "generic_code"}}, nil
}
