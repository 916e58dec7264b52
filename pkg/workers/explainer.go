package workers

import (
	"context"
	"fmt"
	"strings"

	"github.com/troupelabs/troupe/pkg/core"
	"github.com/troupelabs/troupe/pkg/memory"
)

// ExplainerWorker specializes in explanations, differences and how/why
// questions. It is the only default worker that consults memory flags:
// force_structure switches to a headed layout, expand_when_short adds an
// extra point.
type ExplainerWorker struct{}

var _ core.Worker = (*ExplainerWorker)(nil)

// NewExplainer creates the explanation specialist.
func NewExplainer() *ExplainerWorker { return &ExplainerWorker{} }

func (w *ExplainerWorker) Name() string { return "explainer" }

var (
	explainStrong = []string{
		"explain", "difference", "compare", "why", "how",
		"what is", "roles of", "versus", "vs",
	}
	explainMedium = []string{"meaning", "concept", "overview", "summary", "introduce"}
)

func (w *ExplainerWorker) Score(task string, rc *core.RoutingContext) float64 {
	t := strings.ToLower(task)
	if containsAny(t, explainStrong) {
		return 0.92
	}
	if containsAny(t, explainMedium) {
		return 0.65
	}
	return 0.15
}

func (w *ExplainerWorker) Run(ctx context.Context, task string, mem core.Memory, _ *core.RoutingContext) (core.Result, error) {
	forceStructure := memory.FlagEnabled(ctx, mem, "force_structure")
	expandWhenShort := memory.FlagEnabled(ctx, mem, "expand_when_short")

	keyPoints := []string{
		"Define each concept in one sentence.",
		"Explain the purpose and when to use it.",
		"Show a simple contrast or example.",
		"Summarize the takeaway in 1-2 lines.",
	}
	if expandWhenShort {
		keyPoints = append(keyPoints, "Add one practical tip or common pitfall.")
	}

	var out string
	if forceStructure {
		out = strings.Join([]string{
			"## Question",
			task,
			"",
			"## Explanation Map",
			bullets(keyPoints),
			"",
			"## Example (template)",
			bullets([]string{
				"Concept A: definition + purpose",
				"Concept B: definition + purpose",
				"Key difference: 1-2 bullets",
				"When to choose each: 1-2 bullets",
			}),
		}, "\n")
	} else {
		out = fmt.Sprintf("Question: %s\nApproach: define terms -> purpose -> contrast -> quick example -> takeaway.", task)
	}

	return core.Result{
		Worker: w.Name(),
		Output: out,
		Meta:   map[string]string{"mode": "explain_scaffold"},
	}, nil
}
