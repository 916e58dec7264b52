package workers

import (
	"context"
	"strings"

	"github.com/troupelabs/troupe/pkg/core"
)

// WriterWorker handles writing, rewriting, outlines and documentation text.
// It overlaps with the docs worker on README tasks but scores slightly lower
// there, so docs wins the tie unless preferences say otherwise.
type WriterWorker struct{}

var _ core.Worker = (*WriterWorker)(nil)

// NewWriter creates the writing specialist.
func NewWriter() *WriterWorker { return &WriterWorker{} }

func (w *WriterWorker) Name() string { return "writer" }

var writerKeywords = []string{
	"write", "rewrite", "story", "outline", "essay",
	"text", "script", "email", "post", "article",
}

func (w *WriterWorker) Score(task string, rc *core.RoutingContext) float64 {
	t := strings.ToLower(task)

	if containsAny(t, []string{"readme", "documentation", "doc", "guide", "installation"}) {
		return 0.95
	}

	hits := countHits(t, writerKeywords)
	if hits == 0 {
		return 0.1
	}
	score := 0.5 + float64(hits)*0.15
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func (w *WriterWorker) Run(_ context.Context, task string, _ core.Memory, _ *core.RoutingContext) (core.Result, error) {
	t := strings.ToLower(task)

	if containsAny(t, []string{"installation", "install", "setup"}) {
		out := strings.Join([]string{
			"## Installation",
			"",
			"### Prerequisites",
			bullets([]string{
				"A recent toolchain for the project's language.",
				"git installed.",
			}),
			"",
			"### Steps",
			"1. Clone the repository and enter the project directory.",
			"2. Install the dependencies.",
			"3. Configure environment variables or a config file if needed.",
			"4. Verify the setup by running the help command.",
		}, "\n")
		return core.Result{Worker: w.Name(), Output: out, Meta: map[string]string{"mode": "readme_install"}}, nil
	}

	if isReadmeOutline(t) {
		out := strings.Join([]string{
			"## Minimal README skeleton",
			"",
			bullets([]string{
				"Project name and a short description.",
				"Installation section.",
				"Usage section.",
				"Configuration / environment variables (if any).",
				"Example commands.",
				"How to run the tests (if any).",
				"License and contacts / links.",
			}),
		}, "\n")
		return core.Result{Worker: w.Name(), Output: out, Meta: map[string]string{"mode": "readme_outline"}}, nil
	}

	out := strings.Join([]string{
		"## Task",
		task,
		"",
		"### Overview",
		"This is a writing task; the answer should be clear and readable.",
		"",
		"### Key points",
		bullets([]string{
			"State the goal in 1-2 sentences.",
			"Give a short explanation with a few concrete details.",
			"Close with a brief conclusion or next step.",
		}),
	}, "\n")
	return core.Result{Worker: w.Name(), Output: out, Meta: map[string]string{"mode": "content"}}, nil
}
