package workers

import (
	"context"
	"strings"

	"github.com/troupelabs/troupe/pkg/core"
)

// DocsWorker specializes in README sections, installation instructions and
// short usage guides.
type DocsWorker struct{}

var _ core.Worker = (*DocsWorker)(nil)

// NewDocs creates the documentation specialist.
func NewDocs() *DocsWorker { return &DocsWorker{} }

func (w *DocsWorker) Name() string { return "docs" }

var docsMarkers = []string{
	"readme", "installation", "install", "setup",
	"docs", "documentation", "doc", "guide",
	"getting started", "usage",
}

func isDocsTask(t string) bool { return containsAny(t, docsMarkers) }

func isInstallSection(t string) bool { return strings.Contains(t, "installation") }

func isReadmeOutline(t string) bool {
	return strings.Contains(t, "readme") &&
		(strings.Contains(t, "outline") || strings.Contains(t, "minimal") || strings.Contains(t, "skeleton"))
}

// Score is high for documentation tasks and deliberately low otherwise so the
// docs worker does not capture unrelated work.
func (w *DocsWorker) Score(task string, rc *core.RoutingContext) float64 {
	t := strings.ToLower(task)
	if isDocsTask(t) {
		return 0.98
	}
	if containsAny(t, []string{"write a guide", "write instructions", "describe how to run"}) {
		return 0.9
	}
	return 0.2
}

func (w *DocsWorker) readmeOutline() string {
	return strings.Join([]string{
		"## Minimal README skeleton",
		"",
		bullets([]string{
			"Project name and a 1-2 sentence description.",
			"Installation section.",
			"Usage section.",
			"Configuration / environment variables (if any).",
			"Example commands.",
			"How to run the tests (if any).",
			"License and contacts / links.",
		}),
	}, "\n")
}

func (w *DocsWorker) installSection() string {
	return strings.Join([]string{
		"## Installation",
		"",
		"### Prerequisites",
		bullets([]string{
			"A recent toolchain for the project's language.",
			"git installed.",
		}),
		"",
		"### Steps",
		"1. Clone the repository:",
		"   ```bash",
		"   git clone <REPO_URL>",
		"   cd <PROJECT_DIR>",
		"   ```",
		"2. Install dependencies.",
		"3. Configure environment variables or a config file if needed.",
		"4. Verify the setup:",
		"   ```bash",
		"   <project-binary> --help",
		"   ```",
		"",
		"### Quick checklist",
		bullets([]string{
			"[ ] Clone the repository and enter the project directory.",
			"[ ] Install the dependencies.",
			"[ ] Run the help command and confirm there are no errors.",
		}),
	}, "\n")
}

func (w *DocsWorker) genericDocsHelp() string {
	return strings.Join([]string{
		"## Documentation / project text",
		"",
		"### What to do",
		bullets([]string{
			"State briefly what the project is and what it is for.",
			"Describe how to install and run it.",
			"Add 1-2 typical usage scenarios.",
			"Link additional resources or tests where useful.",
		}),
	}, "\n")
}

func (w *DocsWorker) Run(_ context.Context, task string, _ core.Memory, _ *core.RoutingContext) (core.Result, error) {
	t := strings.ToLower(task)

	var out string
	switch {
	case isReadmeOutline(t):
		out = w.readmeOutline()
	case isInstallSection(t):
		out = w.installSection()
	default:
		out = w.genericDocsHelp()
	}

	return core.Result{
		Worker: w.Name(),
		Output: out,
		Meta:   map[string]string{"mode": "docs"},
	}, nil
}
