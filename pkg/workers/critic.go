package workers

import (
	"context"
	"strings"

	"github.com/troupelabs/troupe/pkg/core"
)

// Critique tags emitted by the default critic.
const (
	TagMissingInput     = "missing_input"
	TagMissingStructure = "missing_structure"
	TagTooShort         = "too_short"
)

// CriticWorker reviews a draft against the task. Review is side-effect free
// and never fails; an empty draft yields an explicit missing-input tag.
type CriticWorker struct{}

var (
	_ core.Worker = (*CriticWorker)(nil)
	_ core.Critic = (*CriticWorker)(nil)
)

// NewCritic creates the critic role worker.
func NewCritic() *CriticWorker { return &CriticWorker{} }

func (w *CriticWorker) Name() string { return "critic" }

// Score is always 0: the critic is not meant to be chosen by the router.
func (w *CriticWorker) Score(task string, rc *core.RoutingContext) float64 { return 0.0 }

// Review inspects the draft and returns ordered notes plus tags.
func (w *CriticWorker) Review(_ context.Context, task, draft string) (core.Critique, error) {
	if strings.TrimSpace(draft) == "" {
		return core.Critique{
			Notes: []string{"No draft text was provided for review."},
			Tags:  []string{TagMissingInput},
		}, nil
	}

	var crit core.Critique
	if !strings.Contains(draft, "#") && !strings.Contains(draft, "- ") {
		crit.Notes = append(crit.Notes, "Add clearer structure (headings/bullets).")
		crit.Tags = append(crit.Tags, TagMissingStructure)
	}
	if len(draft) < 200 {
		crit.Notes = append(crit.Notes, "Too short; add a bit more concrete steps.")
		crit.Tags = append(crit.Tags, TagTooShort)
	}
	if len(crit.Notes) == 0 {
		crit.Notes = []string{"Looks ok. Minor polish only."}
	}
	return crit, nil
}

func (w *CriticWorker) Run(ctx context.Context, task string, mem core.Memory, rc *core.RoutingContext) (core.Result, error) {
	draft := ""
	if rc != nil {
		draft = rc.Draft
	}
	crit, err := w.Review(ctx, task, draft)
	if err != nil {
		return core.Result{}, err
	}
	return core.Result{
		Worker: w.Name(),
		Output: bullets(crit.Notes),
		Meta:   map[string]string{"mode": "review", "tags": strings.Join(crit.Tags, ",")},
	}, nil
}
