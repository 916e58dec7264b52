// Package classify maps raw task text to a TaskType through ordered keyword
// rules. Classification is pure and total: it never fails and falls back to
// TaskOther when nothing matches.
package classify

import (
	"strings"
	"unicode"

	"github.com/troupelabs/troupe/pkg/core"
)

type rule struct {
	taskType core.TaskType
	markers  []string
}

// rules are evaluated top to bottom; the first rule with a marker present in
// the lower-cased task text wins. The precedence docs > explain > code >
// db_analysis > plan > meta is fixed: a task mentioning both "plan" and
// "explain" must resolve to explain, and team profiles key off this output.
var rules = []rule{
	{core.TaskDocs, []string{
		"readme", "installation", "install", "setup",
		"documentation", "docs", "guide", "getting started", "usage",
	}},
	{core.TaskExplain, []string{
		"explain", "difference", "compare", "why", "how",
		"what is", "roles of", "versus", "vs",
	}},
	{core.TaskCode, []string{
		"code", "python", "script", "function", "class",
		"traceback", "error", "exception", "bug", "refactor",
	}},
	{core.TaskDBAnalysis, []string{
		"database", "dataset", "sql", "runs", "run history",
	}},
	{core.TaskPlan, []string{
		"plan", "roadmap", "next steps", "milestones", "steps",
	}},
	{core.TaskMeta, []string{
		"meta", "agent stats", "agent analysis", "optimize agents", "agents", "agent",
	}},
}

// Classify returns the TaskType for the given task text. Single-word markers
// match whole words only ("how" must not fire inside "show"); multi-word
// markers match as phrases.
func Classify(task string) core.TaskType {
	t := strings.ToLower(task)
	words := wordSet(t)
	for _, r := range rules {
		for _, marker := range r.markers {
			if matches(t, words, marker) {
				return r.taskType
			}
		}
	}
	return core.TaskOther
}

func matches(text string, words map[string]bool, marker string) bool {
	if strings.ContainsRune(marker, ' ') {
		return strings.Contains(text, marker)
	}
	return words[marker]
}

func wordSet(text string) map[string]bool {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}
