package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/troupelabs/troupe/pkg/memory"
)

// defaultEvalTasks is the fixed smoke-test set covering every routed task
// type.
var defaultEvalTasks = []string{
	// docs
	"Write a short README section for installation",
	"Create a minimal project README outline",

	// explain
	"Explain planning vs critique",
	"Explain the roles of planner, analyst and critic",
	"Compare single-solver vs team-solver modes",

	// planning
	"Create a short plan to add a new agent safely",
	"Outline next steps to improve the routing quality",

	// general
	"Summarize the orchestration pipeline",
	"List key design principles for task routing",
}

type evalModeSummary struct {
	Mode        string           `json:"mode"`
	TagStats    map[string]int   `json:"tag_stats"`
	TaggedTasks []evalTaggedTask `json:"tagged_tasks"`
}

type evalTaggedTask struct {
	Task string   `json:"task"`
	Tags []string `json:"tags"`
}

// runEval batch-runs the task set in auto (single) and team modes and
// summarizes the critique tags, the quickest way to see where answers fall
// short of the critic's bar.
func runEval(ctx context.Context, global globalFlags, env *appEnv, args []string) {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	mode := fs.String("mode", "both", "auto, team or both")
	tasksFile := fs.String("tasks-file", "", "file with one task per line")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}

	tasks := defaultEvalTasks
	if *tasksFile != "" {
		loaded, err := loadTaskList(*tasksFile)
		if err != nil {
			fatal(err)
		}
		tasks = loaded
	}

	var modes []string
	switch *mode {
	case "auto", "team":
		modes = []string{*mode}
	case "both":
		modes = []string{"auto", "team"}
	default:
		fatal(fmt.Errorf("unknown eval mode %q", *mode))
	}

	var summaries []evalModeSummary
	for _, m := range modes {
		summary, err := env.evalMode(ctx, m, tasks)
		if err != nil {
			fatal(err)
		}
		summaries = append(summaries, summary)
	}

	if global.JSON {
		printJSON(map[string]any{"tasks_count": len(tasks), "modes": summaries})
		return
	}

	fmt.Printf("=== Evaluation (%d tasks) ===\n", len(tasks))
	for _, s := range summaries {
		fmt.Printf("\n--- Mode: %s ---\n", s.Mode)
		if len(s.TagStats) == 0 {
			fmt.Println("No critique tags found.")
			continue
		}
		tags := make([]string, 0, len(s.TagStats))
		for tag := range s.TagStats {
			tags = append(tags, tag)
		}
		sort.Slice(tags, func(i, j int) bool {
			if s.TagStats[tags[i]] != s.TagStats[tags[j]] {
				return s.TagStats[tags[i]] > s.TagStats[tags[j]]
			}
			return tags[i] < tags[j]
		})
		for _, tag := range tags {
			fmt.Printf("%s: %d\n", tag, s.TagStats[tag])
		}
		if len(s.TaggedTasks) > 0 {
			fmt.Println("\nTagged examples:")
			for _, tt := range s.TaggedTasks {
				fmt.Printf("- %s | tags: %s\n", tt.Task, strings.Join(tt.Tags, ","))
			}
		}
	}
}

func (env *appEnv) evalMode(ctx context.Context, mode string, tasks []string) (evalModeSummary, error) {
	team := mode == "team"
	sup, err := env.buildSupervisor(&team)
	if err != nil {
		return evalModeSummary{}, err
	}

	summary := evalModeSummary{Mode: mode, TagStats: map[string]int{}}
	for _, task := range tasks {
		res, err := sup.Run(ctx, task, memory.NewInMemory())
		if err != nil {
			return evalModeSummary{}, fmt.Errorf("eval %q: %w", task, err)
		}
		if env.hist != nil {
			if err := env.hist.SaveRun(ctx, res); err != nil {
				return evalModeSummary{}, err
			}
		}
		if len(res.CritiqueTags) > 0 {
			for _, tag := range res.CritiqueTags {
				summary.TagStats[tag]++
			}
			summary.TaggedTasks = append(summary.TaggedTasks, evalTaggedTask{Task: task, Tags: res.CritiqueTags})
		}
	}
	return summary, nil
}

func loadTaskList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tasks []string
	for _, line := range strings.Split(string(data), "\n") {
		if l := strings.TrimSpace(line); l != "" {
			tasks = append(tasks, l)
		}
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("no tasks in %s", path)
	}
	return tasks, nil
}
