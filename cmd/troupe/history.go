package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/troupelabs/troupe/pkg/core"
	"github.com/troupelabs/troupe/pkg/history"
)

func runHistory(ctx context.Context, global globalFlags, env *appEnv, args []string) {
	if env.hist == nil {
		fatal(fmt.Errorf("history: no database configured (set --db or history.path)"))
	}
	if len(args) == 0 {
		fatal(fmt.Errorf("history: subcommand required (runs, stats, label, examples)"))
	}

	switch args[0] {
	case "runs":
		historyRuns(ctx, global, env, args[1:])
	case "stats":
		historyStats(ctx, global, env, args[1:])
	case "label":
		historyLabel(ctx, env, args[1:])
	case "examples":
		historyExamples(ctx, global, env, args[1:])
	default:
		fatal(fmt.Errorf("unknown history subcommand %q", args[0]))
	}
}

func historyRuns(ctx context.Context, global globalFlags, env *appEnv, args []string) {
	fs := flag.NewFlagSet("history runs", flag.ExitOnError)
	limit := fs.Int("limit", 20, "number of runs to show")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}

	runs, err := env.hist.RecentRuns(ctx, *limit)
	if err != nil {
		fatal(err)
	}

	if global.JSON {
		printJSON(runs)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tMODE\tSOLVER/TEAM\tTAGS\tTASK")
	for _, r := range runs {
		who := r.SolverAgent
		mode := "single"
		if len(r.TeamAgents) > 0 {
			who = strings.Join(r.TeamAgents, ",")
			mode = "team"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(r.ID), r.TaskType, mode, who,
			strings.Join(r.CritiqueTags, ","), truncate(r.Task, 48))
	}
	w.Flush()
}

func historyStats(ctx context.Context, global globalFlags, env *appEnv, args []string) {
	if len(args) != 1 {
		fatal(fmt.Errorf("history stats: exactly one task type required"))
	}
	taskType := core.ParseTaskType(args[0])
	if string(taskType) != strings.ToLower(args[0]) {
		fatal(fmt.Errorf("unknown task type %q", args[0]))
	}

	stats, err := env.hist.SolverStats(ctx, taskType)
	if err != nil {
		fatal(err)
	}

	if global.JSON {
		printJSON(map[string]any{"task_type": taskType, "stats": stats})
		return
	}

	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if stats[names[i]] != stats[names[j]] {
			return stats[names[i]] > stats[names[j]]
		}
		return names[i] < names[j]
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WORKER\tRUNS")
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%d\n", name, stats[name])
	}
	w.Flush()
}

// historyLabel stores a run's final output as a labeled dataset example.
func historyLabel(ctx context.Context, env *appEnv, args []string) {
	fs := flag.NewFlagSet("history label", flag.ExitOnError)
	note := fs.String("note", "", "optional note for the example")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	rest := fs.Args()
	if len(rest) != 2 {
		fatal(fmt.Errorf("history label: <run_id> <good|bad|edge> required"))
	}
	runID, label := rest[0], strings.ToLower(rest[1])
	switch label {
	case "good", "bad", "edge":
	default:
		fatal(fmt.Errorf("unknown label %q (want good, bad or edge)", label))
	}

	run, err := findRun(ctx, env.hist, runID)
	if err != nil {
		fatal(err)
	}

	err = env.hist.AddExample(ctx, history.Example{
		RunID:  run.ID,
		Task:   run.Task,
		Output: run.Final,
		Label:  label,
		Note:   *note,
	})
	if err != nil {
		fatal(err)
	}
	fmt.Printf("labeled run %s as %s\n", shortID(run.ID), label)
}

func historyExamples(ctx context.Context, global globalFlags, env *appEnv, args []string) {
	fs := flag.NewFlagSet("history examples", flag.ExitOnError)
	limit := fs.Int("limit", 50, "number of examples to show")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}

	examples, err := env.hist.Examples(ctx, *limit)
	if err != nil {
		fatal(err)
	}
	counts, err := env.hist.LabelCounts(ctx)
	if err != nil {
		fatal(err)
	}

	if global.JSON {
		printJSON(map[string]any{"examples": examples, "label_counts": counts})
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tRUN\tTASK\tNOTE")
	for _, ex := range examples {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			ex.ID, ex.Label, shortID(ex.RunID), truncate(ex.Task, 48), ex.Note)
	}
	w.Flush()

	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		fmt.Printf("%s: %d\n", label, counts[label])
	}
}

// findRun resolves a possibly-shortened run id against recent history.
func findRun(ctx context.Context, hist *history.Store, id string) (*history.Run, error) {
	runs, err := hist.RecentRuns(ctx, 200)
	if err != nil {
		return nil, err
	}
	for i := range runs {
		if runs[i].ID == id || strings.HasPrefix(runs[i].ID, id) {
			return &runs[i], nil
		}
	}
	return nil, fmt.Errorf("run %q not found in recent history", id)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
