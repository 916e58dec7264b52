package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/troupelabs/troupe/pkg/classify"
	"github.com/troupelabs/troupe/pkg/core"
	"github.com/troupelabs/troupe/pkg/memory"
)

type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(value string) error {
	*m = append(*m, value)
	return nil
}

// runRun executes one task through a configured supervisor and prints the
// final answer. The run is persisted when a history database is configured.
func runRun(ctx context.Context, global globalFlags, env *appEnv, args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	team := fs.Bool("team", false, "force team mode")
	memPath := fs.String("memory", "", "JSON-lines memory file (default: in-memory)")
	var flagNames multiFlag
	fs.Var(&flagNames, "flag", "enable a memory flag (repeatable)")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}

	task := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if task == "" {
		fatal(fmt.Errorf("run: task text is required"))
	}

	mem, err := openMemory(*memPath)
	if err != nil {
		fatal(err)
	}
	if len(flagNames) > 0 {
		flags := memory.Flags{}
		for _, name := range flagNames {
			flags[name] = true
		}
		if err := memory.SetFlags(ctx, mem, flags); err != nil {
			fatal(err)
		}
	}

	var teamOverride *bool
	if *team {
		teamOverride = team
	}
	sup, err := env.buildSupervisor(teamOverride)
	if err != nil {
		fatal(err)
	}

	res, err := sup.Run(ctx, task, mem)
	if err != nil {
		fatal(err)
	}

	if env.hist != nil {
		if err := env.hist.SaveRun(ctx, res); err != nil {
			fmt.Fprintln(os.Stderr, "save run:", err)
		}
	}

	if global.JSON {
		printJSON(res)
		return
	}
	printRunResult(res)
}

// runRank prints the candidate ranking for a task without executing anything.
func runRank(ctx context.Context, global globalFlags, env *appEnv, args []string) {
	fs := flag.NewFlagSet("rank", flag.ExitOnError)
	k := fs.Int("k", 0, "print only the top k candidates")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}

	task := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if task == "" {
		fatal(fmt.Errorf("rank: task text is required"))
	}

	rc := core.NewRoutingContext(task)
	rc.TaskType = classify.Classify(task)
	candidates := env.router.Rank(ctx, task, rc, nil)
	if *k > 0 && *k < len(candidates) {
		candidates = candidates[:*k]
	}

	if global.JSON {
		printJSON(map[string]any{
			"task":       task,
			"task_type":  rc.TaskType,
			"candidates": candidates,
		})
		return
	}

	fmt.Printf("task type: %s\n", rc.TaskType)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WORKER\tSCORE")
	for _, c := range candidates {
		fmt.Fprintf(w, "%s\t%.3f\n", c.Name, c.Score)
	}
	w.Flush()
}

func openMemory(path string) (core.Memory, error) {
	if path == "" {
		return memory.NewInMemory(), nil
	}
	return memory.NewFileStore(path), nil
}

func printRunResult(res *core.RunResult) {
	fmt.Printf("run %s  [%s, %s mode]\n", res.ID, res.TaskType, res.Mode())
	if res.Mode() == "team" {
		fmt.Printf("team: %s (profile %s)\n", strings.Join(res.TeamAgents, ", "), res.TeamProfile)
	} else {
		fmt.Printf("solver: %s\n", res.SolverAgent)
	}
	if len(res.CritiqueTags) > 0 {
		fmt.Printf("critique tags: %s\n", strings.Join(res.CritiqueTags, ", "))
	}
	fmt.Println()
	fmt.Println(res.Final)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fatal(err)
	}
}
