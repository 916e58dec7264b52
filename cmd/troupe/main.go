package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/troupelabs/troupe/pkg/config"
	"github.com/troupelabs/troupe/pkg/history"
	"github.com/troupelabs/troupe/pkg/registry"
	"github.com/troupelabs/troupe/pkg/route"
	"github.com/troupelabs/troupe/pkg/supervise"
	"github.com/troupelabs/troupe/pkg/telemetry"
	"github.com/troupelabs/troupe/pkg/workers"
)

const version = "0.1.0"

type globalFlags struct {
	ConfigPath string
	DBPath     string
	JSON       bool
	Help       bool
}

// appEnv is the wired-up environment every subcommand runs against.
type appEnv struct {
	cfg     *config.Config
	reg     *registry.Registry
	router  *route.Router
	hist    *history.Store
	metrics *telemetry.RunMetrics
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	global, args, err := parseGlobalFlags(os.Args[1:])
	if err != nil {
		fatal(err)
	}
	if global.Help || len(args) == 0 {
		printUsage()
		return
	}

	switch args[0] {
	case "help":
		printUsage()
		return
	case "version":
		fmt.Println("troupe " + version)
		return
	}

	cfg, err := config.Load(global.ConfigPath)
	if err != nil {
		fatal(err)
	}
	if global.DBPath != "" {
		cfg.History.Path = global.DBPath
	}

	telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	shutdown, err := telemetry.InitWithConfig("troupe", version, telemetry.Config{
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		fatal(err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			fmt.Fprintln(os.Stderr, "telemetry shutdown:", err)
		}
	}()

	env, err := buildEnv(cfg)
	if err != nil {
		fatal(err)
	}
	if env.hist != nil {
		defer env.hist.Close()
	}

	switch args[0] {
	case "run":
		runRun(ctx, global, env, args[1:])
	case "rank":
		runRank(ctx, global, env, args[1:])
	case "history":
		runHistory(ctx, global, env, args[1:])
	case "eval":
		runEval(ctx, global, env, args[1:])
	default:
		fatal(fmt.Errorf("unknown command %q", args[0]))
	}
}

// buildEnv wires registry, router, metrics and the optional history store
// from the loaded configuration.
func buildEnv(cfg *config.Config) (*appEnv, error) {
	var hist *history.Store
	if cfg.History.Path != "" {
		h, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		hist = h
	}

	reg := registry.New()
	if err := workers.RegisterDefaults(reg, hist); err != nil {
		return nil, err
	}

	metrics, err := telemetry.NewRunMetrics()
	if err != nil {
		return nil, err
	}

	opts := []route.Option{
		route.WithPreferences(cfg),
		route.WithMetrics(metrics),
	}
	if hist != nil {
		opts = append(opts, route.WithStats(hist))
	}

	return &appEnv{
		cfg:     cfg,
		reg:     reg,
		router:  route.New(reg, opts...),
		hist:    hist,
		metrics: metrics,
	}, nil
}

// buildSupervisor creates a supervisor from config; teamOverride forces team
// mode on regardless of configuration when non-nil.
func (env *appEnv) buildSupervisor(teamOverride *bool) (*supervise.Supervisor, error) {
	sc := env.cfg.Supervisor
	autoTeam := sc.AutoTeam
	if teamOverride != nil {
		autoTeam = *teamOverride
	}
	return supervise.New(env.reg, env.router,
		supervise.WithPlanner(sc.Planner),
		supervise.WithCritic(sc.Critic),
		supervise.WithSolver(sc.Solver),
		supervise.WithSynthesizer(sc.Synthesizer),
		supervise.WithAutoSolver(sc.AutoSolver),
		supervise.WithAutoTeam(autoTeam),
		supervise.WithTeamSize(sc.TeamSize),
		supervise.WithTeamProfiles(sc.UseTeamProfiles),
		supervise.WithTeamConcurrency(sc.TeamConcurrency),
		supervise.WithMetrics(env.metrics),
	)
}

func parseGlobalFlags(args []string) (globalFlags, []string, error) {
	var flags globalFlags
	flags.ConfigPath = os.Getenv("TROUPE_CONFIG")

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return flags, args[i+1:], nil
		}
		if !strings.HasPrefix(arg, "-") {
			return flags, args[i:], nil
		}
		switch {
		case arg == "-h" || arg == "--help":
			flags.Help = true
			return flags, nil, nil
		case arg == "--json":
			flags.JSON = true
		case arg == "--config":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --config")
			}
			flags.ConfigPath = args[i+1]
			i++
		case strings.HasPrefix(arg, "--config="):
			flags.ConfigPath = strings.TrimPrefix(arg, "--config=")
		case arg == "--db":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --db")
			}
			flags.DBPath = args[i+1]
			i++
		case strings.HasPrefix(arg, "--db="):
			flags.DBPath = strings.TrimPrefix(arg, "--db=")
		default:
			return flags, nil, fmt.Errorf("unknown global flag %q", arg)
		}
	}
	return flags, nil, nil
}

func printUsage() {
	fmt.Println(`Troupe CLI

Usage:
  troupe [global flags] <command> [args]

Global flags:
  --config <path>      Path to troupe.yaml
  --db <path>          History database (overrides config)
  --json               JSON output

Commands:
  run [--team] [--memory <path>] [--flag name]... <task>
  rank [-k N] <task>
  history runs [--limit N]
  history stats <task_type>
  history label <run_id> <good|bad|edge> [--note <text>]
  history examples [--limit N]
  eval [--mode auto|team|both] [--tasks-file <path>]
  version
  help`)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
