// Package config loads troupe configuration from defaults, an optional YAML
// file, and TROUPE_-prefixed environment variables. It also serves as the
// preference configuration collaborator for the router: per-worker preferred
// task types live here, editable independently of code.
package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/troupelabs/troupe/pkg/core"
)

type Config struct {
	Log        LogConfig               `koanf:"log"`
	Telemetry  TelemetryConfig         `koanf:"telemetry"`
	Supervisor SupervisorConfig        `koanf:"supervisor"`
	History    HistoryConfig           `koanf:"history"`
	Workers    map[string]WorkerConfig `koanf:"workers"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type TelemetryConfig struct {
	Exporter     string `koanf:"exporter"` // none, stdout, otlp
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
}

type SupervisorConfig struct {
	Planner         string `koanf:"planner"`
	Critic          string `koanf:"critic"`
	Solver          string `koanf:"solver"`
	Synthesizer     string `koanf:"synthesizer"`
	AutoSolver      bool   `koanf:"auto_solver"`
	AutoTeam        bool   `koanf:"auto_team"`
	TeamSize        int    `koanf:"team_size"`
	UseTeamProfiles bool   `koanf:"use_team_profiles"`
	TeamConcurrency int    `koanf:"team_concurrency"`
}

type HistoryConfig struct {
	// Path is the SQLite database file; empty disables run persistence.
	Path string `koanf:"path"`
}

type WorkerConfig struct {
	PreferredTaskTypes []string `koanf:"preferred_task_types"`
}

// Load reads configuration from defaults, then the optional file at path,
// then the environment (TROUPE_LOG_LEVEL -> log.level).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Defaults
	k.Set("log.level", "info")
	k.Set("log.format", "text")

	k.Set("telemetry.exporter", "none")

	k.Set("supervisor.planner", "planner")
	k.Set("supervisor.critic", "critic")
	k.Set("supervisor.solver", "analyst")
	k.Set("supervisor.synthesizer", "synthesizer")
	k.Set("supervisor.auto_solver", true)
	k.Set("supervisor.auto_team", false)
	k.Set("supervisor.team_size", 2)
	k.Set("supervisor.use_team_profiles", true)
	k.Set("supervisor.team_concurrency", 4)

	k.Set("history.path", "")

	// 1. Load from file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// 2. Load from ENV (TROUPE_LOG_LEVEL -> log.level)
	if err := k.Load(env.Provider("TROUPE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "TROUPE_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// PreferredTaskTypes returns the configured preferred task types of a worker.
// Unknown labels are dropped rather than mapped to "other", so a typo in the
// config never hands out preference bonuses by accident. Implements the
// router's PreferenceProvider contract.
func (c *Config) PreferredTaskTypes(worker string) []core.TaskType {
	wc, ok := c.Workers[strings.ToLower(worker)]
	if !ok {
		return nil
	}
	var types []core.TaskType
	for _, s := range wc.PreferredTaskTypes {
		label := strings.ToLower(strings.TrimSpace(s))
		tt := core.ParseTaskType(label)
		if string(tt) != label {
			continue
		}
		types = append(types, tt)
	}
	return types
}
