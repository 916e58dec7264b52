package supervise

import (
	"log/slog"

	"github.com/troupelabs/troupe/pkg/core"
	"github.com/troupelabs/troupe/pkg/telemetry"
)

// Option configures a Supervisor instance.
type Option func(*Supervisor)

// WithPlanner sets the planner worker name (default "planner").
func WithPlanner(name string) Option {
	return func(s *Supervisor) { s.plannerName = name }
}

// WithCritic sets the critic worker name (default "critic").
func WithCritic(name string) Option {
	return func(s *Supervisor) { s.criticName = name }
}

// WithSolver sets the default solver name (default "analyst"). It is the
// fixed solver when auto-selection is off and the fallback when routing finds
// no positive-scoring candidate.
func WithSolver(name string) Option {
	return func(s *Supervisor) { s.solverName = name }
}

// WithSynthesizer sets the synthesizer worker name (default "synthesizer").
func WithSynthesizer(name string) Option {
	return func(s *Supervisor) { s.synthName = name }
}

// WithAutoSolver toggles router-based solver selection in single mode
// (default on). When off, the configured solver is used directly.
func WithAutoSolver(on bool) Option {
	return func(s *Supervisor) { s.autoSolver = on }
}

// WithAutoTeam toggles team mode (default off). The mode is fixed for the
// whole run at construction time.
func WithAutoTeam(on bool) Option {
	return func(s *Supervisor) { s.autoTeam = on }
}

// WithTeamSize sets the maximum team size (default 2). Values below 1 are
// raised to 1.
func WithTeamSize(n int) Option {
	return func(s *Supervisor) {
		if n < 1 {
			n = 1
		}
		s.teamSize = n
	}
}

// WithTeamProfiles toggles profile-table team seeding (default on). When off,
// teams come from the router ranking alone.
func WithTeamProfiles(on bool) Option {
	return func(s *Supervisor) { s.useTeamProfiles = on }
}

// WithProfiles replaces the task-type team profile table.
func WithProfiles(profiles map[core.TaskType][]string) Option {
	return func(s *Supervisor) { s.profiles = profiles }
}

// WithExclusions replaces the solver exclusion set.
func WithExclusions(names ...string) Option {
	return func(s *Supervisor) {
		s.exclude = make(map[string]struct{}, len(names))
		for _, n := range names {
			s.exclude[n] = struct{}{}
		}
	}
}

// WithTeamConcurrency bounds concurrent team-member execution (default 4).
// Values below 1 are raised to 1, which makes team execution sequential.
func WithTeamConcurrency(n int) Option {
	return func(s *Supervisor) {
		if n < 1 {
			n = 1
		}
		s.teamConcurrency = n
	}
}

// WithLogger sets the supervisor logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Supervisor) { s.logger = logger }
}

// WithMetrics attaches run metrics.
func WithMetrics(m *telemetry.RunMetrics) Option {
	return func(s *Supervisor) { s.metrics = m }
}
