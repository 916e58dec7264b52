package core

import "time"

// RunResult is the terminal, immutable output of one Supervisor run. It is
// produced exactly once per run and handed to callers and persistence; the
// orchestration core itself never stores it.
type RunResult struct {
	ID       string
	Task     string
	TaskType TaskType

	Plan []string

	// SolverAgent is the chosen solver in single mode, empty in team mode.
	SolverAgent string

	// TeamAgents lists the team members that ran, empty in single mode.
	TeamAgents []string

	// TeamProfile names the profile that seeded the team ("docs", "explain",
	// ...), or "ranked" when the team came from the router alone.
	TeamProfile string

	Draft       string
	TeamOutputs map[string]string

	Critique     string
	CritiqueTags []string

	Final string

	StartedAt  time.Time
	FinishedAt time.Time
}

// Mode reports whether the run used a single solver or a team.
func (r *RunResult) Mode() string {
	if len(r.TeamAgents) > 0 {
		return "team"
	}
	return "single"
}
