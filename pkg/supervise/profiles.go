package supervise

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/troupelabs/troupe/pkg/core"
)

// DefaultTeamProfiles returns the static task-type to preferred-team table
// used to seed team mode. Order matters: earlier names are seeded first.
func DefaultTeamProfiles() map[core.TaskType][]string {
	return map[core.TaskType][]string{
		core.TaskDocs:       {"docs", "writer"},
		core.TaskExplain:    {"explainer", "writer"},
		core.TaskCode:       {"coder", "analyst"},
		core.TaskDBAnalysis: {"analyst", "meta"},
		core.TaskPlan:       {"analyst", "writer"},
		core.TaskMeta:       {"meta", "analyst"},
	}
}

// LoadTeamProfiles reads a task-type to team table from a YAML file, for
// example:
//
//	docs: [docs, writer]
//	code: [coder, analyst]
//
// Task types not present in the file keep their default profile; unknown
// task-type keys are rejected.
func LoadTeamProfiles(path string) (map[core.TaskType][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("supervise: parse team profiles: %w", err)
	}

	profiles := DefaultTeamProfiles()
	for key, team := range raw {
		tt := core.ParseTaskType(key)
		if string(tt) != key {
			return nil, fmt.Errorf("supervise: unknown task type %q in team profiles", key)
		}
		profiles[tt] = team
	}
	return profiles, nil
}
