package core

// TaskType is the closed classification label driving routing and team
// composition. It is produced once per run and never mutated afterwards.
type TaskType string

const (
	TaskDocs       TaskType = "docs"
	TaskExplain    TaskType = "explain"
	TaskCode       TaskType = "code"
	TaskDBAnalysis TaskType = "db_analysis"
	TaskPlan       TaskType = "plan"
	TaskMeta       TaskType = "meta"
	TaskOther      TaskType = "other"
)

// TaskTypes lists every valid TaskType in classifier precedence order,
// with the fallback TaskOther last.
func TaskTypes() []TaskType {
	return []TaskType{
		TaskDocs,
		TaskExplain,
		TaskCode,
		TaskDBAnalysis,
		TaskPlan,
		TaskMeta,
		TaskOther,
	}
}

// ParseTaskType maps a string to a TaskType, falling back to TaskOther for
// unknown labels so persisted history rows never produce invalid types.
func ParseTaskType(s string) TaskType {
	for _, tt := range TaskTypes() {
		if string(tt) == s {
			return tt
		}
	}
	return TaskOther
}
