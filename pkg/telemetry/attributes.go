// Copyright 2026 © The Troupe Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import "go.opentelemetry.io/otel/attribute"

// Semantic conventions for troupe orchestration telemetry.
const (
	AttrRunID    = "troupe.run.id"
	AttrRunMode  = "troupe.run.mode" // "single" or "team"
	AttrTaskType = "troupe.task.type"

	AttrWorkerName  = "troupe.worker.name"
	AttrWorkerScore = "troupe.worker.score"

	AttrSupervisorState = "troupe.supervisor.state"
	AttrTeamSize        = "troupe.team.size"
	AttrTeamProfile     = "troupe.team.profile"
)

// RunAttrs returns the standard attribute set for one run.
func RunAttrs(runID, mode, taskType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrRunID, runID),
		attribute.String(AttrRunMode, mode),
		attribute.String(AttrTaskType, taskType),
	}
}

// WorkerAttrs returns the standard attribute set for one worker invocation.
func WorkerAttrs(name string, score float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrWorkerName, name),
		attribute.Float64(AttrWorkerScore, score),
	}
}
