// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RunMetrics tracks orchestration outcomes for production monitoring.
// A nil *RunMetrics is valid; every recording method is a no-op on it.
type RunMetrics struct {
	// runCounter tracks completed runs by mode and task type.
	runCounter metric.Int64Counter

	// runDuration tracks end-to-end run duration in seconds.
	runDuration metric.Float64Histogram

	// scoringFailures tracks Score calls recovered as 0.0 (fail-open).
	scoringFailures metric.Int64Counter

	// routingFallbacks tracks runs where no positive-scoring candidate was
	// found and the configured default solver was used.
	routingFallbacks metric.Int64Counter
}

// NewRunMetrics creates an orchestration metrics tracker with OTEL meters.
func NewRunMetrics() (*RunMetrics, error) {
	meter := otel.Meter("troupe/orchestration")

	runCounter, err := meter.Int64Counter(
		"troupe.runs.total",
		metric.WithDescription("Completed supervisor runs by mode and task type"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram(
		"troupe.runs.duration_seconds",
		metric.WithDescription("End-to-end supervisor run duration"),
	)
	if err != nil {
		return nil, err
	}

	scoringFailures, err := meter.Int64Counter(
		"troupe.routing.scoring_failures",
		metric.WithDescription("Worker Score calls recovered as 0.0"),
	)
	if err != nil {
		return nil, err
	}

	routingFallbacks, err := meter.Int64Counter(
		"troupe.routing.fallbacks",
		metric.WithDescription("Runs that fell back to the default solver"),
	)
	if err != nil {
		return nil, err
	}

	return &RunMetrics{
		runCounter:       runCounter,
		runDuration:      runDuration,
		scoringFailures:  scoringFailures,
		routingFallbacks: routingFallbacks,
	}, nil
}

// RecordRun records one completed supervisor run.
func (m *RunMetrics) RecordRun(ctx context.Context, mode, taskType string, seconds float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrRunMode, mode),
		attribute.String(AttrTaskType, taskType),
	)
	m.runCounter.Add(ctx, 1, attrs)
	m.runDuration.Record(ctx, seconds, attrs)
}

// RecordScoringFailure records a Score call that was recovered as 0.0.
func (m *RunMetrics) RecordScoringFailure(ctx context.Context, worker string) {
	if m == nil {
		return
	}
	m.scoringFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrWorkerName, worker),
	))
}

// RecordFallback records a routing decision that used the default solver.
func (m *RunMetrics) RecordFallback(ctx context.Context, taskType string) {
	if m == nil {
		return
	}
	m.routingFallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrTaskType, taskType),
	))
}
