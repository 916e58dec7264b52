package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestInitNoneExporter(t *testing.T) {
	shutdown, err := InitWithConfig("troupe-test", "v0.0.1", Config{Exporter: "none"})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestInitUnknownExporter(t *testing.T) {
	if _, err := InitWithConfig("troupe-test", "v0.0.1", Config{Exporter: "bogus"}); err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}

func TestInitOTLPRequiresEndpoint(t *testing.T) {
	if _, err := InitWithConfig("troupe-test", "v0.0.1", Config{Exporter: "otlp"}); err == nil {
		t.Fatal("expected error for missing otlp endpoint")
	}
}

func TestConfigureSlogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := ConfigureSlog(&buf, "warn", "text")

	logger.Info("should be filtered")
	logger.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should be filtered") {
		t.Fatalf("info not filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Fatalf("warn record missing: %s", out)
	}
}

func TestConfigureSlogJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := ConfigureSlog(&buf, "info", "json")
	logger.Info("hello", "key", "value")
	if !strings.Contains(buf.String(), `"key":"value"`) {
		t.Fatalf("expected json output, got: %s", buf.String())
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNilRunMetricsIsNoop(t *testing.T) {
	var m *RunMetrics
	ctx := context.Background()

	// Must not panic.
	m.RecordRun(ctx, "single", "docs", 0.01)
	m.RecordScoringFailure(ctx, "docs")
	m.RecordFallback(ctx, "other")
}

func TestRunAttrs(t *testing.T) {
	attrs := RunAttrs("run-1", "team", "docs")
	if len(attrs) != 3 {
		t.Fatalf("expected 3 attrs, got %d", len(attrs))
	}
	if string(attrs[0].Key) != AttrRunID || attrs[0].Value.AsString() != "run-1" {
		t.Fatalf("unexpected run id attr: %v", attrs[0])
	}
}
