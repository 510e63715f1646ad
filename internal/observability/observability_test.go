package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel"
)

func restoreDefaultLogger(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestInstrumentFormats(t *testing.T) {
	tests := []struct {
		format string
		check  func(t *testing.T, line string)
	}{
		{
			format: "text",
			check: func(t *testing.T, line string) {
				if !strings.Contains(line, "msg=hello") || !strings.Contains(line, "user=alice") {
					t.Errorf("unexpected text output: %q", line)
				}
			},
		},
		{
			format: "json",
			check: func(t *testing.T, line string) {
				var rec map[string]any
				if err := json.Unmarshal([]byte(line), &rec); err != nil {
					t.Fatalf("output is not JSON: %v (%q)", err, line)
				}
				if rec["msg"] != "hello" || rec["user"] != "alice" {
					t.Errorf("unexpected JSON record: %v", rec)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			restoreDefaultLogger(t)
			var buf bytes.Buffer

			shutdown, err := Instrument(t.Context(), Options{Level: slog.LevelInfo, Format: tt.format, Output: &buf})
			if err != nil {
				t.Fatalf("Instrument() error = %v", err)
			}
			defer func() { _ = shutdown(context.Background()) }()

			slog.Info("hello", "user", "alice")
			tt.check(t, strings.TrimSpace(buf.String()))
		})
	}
}

func TestInstrumentRespectsLevel(t *testing.T) {
	restoreDefaultLogger(t)
	var buf bytes.Buffer

	shutdown, err := Instrument(t.Context(), Options{Level: slog.LevelWarn, Output: &buf})
	if err != nil {
		t.Fatalf("Instrument() error = %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	slog.Info("dropped")
	slog.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") || !strings.Contains(out, "kept") {
		t.Errorf("level filter not applied: %q", out)
	}
}

func TestInstrumentSetsPropagator(t *testing.T) {
	restoreDefaultLogger(t)

	shutdown, err := Instrument(t.Context(), Options{Output: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("Instrument() error = %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	fields := otel.GetTextMapPropagator().Fields()
	if !slices.Contains(fields, "traceparent") {
		t.Errorf("propagator fields = %v, want traceparent", fields)
	}
}

func TestInstrumentWithStdoutExporter(t *testing.T) {
	restoreDefaultLogger(t)
	var buf bytes.Buffer

	shutdown, err := Instrument(t.Context(), Options{Exporter: ExporterStdout, Output: &buf})
	if err != nil {
		t.Fatalf("Instrument() error = %v", err)
	}

	slog.Info("bridged")
	if !strings.Contains(buf.String(), "bridged") {
		t.Errorf("local handler missed record: %q", buf.String())
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown error = %v", err)
	}
}

func TestInstrumentRejectsUnknownSettings(t *testing.T) {
	restoreDefaultLogger(t)

	if _, err := Instrument(t.Context(), Options{Format: "xml"}); err == nil {
		t.Error("unknown format should fail")
	}
	if _, err := Instrument(t.Context(), Options{Exporter: "zipkin"}); err == nil {
		t.Error("unknown exporter should fail")
	}
}

func TestSeverityOf(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  minsev.Severity
	}{
		{slog.LevelDebug, minsev.SeverityDebug},
		{slog.LevelInfo, minsev.SeverityInfo},
		{slog.LevelWarn, minsev.SeverityWarn},
		{slog.LevelError, minsev.SeverityError},
		{slog.LevelError + 4, minsev.SeverityError},
	}

	for _, tt := range tests {
		if got := severityOf(tt.level); got != tt.want {
			t.Errorf("severityOf(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestFanoutFiltersPerHandler(t *testing.T) {
	var debugBuf, errorBuf bytes.Buffer
	logger := slog.New(fanout{
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&errorBuf, &slog.HandlerOptions{Level: slog.LevelError}),
	}).With("component", "test")

	logger.Debug("detail")
	logger.Error("failure")

	if !strings.Contains(debugBuf.String(), "detail") || !strings.Contains(debugBuf.String(), "failure") {
		t.Errorf("debug handler output = %q", debugBuf.String())
	}
	if strings.Contains(errorBuf.String(), "detail") || !strings.Contains(errorBuf.String(), "component=test") {
		t.Errorf("error handler output = %q", errorBuf.String())
	}
}
