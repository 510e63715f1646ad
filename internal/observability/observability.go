// Package observability sets up process-wide logging and trace-context
// propagation, optionally bridging log records to OpenTelemetry.
package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const instrumentationName = "github.com/florianilch/fintrack"

// Exporter names accepted in Options.Exporter.
const (
	ExporterNone     = "none"
	ExporterStdout   = "stdout"
	ExporterOTLPHTTP = "otlp-http"
	ExporterOTLPGRPC = "otlp-grpc"
)

// Options controls Instrument.
type Options struct {
	Level  slog.Level
	Format string // text or json
	// Exporter selects an OpenTelemetry log exporter in addition to stderr.
	Exporter string
	// Endpoint overrides the OTLP endpoint URL; the exporter's environment
	// defaults apply when empty.
	Endpoint string
	// Output defaults to os.Stderr.
	Output io.Writer
}

// ShutdownFunc flushes and stops whatever Instrument started.
type ShutdownFunc func(context.Context) error

// Instrument installs the default slog logger and the W3C trace-context
// propagator. Call the returned function before the process exits.
func Instrument(ctx context.Context, opts Options) (ShutdownFunc, error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	local, err := newLocalHandler(out, opts.Format, opts.Level)
	if err != nil {
		return nil, err
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	exporter, err := newExporter(ctx, opts.Exporter, opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create log exporter: %w", err)
	}
	if exporter == nil {
		slog.SetDefault(slog.New(local))
		return func(context.Context) error { return nil }, nil
	}

	processor := minsev.NewLogProcessor(sdklog.NewBatchProcessor(exporter), severityOf(opts.Level))
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(processor))

	bridge := otelslog.NewHandler(instrumentationName, otelslog.WithLoggerProvider(provider))
	slog.SetDefault(slog.New(fanout{local, bridge}))

	return func(ctx context.Context) error {
		if err := provider.Shutdown(ctx); err != nil {
			return fmt.Errorf("log provider shutdown: %w", err)
		}
		return nil
	}, nil
}

func newLocalHandler(out io.Writer, format string, level slog.Level) (slog.Handler, error) {
	handlerOpts := &slog.HandlerOptions{Level: level}
	switch format {
	case "", "text":
		return slog.NewTextHandler(out, handlerOpts), nil
	case "json":
		return slog.NewJSONHandler(out, handlerOpts), nil
	default:
		return nil, fmt.Errorf("unsupported log format: %s", format)
	}
}

func newExporter(ctx context.Context, name, endpoint string) (sdklog.Exporter, error) {
	switch name {
	case "", ExporterNone:
		return nil, nil
	case ExporterStdout:
		return stdoutlog.New()
	case ExporterOTLPHTTP:
		var opts []otlploghttp.Option
		if endpoint != "" {
			opts = append(opts, otlploghttp.WithEndpointURL(endpoint))
		}
		return otlploghttp.New(ctx, opts...)
	case ExporterOTLPGRPC:
		var opts []otlploggrpc.Option
		if endpoint != "" {
			opts = append(opts, otlploggrpc.WithEndpointURL(endpoint))
		}
		return otlploggrpc.New(ctx, opts...)
	default:
		return nil, errors.New("unsupported exporter: " + name)
	}
}

// severityOf maps slog levels onto the OpenTelemetry severity scale.
func severityOf(level slog.Level) minsev.Severity {
	switch {
	case level < slog.LevelInfo:
		return minsev.SeverityDebug
	case level < slog.LevelWarn:
		return minsev.SeverityInfo
	case level < slog.LevelError:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}
