// Package observability configures the process-wide logging pipeline.
//
// Logs are emitted through log/slog. The backing handler depends on the
// OTEL_LOGS_EXPORTER environment variable (per the OpenTelemetry SDK
// convention):
//
//   - "otlp": records are exported over OTLP, gRPC or HTTP depending on
//     OTEL_EXPORTER_OTLP_PROTOCOL, to OTEL_EXPORTER_OTLP_ENDPOINT
//   - "console": records are written to stdout in the OTLP record shape
//   - unset/anything else: plain slog text or JSON handler on stderr
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const loggerName = "github.com/beelinehq/beeline"

var (
	shutdownMu   sync.Mutex
	shutdownFunc func(context.Context) error
)

// Instrument installs the default slog logger for the process.
// Call Shutdown during teardown to flush any buffered export pipeline.
func Instrument(level slog.Level, format string) error {
	exporter, err := newExporter(context.Background())
	if err != nil {
		return fmt.Errorf("creating log exporter: %w", err)
	}

	if exporter == nil {
		opts := &slog.HandlerOptions{Level: level}
		var handler slog.Handler
		if format == "json" {
			handler = slog.NewJSONHandler(os.Stderr, opts)
		} else {
			handler = slog.NewTextHandler(os.Stderr, opts)
		}
		slog.SetDefault(slog.New(handler))
		return nil
	}

	// Severity filtering happens in the processor chain so dropped records
	// never reach the exporter.
	processor := minsev.NewLogProcessor(sdklog.NewBatchProcessor(exporter), severity(level))
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(processor))

	global.SetLoggerProvider(provider)
	slog.SetDefault(otelslog.NewLogger(loggerName, otelslog.WithLoggerProvider(provider)))

	shutdownMu.Lock()
	shutdownFunc = provider.Shutdown
	shutdownMu.Unlock()

	return nil
}

// Shutdown flushes and stops the export pipeline, if one was installed.
// Safe to call when Instrument selected a plain slog handler.
func Shutdown(ctx context.Context) error {
	shutdownMu.Lock()
	fn := shutdownFunc
	shutdownFunc = nil
	shutdownMu.Unlock()

	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// newExporter selects the log exporter from OTel environment variables.
// A nil exporter means plain slog handlers should be used.
func newExporter(ctx context.Context) (sdklog.Exporter, error) {
	switch os.Getenv("OTEL_LOGS_EXPORTER") {
	case "otlp":
		if os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL") == "grpc" {
			return otlploggrpc.New(ctx)
		}
		return otlploghttp.New(ctx)
	case "console":
		return stdoutlog.New()
	default:
		return nil, nil
	}
}

// severity maps a slog level onto the minimum OTel severity to export.
func severity(level slog.Level) minsev.Severity {
	switch {
	case level >= slog.LevelError:
		return minsev.SeverityError
	case level >= slog.LevelWarn:
		return minsev.SeverityWarn
	case level >= slog.LevelInfo:
		return minsev.SeverityInfo
	default:
		return minsev.SeverityDebug
	}
}
