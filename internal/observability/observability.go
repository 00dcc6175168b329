// Package observability configures the process-wide slog logger.
//
// Records always go to a text or JSON handler enriched with the active trace
// and span ids. When OTEL_EXPORTER_OTLP_ENDPOINT is set, or
// OTEL_EXPORTER_OTLP_PROTOCOL is "stdout", they are also exported through an
// OpenTelemetry LoggerProvider.
package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log/global"
)

// instrumentationName identifies records exported through the OTel bridge.
const instrumentationName = "github.com/dompetku/walletgate"

// ShutdownFunc flushes and stops exporters started by Instrument.
type ShutdownFunc func(context.Context) error

type options struct {
	writer   io.Writer
	exporter io.Writer
	getenv   func(string) string
}

// Instrument installs the default logger at level in format ("text" or "json").
// Logs are written to stderr so command output on stdout stays clean.
func Instrument(ctx context.Context, level slog.Level, format string) (ShutdownFunc, error) {
	return instrument(ctx, level, format, options{
		writer:   os.Stderr,
		exporter: os.Stderr,
		getenv:   os.Getenv,
	})
}

func instrument(ctx context.Context, level slog.Level, format string, opts options) (ShutdownFunc, error) {
	handlerOpts := &slog.HandlerOptions{Level: level}
	var base slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		base = slog.NewTextHandler(opts.writer, handlerOpts)
	case "json":
		base = slog.NewJSONHandler(opts.writer, handlerOpts)
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	var handler slog.Handler = newTraceHandler(base)
	shutdown := func(context.Context) error { return nil }

	if exportEnabled(opts.getenv) {
		provider, err := newLoggerProvider(ctx, level, opts.getenv, opts.exporter)
		if err != nil {
			return nil, fmt.Errorf("creating log exporter: %w", err)
		}
		global.SetLoggerProvider(provider)

		handler = newFanout(handler, otelslog.NewHandler(instrumentationName, otelslog.WithLoggerProvider(provider)))
		shutdown = provider.Shutdown
	}

	slog.SetDefault(slog.New(handler))
	return shutdown, nil
}
