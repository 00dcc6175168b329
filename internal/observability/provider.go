package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const (
	envEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envProtocol = "OTEL_EXPORTER_OTLP_PROTOCOL"

	protocolStdout = "stdout"
)

func exportEnabled(getenv func(string) string) bool {
	return getenv(envEndpoint) != "" || getenv(envProtocol) == protocolStdout
}

// newLoggerProvider builds a LoggerProvider exporting records at or above level.
// The OTLP exporters read their endpoint and headers from the standard
// OTEL_EXPORTER_OTLP_* variables.
func newLoggerProvider(ctx context.Context, level slog.Level, getenv func(string) string, stdout io.Writer) (*sdklog.LoggerProvider, error) {
	var processor sdklog.Processor

	switch protocol := getenv(envProtocol); protocol {
	case protocolStdout:
		exporter, err := stdoutlog.New(stdoutlog.WithWriter(stdout))
		if err != nil {
			return nil, err
		}
		processor = sdklog.NewSimpleProcessor(exporter)
	case "grpc":
		exporter, err := otlploggrpc.New(ctx)
		if err != nil {
			return nil, err
		}
		processor = sdklog.NewBatchProcessor(exporter)
	case "", "http/protobuf":
		exporter, err := otlploghttp.New(ctx)
		if err != nil {
			return nil, err
		}
		processor = sdklog.NewBatchProcessor(exporter)
	default:
		return nil, fmt.Errorf("unsupported %s %q", envProtocol, protocol)
	}

	return sdklog.NewLoggerProvider(
		sdklog.WithProcessor(minsev.NewLogProcessor(processor, severity(level))),
	), nil
}

func severity(level slog.Level) minsev.Severity {
	switch {
	case level <= slog.LevelDebug:
		return minsev.SeverityDebug
	case level <= slog.LevelInfo:
		return minsev.SeverityInfo
	case level <= slog.LevelWarn:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}
