// Package telemetry holds the logging and metrics seams shared by the engine,
// the transport, and the session. Library code defaults to the no-op
// implementations; binaries opt into clue logging and OpenTelemetry metrics.
package telemetry

import "context"

type (
	// Logger emits structured log lines with key/value pairs.
	Logger interface {
		Debug(ctx context.Context, msg string, keyvals ...any)
		Info(ctx context.Context, msg string, keyvals ...any)
		Warn(ctx context.Context, msg string, keyvals ...any)
		Error(ctx context.Context, msg string, keyvals ...any)
	}

	// Metrics records counters. tags are key/value string pairs.
	Metrics interface {
		IncCounter(ctx context.Context, name string, value int64, tags ...string)
	}
)

// Metric names recorded by the engine.
const (
	MetricWidgetsRendered    = "widgetflow.widgets.rendered"
	MetricSingleSubmissions  = "widgetflow.submissions.single"
	MetricBatchSubmissions   = "widgetflow.submissions.batch"
	MetricValidationFailures = "widgetflow.validation.failures"
	MetricIgnoredEvents      = "widgetflow.events.ignored"
)

type noopLogger struct{}

// NewNoopLogger returns a Logger that discards everything.
func NewNoopLogger() Logger { return noopLogger{} }

func (noopLogger) Debug(context.Context, string, ...any) {}
func (noopLogger) Info(context.Context, string, ...any)  {}
func (noopLogger) Warn(context.Context, string, ...any)  {}
func (noopLogger) Error(context.Context, string, ...any) {}

type noopMetrics struct{}

// NewNoopMetrics returns a Metrics recorder that discards everything.
func NewNoopMetrics() Metrics { return noopMetrics{} }

func (noopMetrics) IncCounter(context.Context, string, int64, ...string) {}
