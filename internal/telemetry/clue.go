package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"goa.design/clue/log"
)

const instrumentationName = "github.com/goliatone/go-widgetflow"

type (
	// ClueLogger delegates to goa.design/clue/log. Format and debug settings
	// are read from the context (log.Context with log.WithFormat/log.WithDebug).
	ClueLogger struct{}

	// OTelMetrics records counters on the global MeterProvider.
	OTelMetrics struct {
		meter metric.Meter

		mu       sync.Mutex
		counters map[string]metric.Int64Counter
	}
)

// NewClueLogger constructs a Logger backed by clue.
func NewClueLogger() Logger {
	return ClueLogger{}
}

// NewOTelMetrics constructs a Metrics recorder using otel.Meter. Configure
// the global MeterProvider before recording.
func NewOTelMetrics() *OTelMetrics {
	return NewOTelMetricsWithMeter(otel.Meter(instrumentationName))
}

// NewOTelMetricsWithMeter constructs a Metrics recorder on an explicit meter.
func NewOTelMetricsWithMeter(meter metric.Meter) *OTelMetrics {
	return &OTelMetrics{
		meter:    meter,
		counters: make(map[string]metric.Int64Counter),
	}
}

// Debug emits a debug-level log line.
func (ClueLogger) Debug(ctx context.Context, msg string, keyvals ...any) {
	log.Debug(ctx, fielders(msg, keyvals)...)
}

// Info emits an info-level log line.
func (ClueLogger) Info(ctx context.Context, msg string, keyvals ...any) {
	log.Info(ctx, fielders(msg, keyvals)...)
}

// Warn emits a warning-level log line.
func (ClueLogger) Warn(ctx context.Context, msg string, keyvals ...any) {
	log.Warn(ctx, fielders(msg, keyvals)...)
}

// Error emits an error-level log line. An error value passed under the "err"
// key is forwarded to clue as the logged error.
func (ClueLogger) Error(ctx context.Context, msg string, keyvals ...any) {
	var logged error
	for i := 0; i+1 < len(keyvals); i += 2 {
		if key, ok := keyvals[i].(string); ok && key == "err" {
			if err, ok := keyvals[i+1].(error); ok {
				logged = err
			}
		}
	}
	log.Error(ctx, logged, fielders(msg, keyvals)...)
}

// IncCounter adds value to the named counter.
func (m *OTelMetrics) IncCounter(ctx context.Context, name string, value int64, tags ...string) {
	counter, err := m.counter(name)
	if err != nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(tagsToAttrs(tags)...))
}

func (m *OTelMetrics) counter(name string) (metric.Int64Counter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if counter, ok := m.counters[name]; ok {
		return counter, nil
	}
	counter, err := m.meter.Int64Counter(name)
	if err != nil {
		return nil, err
	}
	m.counters[name] = counter
	return counter, nil
}

// fielders converts msg and variadic key/value pairs into clue fielders.
// Non-string keys are skipped; an odd trailing key is paired with nil.
func fielders(msg string, keyvals []any) []log.Fielder {
	out := make([]log.Fielder, 0, 1+len(keyvals)/2)
	out = append(out, log.KV{K: "msg", V: msg})
	for i := 0; i < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		var value any
		if i+1 < len(keyvals) {
			value = keyvals[i+1]
		}
		if err, ok := value.(error); ok {
			value = err.Error()
		}
		out = append(out, log.KV{K: key, V: value})
	}
	return out
}

func tagsToAttrs(tags []string) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	for i := 0; i < len(tags); i += 2 {
		value := ""
		if i+1 < len(tags) {
			value = tags[i+1]
		}
		attrs = append(attrs, attribute.String(tags[i], value))
	}
	return attrs
}
