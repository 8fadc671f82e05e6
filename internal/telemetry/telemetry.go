// Package telemetry integrates the execution pipeline with Clue logging and
// OpenTelemetry tracing/metrics. It is intentionally small so callers can
// stub it out in tests without pulling in a tracer provider.
package telemetry

import (
	"context"
	"time"
)

// Logger is the structured logging interface used throughout the client.
// Implementations typically delegate to Clue (goa.design/clue/log) but the
// interface is small enough for tests to stub.
type Logger interface {
	Debug(ctx context.Context, msg string, keyvals ...any)
	Info(ctx context.Context, msg string, keyvals ...any)
	Warn(ctx context.Context, msg string, keyvals ...any)
	Error(ctx context.Context, msg string, keyvals ...any)
}

// Metrics exposes counter, timer, and gauge helpers. client.Config carries
// one, but the execution pipeline records no metrics through it.
type Metrics interface {
	IncCounter(name string, value float64, tags ...string)
	RecordTimer(name string, duration time.Duration, tags ...string)
	RecordGauge(name string, value float64, tags ...string)
}

// NoopLogger discards all log calls. It is the default when no Logger is
// configured, so the pipeline never needs a nil check.
type NoopLogger struct{}

func (NoopLogger) Debug(context.Context, string, ...any) {}
func (NoopLogger) Info(context.Context, string, ...any)  {}
func (NoopLogger) Warn(context.Context, string, ...any)  {}
func (NoopLogger) Error(context.Context, string, ...any) {}

// NoopMetrics discards all metrics calls.
type NoopMetrics struct{}

func (NoopMetrics) IncCounter(string, float64, ...string)        {}
func (NoopMetrics) RecordTimer(string, time.Duration, ...string) {}
func (NoopMetrics) RecordGauge(string, float64, ...string)       {}
