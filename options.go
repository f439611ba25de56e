package pgmgo

import (
	"log/slog"

	"github.com/hupe1980/pgmgo/index"
	"github.com/hupe1980/pgmgo/index/pgm"
)

type options struct {
	builder          index.Builder
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures SortedList construction behavior.
//
// A list passes its options on to every list derived from it, so a union,
// difference or slice keeps the index family, logger and metrics collector
// of its parent.
type Option func(*options)

// WithIndex configures the position index builder. The builder is re-run for
// every derived list, over that list's own keys.
//
// If nil is passed, pgm.Default is used.
func WithIndex(b index.Builder) Option {
	return func(o *options) {
		if b == nil {
			b = pgm.Default
		}
		o.builder = b
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &pgmgo.BasicMetricsCollector{}
//	sl, _ := pgmgo.New(keys, pgmgo.WithMetricsCollector(metrics))
//	// ... use sl ...
//	stats := metrics.GetStats()
//	fmt.Printf("Queries: %d\n", stats.QueryCount)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := pgmgo.NewJSONLogger(slog.LevelInfo)
//	sl, _ := pgmgo.New(keys, pgmgo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		builder:          pgm.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
