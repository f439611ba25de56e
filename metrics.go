package pgmgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
//
// Point queries are recorded without a duration: they run in nanoseconds and
// timing every call would cost more than the call itself.
type MetricsCollector interface {
	// RecordBuild is called after a list has been constructed, including
	// lists derived by set algebra, slicing or snapshot loads.
	// count is the number of keys, presorted reports whether the input
	// skipped the sorting pass.
	RecordBuild(count int, presorted bool, duration time.Duration)

	// RecordQuery is called once per point query. op is one of the
	// Query* constants.
	RecordQuery(op string)

	// RecordMerge is called after each set-algebra operation.
	// op is one of the Merge* constants, count is the result size.
	RecordMerge(op string, count int, duration time.Duration)

	// RecordSnapshot is called after a snapshot write attempt.
	RecordSnapshot(duration time.Duration, err error)

	// RecordLoad is called after a snapshot load attempt.
	RecordLoad(duration time.Duration, err error)
}

// Operation labels passed to RecordQuery.
const (
	QueryContains = "contains"
	QueryFind     = "find"
	QueryRank     = "rank"
	QueryCount    = "count"
	QueryRange    = "range"
	QueryAt       = "at"
	QueryIndex    = "index"
)

// Operation labels passed to RecordMerge.
const (
	MergeUnion          = "union"
	MergeDifference     = "difference"
	MergeIntersect      = "intersect"
	MergeDropDuplicates = "drop_duplicates"
	MergeSlice          = "slice"
)

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBuild(int, bool, time.Duration)   {}
func (NoopMetricsCollector) RecordQuery(string)                     {}
func (NoopMetricsCollector) RecordMerge(string, int, time.Duration) {}
func (NoopMetricsCollector) RecordSnapshot(time.Duration, error)    {}
func (NoopMetricsCollector) RecordLoad(time.Duration, error)        {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	BuildCount      atomic.Int64
	BuildKeys       atomic.Int64
	BuildPresorted  atomic.Int64
	BuildTotalNanos atomic.Int64
	QueryCount      atomic.Int64
	MergeCount      atomic.Int64
	MergeKeys       atomic.Int64
	MergeTotalNanos atomic.Int64
	SnapshotCount   atomic.Int64
	SnapshotErrors  atomic.Int64
	LoadCount       atomic.Int64
	LoadErrors      atomic.Int64
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(count int, presorted bool, duration time.Duration) {
	b.BuildCount.Add(1)
	b.BuildKeys.Add(int64(count))
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if presorted {
		b.BuildPresorted.Add(1)
	}
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(string) {
	b.QueryCount.Add(1)
}

// RecordMerge implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMerge(op string, count int, duration time.Duration) {
	b.MergeCount.Add(1)
	b.MergeKeys.Add(int64(count))
	b.MergeTotalNanos.Add(duration.Nanoseconds())
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(duration time.Duration, err error) {
	b.SnapshotCount.Add(1)
	if err != nil {
		b.SnapshotErrors.Add(1)
	}
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(duration time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		BuildCount:     b.BuildCount.Load(),
		BuildKeys:      b.BuildKeys.Load(),
		BuildPresorted: b.BuildPresorted.Load(),
		BuildAvgNanos:  avg(b.BuildTotalNanos.Load(), b.BuildCount.Load()),
		QueryCount:     b.QueryCount.Load(),
		MergeCount:     b.MergeCount.Load(),
		MergeKeys:      b.MergeKeys.Load(),
		MergeAvgNanos:  avg(b.MergeTotalNanos.Load(), b.MergeCount.Load()),
		SnapshotCount:  b.SnapshotCount.Load(),
		SnapshotErrors: b.SnapshotErrors.Load(),
		LoadCount:      b.LoadCount.Load(),
		LoadErrors:     b.LoadErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	BuildCount     int64
	BuildKeys      int64
	BuildPresorted int64
	BuildAvgNanos  int64
	QueryCount     int64
	MergeCount     int64
	MergeKeys      int64
	MergeAvgNanos  int64
	SnapshotCount  int64
	SnapshotErrors int64
	LoadCount      int64
	LoadErrors     int64
}
