package imageset

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    prepareCounter   prometheus.Counter
//	    prepareHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordPrepareRun(groups int, duration time.Duration, err error) {
//	    p.prepareCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordAddImageSet is called after each image set registration.
	RecordAddImageSet(duration time.Duration, err error)

	// RecordPrepareRun is called after each grouping run.
	// groups is the number of groups produced, 0 on error.
	RecordPrepareRun(groups int, duration time.Duration, err error)

	// RecordSnapshot is called after each snapshot save.
	RecordSnapshot(duration time.Duration, err error)

	// RecordRestore is called after each snapshot restore.
	RecordRestore(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAddImageSet(time.Duration, error)     {}
func (NoopMetricsCollector) RecordPrepareRun(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSnapshot(time.Duration, error)        {}
func (NoopMetricsCollector) RecordRestore(time.Duration, error)         {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AddCount           atomic.Int64
	AddErrors          atomic.Int64
	PrepareCount       atomic.Int64
	PrepareErrors      atomic.Int64
	PrepareGroups      atomic.Int64
	PrepareTotalNanos  atomic.Int64
	SnapshotCount      atomic.Int64
	SnapshotErrors     atomic.Int64
	SnapshotTotalNanos atomic.Int64
	RestoreCount       atomic.Int64
	RestoreErrors      atomic.Int64
}

// RecordAddImageSet implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAddImageSet(duration time.Duration, err error) {
	b.AddCount.Add(1)
	if err != nil {
		b.AddErrors.Add(1)
	}
}

// RecordPrepareRun implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPrepareRun(groups int, duration time.Duration, err error) {
	b.PrepareCount.Add(1)
	b.PrepareGroups.Add(int64(groups))
	b.PrepareTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.PrepareErrors.Add(1)
	}
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(duration time.Duration, err error) {
	b.SnapshotCount.Add(1)
	b.SnapshotTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SnapshotErrors.Add(1)
	}
}

// RecordRestore implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRestore(duration time.Duration, err error) {
	b.RestoreCount.Add(1)
	if err != nil {
		b.RestoreErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AddCount:         b.AddCount.Load(),
		AddErrors:        b.AddErrors.Load(),
		PrepareCount:     b.PrepareCount.Load(),
		PrepareErrors:    b.PrepareErrors.Load(),
		PrepareGroups:    b.PrepareGroups.Load(),
		PrepareAvgNanos:  b.getAvgPrepareNanos(),
		SnapshotCount:    b.SnapshotCount.Load(),
		SnapshotErrors:   b.SnapshotErrors.Load(),
		SnapshotAvgNanos: b.getAvgSnapshotNanos(),
		RestoreCount:     b.RestoreCount.Load(),
		RestoreErrors:    b.RestoreErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgPrepareNanos() int64 {
	count := b.PrepareCount.Load()
	if count == 0 {
		return 0
	}
	return b.PrepareTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgSnapshotNanos() int64 {
	count := b.SnapshotCount.Load()
	if count == 0 {
		return 0
	}
	return b.SnapshotTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AddCount         int64
	AddErrors        int64
	PrepareCount     int64
	PrepareErrors    int64
	PrepareGroups    int64
	PrepareAvgNanos  int64
	SnapshotCount    int64
	SnapshotErrors   int64
	SnapshotAvgNanos int64
	RestoreCount     int64
	RestoreErrors    int64
}
