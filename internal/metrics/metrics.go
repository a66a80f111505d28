// Package metrics provides application-level metrics collection.
// This is a lightweight metrics foundation using atomic counters.
package metrics

import (
	"sync/atomic"
)

// Metrics holds application metrics using atomic counters for thread safety.
// It satisfies the observer hooks of the error queue and random bindings.
type Metrics struct {
	// Error queue metrics
	drains          atomic.Int64
	emptyDrains     atomic.Int64
	recordsDrained  atomic.Int64
	replays         atomic.Int64
	recordsReplayed atomic.Int64

	// Random generator metrics
	randCalls    atomic.Int64
	randBytes    atomic.Int64
	randFailures atomic.Int64
}

// Global is the global metrics instance.
// Use this for recording metrics throughout the application.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// ObserveDrain records one drain of the error queue.
func (m *Metrics) ObserveDrain(records int) {
	m.drains.Add(1)
	if records == 0 {
		m.emptyDrains.Add(1)
		return
	}
	m.recordsDrained.Add(int64(records))
}

// ObserveReplay records records pushed back onto the error queue.
func (m *Metrics) ObserveReplay(records int) {
	m.replays.Add(1)
	m.recordsReplayed.Add(int64(records))
}

// ObserveRand records one random fill request.
func (m *Metrics) ObserveRand(n int, err error) {
	m.randCalls.Add(1)
	if err != nil {
		m.randFailures.Add(1)
		return
	}
	m.randBytes.Add(int64(n))
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	Drains          int64 `json:"drains"`
	EmptyDrains     int64 `json:"empty_drains"`
	RecordsDrained  int64 `json:"records_drained"`
	Replays         int64 `json:"replays"`
	RecordsReplayed int64 `json:"records_replayed"`
	RandCalls       int64 `json:"rand_calls"`
	RandBytes       int64 `json:"rand_bytes"`
	RandFailures    int64 `json:"rand_failures"`
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Drains:          m.drains.Load(),
		EmptyDrains:     m.emptyDrains.Load(),
		RecordsDrained:  m.recordsDrained.Load(),
		Replays:         m.replays.Load(),
		RecordsReplayed: m.recordsReplayed.Load(),
		RandCalls:       m.randCalls.Load(),
		RandBytes:       m.randBytes.Load(),
		RandFailures:    m.randFailures.Load(),
	}
}

// RandFailureRate returns the share of failed random requests as a
// percentage (0-100). Returns 0 if no requests have been made.
func (m *Metrics) RandFailureRate() float64 {
	calls := m.randCalls.Load()
	if calls == 0 {
		return 0
	}
	return float64(m.randFailures.Load()) / float64(calls) * 100
}

// Reset resets all metrics to zero.
// Useful for testing.
func (m *Metrics) Reset() {
	m.drains.Store(0)
	m.emptyDrains.Store(0)
	m.recordsDrained.Store(0)
	m.replays.Store(0)
	m.recordsReplayed.Store(0)
	m.randCalls.Store(0)
	m.randBytes.Store(0)
	m.randFailures.Store(0)
}
