package accessgate

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one counter or histogram in the in-process metrics
// system.
type MetricID uint16

const (
	// MetricRequestExcluded counts requests skipped by the exclusion list.
	MetricRequestExcluded MetricID = iota
	// MetricRequestAllowed counts requests forwarded downstream.
	MetricRequestAllowed
	// MetricRedirectSignIn counts redirects to the sign-in page.
	MetricRedirectSignIn
	// MetricRedirectUnauthorized counts redirects to the unauthorized page.
	MetricRedirectUnauthorized
	// MetricRedirectOnboarding counts redirects to the onboarding page.
	MetricRedirectOnboarding
	// MetricBucketAssigned counts fresh experiment assignments.
	MetricBucketAssigned
	// MetricVerifyFailSoft counts verifier errors degraded to absent
	// claims.
	MetricVerifyFailSoft
	// MetricEvaluateLatency buckets end-to-end Evaluate latency.
	MetricEvaluateLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds atomic counters and an optional latency histogram.
// All methods are safe for concurrent use and no-ops on a nil receiver.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a Metrics instance. When cfg.Enabled is false all
// operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recording.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is recording.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc increments one counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records one Evaluate latency sample.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricEvaluateLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot deep-copies all counters and histograms.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := range buckets {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricEvaluateLatency].buckets[i])
		}
		s.Histograms[MetricEvaluateLatency] = buckets
	}
	return s
}

// bucketIndex maps a latency sample to its histogram bucket. Upper bounds:
// 50µs, 100µs, 250µs, 500µs, 1ms, 5ms, 25ms, +Inf.
func bucketIndex(d time.Duration) int {
	bounds := [...]time.Duration{
		50 * time.Microsecond,
		100 * time.Microsecond,
		250 * time.Microsecond,
		500 * time.Microsecond,
		time.Millisecond,
		5 * time.Millisecond,
		25 * time.Millisecond,
	}
	for i, bound := range bounds {
		if d <= bound {
			return i
		}
	}
	return histBucketCount - 1
}
