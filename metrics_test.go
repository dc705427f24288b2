package accessgate

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledIsNoOp(t *testing.T) {
	m := NewMetrics(MetricsConfig{})
	m.Inc(MetricRequestAllowed)
	m.Observe(MetricEvaluateLatency, time.Millisecond)

	if m.Enabled() {
		t.Fatal("metrics must report disabled")
	}
	if got := m.Value(MetricRequestAllowed); got != 0 {
		t.Fatalf("disabled counter = %d", got)
	}
	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("disabled snapshot must be empty: %+v", snap)
	}
}

func TestMetricsCountersConcurrent(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const workers = 8
	const perWorker = 1000
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				m.Inc(MetricRedirectSignIn)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricRedirectSignIn); got != workers*perWorker {
		t.Fatalf("counter = %d, want %d", got, workers*perWorker)
	}
}

func TestMetricsLatencyBuckets(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	samples := []time.Duration{
		10 * time.Microsecond,  // bucket 0
		75 * time.Microsecond,  // bucket 1
		200 * time.Microsecond, // bucket 2
		400 * time.Microsecond, // bucket 3
		800 * time.Microsecond, // bucket 4
		3 * time.Millisecond,   // bucket 5
		20 * time.Millisecond,  // bucket 6
		time.Second,            // bucket 7
	}
	for _, s := range samples {
		m.Observe(MetricEvaluateLatency, s)
	}

	hist := m.Snapshot().Histograms[MetricEvaluateLatency]
	if len(hist) != histBucketCount {
		t.Fatalf("histogram length = %d", len(hist))
	}
	for i, count := range hist {
		if count != 1 {
			t.Fatalf("bucket %d = %d, want 1 (%v)", i, count, hist)
		}
	}
}

func TestMetricsObserveIgnoresCounterIDs(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	m.Observe(MetricRequestAllowed, time.Millisecond)

	if hist, ok := m.Snapshot().Histograms[MetricRequestAllowed]; ok {
		t.Fatalf("unexpected histogram for a counter id: %v", hist)
	}
}

func TestMetricsNilReceiver(t *testing.T) {
	var m *Metrics
	m.Inc(MetricRequestAllowed)
	m.Observe(MetricEvaluateLatency, time.Millisecond)
	if m.Enabled() || m.LatencyEnabled() {
		t.Fatal("nil metrics must report disabled")
	}
	if m.Value(MetricRequestAllowed) != 0 {
		t.Fatal("nil metrics value must be zero")
	}
	snap := m.Snapshot()
	if len(snap.Counters) != 0 {
		t.Fatal("nil snapshot must be empty")
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricRequestAllowed)

	snap := m.Snapshot()
	snap.Counters[MetricRequestAllowed] = 999

	if got := m.Value(MetricRequestAllowed); got != 1 {
		t.Fatalf("snapshot mutation leaked into live counters: %d", got)
	}
}
