package tokenauth

import (
	"sync/atomic"
	"testing"
	"time"
)

func BenchmarkMetricsInc(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()

	for b.Loop() {
		m.Inc(MetricLoginSuccess)
	}
}

func BenchmarkMetricsIncDisabled(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	b.ReportAllocs()

	for b.Loop() {
		m.Inc(MetricLoginSuccess)
	}
}

func BenchmarkMetricsObserveLatencyParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	d := 3 * time.Millisecond
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Observe(MetricValidateLatency, d)
		}
	})
}

// packedMetrics has no cache-line padding and exists to compare false sharing.
type packedMetrics struct {
	counters [metricIDCount]uint64
}

func (m *packedMetrics) Inc(id MetricID) {
	atomic.AddUint64(&m.counters[id], 1)
}

var hotPathMetricIDs = [...]MetricID{
	MetricLoginSuccess,
	MetricLoginFailure,
	MetricRefreshSuccess,
	MetricRefreshFailure,
	MetricValidateSuccess,
	MetricValidateInvalid,
}

func benchmarkRoundRobin(b *testing.B, inc func(MetricID)) {
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		idx := 0
		for pb.Next() {
			inc(hotPathMetricIDs[idx])
			idx = (idx + 1) % len(hotPathMetricIDs)
		}
	})
}

func BenchmarkMetricsIncParallelPadded(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	benchmarkRoundRobin(b, m.Inc)
}

func BenchmarkMetricsIncParallelPacked(b *testing.B) {
	m := &packedMetrics{}
	benchmarkRoundRobin(b, m.Inc)
}
