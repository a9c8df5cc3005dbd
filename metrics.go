package iio

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the latency histogram buckets in nanoseconds,
// log-spaced from 1us to 10s.
var LatencyBuckets = []uint64{
	1_000,
	10_000,
	100_000,
	1_000_000,
	10_000_000,
	100_000_000,
	1_000_000_000,
	10_000_000_000,
}

const numLatencyBuckets = 8

// Metrics tracks performance and operational statistics for a Context.
type Metrics struct {
	AttrReads  atomic.Uint64
	AttrWrites atomic.Uint64

	BlocksEnqueued atomic.Uint64
	BlocksDequeued atomic.Uint64

	BytesRead    atomic.Uint64
	BytesWritten atomic.Uint64

	ReadErrors  atomic.Uint64
	WriteErrors atomic.Uint64

	EventsReceived atomic.Uint64
	EventErrors    atomic.Uint64

	QueueDepthTotal atomic.Uint64
	QueueDepthCount atomic.Uint64
	MaxQueueDepth   atomic.Uint32

	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64

	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics creates a new metrics instance with StartTime set to now.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordAttrRead records an attribute read round trip.
func (m *Metrics) RecordAttrRead(bytes uint64, latencyNs uint64, success bool) {
	m.AttrReads.Add(1)
	if success {
		m.BytesRead.Add(bytes)
	} else {
		m.ReadErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordAttrWrite records an attribute write round trip.
func (m *Metrics) RecordAttrWrite(bytes uint64, latencyNs uint64, success bool) {
	m.AttrWrites.Add(1)
	if success {
		m.BytesWritten.Add(bytes)
	} else {
		m.WriteErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordBlockEnqueue records a block handed to the backend for filling.
func (m *Metrics) RecordBlockEnqueue(bytes uint64) {
	m.BlocksEnqueued.Add(1)
	m.BytesWritten.Add(bytes)
}

// RecordBlockDequeue records a block returned from the backend, filled.
func (m *Metrics) RecordBlockDequeue(bytes uint64, latencyNs uint64, success bool) {
	m.BlocksDequeued.Add(1)
	if success {
		m.BytesRead.Add(bytes)
	} else {
		m.ReadErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordEvent records an event delivered (or failed) from an event stream.
func (m *Metrics) RecordEvent(success bool) {
	m.EventsReceived.Add(1)
	if !success {
		m.EventErrors.Add(1)
	}
}

// RecordQueueDepth records the current outstanding-block depth.
func (m *Metrics) RecordQueueDepth(depth uint32) {
	m.QueueDepthTotal.Add(uint64(depth))
	m.QueueDepthCount.Add(1)
	for {
		current := m.MaxQueueDepth.Load()
		if depth <= current {
			break
		}
		if m.MaxQueueDepth.CompareAndSwap(current, depth) {
			break
		}
	}
}

func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// Stop marks the metrics as stopped (context destroyed).
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time, allocation-free copy of Metrics.
type MetricsSnapshot struct {
	AttrReads      uint64
	AttrWrites     uint64
	BlocksEnqueued uint64
	BlocksDequeued uint64
	BytesRead      uint64
	BytesWritten   uint64
	ReadErrors     uint64
	WriteErrors    uint64
	EventsReceived uint64
	EventErrors    uint64

	AvgQueueDepth float64
	MaxQueueDepth uint32

	AvgLatencyNs uint64
	UptimeNs     uint64

	LatencyP50Ns  uint64
	LatencyP99Ns  uint64
	LatencyP999Ns uint64

	LatencyHistogram [numLatencyBuckets]uint64

	TotalOps   uint64
	TotalBytes uint64
	ErrorRate  float64
}

// Snapshot creates a point-in-time snapshot of the metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		AttrReads:      m.AttrReads.Load(),
		AttrWrites:     m.AttrWrites.Load(),
		BlocksEnqueued: m.BlocksEnqueued.Load(),
		BlocksDequeued: m.BlocksDequeued.Load(),
		BytesRead:      m.BytesRead.Load(),
		BytesWritten:   m.BytesWritten.Load(),
		ReadErrors:     m.ReadErrors.Load(),
		WriteErrors:    m.WriteErrors.Load(),
		EventsReceived: m.EventsReceived.Load(),
		EventErrors:    m.EventErrors.Load(),
		MaxQueueDepth:  m.MaxQueueDepth.Load(),
	}

	snap.TotalOps = snap.AttrReads + snap.AttrWrites + snap.BlocksEnqueued + snap.BlocksDequeued
	snap.TotalBytes = snap.BytesRead + snap.BytesWritten

	if count := m.QueueDepthCount.Load(); count > 0 {
		snap.AvgQueueDepth = float64(m.QueueDepthTotal.Load()) / float64(count)
	}

	opCount := m.OpCount.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = m.TotalLatencyNs.Load() / opCount
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	totalErrors := snap.ReadErrors + snap.WriteErrors + snap.EventErrors
	if snap.TotalOps > 0 {
		snap.ErrorRate = float64(totalErrors) / float64(snap.TotalOps) * 100.0
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}

	if opCount > 0 {
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
		snap.LatencyP999Ns = m.calculatePercentile(0.999)
	}

	return snap
}

// calculatePercentile estimates the latency at the given percentile using
// linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalOps := m.OpCount.Load()
	if totalOps == 0 {
		return 0
	}

	targetCount := uint64(float64(totalOps) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.LatencyBuckets[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyBuckets[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}

	return LatencyBuckets[numLatencyBuckets-1]
}

// Reset zeroes all counters, useful between test cases.
func (m *Metrics) Reset() {
	m.AttrReads.Store(0)
	m.AttrWrites.Store(0)
	m.BlocksEnqueued.Store(0)
	m.BlocksDequeued.Store(0)
	m.BytesRead.Store(0)
	m.BytesWritten.Store(0)
	m.ReadErrors.Store(0)
	m.WriteErrors.Store(0)
	m.EventsReceived.Store(0)
	m.EventErrors.Store(0)
	m.QueueDepthTotal.Store(0)
	m.QueueDepthCount.Store(0)
	m.MaxQueueDepth.Store(0)
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// Observer allows pluggable collection of per-operation metrics.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveAttrRead(bytes uint64, latencyNs uint64, success bool)
	ObserveAttrWrite(bytes uint64, latencyNs uint64, success bool)
	ObserveBlockDequeue(bytes uint64, latencyNs uint64, success bool)
	ObserveEvent(success bool)
	ObserveQueueDepth(depth uint32)
}

// NoOpObserver discards all observations.
type NoOpObserver struct{}

func (NoOpObserver) ObserveAttrRead(uint64, uint64, bool)    {}
func (NoOpObserver) ObserveAttrWrite(uint64, uint64, bool)   {}
func (NoOpObserver) ObserveBlockDequeue(uint64, uint64, bool) {}
func (NoOpObserver) ObserveEvent(bool)                        {}
func (NoOpObserver) ObserveQueueDepth(uint32)                 {}

// MetricsObserver implements Observer by recording into a *Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records into m.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveAttrRead(bytes, latencyNs uint64, success bool) {
	o.metrics.RecordAttrRead(bytes, latencyNs, success)
}

func (o *MetricsObserver) ObserveAttrWrite(bytes, latencyNs uint64, success bool) {
	o.metrics.RecordAttrWrite(bytes, latencyNs, success)
}

func (o *MetricsObserver) ObserveBlockDequeue(bytes, latencyNs uint64, success bool) {
	o.metrics.RecordBlockDequeue(bytes, latencyNs, success)
}

func (o *MetricsObserver) ObserveEvent(success bool) {
	o.metrics.RecordEvent(success)
}

func (o *MetricsObserver) ObserveQueueDepth(depth uint32) {
	o.metrics.RecordQueueDepth(depth)
}

var (
	_ Observer = (*MetricsObserver)(nil)
	_ Observer = (*NoOpObserver)(nil)
)
