package syncval

import (
	"sync/atomic"
	"time"
)

// numHazardKinds mirrors accessstate.Hazard's width; kept as an untyped
// constant here so this file has no dependency on the internal package
// it counts.
const numHazardKinds = 11

// Metrics tracks validation-core activity for a single Context or
// Coordinator: how many updates/detects ran, how many of each hazard
// kind were found, and how much barrier/semaphore/event traffic was
// processed.
type Metrics struct {
	DetectCalls atomic.Uint64
	UpdateCalls atomic.Uint64
	ResolveCalls atomic.Uint64

	HazardsByKind [numHazardKinds]atomic.Uint64

	BarrierBatchesApplied atomic.Uint64
	ConsolidationRuns     atomic.Uint64

	SemaphoreSignals atomic.Uint64
	SemaphoreWaits   atomic.Uint64
	EventSets        atomic.Uint64
	EventWaits       atomic.Uint64
	EventResets      atomic.Uint64

	TotalDetectLatencyNs atomic.Uint64

	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics returns a fresh Metrics with StartTime set to now.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordDetect records one Detect call, its latency and resulting hazard
// kind (kind 0 is "no hazard").
func (m *Metrics) RecordDetect(kind uint8, latencyNs uint64) {
	m.DetectCalls.Add(1)
	m.TotalDetectLatencyNs.Add(latencyNs)
	if int(kind) < numHazardKinds {
		m.HazardsByKind[kind].Add(1)
	}
}

// RecordUpdate records one Update call.
func (m *Metrics) RecordUpdate() { m.UpdateCalls.Add(1) }

// RecordResolve records one Resolve call.
func (m *Metrics) RecordResolve() { m.ResolveCalls.Add(1) }

// RecordBarrierBatch records one ApplyBarrierBatch call and whether it
// triggered a consolidation pass.
func (m *Metrics) RecordBarrierBatch(consolidated bool) {
	m.BarrierBatchesApplied.Add(1)
	if consolidated {
		m.ConsolidationRuns.Add(1)
	}
}

// RecordSemaphoreSignal/RecordSemaphoreWait/RecordEventSet/
// RecordEventWait/RecordEventReset record one cross-queue coordinator
// operation each.
func (m *Metrics) RecordSemaphoreSignal() { m.SemaphoreSignals.Add(1) }
func (m *Metrics) RecordSemaphoreWait()   { m.SemaphoreWaits.Add(1) }
func (m *Metrics) RecordEventSet()        { m.EventSets.Add(1) }
func (m *Metrics) RecordEventWait()       { m.EventWaits.Add(1) }
func (m *Metrics) RecordEventReset()      { m.EventResets.Add(1) }

// Stop marks the tracked context/coordinator as stopped.
func (m *Metrics) Stop() { m.StopTime.Store(time.Now().UnixNano()) }

// MetricsSnapshot is a point-in-time, non-atomic copy of Metrics safe to
// serialize or compare in tests.
type MetricsSnapshot struct {
	DetectCalls  uint64
	UpdateCalls  uint64
	ResolveCalls uint64

	HazardsByKind [numHazardKinds]uint64
	TotalHazards  uint64

	BarrierBatchesApplied uint64
	ConsolidationRuns     uint64

	SemaphoreSignals uint64
	SemaphoreWaits   uint64
	EventSets        uint64
	EventWaits       uint64
	EventResets      uint64

	AvgDetectLatencyNs uint64
	UptimeNs           uint64
}

// Snapshot returns a consistent-enough point-in-time copy of m. Like the
// counters it reads, it favors cheap atomic loads over a global lock;
// under concurrent writers the snapshot may interleave slightly, which
// is acceptable for a metrics surface.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		DetectCalls:           m.DetectCalls.Load(),
		UpdateCalls:           m.UpdateCalls.Load(),
		ResolveCalls:          m.ResolveCalls.Load(),
		BarrierBatchesApplied: m.BarrierBatchesApplied.Load(),
		ConsolidationRuns:     m.ConsolidationRuns.Load(),
		SemaphoreSignals:      m.SemaphoreSignals.Load(),
		SemaphoreWaits:        m.SemaphoreWaits.Load(),
		EventSets:             m.EventSets.Load(),
		EventWaits:            m.EventWaits.Load(),
		EventResets:           m.EventResets.Load(),
	}
	for i := range snap.HazardsByKind {
		v := m.HazardsByKind[i].Load()
		snap.HazardsByKind[i] = v
		if i != 0 {
			snap.TotalHazards += v
		}
	}
	if snap.DetectCalls > 0 {
		snap.AvgDetectLatencyNs = m.TotalDetectLatencyNs.Load() / snap.DetectCalls
	}
	start := m.StartTime.Load()
	if stop := m.StopTime.Load(); stop > 0 {
		snap.UptimeNs = uint64(stop - start)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - start)
	}
	return snap
}

// Reset zeroes every counter and restarts StartTime — useful in tests.
func (m *Metrics) Reset() {
	m.DetectCalls.Store(0)
	m.UpdateCalls.Store(0)
	m.ResolveCalls.Store(0)
	for i := range m.HazardsByKind {
		m.HazardsByKind[i].Store(0)
	}
	m.BarrierBatchesApplied.Store(0)
	m.ConsolidationRuns.Store(0)
	m.SemaphoreSignals.Store(0)
	m.SemaphoreWaits.Store(0)
	m.EventSets.Store(0)
	m.EventWaits.Store(0)
	m.EventResets.Store(0)
	m.TotalDetectLatencyNs.Store(0)
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// Observer allows pluggable collection of validation-core events,
// mirroring the teacher's I/O Observer but keyed to synchronization
// activity instead of block I/O.
type Observer interface {
	ObserveDetect(hazardKind uint8, latencyNs uint64)
	ObserveUpdate()
	ObserveResolve()
	ObserveBarrierBatch(consolidated bool)
	ObserveSemaphoreOp(signal bool)
	ObserveEventOp(op string)
}

// NoOpObserver discards every observation.
type NoOpObserver struct{}

func (NoOpObserver) ObserveDetect(uint8, uint64)     {}
func (NoOpObserver) ObserveUpdate()                  {}
func (NoOpObserver) ObserveResolve()                 {}
func (NoOpObserver) ObserveBarrierBatch(bool)         {}
func (NoOpObserver) ObserveSemaphoreOp(bool)          {}
func (NoOpObserver) ObserveEventOp(string)            {}

// MetricsObserver implements Observer by recording into a Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver returns an observer recording into m.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveDetect(hazardKind uint8, latencyNs uint64) {
	o.metrics.RecordDetect(hazardKind, latencyNs)
}
func (o *MetricsObserver) ObserveUpdate()  { o.metrics.RecordUpdate() }
func (o *MetricsObserver) ObserveResolve() { o.metrics.RecordResolve() }
func (o *MetricsObserver) ObserveBarrierBatch(consolidated bool) {
	o.metrics.RecordBarrierBatch(consolidated)
}
func (o *MetricsObserver) ObserveSemaphoreOp(signal bool) {
	if signal {
		o.metrics.RecordSemaphoreSignal()
	} else {
		o.metrics.RecordSemaphoreWait()
	}
}
func (o *MetricsObserver) ObserveEventOp(op string) {
	switch op {
	case "set":
		o.metrics.RecordEventSet()
	case "wait":
		o.metrics.RecordEventWait()
	case "reset":
		o.metrics.RecordEventReset()
	}
}

var _ Observer = (*MetricsObserver)(nil)
var _ Observer = (*NoOpObserver)(nil)
