// Package metrics keeps process-wide counters for frame analysis.
package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics counts analyzed frames and their outcomes. The zero value is ready to use.
type Metrics struct {
	framesAnalyzed atomic.Int64
	smartAnalyses  atomic.Int64
	smartFallbacks atomic.Int64
	completions    atomic.Int64
	calibrations   atomic.Int64
	errors         atomic.Int64
	totalLatency   atomic.Int64
	lastFrameTime  atomic.Int64
	liveStreams    atomic.Int64
}

// New creates an empty Metrics.
func New() *Metrics {
	return &Metrics{}
}

// RecordFrame counts one analyzed frame and its latency.
func (m *Metrics) RecordFrame(latency time.Duration, completed bool) {
	m.framesAnalyzed.Add(1)
	m.totalLatency.Add(latency.Microseconds())
	m.lastFrameTime.Store(time.Now().Unix())
	if completed {
		m.completions.Add(1)
	}
}

// RecordSmart counts one smart analysis. reanchored is false when the frame
// was scored against the stored segment instead.
func (m *Metrics) RecordSmart(reanchored bool) {
	m.smartAnalyses.Add(1)
	if !reanchored {
		m.smartFallbacks.Add(1)
	}
}

func (m *Metrics) IncrementCalibrations() {
	m.calibrations.Add(1)
}

func (m *Metrics) IncrementErrors() {
	m.errors.Add(1)
}

// StreamOpened and StreamClosed track live WebSocket streams.
func (m *Metrics) StreamOpened() {
	m.liveStreams.Add(1)
}

func (m *Metrics) StreamClosed() {
	m.liveStreams.Add(-1)
}

// AvgLatency returns the mean analysis latency in microseconds.
func (m *Metrics) AvgLatency() float64 {
	frames := m.framesAnalyzed.Load()
	if frames == 0 {
		return 0
	}
	return float64(m.totalLatency.Load()) / float64(frames)
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	FramesAnalyzed  int64   `json:"frames_analyzed"`
	SmartAnalyses   int64   `json:"smart_analyses"`
	SmartFallbacks  int64   `json:"smart_fallbacks"`
	Completions     int64   `json:"completions"`
	Calibrations    int64   `json:"calibrations"`
	Errors          int64   `json:"errors"`
	AvgLatencyMicro float64 `json:"avg_latency_us"`
	LastFrameTime   int64   `json:"last_frame_time"`
	LiveStreams     int64   `json:"live_streams"`
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		FramesAnalyzed:  m.framesAnalyzed.Load(),
		SmartAnalyses:   m.smartAnalyses.Load(),
		SmartFallbacks:  m.smartFallbacks.Load(),
		Completions:     m.completions.Load(),
		Calibrations:    m.calibrations.Load(),
		Errors:          m.errors.Load(),
		AvgLatencyMicro: m.AvgLatency(),
		LastFrameTime:   m.lastFrameTime.Load(),
		LiveStreams:     m.liveStreams.Load(),
	}
}
