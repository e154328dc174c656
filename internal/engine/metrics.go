package engine

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// ErrorRecord is one captured operation failure.
type ErrorRecord struct {
	Op        string    `json:"op"`
	Code      string    `json:"code,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// MetricsState is a point-in-time copy of the engine counters.
type MetricsState struct {
	Reads    uint64 `json:"reads"`
	Writes   uint64 `json:"writes"`
	Deletes  uint64 `json:"deletes"`
	CacheHit uint64 `json:"cacheHits"`

	// Mean latencies over the retained sample window. Zero when no
	// samples have been recorded.
	MeanReadLatency  time.Duration `json:"meanReadLatency"`
	MeanWriteLatency time.Duration `json:"meanWriteLatency"`

	Errors []ErrorRecord `json:"errors"`
}

// metrics accumulates counters and bounded latency sample windows.
type metrics struct {
	mu    sync.Mutex
	clock clock.Clock

	reads    uint64
	writes   uint64
	deletes  uint64
	cacheHit uint64

	readSamples  []time.Duration
	writeSamples []time.Duration
	errors       []ErrorRecord
}

const (
	maxLatencySamples = 1024
	maxErrorRecords   = 256
)

func newMetrics(clk clock.Clock) *metrics {
	return &metrics{clock: clk}
}

func (m *metrics) recordRead(d time.Duration, cacheHit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if cacheHit {
		m.cacheHit++
	}
	m.readSamples = appendSample(m.readSamples, d)
}

func (m *metrics) recordWrite(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	m.writeSamples = appendSample(m.writeSamples, d)
}

func (m *metrics) recordDelete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
}

func (m *metrics) recordError(op, code string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, ErrorRecord{
		Op:        op,
		Code:      code,
		Message:   err.Error(),
		Timestamp: m.clock.Now().UTC(),
	})
	if len(m.errors) > maxErrorRecords {
		m.errors = m.errors[len(m.errors)-maxErrorRecords:]
	}
}

// state copies the counters out. Mean latency is 0 when the respective
// sample window is empty, never NaN.
func (m *metrics) state() MetricsState {
	m.mu.Lock()
	defer m.mu.Unlock()

	errs := make([]ErrorRecord, len(m.errors))
	copy(errs, m.errors)

	return MetricsState{
		Reads:            m.reads,
		Writes:           m.writes,
		Deletes:          m.deletes,
		CacheHit:         m.cacheHit,
		MeanReadLatency:  mean(m.readSamples),
		MeanWriteLatency: mean(m.writeSamples),
		Errors:           errs,
	}
}

func appendSample(window []time.Duration, d time.Duration) []time.Duration {
	window = append(window, d)
	if len(window) > maxLatencySamples {
		window = window[len(window)-maxLatencySamples:]
	}
	return window
}

func mean(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	var sum time.Duration
	for _, s := range samples {
		sum += s
	}
	return sum / time.Duration(len(samples))
}
