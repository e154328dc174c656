package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/yndnr/strata-go/internal/core/domain"
	"github.com/yndnr/strata-go/internal/storage"
)

// BenchmarkReport summarizes a synthetic workload run.
type BenchmarkReport struct {
	Backend    string        `json:"backend"`
	Ops        int           `json:"ops"`
	WriteTotal time.Duration `json:"writeTotal"`
	ReadTotal  time.Duration `json:"readTotal"`
	MeanWrite  time.Duration `json:"meanWrite"`
	MeanRead   time.Duration `json:"meanRead"`
}

// WritesPerSecond derives write throughput from the run.
func (r *BenchmarkReport) WritesPerSecond() float64 {
	if r.WriteTotal <= 0 {
		return 0
	}
	return float64(r.Ops) / r.WriteTotal.Seconds()
}

// ReadsPerSecond derives read throughput from the run.
func (r *BenchmarkReport) ReadsPerSecond() float64 {
	if r.ReadTotal <= 0 {
		return 0
	}
	return float64(r.Ops) / r.ReadTotal.Seconds()
}

// Benchmark runs ops writes followed by ops reads against the active
// backend through the full pipeline, then removes the probe keys. The
// probe traffic bypasses hooks, events, sync and the read cache so the
// numbers measure the storage path, not the listeners.
func (e *Engine) Benchmark(ctx context.Context, ops int) (*BenchmarkReport, error) {
	if ops <= 0 {
		ops = 100
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, domain.ErrEngineClosed
	}

	keys := make([]string, ops)
	for i := range keys {
		keys[i] = fmt.Sprintf("bench:probe-%04d", i)
	}
	value := map[string]any{
		"seq":     0,
		"label":   "benchmark probe",
		"flags":   []any{true, false, true},
		"payload": "0123456789abcdef0123456789abcdef",
	}

	payload, err := e.pipeline.Encode(value)
	if err != nil {
		return nil, err
	}

	report := &BenchmarkReport{Backend: e.selector.ActiveName(), Ops: ops}

	start := time.Now()
	for _, key := range keys {
		storeKey := e.storageKey(key)
		err := e.do(ctx, func(b storage.Backend) error {
			_, werr := b.Write(ctx, storeKey, payload, storage.WriteOptions{})
			return werr
		})
		if err != nil {
			e.benchCleanup(ctx, keys)
			return nil, e.fail("benchmark", key, err)
		}
	}
	report.WriteTotal = time.Since(start)

	start = time.Now()
	for _, key := range keys {
		storeKey := e.storageKey(key)
		err := e.do(ctx, func(b storage.Backend) error {
			entry, rerr := b.Read(ctx, storeKey)
			if rerr != nil {
				return rerr
			}
			_, derr := e.pipeline.Decode(entry.Value)
			return derr
		})
		if err != nil {
			e.benchCleanup(ctx, keys)
			return nil, e.fail("benchmark", key, err)
		}
	}
	report.ReadTotal = time.Since(start)

	e.benchCleanup(ctx, keys)

	report.MeanWrite = report.WriteTotal / time.Duration(ops)
	report.MeanRead = report.ReadTotal / time.Duration(ops)
	return report, nil
}

// benchCleanup removes probe keys best-effort.
func (e *Engine) benchCleanup(ctx context.Context, keys []string) {
	for _, key := range keys {
		storeKey := e.storageKey(key)
		_ = e.do(ctx, func(b storage.Backend) error {
			return b.Remove(ctx, storeKey)
		})
	}
}
