package storage

import (
	"context"
	"log/slog"
	"sync"

	"github.com/yndnr/strata-go/internal/core/domain"
)

// Selector owns backend selection and fallback.
//
// Candidates are ordered by priority. At construction every candidate
// is probed and the first available one is opened and becomes active.
// When an operation fails with a recoverable (quota/transient) error,
// the selector falls back to the next available candidate, carries
// existing data best-effort, and retries; only exhausting every
// candidate surfaces the failure.
type Selector struct {
	mu         sync.Mutex
	candidates []Backend
	active     int // index into candidates
	logger     *slog.Logger
}

// NewSelector probes candidates in priority order and activates the
// first available one. The volatile backend is always available, so
// total unavailability is unreachable in practice, but it still fails
// fast with ErrBackendUnavailable.
func NewSelector(ctx context.Context, logger *slog.Logger, candidates ...Backend) (*Selector, error) {
	if logger == nil {
		logger = slog.Default()
	}

	for i, c := range candidates {
		if !c.ProbeAvailable() {
			logger.Info("backend unavailable, trying next candidate", "backend", c.Name())
			continue
		}
		if err := c.Open(ctx); err != nil {
			// Probe said available but open failed; treat like an
			// unavailable candidate and fall through.
			logger.Warn("backend open failed, trying next candidate",
				"backend", c.Name(),
				"error", err)
			continue
		}

		logger.Info("backend selected", "backend", c.Name(), "priority", i)
		return &Selector{candidates: candidates, active: i, logger: logger}, nil
	}

	return nil, domain.ErrBackendUnavailable
}

// Active returns the currently active backend.
func (s *Selector) Active() Backend {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.candidates[s.active]
}

// ActiveName returns the active backend's name.
func (s *Selector) ActiveName() string {
	return s.Active().Name()
}

// Do runs op against the active backend, falling back on recoverable
// errors until a candidate succeeds or all are exhausted.
func (s *Selector) Do(ctx context.Context, op func(Backend) error) error {
	for {
		backend := s.Active()

		err := op(backend)
		if err == nil || !domain.IsRecoverable(err) {
			return err
		}

		if !s.fallback(ctx, backend, err) {
			return err
		}
	}
}

// fallback advances to the next available candidate below the current
// active backend. Returns false when no candidate is left.
func (s *Selector) fallback(ctx context.Context, failed Backend, cause error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have already moved on.
	if s.candidates[s.active] != failed {
		return true
	}

	for next := s.active + 1; next < len(s.candidates); next++ {
		candidate := s.candidates[next]
		if !candidate.ProbeAvailable() {
			continue
		}
		if err := candidate.Open(ctx); err != nil {
			s.logger.Warn("fallback open failed",
				"backend", candidate.Name(),
				"error", err)
			continue
		}

		s.logger.Warn("backend fallback",
			"from", failed.Name(),
			"to", candidate.Name(),
			"cause", cause)

		s.carryData(ctx, failed, candidate)
		s.active = next
		return true
	}

	return false
}

// carryData copies entries from the failed backend into its
// replacement, verifying each copy before deleting the source entry.
// Best-effort: a failed copy is logged and skipped, never fatal.
func (s *Selector) carryData(ctx context.Context, from, to Backend) {
	entries, err := from.ExportAll(ctx)
	if err != nil {
		s.logger.Warn("fallback data carry skipped: export failed", "error", err)
		return
	}

	carried := 0
	for key, entry := range entries {
		if err := to.BulkImport(ctx, map[string]*domain.Entry{key: entry}); err != nil {
			s.logger.Warn("fallback carry failed for key", "key", key, "error", err)
			continue
		}
		// Verify before removing the source copy.
		got, err := to.Read(ctx, key)
		if err != nil || string(got.Value) != string(entry.Value) {
			s.logger.Warn("fallback carry verification failed", "key", key)
			continue
		}
		if err := from.Remove(ctx, key); err != nil {
			s.logger.Debug("fallback source cleanup failed", "key", key, "error", err)
		}
		carried++
	}

	s.logger.Info("fallback data carry complete",
		"carried", carried,
		"total", len(entries))
}

// Close closes every opened candidate.
func (s *Selector) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for i := 0; i <= s.active && i < len(s.candidates); i++ {
		if err := s.candidates[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
