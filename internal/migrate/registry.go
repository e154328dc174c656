// Package migrate provides the versioned per-entry migration registry.
//
// Steps are registered per (model, fromVersion) and applied as chains
// of single steps: each hop retags the value with its toVersion and
// the chain continues until no further step is registered or the
// target version is reached. Migration is lazy on stale reads and
// eager on bulk runs; an in-progress set guards against a transform
// recursively re-triggering migration of the same key.
//
// @req RQ-0801
// @design DS-0801
package migrate

import (
	"fmt"
	"strings"
	"sync"

	"github.com/yndnr/strata-go/internal/core/domain"
)

// DefaultModel is the model of keys without a namespace prefix.
const DefaultModel = "default"

// ModelOf derives the model from a key: the prefix before the first
// ':' separator, or DefaultModel when there is none.
func ModelOf(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return DefaultModel
}

// Transform rewrites a decoded value from one version to the next.
type Transform func(value any) (any, error)

// Step is a registered single-version migration.
type Step struct {
	Model       string
	FromVersion int
	ToVersion   int
	Transform   Transform
}

// Registry holds migration chains keyed by (model, fromVersion).
type Registry struct {
	mu    sync.RWMutex
	steps map[string]map[int]Step

	guardMu    sync.Mutex
	inProgress map[string]struct{} // model + "\x00" + key
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		steps:      make(map[string]map[int]Step),
		inProgress: make(map[string]struct{}),
	}
}

// Register adds a single-step transform for (model, fromVersion).
// Steps must move forward and at most one step may exist per slot.
func (r *Registry) Register(model string, fromVersion, toVersion int, transform Transform) error {
	if transform == nil {
		return fmt.Errorf("migrate: nil transform for %s v%d", model, fromVersion)
	}
	if toVersion <= fromVersion {
		return fmt.Errorf("migrate: %s v%d -> v%d does not move forward", model, fromVersion, toVersion)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	byVersion, ok := r.steps[model]
	if !ok {
		byVersion = make(map[int]Step)
		r.steps[model] = byVersion
	}
	if _, dup := byVersion[fromVersion]; dup {
		return fmt.Errorf("migrate: duplicate step for %s v%d", model, fromVersion)
	}

	byVersion[fromVersion] = Step{
		Model:       model,
		FromVersion: fromVersion,
		ToVersion:   toVersion,
		Transform:   transform,
	}
	return nil
}

// LatestVersion returns the highest version reachable for model, or 0
// when no steps are registered.
func (r *Registry) LatestVersion(model string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	latest := 0
	for _, step := range r.steps[model] {
		if step.ToVersion > latest {
			latest = step.ToVersion
		}
	}
	return latest
}

// HasSteps reports whether any step is registered for model.
func (r *Registry) HasSteps(model string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.steps[model]) > 0
}

// Apply migrates value from fromVersion toward targetVersion, one
// registered step at a time. It stops when the target is reached or no
// further step exists; applying to already-current data is a no-op.
// Returns the migrated value and the version it ended at.
func (r *Registry) Apply(model string, value any, fromVersion, targetVersion int) (any, int, error) {
	version := fromVersion

	for version < targetVersion {
		r.mu.RLock()
		step, ok := r.steps[model][version]
		r.mu.RUnlock()

		if !ok {
			break
		}

		next, err := step.Transform(value)
		if err != nil {
			return nil, version, domain.ErrMigrationFailed.
				WithDetails(fmt.Sprintf("%s v%d -> v%d", model, step.FromVersion, step.ToVersion)).
				WithCause(err)
		}
		value = next
		version = step.ToVersion
	}

	return value, version, nil
}

// Begin marks (model, key) as migrating. Returns false when a
// migration of that key is already in flight, which means a transform
// is recursively re-triggering itself and must not recurse.
func (r *Registry) Begin(model, key string) bool {
	id := model + "\x00" + key

	r.guardMu.Lock()
	defer r.guardMu.Unlock()

	if _, busy := r.inProgress[id]; busy {
		return false
	}
	r.inProgress[id] = struct{}{}
	return true
}

// End clears the in-progress mark for (model, key).
func (r *Registry) End(model, key string) {
	r.guardMu.Lock()
	delete(r.inProgress, model+"\x00"+key)
	r.guardMu.Unlock()
}
