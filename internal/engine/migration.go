package engine

import (
	"context"
	"errors"

	"github.com/yndnr/strata-go/internal/core/domain"
	"github.com/yndnr/strata-go/internal/migrate"
	"github.com/yndnr/strata-go/internal/storage"
)

// RegisterMigration registers a forward transform for model from
// fromVersion to toVersion. Entries of the model lagging the latest
// registered version are upgraded lazily on read; MigrateAll upgrades
// them eagerly.
func (e *Engine) RegisterMigration(model string, fromVersion, toVersion int, transform migrate.Transform) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.migrations.Register(model, fromVersion, toVersion, transform); err != nil {
		return err
	}
	// Cached values decoded before registration would bypass the lazy
	// upgrade, so the read cache starts over.
	if e.cache != nil {
		e.cache.Purge()
	}
	return nil
}

// MigrateAll eagerly upgrades every lagging entry of model to the
// latest registered version and reports how many entries were
// upgraded. On failure the error carries the number of entries
// upgraded before it; those upgrades stay committed.
func (e *Engine) MigrateAll(ctx context.Context, model string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0, domain.ErrEngineClosed
	}

	latest := e.migrations.LatestVersion(model)
	if latest == 0 {
		return 0, domain.ErrMigrationNotFound.WithDetails(model)
	}

	keys, err := e.keysLocked(ctx)
	if err != nil {
		return 0, e.fail("migrate", "", err)
	}

	migrated := 0
	for _, key := range keys {
		if migrate.ModelOf(key) != model {
			continue
		}
		upgraded, merr := e.migrateKeyLocked(ctx, key, model, latest)
		if merr != nil {
			var serr *domain.StorageError
			if errors.As(merr, &serr) {
				merr = serr.WithProgress(migrated)
			}
			return migrated, e.fail("migrate", key, merr)
		}
		if upgraded {
			migrated++
		}
	}

	if migrated > 0 {
		e.audit.append("migrate", model, migrated)
		e.logger.Info("bulk migration complete", "model", model, "migrated", migrated, "to", latest)
	}
	return migrated, nil
}

// migrateKeyLocked upgrades one entry if it lags latest. Entries that
// disappear mid-scan are skipped.
func (e *Engine) migrateKeyLocked(ctx context.Context, key, model string, latest int) (bool, error) {
	storeKey := e.storageKey(key)

	var entry *domain.Entry
	err := e.do(ctx, func(b storage.Backend) error {
		var rerr error
		entry, rerr = b.Read(ctx, storeKey)
		return rerr
	})
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if entry.Version >= latest {
		return false, nil
	}

	value, err := e.pipeline.Decode(entry.Value)
	if err != nil {
		return false, err
	}

	if !e.migrations.Begin(model, key) {
		return false, nil
	}
	defer e.migrations.End(model, key)

	migrated, newVersion, err := e.migrations.Apply(model, value, entry.Version, latest)
	if err != nil {
		return false, err
	}

	payload, err := e.pipeline.Encode(migrated)
	if err != nil {
		return false, err
	}
	upgraded := entry.Clone()
	upgraded.Value = payload
	upgraded.Version = newVersion

	err = e.do(ctx, func(b storage.Backend) error {
		return b.BulkImport(ctx, map[string]*domain.Entry{storeKey: upgraded})
	})
	if err != nil {
		return false, err
	}

	if e.cache != nil {
		e.cache.Invalidate(key)
	}
	return true, nil
}
