package domain

import (
	"errors"
	"fmt"
)

// StorageError represents a storage engine error with a structured
// error code. Codes group by subsystem: BACK (backends), CODEC
// (serialization pipeline), CRYPT (encryption), MIG (migrations),
// SNAP (snapshots), ENG (orchestrator).
//
// @req RQ-0104
// @design DS-0104
type StorageError struct {
	Code    string // Error code (e.g., "ST-BACK-5070")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)

	// Progress carries the number of items committed before a bulk
	// operation failed, so callers can retry the remainder. Only
	// meaningful for migration and bulk errors.
	Progress int
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support: two StorageErrors match when
// their codes match.
func (e *StorageError) Is(target error) bool {
	t, ok := target.(*StorageError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewStorageError creates a new StorageError with the given code and message.
func NewStorageError(code, message string) *StorageError {
	return &StorageError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *StorageError) WithDetails(details string) *StorageError {
	clone := *e
	clone.Details = details
	return &clone
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *StorageError) WithCause(cause error) *StorageError {
	clone := *e
	clone.Cause = cause
	return &clone
}

// WithProgress returns a copy of the error carrying a partial-progress count.
func (e *StorageError) WithProgress(n int) *StorageError {
	clone := *e
	clone.Progress = n
	return &clone
}

// ErrorCode extracts the error code from an error if it is a
// StorageError, and "" otherwise.
func ErrorCode(err error) string {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// ============================================================================
// Backend Errors (BACK)
// ============================================================================

var (
	// ErrEntryNotFound indicates the requested key has no live entry.
	// Backends return it for both absent and expired keys; the
	// orchestrator translates it into a no-value result, never an error
	// surfaced to the caller.
	ErrEntryNotFound = NewStorageError("ST-BACK-4040", "entry not found")

	// ErrQuotaExceeded indicates the active backend ran out of capacity.
	// The selector retries the operation against the next lower-priority
	// backend before surfacing it.
	ErrQuotaExceeded = NewStorageError("ST-BACK-5070", "backend quota exceeded")

	// ErrBackendTransient indicates a transient backend failure that is
	// safe to retry on a lower-priority backend.
	ErrBackendTransient = NewStorageError("ST-BACK-5030", "transient backend failure")

	// ErrBackendUnavailable indicates no candidate backend probed as
	// available. Unreachable in practice since the volatile backend is
	// always available, but construction still fails fast on it.
	ErrBackendUnavailable = NewStorageError("ST-BACK-5031", "no storage backend available")
)

// ============================================================================
// Codec Errors (CODEC / CRYPT)
// ============================================================================

var (
	// ErrUnknownStrategy indicates an unregistered serialization or
	// compression strategy name.
	ErrUnknownStrategy = NewStorageError("ST-CODEC-4000", "unknown codec strategy")

	// ErrCorruptPayload indicates a payload that failed to decode
	// (malformed serialization, bad compression frame, unknown value tag).
	ErrCorruptPayload = NewStorageError("ST-CODEC-4220", "corrupt payload")

	// ErrUnsupportedValue indicates a value type the normalizer cannot
	// represent on the wire.
	ErrUnsupportedValue = NewStorageError("ST-CODEC-4001", "unsupported value type")

	// ErrDecryptFailed indicates decryption failed. Kept distinct from
	// ErrCorruptPayload so callers can tell a wrong key from bad data.
	ErrDecryptFailed = NewStorageError("ST-CRYPT-4010", "decryption failed")
)

// ============================================================================
// Migration Errors (MIG)
// ============================================================================

var (
	// ErrMigrationFailed indicates a migration transform failed.
	// Carries Progress for bulk runs.
	ErrMigrationFailed = NewStorageError("ST-MIG-5000", "migration failed")

	// ErrMigrationNotFound indicates no registered step matches the
	// requested (model, fromVersion) pair.
	ErrMigrationNotFound = NewStorageError("ST-MIG-4040", "no migration registered")
)

// ============================================================================
// Snapshot / Orchestrator Errors (SNAP / ENG)
// ============================================================================

var (
	// ErrSnapshotNotFound indicates the named snapshot is not registered.
	ErrSnapshotNotFound = NewStorageError("ST-SNAP-4040", "snapshot not found")

	// ErrValidationFailed indicates the safe-mode validator rejected a
	// write while running in strict mode.
	ErrValidationFailed = NewStorageError("ST-ENG-4001", "write validation failed")

	// ErrEngineClosed indicates the engine has been shut down.
	ErrEngineClosed = NewStorageError("ST-ENG-5001", "engine closed")
)

// IsRecoverable reports whether an error may be retried against a
// lower-priority backend (quota or transient classifications only;
// never hangs, never corrupt payloads).
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrQuotaExceeded) || errors.Is(err, ErrBackendTransient)
}
