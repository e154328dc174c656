package engine

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/oklog/ulid/v2"
)

// AuditRecord describes one committed mutation. Records are appended
// post-commit only; vetoed and failed operations leave no trace here.
type AuditRecord struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"` // "write", "delete", "clear", "import"
	Key       string    `json:"key,omitempty"`
	Size      int       `json:"size"` // encoded payload bytes, 0 when not applicable
	Timestamp time.Time `json:"timestamp"`
}

// auditLog is an append-only in-memory trail bounded at maxAuditRecords
// entries; the oldest records are dropped first.
type auditLog struct {
	mu      sync.Mutex
	clock   clock.Clock
	records []AuditRecord
}

const maxAuditRecords = 4096

func newAuditLog(clk clock.Clock) *auditLog {
	return &auditLog{clock: clk}
}

func (a *auditLog) append(action, key string, size int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.records = append(a.records, AuditRecord{
		ID:        ulid.Make().String(),
		Action:    action,
		Key:       key,
		Size:      size,
		Timestamp: a.clock.Now().UTC(),
	})
	if len(a.records) > maxAuditRecords {
		a.records = a.records[len(a.records)-maxAuditRecords:]
	}
}

// snapshot returns a copy of the trail, oldest first.
func (a *auditLog) snapshot() []AuditRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]AuditRecord, len(a.records))
	copy(out, a.records)
	return out
}
