package session

import "context"

// Store persists records across runs. Implementations must replace a record
// atomically and must tolerate being deleted out from under the manager.
type Store interface {
	// Load returns every readable record. Unreadable entries are reported
	// through a *CacheCorruptionError alongside the records that did load.
	Load(ctx context.Context) ([]Record, error)

	// Save creates or replaces the record for rec.Key
	Save(ctx context.Context, rec Record) error

	// Delete removes the record for key; a missing record is not an error
	Delete(ctx context.Context, key string) error

	// Clear removes every record
	Clear(ctx context.Context) error
}
