/*
store.go - Persistence interface for aggregate records

PURPOSE:
  Defines the boundary between the ledger and durable storage. A Store is
  a plain key-value map from AccountID to Record inside one collection.
  It knows nothing about policies or value types.

CONTRACT:
  - Get(): returns the record or absence. No side effects.
  - Put(): creates or overwrites the record. Durable once it returns nil.
  - NO Delete(), NO iteration, NO batch writes.

NAMESPACE:
  Every record lives under one collection prefix (DefaultCollection unless
  configured otherwise). Implementations must keep keys of different
  accounts from colliding within that prefix.

IMPLEMENTATIONS:
  - aggregate/store/memory.go: In-memory for testing and dev
  - store/sqlite:              SQLite
  - store/postgres:            PostgreSQL
  - store/redis:               Redis hash per collection
*/
package aggregate

import "context"

// Store persists one Record per account.
type Store interface {
	// Get returns the record for account. ok is false when none exists.
	Get(ctx context.Context, account AccountID) (rec Record, ok bool, err error)

	// Put unconditionally writes the record for account.
	Put(ctx context.Context, account AccountID, rec Record) error
}
