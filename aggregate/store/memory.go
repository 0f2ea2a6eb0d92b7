// Package store provides Store implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/pnl-ledger/aggregate"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	collection string
	records    map[key]aggregate.Record
}

type key struct {
	Collection string
	Account    aggregate.AccountID
}

// NewMemory returns an empty store for the given collection.
// An empty collection means aggregate.DefaultCollection.
func NewMemory(collection string) *Memory {
	if collection == "" {
		collection = aggregate.DefaultCollection
	}
	return &Memory{
		collection: collection,
		records:    make(map[key]aggregate.Record),
	}
}

func (m *Memory) Get(_ context.Context, account aggregate.AccountID) (aggregate.Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[key{Collection: m.collection, Account: account}]
	return rec, ok, nil
}

// Put overwrites. There is no Delete.
func (m *Memory) Put(_ context.Context, account aggregate.AccountID, rec aggregate.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[key{Collection: m.collection, Account: account}] = rec
	return nil
}

// Len returns the number of stored records. Test helper; not part of
// aggregate.Store.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// =============================================================================
// FAILING STORE - Wraps a Store and fails on demand (for testing)
// =============================================================================

// Failing delegates to Inner unless FailGet/FailPut is set.
type Failing struct {
	Inner   aggregate.Store
	FailGet error
	FailPut error
}

func (f *Failing) Get(ctx context.Context, account aggregate.AccountID) (aggregate.Record, bool, error) {
	if f.FailGet != nil {
		return "", false, f.FailGet
	}
	return f.Inner.Get(ctx, account)
}

func (f *Failing) Put(ctx context.Context, account aggregate.AccountID, rec aggregate.Record) error {
	if f.FailPut != nil {
		return f.FailPut
	}
	return f.Inner.Put(ctx, account, rec)
}

var (
	_ aggregate.Store = (*Memory)(nil)
	_ aggregate.Store = (*Failing)(nil)
)
