// Package storetest holds behavior tests every aggregate.Store must pass.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pnl-ledger/aggregate"
)

// Factory returns two stores over the same backend, scoped to collections
// a and b.
type Factory func(t *testing.T, a, b string) (aggregate.Store, aggregate.Store)

// Run exercises Get/Put semantics against stores built by newStores.
func Run(t *testing.T, newStores Factory) {
	ctx := context.Background()

	t.Run("absent record", func(t *testing.T) {
		s, _ := newStores(t, "a", "b")

		rec, ok, err := s.Get(ctx, "francis.near")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, rec)
	})

	t.Run("put then get", func(t *testing.T) {
		s, _ := newStores(t, "a", "b")

		require.NoError(t, s.Put(ctx, "bob_near", "howdy"))

		rec, ok, err := s.Get(ctx, "bob_near")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, aggregate.Record("howdy"), rec)
	})

	t.Run("put overwrites", func(t *testing.T) {
		s, _ := newStores(t, "a", "b")

		require.NoError(t, s.Put(ctx, "bob_near", "20"))
		require.NoError(t, s.Put(ctx, "bob_near", "15"))

		rec, _, err := s.Get(ctx, "bob_near")
		require.NoError(t, err)
		assert.Equal(t, aggregate.Record("15"), rec)
	})

	t.Run("empty record is present", func(t *testing.T) {
		s, _ := newStores(t, "a", "b")

		require.NoError(t, s.Put(ctx, "bob_near", ""))

		_, ok, err := s.Get(ctx, "bob_near")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("accounts are isolated", func(t *testing.T) {
		s, _ := newStores(t, "a", "b")

		require.NoError(t, s.Put(ctx, "alice", "1"))
		require.NoError(t, s.Put(ctx, "bob", "2"))

		rec, _, err := s.Get(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, aggregate.Record("1"), rec)
	})

	t.Run("collections are isolated", func(t *testing.T) {
		a, b := newStores(t, "a", "b")

		require.NoError(t, a.Put(ctx, "bob_near", "from-a"))

		_, ok, err := b.Get(ctx, "bob_near")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, b.Put(ctx, "bob_near", "from-b"))
		rec, _, err := a.Get(ctx, "bob_near")
		require.NoError(t, err)
		assert.Equal(t, aggregate.Record("from-a"), rec)
	})

	t.Run("unicode account and value", func(t *testing.T) {
		s, _ := newStores(t, "a", "b")

		require.NoError(t, s.Put(ctx, "ünïcödé.near", "héllo 🌍"))

		rec, ok, err := s.Get(ctx, "ünïcödé.near")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, aggregate.Record("héllo 🌍"), rec)
	})
}
