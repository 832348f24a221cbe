package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSetGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", `{"a":1}`, time.Minute))
	val, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"a":1}`, val)

	require.NoError(t, store.Delete(ctx, "k"))
	_, ok, _ = store.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, "k", "v", 10*time.Millisecond))
	time.Sleep(25 * time.Millisecond)

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreDeletePattern(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, "admin:orders:list:1:20", "a", 0))
	require.NoError(t, store.Set(ctx, "admin:orders:detail:7", "b", 0))
	require.NoError(t, store.Set(ctx, "admin:products:list:1:20", "c", 0))

	require.NoError(t, store.DeletePattern(ctx, "admin:orders:*"))

	_, ok, _ := store.Get(ctx, "admin:orders:list:1:20")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "admin:orders:detail:7")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "admin:products:list:1:20")
	assert.True(t, ok)
}
