package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "page:nft", "view", 60))
	require.NoError(t, c.Set(ctx, "page:drops", "view", 5))

	v, ok := c.Get(ctx, "page:nft")
	require.True(t, ok)
	assert.Equal(t, "view", v)

	now = now.Add(10 * time.Second)
	_, ok = c.Get(ctx, "page:drops")
	assert.False(t, ok, "expired entries are not served")
	assert.Equal(t, 1, c.Evict())
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete(ctx, "page:nft"))
	_, ok = c.Get(ctx, "page:nft")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "a", 1, 60))
	require.NoError(t, c.Clear(ctx))
	assert.Zero(t, c.Len())
}

func TestInMemoryCache_RunStopsWithContext(t *testing.T) {
	c := NewInMemoryCache()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
