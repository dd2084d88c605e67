package localcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRobotsCache(t *testing.T) {
	ctx := context.Background()
	cache, err := NewRobotsCache(ctx, time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	_, ok, err := cache.Get(ctx, "https://example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "https://example.com", []string{"/private"}))
	rules, ok, err := cache.Get(ctx, "https://example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"/private"}, rules)

	require.NoError(t, cache.Set(ctx, "https://open.example", nil))
	rules, ok, err = cache.Get(ctx, "https://open.example")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, rules)
}
