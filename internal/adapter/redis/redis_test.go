package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/a11y-crawler/internal/repository"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestCrawlQueueIsFIFO(t *testing.T) {
	_, client := newTestClient(t)
	q := NewCrawlQueue(client)
	ctx := context.Background()

	for _, id := range []int64{7, 3, 9} {
		require.NoError(t, q.Push(ctx, id))
	}
	size, err := q.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), size)

	for _, want := range []int64{7, 3, 9} {
		got, err := q.Pop(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err = q.Pop(ctx)
	assert.ErrorIs(t, err, repository.ErrQueueEmpty)
}

func TestCrawlQueueRejectsGarbage(t *testing.T) {
	mr, client := newTestClient(t)
	q := NewCrawlQueue(client)

	_, err := mr.Lpush(crawlQueueKey, "not-a-number")
	require.NoError(t, err)

	_, err = q.Pop(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrQueueEmpty)
}

func TestRobotsCache(t *testing.T) {
	mr, client := newTestClient(t)
	cache := NewRobotsCache(client, time.Minute)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "https://example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "https://example.com", []string{"/private", "/tmp"}))
	rules, ok, err := cache.Get(ctx, "https://example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"/private", "/tmp"}, rules)

	// An origin with no rules is still a cache hit.
	require.NoError(t, cache.Set(ctx, "https://open.example", nil))
	rules, ok, err = cache.Get(ctx, "https://open.example")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, rules)

	mr.FastForward(2 * time.Minute)
	_, ok, err = cache.Get(ctx, "https://example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}
