package redis

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/user/a11y-crawler/internal/repository"
)

const crawlQueueKey = "a11y:crawl_queue"

// CrawlQueueImpl implements repository.CrawlQueue using a Redis list.
type CrawlQueueImpl struct {
	client *redis.Client
}

// NewCrawlQueue creates a new instance of CrawlQueueImpl.
func NewCrawlQueue(client *redis.Client) *CrawlQueueImpl {
	return &CrawlQueueImpl{client: client}
}

// Push adds a crawl id to the left side of the list.
func (r *CrawlQueueImpl) Push(ctx context.Context, crawlID int64) error {
	return r.client.LPush(ctx, crawlQueueKey, crawlID).Err()
}

// Pop takes from the right side of the list, so ids come out in push order.
func (r *CrawlQueueImpl) Pop(ctx context.Context) (int64, error) {
	val, err := r.client.RPop(ctx, crawlQueueKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, repository.ErrQueueEmpty
	}
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Size returns the current number of items in the queue.
func (r *CrawlQueueImpl) Size(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, crawlQueueKey).Result()
}
