package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/user/a11y-crawler/pkg/urlutil"
)

const robotsKeyPrefix = "a11y:robots:"

// RobotsCacheImpl keeps parsed robots rules per origin with a TTL.
type RobotsCacheImpl struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRobotsCache creates a new instance of RobotsCacheImpl.
func NewRobotsCache(client *redis.Client, ttl time.Duration) *RobotsCacheImpl {
	return &RobotsCacheImpl{client: client, ttl: ttl}
}

// generateKey hashes the origin so the key is always safe for Redis.
func (r *RobotsCacheImpl) generateKey(origin string) string {
	return fmt.Sprintf("%s%s", robotsKeyPrefix, urlutil.HashURL(origin))
}

func (r *RobotsCacheImpl) Get(ctx context.Context, origin string) ([]string, bool, error) {
	val, err := r.client.Get(ctx, r.generateKey(origin)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var disallows []string
	if err := json.Unmarshal(val, &disallows); err != nil {
		return nil, false, err
	}
	return disallows, true, nil
}

func (r *RobotsCacheImpl) Set(ctx context.Context, origin string, disallows []string) error {
	if disallows == nil {
		disallows = []string{}
	}
	payload, err := json.Marshal(disallows)
	if err != nil {
		return err
	}
	return r.client.SetEx(ctx, r.generateKey(origin), payload, r.ttl).Err()
}
