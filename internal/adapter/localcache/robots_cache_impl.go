// Package localcache holds in-process caches used when Redis is not available.
package localcache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/allegro/bigcache/v3"
)

// RobotsCacheImpl implements repository.RobotsCache on top of bigcache.
// Entries expire after the configured life window.
type RobotsCacheImpl struct {
	cache *bigcache.BigCache
}

// NewRobotsCache creates a cache whose entries live for ttl.
func NewRobotsCache(ctx context.Context, ttl time.Duration) (*RobotsCacheImpl, error) {
	cfg := bigcache.DefaultConfig(ttl)
	cfg.Shards = 64
	cfg.MaxEntriesInWindow = 10 * 1024
	cfg.MaxEntrySize = 1024
	cfg.HardMaxCacheSize = 64 // MB
	cfg.Verbose = false

	cache, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &RobotsCacheImpl{cache: cache}, nil
}

func (r *RobotsCacheImpl) Get(_ context.Context, origin string) ([]string, bool, error) {
	val, err := r.cache.Get(origin)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
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

func (r *RobotsCacheImpl) Set(_ context.Context, origin string, disallows []string) error {
	if disallows == nil {
		disallows = []string{}
	}
	payload, err := json.Marshal(disallows)
	if err != nil {
		return err
	}
	return r.cache.Set(origin, payload)
}

// Close stops the background cleaner.
func (r *RobotsCacheImpl) Close() error {
	return r.cache.Close()
}
