package httpfetch

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/user/a11y-crawler/internal/repository"
	"github.com/user/a11y-crawler/pkg/robots"
	"github.com/user/a11y-crawler/pkg/urlutil"
	"go.uber.org/zap"
)

// maxRobotsBytes caps how much of a robots.txt file is read.
const maxRobotsBytes = 512 << 10

// RobotsChecker answers robots.txt questions for any origin. It fails open:
// when the file cannot be fetched, everything is allowed. Only successful
// fetches are cached.
type RobotsChecker struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	cache     repository.RobotsCache
	logger    *zap.Logger
}

// NewRobotsChecker creates a RobotsChecker. cache may be nil.
func NewRobotsChecker(client *http.Client, timeout time.Duration, userAgent string, cache repository.RobotsCache, logger *zap.Logger) *RobotsChecker {
	if client == nil {
		client = http.DefaultClient
	}
	return &RobotsChecker{
		client:    client,
		timeout:   timeout,
		userAgent: userAgent,
		cache:     cache,
		logger:    logger,
	}
}

// Allowed reports whether rawURL may be visited according to its origin's robots.txt.
func (c *RobotsChecker) Allowed(ctx context.Context, rawURL string) bool {
	origin, err := urlutil.Origin(rawURL)
	if err != nil {
		return true
	}
	rules, ok := c.rules(ctx, origin)
	if !ok {
		return true
	}
	return robots.Allowed(rules, urlutil.RequestPath(rawURL))
}

func (c *RobotsChecker) rules(ctx context.Context, origin string) ([]string, bool) {
	if c.cache != nil {
		rules, ok, err := c.cache.Get(ctx, origin)
		if err != nil {
			c.logger.Warn("robots cache read failed", zap.String("origin", origin), zap.Error(err))
		} else if ok {
			return rules, true
		}
	}

	rules, err := c.fetch(ctx, origin)
	if err != nil {
		c.logger.Debug("robots.txt unavailable, allowing", zap.String("origin", origin), zap.Error(err))
		return nil, false
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, origin, rules); err != nil {
			c.logger.Warn("robots cache write failed", zap.String("origin", origin), zap.Error(err))
		}
	}
	return rules, true
}

func (c *RobotsChecker) fetch(ctx context.Context, origin string) ([]string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	robotsURL := origin + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: robotsURL, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	if err != nil {
		return nil, err
	}
	return robots.ParseDisallows(string(body)), nil
}
