package httpfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const page = `<!doctype html>
<html><head><title>Home</title></head>
<body>
  <a href="/about">About</a>
  <a href="team?b=2&a=1#top">Team</a>
  <a href="https://external.example/x">External</a>
  <a href="mailto:hello@example.com">Mail</a>
  <a href="http://[::1">Broken</a>
  <a>No href</a>
</body></html>`

func TestExtractLinks(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	e := NewLinkExtractor(srv.Client(), time.Second, "a11y-test/1.0", zap.NewNop())
	links := e.ExtractLinks(context.Background(), srv.URL+"/docs/")

	assert.Equal(t, "a11y-test/1.0", gotUA)
	assert.Equal(t, []string{
		srv.URL + "/about",
		srv.URL + "/docs/team?b=2&a=1#top",
		"https://external.example/x",
		"mailto:hello@example.com",
	}, links)
}

func TestExtractLinksHonoursBaseElement(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><base href="/root/"></head><body><a href="child">c</a></body></html>`))
	}))
	defer srv.Close()

	e := NewLinkExtractor(srv.Client(), time.Second, "ua", zap.NewNop())
	assert.Equal(t, []string{srv.URL + "/root/child"}, e.ExtractLinks(context.Background(), srv.URL+"/x/y"))
}

func TestExtractLinksFailuresYieldEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/slow":
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(page))
		case "/image":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
		}
	}))
	defer srv.Close()

	e := NewLinkExtractor(srv.Client(), 50*time.Millisecond, "ua", zap.NewNop())
	ctx := context.Background()

	assert.Empty(t, e.ExtractLinks(ctx, srv.URL+"/missing"))
	assert.Empty(t, e.ExtractLinks(ctx, srv.URL+"/slow"))
	assert.Empty(t, e.ExtractLinks(ctx, srv.URL+"/image"))
	assert.Empty(t, e.ExtractLinks(ctx, "http://127.0.0.1:1/unreachable"))
	assert.NotNil(t, e.ExtractLinks(ctx, "::bad"))
}

type memCache struct {
	data map[string][]string
	sets int
}

func (m *memCache) Get(_ context.Context, origin string) ([]string, bool, error) {
	v, ok := m.data[origin]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, origin string, disallows []string) error {
	m.data[origin] = disallows
	m.sets++
	return nil
}

func TestRobotsChecker(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n"))
	}))
	defer srv.Close()

	cache := &memCache{data: map[string][]string{}}
	c := NewRobotsChecker(srv.Client(), time.Second, "ua", cache, zap.NewNop())
	ctx := context.Background()

	assert.False(t, c.Allowed(ctx, srv.URL+"/private/page"))
	assert.True(t, c.Allowed(ctx, srv.URL+"/public"))
	assert.True(t, c.Allowed(ctx, srv.URL+"/"))

	// Rules are fetched once, then served from the cache.
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, 1, cache.sets)
}

func TestRobotsCheckerFailsOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cache := &memCache{data: map[string][]string{}}
	c := NewRobotsChecker(srv.Client(), time.Second, "ua", cache, zap.NewNop())
	ctx := context.Background()

	assert.True(t, c.Allowed(ctx, srv.URL+"/private"))
	assert.Zero(t, cache.sets, "failures are not cached")

	unreachable := NewRobotsChecker(nil, 50*time.Millisecond, "ua", nil, zap.NewNop())
	assert.True(t, unreachable.Allowed(ctx, "http://127.0.0.1:1/anything"))
	assert.True(t, unreachable.Allowed(ctx, "not a url"))
}
