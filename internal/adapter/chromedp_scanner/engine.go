package chromedp_scanner

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
)

// engineSource loads the axe-core script once, from a file or a URL, and
// keeps it for every later scan. A failed load is retried on the next call.
type engineSource struct {
	path   string
	url    string
	client *http.Client

	mu  sync.Mutex
	src string
}

func (e *engineSource) load(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.src != "" {
		return e.src, nil
	}

	var src string
	var err error
	switch {
	case e.path != "":
		src, err = e.readFile()
	case e.url != "":
		src, err = e.download(ctx)
	default:
		err = fmt.Errorf("no axe-core source configured")
	}
	if err != nil {
		return "", err
	}
	e.src = src
	return src, nil
}

func (e *engineSource) readFile() (string, error) {
	b, err := os.ReadFile(e.path)
	if err != nil {
		return "", err
	}
	if len(b) == 0 {
		return "", fmt.Errorf("axe-core source %s is empty", e.path)
	}
	return string(b), nil
}

func (e *engineSource) download(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.url, nil)
	if err != nil {
		return "", err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GET %s: unexpected status %d", e.url, resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if len(b) == 0 {
		return "", fmt.Errorf("axe-core source %s is empty", e.url)
	}
	return string(b), nil
}
