package httpfetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/a11y-crawler/pkg/urlutil"
	"go.uber.org/zap"
)

// maxBodyBytes caps how much markup is read from a single page.
const maxBodyBytes = 5 << 20

// LinkExtractor fetches raw markup without rendering it and lists the anchors.
type LinkExtractor struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	logger    *zap.Logger
}

// NewLinkExtractor creates a LinkExtractor. A nil client uses http.DefaultClient.
func NewLinkExtractor(client *http.Client, timeout time.Duration, userAgent string, logger *zap.Logger) *LinkExtractor {
	if client == nil {
		client = http.DefaultClient
	}
	return &LinkExtractor{client: client, timeout: timeout, userAgent: userAgent, logger: logger}
}

// ExtractLinks returns the absolute form of every a[href] on pageURL. Any
// failure is logged and produces an empty list.
func (e *LinkExtractor) ExtractLinks(ctx context.Context, pageURL string) []string {
	links, err := e.extract(ctx, pageURL)
	if err != nil {
		e.logger.Debug("link extraction failed", zap.String("url", pageURL), zap.Error(err))
		return []string{}
	}
	return links
}

func (e *LinkExtractor) extract(ctx context.Context, pageURL string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: pageURL, Code: resp.StatusCode}
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return []string{}, nil
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	// Links resolve against the final URL after redirects.
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL
	}
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if abs, err := urlutil.ToAbsoluteURL(base, href); err == nil {
			if u, err := url.Parse(abs); err == nil {
				base = u
			}
		}
	}

	links := []string{}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		abs, err := urlutil.ToAbsoluteURL(base, href)
		if err != nil {
			return
		}
		links = append(links, abs)
	})
	return links, nil
}
