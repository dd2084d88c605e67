package urlutil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"slices"
	"strings"
)

// ErrNotHTTP is returned by Origin for URLs that are not http or https.
var ErrNotHTTP = errors.New("url is not http or https")

// Normalize returns the canonical comparison key for raw. Only http and https
// URLs are rewritten: the host is lower-cased, the fragment dropped, an empty
// path becomes "/" and query parameters are sorted by key. Anything that does
// not parse, or uses another scheme, comes back trimmed but otherwise untouched.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return s
	}

	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" && u.Opaque == "" {
		u.Path = "/"
		u.RawPath = ""
	}
	if u.RawQuery != "" {
		u.RawQuery = sortQuery(u.RawQuery)
	}
	u.ForceQuery = false

	return u.String()
}

// sortQuery orders the &-separated pairs of raw by key, keeping repeated keys
// in their original order. Pairs are not decoded, so a pair that would not
// survive url.ParseQuery is kept as written.
func sortQuery(raw string) string {
	pairs := strings.Split(raw, "&")
	pairs = slices.DeleteFunc(pairs, func(p string) bool { return p == "" })
	slices.SortStableFunc(pairs, func(a, b string) int {
		return strings.Compare(queryKey(a), queryKey(b))
	})
	return strings.Join(pairs, "&")
}

func queryKey(pair string) string {
	key, _, _ := strings.Cut(pair, "=")
	return key
}

// SameOrigin reports whether a and b share scheme, host and port. Default
// ports are made explicit before comparing. Any parse failure yields false.
func SameOrigin(a, b string) bool {
	ua, err := parseOrigin(a)
	if err != nil {
		return false
	}
	ub, err := parseOrigin(b)
	if err != nil {
		return false
	}
	return ua == ub
}

// Origin returns scheme://host[:port] for raw.
func Origin(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrNotHTTP
	}
	if u.Host == "" {
		return "", errors.New("url has no host")
	}
	return u.Scheme + "://" + strings.ToLower(u.Host), nil
}

// RequestPath returns the path and query of raw, as matched against robots rules.
func RequestPath(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "/"
	}
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}

// HashURL creates a SHA256 hash of a URL string.
// This is useful for creating consistent, safe keys for Redis.
func HashURL(rawURL string) string {
	h := sha256.New()
	h.Write([]byte(rawURL))
	return hex.EncodeToString(h.Sum(nil))
}

// ToAbsoluteURL converts a relative URL to an absolute URL given a base URL.
func ToAbsoluteURL(base *url.URL, relative string) (string, error) {
	relURL, err := url.Parse(strings.TrimSpace(relative))
	if err != nil {
		return "", err
	}
	return base.ResolveReference(relURL).String(), nil
}

type origin struct {
	scheme, host, port string
}

func parseOrigin(raw string) (origin, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return origin{}, err
	}
	if u.Host == "" {
		return origin{}, errors.New("url has no host")
	}
	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "http":
			port = "80"
		case "https":
			port = "443"
		}
	}
	return origin{
		scheme: u.Scheme,
		host:   strings.ToLower(u.Hostname()),
		port:   port,
	}, nil
}
