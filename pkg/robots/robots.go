// Package robots implements a small subset of robots.txt: every
// Disallow line applies to every user agent and is matched as a plain path
// prefix. Allow lines, wildcards and agent groups are not interpreted.
package robots

import (
	"bufio"
	"strings"
)

// ParseDisallows returns the non-empty Disallow values of body in file order.
func ParseDisallows(body string) []string {
	var out []string
	sc := bufio.NewScanner(strings.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(key), "disallow") {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			// An empty Disallow allows everything.
			continue
		}
		out = append(out, value)
	}
	return out
}

// Allowed reports whether path matches none of the disallowed prefixes.
func Allowed(disallows []string, path string) bool {
	if path == "" {
		path = "/"
	}
	for _, prefix := range disallows {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}
