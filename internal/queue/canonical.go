package queue

import (
	"fmt"
	"net/url"
	"strings"
)

// CanonicalPolicy normalizes submitted URLs before dedup. The exact rule is
// deployment-configurable: which query parameters are tracking noise varies
// by the newsletters a user forwards.
type CanonicalPolicy struct {
	// StripParams lists exact query parameter names to remove.
	StripParams []string
	// StripPrefixes removes any parameter whose name starts with a prefix
	// (e.g. "utm_").
	StripPrefixes []string
	// TrimTrailingSlash drops a single trailing slash on non-root paths.
	TrimTrailingSlash bool
}

// DefaultCanonicalPolicy strips the common tracking parameters and trims
// trailing slashes.
func DefaultCanonicalPolicy() CanonicalPolicy {
	return CanonicalPolicy{
		StripParams: []string{
			"fbclid", "gclid", "igshid", "mc_cid", "mc_eid", "ref", "ref_src",
		},
		StripPrefixes:     []string{"utm_"},
		TrimTrailingSlash: true,
	}
}

// Canonicalize normalizes raw for use as a dedup key: lowercases scheme and
// host, drops default ports and fragments, strips tracking parameters, and
// re-encodes the remaining query in sorted order so equivalent URLs compare
// equal as strings.
func (p CanonicalPolicy) Canonicalize(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q in %q", parsed.Scheme, raw)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("missing host in %q", raw)
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Host = strings.TrimSuffix(parsed.Host, defaultPort(parsed.Scheme))
	parsed.Fragment = ""

	query := parsed.Query()
	for name := range query {
		if p.stripped(name) {
			query.Del(name)
		}
	}
	parsed.RawQuery = query.Encode()

	if p.TrimTrailingSlash && len(parsed.Path) > 1 {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	}

	return parsed.String(), nil
}

func (p CanonicalPolicy) stripped(name string) bool {
	lower := strings.ToLower(name)
	for _, param := range p.StripParams {
		if lower == strings.ToLower(param) {
			return true
		}
	}
	for _, prefix := range p.StripPrefixes {
		if prefix != "" && strings.HasPrefix(lower, strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}

func defaultPort(scheme string) string {
	switch scheme {
	case "http":
		return ":80"
	case "https":
		return ":443"
	}
	return ""
}
