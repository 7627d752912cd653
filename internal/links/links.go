// Package links extracts article URLs from inbound email bodies,
// filtering out tracking links, signatures, and static assets.
package links

import (
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`(?i)https?://[^\s<>'")\]]+`)

// Substrings that mark a URL as noise rather than a submitted article.
var defaultIgnore = []string{
	"agentmail.to",
	"agentmail.cc",
	"unsubscribe",
	"manage-preferences",
	"list-manage.com",
	"mailchimp.com",
	"fonts.googleapis.com",
	"fonts.gstatic.com",
}

var assetSuffixes = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".css", ".js", ".ico", ".woff", ".woff2"}

const trailingPunctuation = ".,;:!?)>]}"

// Extract returns the meaningful URLs found in text, in order of first
// appearance, deduplicated, with trailing punctuation trimmed. Extra ignore
// substrings extend the built-in noise list.
func Extract(text string, ignore []string) []string {
	if text == "" {
		return nil
	}

	matches := urlPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := map[string]struct{}{}
	var urls []string
	for _, raw := range matches {
		url := strings.TrimRight(raw, trailingPunctuation)
		if url == "" || ignored(url, ignore) || asset(url) {
			continue
		}
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		urls = append(urls, url)
	}

	return urls
}

func ignored(url string, extra []string) bool {
	lower := strings.ToLower(url)
	for _, needle := range defaultIgnore {
		if strings.Contains(lower, needle) {
			return true
		}
	}
	for _, needle := range extra {
		if needle != "" && strings.Contains(lower, strings.ToLower(needle)) {
			return true
		}
	}
	return false
}

func asset(url string) bool {
	lower := strings.ToLower(url)
	for _, suffix := range assetSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
