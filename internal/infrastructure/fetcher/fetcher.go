// Package fetcher resolves submitted URLs to extracted article text.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"morsel/internal/config"
	"morsel/internal/ports"
	"morsel/internal/retry"
)

// Fetcher downloads a page and extracts readable article content.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	maxAttempts int
}

var _ ports.ContentFetcher = (*Fetcher)(nil)

// New builds a fetcher from configuration.
func New(cfg config.FetcherConfig) *Fetcher {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Fetcher{
		client:      &http.Client{Timeout: timeout},
		userAgent:   cfg.UserAgent,
		maxAttempts: cfg.MaxAttempts,
	}
}

// Fetch downloads target and extracts its title and main text. Failures are
// terminal from the caller's perspective; retries happen here.
func (f *Fetcher) Fetch(ctx context.Context, target string) (string, string, error) {
	var body []byte
	err := retry.Do(ctx, f.maxAttempts, func() error {
		var fetchErr error
		body, fetchErr = f.download(ctx, target)
		return fetchErr
	})
	if err != nil {
		return "", "", fmt.Errorf("fetch %s: %w", target, err)
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return "", "", fmt.Errorf("parse url %s: %w", target, err)
	}

	article, err := readability.FromReader(strings.NewReader(string(body)), parsed)
	if err != nil {
		return "", "", fmt.Errorf("extract %s: %w", target, err)
	}

	title := strings.TrimSpace(article.Title)
	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return "", "", fmt.Errorf("extract %s: no readable content", target)
	}
	if title == "" {
		title = fallbackTitle(string(body), target)
	}

	return title, text, nil
}

func (f *Fetcher) download(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// fallbackTitle walks the common title sources when readability finds none.
func fallbackTitle(html, target string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return target
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if title := strings.TrimSpace(doc.Find("h1").First().Text()); title != "" {
		return title
	}
	if title, exists := doc.Find("meta[property='og:title']").Attr("content"); exists && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	return target
}
