// Package compose turns one day's extracted articles into a single narration
// script via one summarization call.
package compose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"morsel/internal/domain"
	"morsel/internal/ports"
	"morsel/internal/retry"
)

// ErrEmptyDigest means the day has no extracted articles. It is a valid
// "nothing to publish today" outcome, not a failure.
var ErrEmptyDigest = errors.New("no extracted articles for day")

// ErrCompositionFailed wraps a summarization failure that persisted through
// retries. No partial script is produced.
var ErrCompositionFailed = errors.New("composition failed")

const truncationMarker = "\n\n[Article truncated for length]"

const hostInstructions = `You are a podcast host producing a daily article digest. Your show is called %q.

Write a podcast script for today's episode based on the articles below. The script should be:

- Direct and matter-of-fact, in a calm, measured tone; you are briefing a busy professional
- 10-15 minutes when read aloud (roughly 1500-2200 words)
- Well-structured: very brief intro, cover each story in the given order, very brief outro
- Strictly faithful to the source material; attribute claims to the articles, never editorialize or extrapolate
- Flowing prose meant to be spoken: no markdown, headers, bullet points, sound cues, or superlatives
- Start with the most significant story and use short, clean transitions
- Open with a one-sentence greeting that includes today's date, close with a one-sentence sign-off
- Do not say "welcome back" or reference previous episodes

Today's date: %s
Number of articles: %d

---

`

// Script is the composed narration plus the article bookkeeping that feeds
// episode metadata.
type Script struct {
	Day      time.Time
	Text     string
	Included []domain.ArticleRecord
	Skipped  []string
}

// ArticleSource supplies one day's queued records, submission-ordered.
type ArticleSource interface {
	ArticlesFor(ctx context.Context, day time.Time) ([]domain.ArticleRecord, error)
}

// Composer assembles the day's prompt and invokes the summarizer.
type Composer struct {
	source      ArticleSource
	summarizer  ports.Summarizer
	showTitle   string
	charBudget  int
	maxAttempts int
	logger      *slog.Logger
}

// NewComposer wires the queue reader and summarization client. charBudget
// bounds how much of any single article enters the prompt.
func NewComposer(source ArticleSource, summarizer ports.Summarizer, showTitle string, charBudget, maxAttempts int, logger *slog.Logger) *Composer {
	if charBudget <= 0 {
		charBudget = 15000
	}
	return &Composer{
		source:      source,
		summarizer:  summarizer,
		showTitle:   showTitle,
		charBudget:  charBudget,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Compose loads the day's queue snapshot, drops records without extracted
// text, and produces one continuous script covering the rest in submission
// order. Returns ErrEmptyDigest when nothing is extractable.
func (c *Composer) Compose(ctx context.Context, day time.Time) (Script, error) {
	records, err := c.source.ArticlesFor(ctx, day)
	if err != nil {
		return Script{}, fmt.Errorf("load articles for %s: %w", domain.FormatDay(day), err)
	}

	var included []domain.ArticleRecord
	var skipped []string
	for _, record := range records {
		if record.Extracted() {
			included = append(included, record)
		} else {
			skipped = append(skipped, record.URL)
		}
	}

	if len(included) == 0 {
		return Script{}, fmt.Errorf("%w: %s", ErrEmptyDigest, domain.FormatDay(day))
	}

	prompt := c.buildPrompt(day, included)
	c.debug("composing digest", "day", domain.FormatDay(day), "articles", len(included), "skipped", len(skipped), "prompt_chars", len(prompt))

	var text string
	err = retry.Do(ctx, c.maxAttempts, func() error {
		var callErr error
		text, callErr = c.summarizer.Summarize(ctx, prompt)
		return callErr
	})
	if err != nil {
		return Script{}, fmt.Errorf("%w: %v", ErrCompositionFailed, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Script{}, fmt.Errorf("%w: summarizer returned empty script", ErrCompositionFailed)
	}

	return Script{Day: day, Text: text, Included: included, Skipped: skipped}, nil
}

func (c *Composer) buildPrompt(day time.Time, articles []domain.ArticleRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, hostInstructions, c.showTitle, domain.FormatDay(day), len(articles))

	for i, article := range articles {
		fmt.Fprintf(&b, "=== ARTICLE %d ===\nTitle: %s\nURL: %s\n\n%s\n\n",
			i+1, article.Title, article.URL, c.truncate(article.Text))
	}

	return b.String()
}

// truncate keeps the leading portion of text up to the character budget.
// One bounded call per day beats per-article summarization on cost and
// latency, so long articles simply lose their tails.
func (c *Composer) truncate(text string) string {
	if len(text) <= c.charBudget {
		return text
	}
	return text[:c.charBudget] + truncationMarker
}

func (c *Composer) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
