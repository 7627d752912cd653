// Package publish owns the feed lifecycle: adding one day's episode to the
// public feed and expiring episodes past the retention window.
//
// The feed invariant maintained throughout: the rendered feed never
// references an audio object that does not exist. Publishing uploads audio
// before rewriting the feed; pruning rewrites the feed before deleting audio.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"morsel/internal/audio"
	"morsel/internal/compose"
	"morsel/internal/domain"
	"morsel/internal/feed"
	"morsel/internal/ports"
	"morsel/internal/retry"
)

// ErrUploadFailed wraps an object-store write failure that persisted through
// retries.
var ErrUploadFailed = errors.New("upload failed")

const (
	audioKeyPrefix   = "audio/"
	audioContentType = "audio/mpeg"
	feedContentType  = "application/rss+xml"
	indexContentType = "application/json"
)

// AudioKey derives the storage key for a day's episode. Republishing a day
// overwrites the same key, which is what makes retries harmless.
func AudioKey(day time.Time) string {
	return fmt.Sprintf("%sdigest-%s.mp3", audioKeyPrefix, domain.FormatDay(day))
}

// Publisher uploads episode audio and regenerates the feed documents.
type Publisher struct {
	store       ports.ObjectStore
	channel     feed.Channel
	keepDays    int
	maxAttempts int
	logger      *slog.Logger
	now         func() time.Time
}

// NewPublisher wires the object store and feed metadata. keepDays bounds the
// entries kept in the rewritten feed.
func NewPublisher(store ports.ObjectStore, channel feed.Channel, keepDays, maxAttempts int, logger *slog.Logger) *Publisher {
	return &Publisher{
		store:       store,
		channel:     channel,
		keepDays:    keepDays,
		maxAttempts: maxAttempts,
		logger:      logger,
		now:         time.Now,
	}
}

// Publish uploads the rendered audio under the day's key, upserts the
// episode into the current remote feed state, applies retention, and
// rewrites feed.xml and the episode index. Re-running with identical inputs
// converges to the same end state.
func (p *Publisher) Publish(ctx context.Context, script compose.Script, artifact audio.Audio) (domain.Episode, error) {
	day := domain.DayOf(script.Day)
	key := AudioKey(day)

	if err := p.put(ctx, key, artifact.Bytes, audioContentType); err != nil {
		return domain.Episode{}, fmt.Errorf("upload audio %s: %w", key, err)
	}

	episode := domain.Episode{
		Date:            day,
		AudioKey:        key,
		AudioURL:        p.store.PublicURL(key),
		DurationSeconds: int64(artifact.Duration.Round(time.Second).Seconds()),
		FileSizeBytes:   artifact.Size,
		Title:           fmt.Sprintf("%s — %s", p.channel.Title, domain.FormatDay(day)),
		Summary:         showNotes(p.channel.Title, script),
		PublishedAt:     p.now().UTC(),
	}

	doc, err := loadDocument(ctx, p.store)
	if err != nil {
		return domain.Episode{}, err
	}

	doc.Upsert(episode)
	expired := doc.ApplyRetention(domain.DayOf(p.now()).AddDate(0, 0, -p.keepDays))

	if err := p.writeDocuments(ctx, doc); err != nil {
		return domain.Episode{}, err
	}

	// Entries expired by this rewrite are no longer referenced; their audio
	// objects are reclaimed here or by the next prune pass.
	for _, old := range expired {
		if err := p.store.Delete(ctx, old.AudioKey); err != nil {
			p.warn("delete expired audio", "key", old.AudioKey, "error", err)
		}
	}

	p.info("published episode", "day", domain.FormatDay(day), "key", key, "feed_entries", len(doc.Episodes))
	return episode, nil
}

func (p *Publisher) writeDocuments(ctx context.Context, doc feed.Document) error {
	rss, err := feed.RenderRSS(p.channel, doc)
	if err != nil {
		return err
	}
	index, err := doc.MarshalIndex()
	if err != nil {
		return err
	}

	if err := p.put(ctx, feed.FeedKey, rss, feedContentType); err != nil {
		return fmt.Errorf("upload feed: %w", err)
	}
	if err := p.put(ctx, feed.IndexKey, index, indexContentType); err != nil {
		return fmt.Errorf("upload episode index: %w", err)
	}
	return nil
}

func (p *Publisher) put(ctx context.Context, key string, data []byte, contentType string) error {
	err := retry.Do(ctx, p.maxAttempts, func() error {
		return p.store.Put(ctx, key, data, contentType)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return nil
}

// loadDocument fetches the current episode index, treating an absent object
// as an empty feed. State is re-read fresh on every run, never cached.
func loadDocument(ctx context.Context, store ports.ObjectStore) (feed.Document, error) {
	data, err := store.Get(ctx, feed.IndexKey)
	if errors.Is(err, ports.ErrObjectNotFound) {
		return feed.Document{}, nil
	}
	if err != nil {
		return feed.Document{}, fmt.Errorf("load episode index: %w", err)
	}
	return feed.ParseIndex(data)
}

// showNotes lists the covered articles and any skipped links so the user
// sees explicitly what failed to scrape.
func showNotes(title string, script compose.Script) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s — %s\n\nArticles covered in this episode:\n\n", title, domain.FormatDay(script.Day))
	for i, article := range script.Included {
		heading := article.Title
		if heading == "" {
			heading = article.URL
		}
		fmt.Fprintf(&b, "%d. %s\n   %s\n\n", i+1, heading, article.URL)
	}
	if len(script.Skipped) > 0 {
		b.WriteString("Links that could not be scraped:\n\n")
		for _, url := range script.Skipped {
			fmt.Fprintf(&b, "- %s\n", url)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (p *Publisher) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Publisher) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
