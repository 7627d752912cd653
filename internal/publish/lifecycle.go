package publish

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"morsel/internal/domain"
	"morsel/internal/feed"
	"morsel/internal/ports"
)

// Pruner enforces the retention window on the feed and the audio prefix.
type Pruner struct {
	store   ports.ObjectStore
	channel feed.Channel
	logger  *slog.Logger
	now     func() time.Time
}

// NewPruner wires the object store and feed metadata. A nil store makes
// Prune a reported no-op.
func NewPruner(store ports.ObjectStore, channel feed.Channel, logger *slog.Logger) *Pruner {
	return &Pruner{
		store:   store,
		channel: channel,
		logger:  logger,
		now:     time.Now,
	}
}

// Prune expires episodes older than keepDays. The feed documents are
// rewritten before any audio object is deleted, so an interruption can leave
// an orphaned object but never a feed entry pointing at a missing file.
// Orphans from earlier interrupted runs are reclaimed by listing the audio
// prefix and deleting day-keyed objects past the cutoff with no live entry.
func (p *Pruner) Prune(ctx context.Context, keepDays int) error {
	if p.store == nil {
		p.info("storage not configured, skipping prune")
		return nil
	}

	cutoff := domain.DayOf(p.now()).AddDate(0, 0, -keepDays)

	doc, err := loadDocument(ctx, p.store)
	if err != nil {
		return err
	}

	removed := doc.ApplyRetention(cutoff)
	if len(removed) > 0 {
		rss, err := feed.RenderRSS(p.channel, doc)
		if err != nil {
			return err
		}
		index, err := doc.MarshalIndex()
		if err != nil {
			return err
		}
		if err := p.store.Put(ctx, feed.FeedKey, rss, feedContentType); err != nil {
			return fmt.Errorf("rewrite feed: %w", err)
		}
		if err := p.store.Put(ctx, feed.IndexKey, index, indexContentType); err != nil {
			return fmt.Errorf("rewrite episode index: %w", err)
		}

		for _, episode := range removed {
			if err := p.store.Delete(ctx, episode.AudioKey); err != nil {
				return fmt.Errorf("delete audio %s: %w", episode.AudioKey, err)
			}
			p.info("deleted expired episode", "key", episode.AudioKey, "date", domain.FormatDay(episode.Date))
		}
	}

	if err := p.reclaimOrphans(ctx, cutoff, doc.AudioKeys()); err != nil {
		return err
	}

	p.info("prune complete", "cutoff", domain.FormatDay(cutoff), "removed", len(removed), "remaining", len(doc.Episodes))
	return nil
}

func (p *Pruner) reclaimOrphans(ctx context.Context, cutoff time.Time, live map[string]struct{}) error {
	keys, err := p.store.List(ctx, audioKeyPrefix)
	if err != nil {
		return fmt.Errorf("list audio objects: %w", err)
	}

	for _, key := range keys {
		if _, referenced := live[key]; referenced {
			continue
		}
		day, ok := dayFromAudioKey(key)
		if !ok || !day.Before(cutoff) {
			continue
		}
		if err := p.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete orphan %s: %w", key, err)
		}
		p.info("reclaimed orphaned audio", "key", key)
	}

	return nil
}

// dayFromAudioKey recovers the episode date embedded in a day-derived key.
// Keys that do not follow the digest naming convention are left alone.
func dayFromAudioKey(key string) (time.Time, bool) {
	name := strings.TrimPrefix(key, audioKeyPrefix)
	name = strings.TrimSuffix(name, ".mp3")
	value, found := strings.CutPrefix(name, "digest-")
	if !found {
		return time.Time{}, false
	}
	day, err := domain.ParseDay(value)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

func (p *Pruner) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}
