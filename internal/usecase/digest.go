package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"morsel/internal/audio"
	"morsel/internal/compose"
	"morsel/internal/domain"
	"morsel/internal/ports"
	"morsel/internal/publish"
	"morsel/internal/queue"
)

// DigestRunner executes the daily pipeline for one day bucket: compose the
// script, render audio, publish the episode, prune expired ones.
type DigestRunner struct {
	store     *queue.Store
	composer  *compose.Composer
	renderer  *audio.Renderer
	publisher *publish.Publisher // nil when storage is unconfigured
	pruner    *publish.Pruner
	notifier  ports.Notifier // optional
	voice     string
	keepDays  int
	logger    *slog.Logger
}

// NewDigestRunner wires the digest pipeline. publisher may be nil to run in
// local-only mode (script and audio produced, nothing uploaded).
func NewDigestRunner(store *queue.Store, composer *compose.Composer, renderer *audio.Renderer, publisher *publish.Publisher, pruner *publish.Pruner, notifier ports.Notifier, voice string, keepDays int, logger *slog.Logger) *DigestRunner {
	return &DigestRunner{
		store:     store,
		composer:  composer,
		renderer:  renderer,
		publisher: publisher,
		pruner:    pruner,
		notifier:  notifier,
		voice:     voice,
		keepDays:  keepDays,
		logger:    logger,
	}
}

// Run generates and publishes the digest for day. An empty day is a logged
// skip, not an error. Stage failures abort the run with feed state
// untouched; queue records persist, so the next run retries the same day.
func (r *DigestRunner) Run(ctx context.Context, day time.Time) error {
	day = domain.DayOf(day)
	log := r.logger.With("run_id", shortID(), "day", domain.FormatDay(day))

	script, err := r.composer.Compose(ctx, day)
	if errors.Is(err, compose.ErrEmptyDigest) {
		log.Info("nothing to publish", "reason", "no extracted articles")
		return nil
	}
	if err != nil {
		return err
	}
	log.Info("script composed", "articles", len(script.Included), "skipped", len(script.Skipped), "chars", len(script.Text))

	artifact, err := r.renderer.Render(ctx, script.Text, r.voice)
	if err != nil {
		return err
	}
	log.Info("audio rendered", "bytes", artifact.Size, "duration", artifact.Duration.Round(time.Second))

	if r.publisher == nil {
		log.Info("storage not configured, skipping upload")
		return nil
	}

	episode, err := r.publisher.Publish(ctx, script, artifact)
	if err != nil {
		return err
	}

	if r.notifier != nil {
		message := fmt.Sprintf("New episode published: %s\n%s", episode.Title, episode.AudioURL)
		if err := r.notifier.PublishDigest(ctx, message); err != nil {
			log.Warn("notify failed", "error", err)
		}
	}

	if err := r.pruner.Prune(ctx, r.keepDays); err != nil {
		return err
	}

	return nil
}

// RunAll generates digests for every day bucket that has queued records,
// oldest first. This is the manual catch-up mode.
func (r *DigestRunner) RunAll(ctx context.Context) error {
	days, err := r.store.Days(ctx)
	if err != nil {
		return err
	}
	if len(days) == 0 {
		r.logger.Info("queue is empty, nothing to digest")
		return nil
	}

	for _, day := range days {
		if err := r.Run(ctx, day); err != nil {
			return fmt.Errorf("digest %s: %w", domain.FormatDay(day), err)
		}
	}
	return nil
}

// Prune enforces retention without publishing anything.
func (r *DigestRunner) Prune(ctx context.Context) error {
	return r.pruner.Prune(ctx, r.keepDays)
}
