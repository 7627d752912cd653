// Package usecase orchestrates the two independently triggered pipelines:
// inbox polling and digest generation. They share the article queue as
// their only handoff point.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"morsel/internal/domain"
	"morsel/internal/links"
	"morsel/internal/ports"
	"morsel/internal/queue"
)

const (
	labelProcessed = "processed"
	labelFailed    = "failed"
)

// Poller drains the inbox into the article queue: extract URLs, enqueue,
// scrape, record the outcome per article.
type Poller struct {
	mail        ports.MailTransport
	fetcher     ports.ContentFetcher
	store       *queue.Store
	limit       int
	ignoreHosts []string
	logger      *slog.Logger
}

// NewPoller wires the polling pipeline.
func NewPoller(mail ports.MailTransport, fetcher ports.ContentFetcher, store *queue.Store, limit int, ignoreHosts []string, logger *slog.Logger) *Poller {
	return &Poller{
		mail:        mail,
		fetcher:     fetcher,
		store:       store,
		limit:       limit,
		ignoreHosts: ignoreHosts,
		logger:      logger,
	}
}

// PollOnce checks for unprocessed messages and queues their articles.
// Returns the number of newly queued articles. Per-article scrape failures
// are recorded in the queue, never fatal to the poll.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	log := p.logger.With("run_id", shortID())

	messages, err := p.mail.Messages(ctx, p.limit)
	if err != nil {
		return 0, fmt.Errorf("poll inbox: %w", err)
	}

	queued := 0
	for _, msg := range messages {
		if hasLabel(msg, labelProcessed) || hasLabel(msg, labelFailed) {
			continue
		}

		log.Info("new message", "message_id", msg.ID, "subject", msg.Subject, "from", msg.Sender)

		urls := links.Extract(msg.Text, p.ignoreHosts)
		if len(urls) == 0 {
			urls = links.Extract(msg.HTML, p.ignoreHosts)
		}
		if len(urls) == 0 {
			log.Info("no urls found", "message_id", msg.ID)
			if err := p.mail.AddLabel(ctx, msg.ID, labelProcessed); err != nil {
				return queued, err
			}
			continue
		}

		added, scraped, failed, err := p.ingest(ctx, log, msg, urls)
		if err != nil {
			return queued, err
		}
		queued += added

		// A message is done once anything scraped (duplicates count: the
		// content is already queued). If every link failed, label it failed
		// so permanently broken submissions are not retried forever.
		switch {
		case scraped > 0:
			err = p.mail.AddLabel(ctx, msg.ID, labelProcessed)
		case failed == len(urls):
			err = p.mail.AddLabel(ctx, msg.ID, labelFailed)
		}
		if err != nil {
			return queued, err
		}
		log.Info("message handled", "message_id", msg.ID, "urls", len(urls), "scraped", scraped, "failed", failed)
	}

	if queued == 0 {
		log.Info("no new articles")
	} else {
		log.Info("articles queued", "count", queued)
	}
	return queued, nil
}

// ingest enqueues and scrapes one message's URLs. Duplicate submissions are
// reported as scraped without re-fetching.
func (p *Poller) ingest(ctx context.Context, log *slog.Logger, msg ports.MailMessage, urls []string) (added, scraped, failed int, err error) {
	day := domain.DayOf(msg.ReceivedAt)

	for _, url := range urls {
		canonical, isNew, err := p.store.Enqueue(ctx, url, msg.ReceivedAt)
		if err != nil {
			log.Warn("skipping unusable url", "url", url, "error", err)
			failed++
			continue
		}
		if !isNew {
			log.Debug("duplicate url", "url", canonical)
			scraped++
			continue
		}
		added++

		title, text, fetchErr := p.fetcher.Fetch(ctx, canonical)
		if fetchErr != nil {
			log.Warn("scrape failed", "url", canonical, "error", fetchErr)
			if markErr := p.store.MarkExtractionFailed(ctx, day, canonical); markErr != nil {
				return added, scraped, failed, markErr
			}
			failed++
			continue
		}

		if markErr := p.store.MarkExtracted(ctx, day, canonical, title, text); markErr != nil {
			return added, scraped, failed, markErr
		}
		log.Info("queued article", "url", canonical, "title", title)
		scraped++
	}

	return added, scraped, failed, nil
}

// Watch polls immediately and then on every interval tick until the context
// is cancelled. Poll errors are logged, not fatal; the next tick retries.
func (p *Poller) Watch(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}

	if _, err := p.PollOnce(ctx); err != nil {
		p.logger.Error("poll failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := p.PollOnce(ctx); err != nil {
				p.logger.Error("poll failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func hasLabel(msg ports.MailMessage, label string) bool {
	for _, l := range msg.Labels {
		if l == label {
			return true
		}
	}
	return false
}

func shortID() string {
	return uuid.NewString()[:8]
}
