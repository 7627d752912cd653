// Package app wires configuration into the pipelines and their adapters.
package app

import (
	"fmt"
	"log/slog"

	"morsel/internal/audio"
	"morsel/internal/compose"
	"morsel/internal/config"
	"morsel/internal/feed"
	"morsel/internal/infrastructure/agentmail"
	"morsel/internal/infrastructure/fetcher"
	"morsel/internal/infrastructure/llm"
	"morsel/internal/infrastructure/storage"
	"morsel/internal/infrastructure/telegram"
	"morsel/internal/infrastructure/tts"
	"morsel/internal/ports"
	"morsel/internal/publish"
	"morsel/internal/queue"
	"morsel/internal/usecase"
)

// Application holds the runnable pipelines behind the CLI commands.
type Application struct {
	cfg    config.Config
	store  *queue.Store
	Mail   ports.MailTransport
	Poller *usecase.Poller
	Digest *usecase.DigestRunner
}

// New builds the application from configuration.
func New(cfg config.Config, logger *slog.Logger) (*Application, error) {
	policy := canonicalPolicy(cfg.Canonical)
	store, err := queue.Open(cfg.Queue.DBPath, policy)
	if err != nil {
		return nil, fmt.Errorf("open article queue: %w", err)
	}

	mail := agentmail.NewClient(cfg.Mail)
	fetch := fetcher.New(cfg.Fetcher)

	poller := usecase.NewPoller(mail, fetch, store, cfg.Mail.MessageLimit, cfg.Mail.IgnoreHosts,
		logger.With("component", "poller"))

	composer := compose.NewComposer(store, llm.NewAnthropicClient(cfg.LLM), cfg.Podcast.Title,
		cfg.Digest.ArticleCharBudget, cfg.LLM.MaxAttempts, logger.With("component", "composer"))
	renderer := audio.NewRenderer(tts.NewClient(cfg.TTS), cfg.TTS.ChunkChars, cfg.TTS.MaxAttempts,
		logger.With("component", "renderer"))

	channel := feedChannel(cfg)
	bucket := storage.NewBucket(cfg.Storage)

	var publisher *publish.Publisher
	if bucket != nil {
		publisher = publish.NewPublisher(bucket, channel, cfg.Digest.KeepDays, cfg.TTS.MaxAttempts,
			logger.With("component", "publisher"))
	}
	var objects ports.ObjectStore
	if bucket != nil {
		objects = bucket
	}
	pruner := publish.NewPruner(objects, channel, logger.With("component", "pruner"))

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" && cfg.Notifications.Telegram.ChatID != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	digest := usecase.NewDigestRunner(store, composer, renderer, publisher, pruner, notifier,
		cfg.TTS.Voice, cfg.Digest.KeepDays, logger.With("component", "digest"))

	return &Application{
		cfg:    cfg,
		store:  store,
		Mail:   mail,
		Poller: poller,
		Digest: digest,
	}, nil
}

// Store exposes the article queue for CLI inspection commands.
func (a *Application) Store() *queue.Store {
	return a.store
}

// Close releases the queue database.
func (a *Application) Close() error {
	return a.store.Close()
}

func canonicalPolicy(cfg config.CanonicalConfig) queue.CanonicalPolicy {
	policy := queue.DefaultCanonicalPolicy()
	if len(cfg.StripParams) > 0 {
		policy.StripParams = cfg.StripParams
	}
	if len(cfg.StripPrefixes) > 0 {
		policy.StripPrefixes = cfg.StripPrefixes
	}
	if cfg.TrimTrailingSlash != nil {
		policy.TrimTrailingSlash = *cfg.TrimTrailingSlash
	}
	return policy
}

func feedChannel(cfg config.Config) feed.Channel {
	publicURL := cfg.Storage.PublicURL
	for len(publicURL) > 0 && publicURL[len(publicURL)-1] == '/' {
		publicURL = publicURL[:len(publicURL)-1]
	}
	return feed.Channel{
		Title:       cfg.Podcast.Title,
		Description: cfg.Podcast.Description,
		Author:      cfg.Podcast.Author,
		Language:    cfg.Podcast.Language,
		ImageURL:    cfg.Podcast.ImageURL,
		FeedURL:     publicURL + "/" + feed.FeedKey,
	}
}
