package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv      = "MORSEL_CONFIG"
	mailAPIKeyEnv      = "AGENTMAIL_API_KEY"
	mailInboxEnv       = "AGENTMAIL_EMAIL_ADDRESS"
	llmAPIKeyEnv       = "ANTHROPIC_API_KEY"
	ttsAPIKeyEnv       = "MORSEL_TTS_API_KEY"
	storageAPIKeyEnv   = "MORSEL_STORAGE_API_KEY"
	telegramTokenEnv   = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv  = "TELEGRAM_CHAT_ID"
	queueDBPathEnv     = "MORSEL_QUEUE_DB"
	storagePublicEnv   = "MORSEL_PUBLIC_URL"
	defaultChunkChars  = 4000
	defaultCharBudget  = 15000
	defaultKeepDays    = 7
	defaultMailLimit   = 10
	defaultMaxAttempts = 3
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Queue         QueueConfig        `yaml:"queue"`
	Mail          MailConfig         `yaml:"mail"`
	Fetcher       FetcherConfig      `yaml:"fetcher"`
	LLM           LLMConfig          `yaml:"llm"`
	TTS           TTSConfig          `yaml:"tts"`
	Storage       StorageConfig      `yaml:"storage"`
	Podcast       PodcastConfig      `yaml:"podcast"`
	Digest        DigestConfig       `yaml:"digest"`
	Canonical     CanonicalConfig    `yaml:"canonical"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// LoggingConfig controls slog verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// QueueConfig locates the article queue database.
type QueueConfig struct {
	DBPath string `yaml:"dbPath"`
}

// MailConfig wires the inbound mail API.
type MailConfig struct {
	BaseURL      string   `yaml:"baseUrl"`
	APIKey       string   `yaml:"apiKey"`
	Inbox        string   `yaml:"inbox"`
	MessageLimit int      `yaml:"messageLimit"`
	IgnoreHosts  []string `yaml:"ignoreHosts"`
}

// FetcherConfig tunes article scraping.
type FetcherConfig struct {
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	MaxAttempts    int    `yaml:"maxAttempts"`
	UserAgent      string `yaml:"userAgent"`
}

// LLMConfig defines how to contact the summarization API.
type LLMConfig struct {
	Endpoint    string `yaml:"endpoint"`
	Model       string `yaml:"model"`
	APIKey      string `yaml:"apiKey"`
	MaxTokens   int    `yaml:"maxTokens"`
	MaxAttempts int    `yaml:"maxAttempts"`
}

// TTSConfig defines the speech synthesis endpoint and voice.
type TTSConfig struct {
	Endpoint    string `yaml:"endpoint"`
	Model       string `yaml:"model"`
	APIKey      string `yaml:"apiKey"`
	Voice       string `yaml:"voice"`
	ChunkChars  int    `yaml:"chunkChars"`
	MaxAttempts int    `yaml:"maxAttempts"`
}

// StorageConfig describes the object store bucket holding audio and feed.
// An empty Bucket disables publishing and pruning.
type StorageConfig struct {
	URL       string `yaml:"url"`
	APIKey    string `yaml:"apiKey"`
	Bucket    string `yaml:"bucket"`
	PublicURL string `yaml:"publicUrl"`
}

// Configured reports whether an object store is wired at all.
func (s StorageConfig) Configured() bool {
	return s.Bucket != ""
}

// PodcastConfig carries the feed channel metadata.
type PodcastConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Author      string `yaml:"author"`
	Language    string `yaml:"language"`
	ImageURL    string `yaml:"imageUrl"`
}

// DigestConfig bounds digest generation and episode retention.
type DigestConfig struct {
	ArticleCharBudget int `yaml:"articleCharBudget"`
	KeepDays          int `yaml:"keepDays"`
}

// CanonicalConfig is the URL canonicalization policy used for dedup.
type CanonicalConfig struct {
	StripParams       []string `yaml:"stripParams"`
	StripPrefixes     []string `yaml:"stripPrefixes"`
	TrimTrailingSlash *bool    `yaml:"trimTrailingSlash"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Load reads YAML configuration from path (or the MORSEL_CONFIG env var when
// path is empty) and applies environment overrides on top of defaults.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(mailAPIKeyEnv); v != "" {
		c.Mail.APIKey = v
	}
	if v := os.Getenv(mailInboxEnv); v != "" {
		c.Mail.Inbox = v
	}
	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(ttsAPIKeyEnv); v != "" {
		c.TTS.APIKey = v
	}
	if v := os.Getenv(storageAPIKeyEnv); v != "" {
		c.Storage.APIKey = v
	}
	if v := os.Getenv(storagePublicEnv); v != "" {
		c.Storage.PublicURL = v
	}
	if v := os.Getenv(queueDBPathEnv); v != "" {
		c.Queue.DBPath = v
	}
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}
	if override.Queue.DBPath != "" {
		base.Queue = override.Queue
	}

	if override.Mail.BaseURL != "" {
		base.Mail.BaseURL = override.Mail.BaseURL
	}
	if override.Mail.APIKey != "" {
		base.Mail.APIKey = override.Mail.APIKey
	}
	if override.Mail.Inbox != "" {
		base.Mail.Inbox = override.Mail.Inbox
	}
	if override.Mail.MessageLimit > 0 {
		base.Mail.MessageLimit = override.Mail.MessageLimit
	}
	if len(override.Mail.IgnoreHosts) > 0 {
		base.Mail.IgnoreHosts = override.Mail.IgnoreHosts
	}

	if override.Fetcher.TimeoutSeconds > 0 {
		base.Fetcher.TimeoutSeconds = override.Fetcher.TimeoutSeconds
	}
	if override.Fetcher.MaxAttempts > 0 {
		base.Fetcher.MaxAttempts = override.Fetcher.MaxAttempts
	}
	if override.Fetcher.UserAgent != "" {
		base.Fetcher.UserAgent = override.Fetcher.UserAgent
	}

	if override.LLM.Endpoint != "" {
		base.LLM.Endpoint = override.LLM.Endpoint
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.MaxTokens > 0 {
		base.LLM.MaxTokens = override.LLM.MaxTokens
	}
	if override.LLM.MaxAttempts > 0 {
		base.LLM.MaxAttempts = override.LLM.MaxAttempts
	}

	if override.TTS.Endpoint != "" {
		base.TTS.Endpoint = override.TTS.Endpoint
	}
	if override.TTS.Model != "" {
		base.TTS.Model = override.TTS.Model
	}
	if override.TTS.APIKey != "" {
		base.TTS.APIKey = override.TTS.APIKey
	}
	if override.TTS.Voice != "" {
		base.TTS.Voice = override.TTS.Voice
	}
	if override.TTS.ChunkChars > 0 {
		base.TTS.ChunkChars = override.TTS.ChunkChars
	}
	if override.TTS.MaxAttempts > 0 {
		base.TTS.MaxAttempts = override.TTS.MaxAttempts
	}

	if override.Storage.URL != "" {
		base.Storage.URL = override.Storage.URL
	}
	if override.Storage.APIKey != "" {
		base.Storage.APIKey = override.Storage.APIKey
	}
	if override.Storage.Bucket != "" {
		base.Storage.Bucket = override.Storage.Bucket
	}
	if override.Storage.PublicURL != "" {
		base.Storage.PublicURL = override.Storage.PublicURL
	}

	if override.Podcast.Title != "" {
		base.Podcast.Title = override.Podcast.Title
	}
	if override.Podcast.Description != "" {
		base.Podcast.Description = override.Podcast.Description
	}
	if override.Podcast.Author != "" {
		base.Podcast.Author = override.Podcast.Author
	}
	if override.Podcast.Language != "" {
		base.Podcast.Language = override.Podcast.Language
	}
	if override.Podcast.ImageURL != "" {
		base.Podcast.ImageURL = override.Podcast.ImageURL
	}

	if override.Digest.ArticleCharBudget > 0 {
		base.Digest.ArticleCharBudget = override.Digest.ArticleCharBudget
	}
	if override.Digest.KeepDays > 0 {
		base.Digest.KeepDays = override.Digest.KeepDays
	}

	if len(override.Canonical.StripParams) > 0 {
		base.Canonical.StripParams = override.Canonical.StripParams
	}
	if len(override.Canonical.StripPrefixes) > 0 {
		base.Canonical.StripPrefixes = override.Canonical.StripPrefixes
	}
	if override.Canonical.TrimTrailingSlash != nil {
		base.Canonical.TrimTrailingSlash = override.Canonical.TrimTrailingSlash
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	return base
}

func defaultConfig() Config {
	trimSlash := true
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Queue:   QueueConfig{DBPath: "data/queue.db"},
		Mail: MailConfig{
			BaseURL:      "https://api.agentmail.to/v0",
			MessageLimit: defaultMailLimit,
		},
		Fetcher: FetcherConfig{
			TimeoutSeconds: 60,
			MaxAttempts:    defaultMaxAttempts,
			UserAgent:      "morsel/1.0",
		},
		LLM: LLMConfig{
			Endpoint:    "https://api.anthropic.com/v1/messages",
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   4096,
			MaxAttempts: defaultMaxAttempts,
		},
		TTS: TTSConfig{
			Endpoint:    "https://api.openai.com/v1/audio/speech",
			Model:       "gpt-4o-mini-tts",
			Voice:       "alloy",
			ChunkChars:  defaultChunkChars,
			MaxAttempts: defaultMaxAttempts,
		},
		Podcast: PodcastConfig{
			Title:       "Morsel",
			Description: "Daily article digest in bite-sized audio",
			Author:      "Morsel",
			Language:    "en",
		},
		Digest: DigestConfig{
			ArticleCharBudget: defaultCharBudget,
			KeepDays:          defaultKeepDays,
		},
		Canonical: CanonicalConfig{
			StripParams: []string{
				"fbclid", "gclid", "igshid", "mc_cid", "mc_eid", "ref", "ref_src",
			},
			StripPrefixes:     []string{"utm_"},
			TrimTrailingSlash: &trimSlash,
		},
	}
}
