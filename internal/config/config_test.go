package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load("")

	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, "data/queue.db", cfg.Queue.DBPath)
	require.Equal(t, "https://api.agentmail.to/v0", cfg.Mail.BaseURL)
	require.Equal(t, 10, cfg.Mail.MessageLimit)
	require.Equal(t, 15000, cfg.Digest.ArticleCharBudget)
	require.Equal(t, 7, cfg.Digest.KeepDays)
	require.Equal(t, 4000, cfg.TTS.ChunkChars)
	require.Contains(t, cfg.Canonical.StripParams, "fbclid")
	require.Equal(t, []string{"utm_"}, cfg.Canonical.StripPrefixes)
	require.NotNil(t, cfg.Canonical.TrimTrailingSlash)
	require.True(t, *cfg.Canonical.TrimTrailingSlash)
	require.False(t, cfg.Storage.Configured())
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
logging:
  level: debug
storage:
  url: https://project.supabase.co/storage/v1
  bucket: podcast
  publicUrl: https://cdn.example
podcast:
  title: Nightly Reads
digest:
  keepDays: 14
canonical:
  trimTrailingSlash: false
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg := Load(path)

	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "podcast", cfg.Storage.Bucket)
	require.True(t, cfg.Storage.Configured())
	require.Equal(t, "Nightly Reads", cfg.Podcast.Title)
	require.Equal(t, 14, cfg.Digest.KeepDays)
	require.False(t, *cfg.Canonical.TrimTrailingSlash)

	// Untouched sections keep defaults.
	require.Equal(t, 15000, cfg.Digest.ArticleCharBudget)
	require.Equal(t, "https://api.agentmail.to/v0", cfg.Mail.BaseURL)
	require.Equal(t, "en", cfg.Podcast.Language)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("AGENTMAIL_API_KEY", "mail-secret")
	t.Setenv("ANTHROPIC_API_KEY", "llm-secret")
	t.Setenv("MORSEL_QUEUE_DB", "/tmp/other.db")
	t.Setenv("MORSEL_PUBLIC_URL", "https://media.example")

	cfg := Load("")

	require.Equal(t, "mail-secret", cfg.Mail.APIKey)
	require.Equal(t, "llm-secret", cfg.LLM.APIKey)
	require.Equal(t, "/tmp/other.db", cfg.Queue.DBPath)
	require.Equal(t, "https://media.example", cfg.Storage.PublicURL)
}

func TestLoadEnvWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  apiKey: from-file\n"), 0o644))
	t.Setenv("ANTHROPIC_API_KEY", "from-env")

	cfg := Load(path)
	require.Equal(t, "from-env", cfg.LLM.APIKey)
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadPathFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0o644))
	t.Setenv("MORSEL_CONFIG", path)

	cfg := Load("")
	require.Equal(t, "warn", cfg.Logging.Level)
}
