// Package tts implements the speech synthesis port over an OpenAI-style
// audio/speech endpoint returning MP3 bytes.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"morsel/internal/config"
	"morsel/internal/ports"
)

// Client synthesizes narration audio chunk by chunk.
type Client struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ ports.SpeechSynthesizer = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.TTSConfig) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Synthesize converts one text chunk to MP3 audio with the given voice.
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("tts client misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model":           c.model,
		"voice":           voice,
		"input":           text,
		"response_format": "mp3",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("tts error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("tts returned empty audio")
	}

	return audio, nil
}
