package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"morsel/internal/config"
)

func testClient(endpoint string) *AnthropicClient {
	return NewAnthropicClient(config.LLMConfig{
		Endpoint:  endpoint,
		Model:     "claude-sonnet-4-20250514",
		APIKey:    "test-key",
		MaxTokens: 2048,
	})
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "test-key", r.Header.Get("x-api-key"))
		require.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{
				{"type": "text", "text": "Good morning, here is your digest."},
			},
		})
	}))
	defer server.Close()

	script, err := testClient(server.URL).Summarize(context.Background(), "summarize these articles")
	require.NoError(t, err)
	require.Equal(t, "Good morning, here is your digest.", script)

	require.Equal(t, "claude-sonnet-4-20250514", gotBody["model"])
	require.Equal(t, float64(2048), gotBody["max_tokens"])
	messages := gotBody["messages"].([]any)
	require.Len(t, messages, 1)
	first := messages[0].(map[string]any)
	require.Equal(t, "user", first["role"])
	require.Equal(t, "summarize these articles", first["content"])
}

func TestSummarizeSkipsNonTextBlocks(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{
				{"type": "thinking", "text": ""},
				{"type": "text", "text": "the script"},
			},
		})
	}))
	defer server.Close()

	script, err := testClient(server.URL).Summarize(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, "the script", script)
}

func TestSummarizeAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"type":"overloaded_error"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := testClient(server.URL).Summarize(context.Background(), "prompt")
	require.Error(t, err)
	require.Contains(t, err.Error(), "overloaded_error")
}

func TestSummarizeNoTextContent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"content": []map[string]string{}})
	}))
	defer server.Close()

	_, err := testClient(server.URL).Summarize(context.Background(), "prompt")
	require.Error(t, err)
}

func TestSummarizeMisconfigured(t *testing.T) {
	t.Parallel()

	client := NewAnthropicClient(config.LLMConfig{Endpoint: "https://api.anthropic.com/v1/messages"})
	_, err := client.Summarize(context.Background(), "prompt")
	require.Error(t, err)
}
