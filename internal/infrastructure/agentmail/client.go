// Package agentmail implements the mail transport port over the AgentMail
// REST API.
package agentmail

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

// Client talks to the AgentMail inbox holding forwarded article links.
type Client struct {
	baseURL    string
	apiKey     string
	inbox      string
	httpClient *http.Client
}

var _ ports.MailTransport = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.MailConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		inbox:   cfg.Inbox,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type messageItem struct {
	MessageID string   `json:"message_id"`
	From      string   `json:"from"`
	Subject   string   `json:"subject"`
	Labels    []string `json:"labels"`
	Text      string   `json:"text"`
	HTML      string   `json:"html"`
	Timestamp string   `json:"timestamp"`
}

type messageList struct {
	Count    int           `json:"count"`
	Messages []messageItem `json:"messages"`
}

type inboxItem struct {
	InboxID     string `json:"inbox_id"`
	DisplayName string `json:"display_name"`
	CreatedAt   string `json:"created_at"`
}

type inboxList struct {
	Count   int         `json:"count"`
	Inboxes []inboxItem `json:"inboxes"`
}

// Messages lists the most recent inbound messages with their full text
// bodies and labels.
func (c *Client) Messages(ctx context.Context, limit int) ([]ports.MailMessage, error) {
	if c.apiKey == "" || c.inbox == "" {
		return nil, fmt.Errorf("agentmail client misconfigured")
	}
	if limit <= 0 {
		limit = 10
	}

	var list messageList
	path := fmt.Sprintf("/inboxes/%s/messages?limit=%d", c.inbox, limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	messages := make([]ports.MailMessage, 0, len(list.Messages))
	for _, item := range list.Messages {
		// The list endpoint omits bodies; fetch the full message.
		full := item
		if item.Text == "" && item.HTML == "" {
			if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/inboxes/%s/messages/%s", c.inbox, item.MessageID), nil, &full); err != nil {
				return nil, fmt.Errorf("get message %s: %w", item.MessageID, err)
			}
		}
		messages = append(messages, ports.MailMessage{
			ID:         full.MessageID,
			Sender:     full.From,
			Subject:    full.Subject,
			Text:       full.Text,
			HTML:       full.HTML,
			Labels:     full.Labels,
			ReceivedAt: parseTimestamp(full.Timestamp),
		})
	}

	return messages, nil
}

// AddLabel marks a message so subsequent polls skip it.
func (c *Client) AddLabel(ctx context.Context, messageID, label string) error {
	payload := map[string]any{"add_labels": []string{label}}
	path := fmt.Sprintf("/inboxes/%s/messages/%s", c.inbox, messageID)
	if err := c.do(ctx, http.MethodPatch, path, payload, nil); err != nil {
		return fmt.Errorf("label message %s: %w", messageID, err)
	}
	return nil
}

// Inboxes lists the mailboxes available on the account.
func (c *Client) Inboxes(ctx context.Context) ([]ports.Inbox, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("agentmail client misconfigured")
	}

	var list inboxList
	if err := c.do(ctx, http.MethodGet, "/inboxes", nil, &list); err != nil {
		return nil, fmt.Errorf("list inboxes: %w", err)
	}

	inboxes := make([]ports.Inbox, 0, len(list.Inboxes))
	for _, item := range list.Inboxes {
		inboxes = append(inboxes, ports.Inbox{
			ID:          item.InboxID,
			DisplayName: item.DisplayName,
			CreatedAt:   parseTimestamp(item.CreatedAt),
		})
	}

	return inboxes, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, v any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("agentmail error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Now().UTC()
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Now().UTC()
	}
	return parsed
}
