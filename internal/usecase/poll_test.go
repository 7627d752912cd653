package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"morsel/internal/domain"
	"morsel/internal/ports"
	"morsel/internal/queue"
)

type fakeMail struct {
	messages []ports.MailMessage
	labels   map[string][]string
	err      error
}

func (f *fakeMail) Messages(ctx context.Context, limit int) ([]ports.MailMessage, error) {
	return f.messages, f.err
}

func (f *fakeMail) AddLabel(ctx context.Context, messageID, label string) error {
	if f.labels == nil {
		f.labels = map[string][]string{}
	}
	f.labels[messageID] = append(f.labels[messageID], label)
	return nil
}

func (f *fakeMail) Inboxes(ctx context.Context) ([]ports.Inbox, error) {
	return nil, nil
}

type fakeFetcher struct {
	fail map[string]bool
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, string, error) {
	if f.fail[url] {
		return "", "", errors.New("page unreachable")
	}
	return "Title of " + url, "Body of " + url, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestStore(t *testing.T) *queue.Store {
	t.Helper()
	store, err := queue.Open(filepath.Join(t.TempDir(), "queue.db"), queue.DefaultCanonicalPolicy())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func receivedAt() time.Time {
	return time.Date(2026, time.August, 20, 9, 30, 0, 0, time.UTC)
}

func message(id, text string, labels ...string) ports.MailMessage {
	return ports.MailMessage{
		ID:         id,
		Sender:     "reader@example.com",
		Subject:    "links",
		Text:       text,
		Labels:     labels,
		ReceivedAt: receivedAt(),
	}
}

func TestPollOnceQueuesAndLabels(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	mail := &fakeMail{messages: []ports.MailMessage{
		message("m1", "check out https://a.example/post and https://b.example/other"),
	}}

	poller := NewPoller(mail, &fakeFetcher{}, store, 50, nil, discardLogger())
	queued, err := poller.PollOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, queued)
	require.Equal(t, []string{"processed"}, mail.labels["m1"])

	records, err := store.ArticlesFor(context.Background(), receivedAt())
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, record := range records {
		require.Equal(t, domain.StatusExtracted, record.Status)
		require.NotEmpty(t, record.Title)
		require.NotEmpty(t, record.Text)
	}
}

func TestPollOnceSkipsHandledMessages(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	mail := &fakeMail{messages: []ports.MailMessage{
		message("m1", "https://a.example/post", "processed"),
		message("m2", "https://b.example/post", "failed"),
	}}

	poller := NewPoller(mail, &fakeFetcher{}, store, 50, nil, discardLogger())
	queued, err := poller.PollOnce(context.Background())
	require.NoError(t, err)
	require.Zero(t, queued)
	require.Empty(t, mail.labels)
}

func TestPollOnceNoURLs(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	mail := &fakeMail{messages: []ports.MailMessage{
		message("m1", "just saying hi, no links here"),
	}}

	poller := NewPoller(mail, &fakeFetcher{}, store, 50, nil, discardLogger())
	queued, err := poller.PollOnce(context.Background())
	require.NoError(t, err)
	require.Zero(t, queued)
	require.Equal(t, []string{"processed"}, mail.labels["m1"])
}

func TestPollOnceDuplicateCountsAsProcessed(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	_, added, err := store.Enqueue(context.Background(), "https://a.example/post", receivedAt())
	require.NoError(t, err)
	require.True(t, added)

	mail := &fakeMail{messages: []ports.MailMessage{
		message("m1", "resending https://a.example/post?utm_source=newsletter"),
	}}

	poller := NewPoller(mail, &fakeFetcher{}, store, 50, nil, discardLogger())
	queued, err := poller.PollOnce(context.Background())
	require.NoError(t, err)
	require.Zero(t, queued)
	require.Equal(t, []string{"processed"}, mail.labels["m1"])
}

func TestPollOnceAllLinksFail(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	mail := &fakeMail{messages: []ports.MailMessage{
		message("m1", "https://down.example/one https://down.example/two"),
	}}
	fetcher := &fakeFetcher{fail: map[string]bool{
		"https://down.example/one": true,
		"https://down.example/two": true,
	}}

	poller := NewPoller(mail, fetcher, store, 50, nil, discardLogger())
	queued, err := poller.PollOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, queued)
	require.Equal(t, []string{"failed"}, mail.labels["m1"])

	records, err := store.ArticlesFor(context.Background(), receivedAt())
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, record := range records {
		require.Equal(t, domain.StatusExtractionFailed, record.Status)
	}
}

func TestPollOncePartialFailureIsProcessed(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	mail := &fakeMail{messages: []ports.MailMessage{
		message("m1", "https://a.example/good https://down.example/bad"),
	}}
	fetcher := &fakeFetcher{fail: map[string]bool{"https://down.example/bad": true}}

	poller := NewPoller(mail, fetcher, store, 50, nil, discardLogger())
	queued, err := poller.PollOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, queued)
	require.Equal(t, []string{"processed"}, mail.labels["m1"])
}

func TestPollOnceFallsBackToHTML(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	msg := message("m1", "")
	msg.HTML = `<a href="https://a.example/from-html">read this</a>`
	mail := &fakeMail{messages: []ports.MailMessage{msg}}

	poller := NewPoller(mail, &fakeFetcher{}, store, 50, nil, discardLogger())
	queued, err := poller.PollOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, queued)
}

func TestPollOnceInboxError(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	mail := &fakeMail{err: errors.New("api down")}

	poller := NewPoller(mail, &fakeFetcher{}, store, 50, nil, discardLogger())
	_, err := poller.PollOnce(context.Background())
	require.Error(t, err)
}
