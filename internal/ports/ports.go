package ports

import (
	"context"
	"errors"
	"time"
)

// ErrObjectNotFound is returned by ObjectStore.Get for absent keys.
var ErrObjectNotFound = errors.New("object not found")

// MailMessage is one inbound email as seen by the polling pipeline.
type MailMessage struct {
	ID         string
	Sender     string
	Subject    string
	Text       string
	HTML       string
	Labels     []string
	ReceivedAt time.Time
}

// Inbox describes a mailbox available on the mail service account.
type Inbox struct {
	ID          string
	DisplayName string
	CreatedAt   time.Time
}

// MailTransport yields inbound messages and records processing labels.
type MailTransport interface {
	Messages(ctx context.Context, limit int) ([]MailMessage, error)
	AddLabel(ctx context.Context, messageID, label string) error
	Inboxes(ctx context.Context) ([]Inbox, error)
}

// ContentFetcher resolves a URL to extracted article title and text.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (title, text string, err error)
}

// Summarizer turns the combined article prompt into a narration script.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// SpeechSynthesizer converts a text chunk into audio bytes.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// ObjectStore is the narrow put/get/list/delete surface of the bucket
// holding audio objects and the feed documents.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// Notifier announces a published episode to an outbound channel.
type Notifier interface {
	PublishDigest(ctx context.Context, message string) error
}
