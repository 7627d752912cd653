package domain

import "time"

// ArticleStatus enumerates queue lifecycle states for a submitted link.
type ArticleStatus string

const (
	StatusQueued           ArticleStatus = "queued"
	StatusExtracted        ArticleStatus = "extracted"
	StatusExtractionFailed ArticleStatus = "extraction_failed"
)

// ArticleRecord is a deduplicated, day-bucketed link submitted by mail.
// The (Day, URL) pair is unique; URL is stored in canonical form.
type ArticleRecord struct {
	Day        time.Time
	URL        string
	Title      string
	Text       string
	Status     ArticleStatus
	ReceivedAt time.Time
}

// Extracted reports whether the record carries usable article text.
func (r ArticleRecord) Extracted() bool {
	return r.Status == StatusExtracted
}
