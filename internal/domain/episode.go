package domain

import "time"

// Episode is one published digest: an audio object plus its feed metadata.
// At most one episode exists per date; republishing a date replaces it.
type Episode struct {
	Date            time.Time `json:"date"`
	AudioKey        string    `json:"audio_key"`
	AudioURL        string    `json:"audio_url"`
	DurationSeconds int64     `json:"duration_seconds"`
	FileSizeBytes   int64     `json:"file_size_bytes"`
	Title           string    `json:"title"`
	Summary         string    `json:"summary"`
	PublishedAt     time.Time `json:"published_at"`
}
