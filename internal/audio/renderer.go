// Package audio converts a narration script into one playable MP3 artifact.
package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"morsel/internal/ports"
	"morsel/internal/retry"
)

// ErrRenderFailed wraps a synthesis failure that persisted through retries.
// No partial audio is ever returned.
var ErrRenderFailed = errors.New("audio render failed")

// Audio is the rendered artifact with its accounting.
type Audio struct {
	Bytes    []byte
	Duration time.Duration
	Size     int64
}

// Renderer synthesizes a script in sentence-aligned chunks and concatenates
// the MP3 output.
type Renderer struct {
	synth       ports.SpeechSynthesizer
	chunkChars  int
	maxAttempts int
	logger      *slog.Logger
}

// NewRenderer wires the synthesis client. chunkChars bounds the text sent
// per synthesis call.
func NewRenderer(synth ports.SpeechSynthesizer, chunkChars, maxAttempts int, logger *slog.Logger) *Renderer {
	if chunkChars <= 0 {
		chunkChars = 4000
	}
	return &Renderer{
		synth:       synth,
		chunkChars:  chunkChars,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Render synthesizes the full script with voice. Chunk boundaries fall on
// sentence breaks; MP3 frames from consecutive chunks concatenate without
// re-encoding. Duration and size are computed from the assembled bytes.
func (r *Renderer) Render(ctx context.Context, script, voice string) (Audio, error) {
	chunks := chunkSentences(script, r.chunkChars)
	if len(chunks) == 0 {
		return Audio{}, fmt.Errorf("%w: empty script", ErrRenderFailed)
	}

	var assembled []byte
	for i, chunk := range chunks {
		var part []byte
		err := retry.Do(ctx, r.maxAttempts, func() error {
			var callErr error
			part, callErr = r.synth.Synthesize(ctx, chunk, voice)
			return callErr
		})
		if err != nil {
			return Audio{}, fmt.Errorf("%w: chunk %d/%d: %v", ErrRenderFailed, i+1, len(chunks), err)
		}
		if len(part) == 0 {
			return Audio{}, fmt.Errorf("%w: chunk %d/%d produced no audio", ErrRenderFailed, i+1, len(chunks))
		}
		assembled = append(assembled, part...)
	}

	duration, err := mp3Duration(assembled)
	if err != nil {
		return Audio{}, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	r.debug("rendered audio", "chunks", len(chunks), "bytes", len(assembled), "duration", duration.Round(time.Second))

	return Audio{
		Bytes:    assembled,
		Duration: duration,
		Size:     int64(len(assembled)),
	}, nil
}

func (r *Renderer) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
