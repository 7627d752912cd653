package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// mpegFrames builds n synthetic MPEG-1 Layer III frames at 128 kbit/s,
// 44.1 kHz, no padding: 417 bytes and 1152 samples per frame.
func mpegFrames(n int) []byte {
	const frameSize = 417
	data := make([]byte, 0, n*frameSize)
	for i := 0; i < n; i++ {
		frame := make([]byte, frameSize)
		frame[0] = 0xFF
		frame[1] = 0xFB
		frame[2] = 0x90
		frame[3] = 0x64
		data = append(data, frame...)
	}
	return data
}

func TestMP3DurationCountsFrames(t *testing.T) {
	t.Parallel()

	const frames = 100
	duration, err := mp3Duration(mpegFrames(frames))
	require.NoError(t, err)

	wantSeconds := float64(frames) * 1152 / 44100
	want := time.Duration(wantSeconds * float64(time.Second))
	require.InDelta(t, want.Seconds(), duration.Seconds(), 0.01)
}

func TestMP3DurationSkipsID3Tag(t *testing.T) {
	t.Parallel()

	// 10-byte ID3v2 header plus a 20-byte tag body.
	tag := append([]byte("ID3"), 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x14)
	tag = append(tag, make([]byte, 20)...)
	data := append(tag, mpegFrames(10)...)

	duration, err := mp3Duration(data)
	require.NoError(t, err)

	wantSeconds := float64(10) * 1152 / 44100
	want := time.Duration(wantSeconds * float64(time.Second))
	require.InDelta(t, want.Seconds(), duration.Seconds(), 0.01)
}

func TestMP3DurationResyncsAfterGarbage(t *testing.T) {
	t.Parallel()

	data := append([]byte{0x00, 0x12, 0x34}, mpegFrames(5)...)
	duration, err := mp3Duration(data)
	require.NoError(t, err)
	require.Greater(t, duration, time.Duration(0))
}

func TestMP3DurationRejectsNonAudio(t *testing.T) {
	t.Parallel()

	_, err := mp3Duration([]byte("definitely not an mp3 stream"))
	require.Error(t, err)

	_, err = mp3Duration(nil)
	require.Error(t, err)
}
