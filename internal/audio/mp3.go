package audio

import (
	"errors"
	"time"
)

// mp3Duration computes playback time by walking MPEG audio frame headers.
// Handles an optional leading ID3v2 tag, CBR and VBR streams, and skips
// garbage between frames by re-syncing.
func mp3Duration(data []byte) (time.Duration, error) {
	var (
		samples    float64
		frameCount int
	)

	i := skipID3(data)
	for i+4 <= len(data) {
		header, ok := parseFrameHeader(data[i:])
		if !ok {
			i++
			continue
		}
		samples += float64(header.samplesPerFrame) / float64(header.sampleRate)
		frameCount++
		i += header.frameSize
	}

	if frameCount == 0 {
		return 0, errors.New("no mpeg audio frames found")
	}

	return time.Duration(samples * float64(time.Second)), nil
}

type frameHeader struct {
	frameSize       int
	sampleRate      int
	samplesPerFrame int
}

var (
	// Layer III bitrates in kbit/s, indexed by bitrate field.
	bitratesV1 = [16]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0}
	bitratesV2 = [16]int{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0}

	sampleRatesV1  = [4]int{44100, 48000, 32000, 0}
	sampleRatesV2  = [4]int{22050, 24000, 16000, 0}
	sampleRatesV25 = [4]int{11025, 12000, 8000, 0}
)

func parseFrameHeader(data []byte) (frameHeader, bool) {
	if len(data) < 4 {
		return frameHeader{}, false
	}
	if data[0] != 0xFF || data[1]&0xE0 != 0xE0 {
		return frameHeader{}, false
	}

	version := (data[1] >> 3) & 0x03 // 00=2.5, 10=2, 11=1
	layer := (data[1] >> 1) & 0x03   // 01=Layer III
	if version == 0x01 || layer != 0x01 {
		return frameHeader{}, false
	}

	bitrateIndex := (data[2] >> 4) & 0x0F
	sampleRateIndex := (data[2] >> 2) & 0x03
	padding := int((data[2] >> 1) & 0x01)
	if bitrateIndex == 0 || bitrateIndex == 0x0F || sampleRateIndex == 0x03 {
		return frameHeader{}, false
	}

	var (
		bitrate         int
		sampleRate      int
		samplesPerFrame int
	)
	switch version {
	case 0x03: // MPEG-1
		bitrate = bitratesV1[bitrateIndex] * 1000
		sampleRate = sampleRatesV1[sampleRateIndex]
		samplesPerFrame = 1152
	case 0x02: // MPEG-2
		bitrate = bitratesV2[bitrateIndex] * 1000
		sampleRate = sampleRatesV2[sampleRateIndex]
		samplesPerFrame = 576
	default: // MPEG-2.5
		bitrate = bitratesV2[bitrateIndex] * 1000
		sampleRate = sampleRatesV25[sampleRateIndex]
		samplesPerFrame = 576
	}
	if bitrate == 0 || sampleRate == 0 {
		return frameHeader{}, false
	}

	frameSize := samplesPerFrame/8*bitrate/sampleRate + padding
	if frameSize < 4 {
		return frameHeader{}, false
	}

	return frameHeader{
		frameSize:       frameSize,
		sampleRate:      sampleRate,
		samplesPerFrame: samplesPerFrame,
	}, true
}

func skipID3(data []byte) int {
	if len(data) < 10 || data[0] != 'I' || data[1] != 'D' || data[2] != '3' {
		return 0
	}
	// Synchsafe 28-bit size, excluding the 10-byte header.
	size := int(data[6]&0x7F)<<21 | int(data[7]&0x7F)<<14 | int(data[8]&0x7F)<<7 | int(data[9]&0x7F)
	end := 10 + size
	if end > len(data) {
		return len(data)
	}
	return end
}
