// Package audio provides small helpers over the MP3 streams the service
// returns.
package audio

import (
	"fmt"
	"io"
	"time"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// bytesPerSample is the decoder's fixed output frame: 16-bit stereo.
const bytesPerSample = 4

// Duration decodes an MP3 stream and returns its play time.
func Duration(r io.Reader) (time.Duration, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return 0, fmt.Errorf("decode mp3: %w", err)
	}

	decoded, err := io.Copy(io.Discard, decoder)
	if err != nil {
		return 0, fmt.Errorf("decode mp3: %w", err)
	}

	samples := decoded / bytesPerSample
	return time.Duration(float64(samples) / float64(decoder.SampleRate()) * float64(time.Second)), nil
}
