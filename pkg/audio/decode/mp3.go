// ABOUTME: MP3 chunk decoder
// ABOUTME: Decodes self-contained MP3 chunks to int16 samples
package decode

import (
	"bytes"
	"fmt"
	"io"

	"github.com/Driftwave-Audio/driftwave-go/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

// MP3Decoder decodes MP3 chunks. Each chunk from the generator is a
// self-contained MP3 stream, so a fresh go-mp3 decoder is built per
// call and no state is shared between concurrent decodes.
type MP3Decoder struct {
	format audio.Format
}

// NewMP3 creates a new MP3 decoder
func NewMP3(format audio.Format) (Decoder, error) {
	if format.Codec != "mp3" {
		return nil, fmt.Errorf("invalid codec for MP3 decoder: %s", format.Codec)
	}

	return &MP3Decoder{format: format}, nil
}

// Decode converts MP3 chunk bytes to int16 samples
func (d *MP3Decoder) Decode(data []byte) ([]int16, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	// go-mp3 always outputs 16-bit stereo at the stream's sample rate
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode error: %w", err)
	}

	return audio.BytesToSamples(pcm), nil
}

// Close releases resources
func (d *MP3Decoder) Close() error {
	return nil
}
