// ABOUTME: PCM chunk decoder
// ABOUTME: Decodes raw 16-bit little-endian PCM chunks
package decode

import (
	"fmt"

	"github.com/Driftwave-Audio/driftwave-go/pkg/audio"
)

// PCMDecoder decodes raw PCM chunks
type PCMDecoder struct {
	format audio.Format
}

// NewPCM creates a new PCM decoder
func NewPCM(format audio.Format) (Decoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}

	if format.BitDepth != 16 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16)", format.BitDepth)
	}

	return &PCMDecoder{format: format}, nil
}

// Decode converts PCM bytes to int16 samples
func (d *PCMDecoder) Decode(data []byte) ([]int16, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty pcm chunk")
	}

	// A chunk must hold whole frames
	frameBytes := 2 * d.format.Channels
	if len(data)%frameBytes != 0 {
		return nil, fmt.Errorf("pcm chunk size %d not a multiple of frame size %d", len(data), frameBytes)
	}

	return audio.BytesToSamples(data), nil
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	return nil
}
