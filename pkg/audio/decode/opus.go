// ABOUTME: Opus chunk decoder
// ABOUTME: Decodes Opus frames to int16 samples
package decode

import (
	"fmt"

	"github.com/Driftwave-Audio/driftwave-go/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// OpusDecoder decodes Opus chunks
type OpusDecoder struct {
	format audio.Format
}

// NewOpus creates a new Opus decoder
func NewOpus(format audio.Format) (Decoder, error) {
	if format.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for Opus decoder: %s", format.Codec)
	}

	// Validate the format up front so per-chunk construction can't fail
	if _, err := opus.NewDecoder(format.SampleRate, format.Channels); err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}

	return &OpusDecoder{format: format}, nil
}

// Decode converts Opus frame bytes to int16 samples. A decoder instance
// is created per call so concurrent decodes share no state.
func (d *OpusDecoder) Decode(data []byte) ([]int16, error) {
	dec, err := opus.NewDecoder(d.format.SampleRate, d.format.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}

	pcm := make([]int16, 5760*d.format.Channels) // max opus frame
	n, err := dec.Decode(data, pcm)
	if err != nil {
		return nil, fmt.Errorf("opus decode failed: %w", err)
	}

	return pcm[:n*d.format.Channels], nil
}

// Close releases decoder resources
func (d *OpusDecoder) Close() error {
	return nil
}
