// ABOUTME: Decoder interface definition
// ABOUTME: Common interface for all chunk decoders
package decode

import (
	"fmt"

	"github.com/Driftwave-Audio/driftwave-go/pkg/audio"
)

// Decoder converts one encoded chunk into interleaved 16-bit PCM.
// Implementations hold no mutable state across calls, so independent
// chunks may be decoded concurrently.
type Decoder interface {
	// Decode converts encoded chunk bytes to PCM samples
	Decode(data []byte) ([]int16, error)

	// Close releases decoder resources
	Close() error
}

// New creates a decoder for the specified format
func New(format audio.Format) (Decoder, error) {
	switch format.Codec {
	case "pcm":
		return NewPCM(format)
	case "mp3":
		return NewMP3(format)
	case "opus":
		return NewOpus(format)
	default:
		return nil, fmt.Errorf("unsupported codec: %s", format.Codec)
	}
}
