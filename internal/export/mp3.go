// ABOUTME: MP3 export boundary
// ABOUTME: De-interleaves captured audio and hands frames to a pluggable encoder
package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/Driftwave-Audio/driftwave-go/pkg/audio"
)

// MP3FrameLen is the per-channel sample count of one MP3 frame
const MP3FrameLen = 1152

// ErrNoEncoder is returned when MP3 export is requested without an
// encoder wired in
var ErrNoEncoder = errors.New("no mp3 encoder available")

// FrameEncoder turns de-interleaved PCM frames into encoded MP3 frames.
// Mono input arrives with right == nil. Flush drains any delayed frames
// buffered inside the encoder.
type FrameEncoder interface {
	EncodeFrame(left, right []int16) ([]byte, error)
	Flush() ([]byte, error)
}

// WriteMP3 de-interleaves the captured samples into per-channel frames
// of MP3FrameLen and streams the encoded output to w. The final frame is
// zero-padded to length.
func WriteMP3(w io.Writer, enc FrameEncoder, format audio.Format, samples []int16) error {
	if enc == nil {
		return ErrNoEncoder
	}

	channels := audio.SplitChannels(samples, format.Channels)
	if len(channels) == 0 {
		return fmt.Errorf("no channels to encode")
	}

	left := channels[0]
	var right []int16
	if len(channels) > 1 {
		right = channels[1]
	}

	for start := 0; start < len(left); start += MP3FrameLen {
		end := start + MP3FrameLen
		if end > len(left) {
			end = len(left)
		}

		l := padFrame(left[start:end])
		var r []int16
		if right != nil {
			r = padFrame(right[start:end])
		}

		frame, err := enc.EncodeFrame(l, r)
		if err != nil {
			return fmt.Errorf("mp3 frame encode failed: %w", err)
		}
		if _, err := w.Write(frame); err != nil {
			return fmt.Errorf("failed to write mp3 frame: %w", err)
		}
	}

	tail, err := enc.Flush()
	if err != nil {
		return fmt.Errorf("mp3 flush failed: %w", err)
	}
	if len(tail) > 0 {
		if _, err := w.Write(tail); err != nil {
			return fmt.Errorf("failed to write mp3 tail: %w", err)
		}
	}
	return nil
}

// padFrame zero-pads a short final frame to MP3FrameLen
func padFrame(frame []int16) []int16 {
	if len(frame) == MP3FrameLen {
		return frame
	}
	out := make([]int16, MP3FrameLen)
	copy(out, frame)
	return out
}
