// ABOUTME: Core PCM audio types for the playout engine
// ABOUTME: Defines stream formats and decoded sample buffers
package audio

import "encoding/binary"

// Format describes audio stream format
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// Buffer represents one decoded chunk of PCM audio. Samples are
// interleaved signed 16-bit and immutable once produced. Seq is the
// arrival sequence number of the source chunk.
type Buffer struct {
	Seq     uint64
	Samples []int16
	Format  Format
}

// FrameCount returns the per-channel sample count
func (b Buffer) FrameCount() int {
	if b.Format.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Format.Channels
}

// Duration returns the buffer length in seconds.
// Invariant: Duration == FrameCount / SampleRate.
func (b Buffer) Duration() float64 {
	if b.Format.SampleRate == 0 {
		return 0
	}
	return float64(b.FrameCount()) / float64(b.Format.SampleRate)
}

// FrameAt converts an intra-buffer offset in seconds to a frame index,
// clamped to the buffer bounds
func (b Buffer) FrameAt(offset float64) int {
	if offset <= 0 {
		return 0
	}
	frame := int(offset * float64(b.Format.SampleRate))
	if frame > b.FrameCount() {
		frame = b.FrameCount()
	}
	return frame
}

// TailFrom returns the interleaved samples starting at the given
// intra-buffer offset in seconds
func (b Buffer) TailFrom(offset float64) []int16 {
	return b.Samples[b.FrameAt(offset)*b.Format.Channels:]
}

// SplitChannels de-interleaves samples into per-channel sequences
func SplitChannels(samples []int16, channels int) [][]int16 {
	if channels <= 0 {
		return nil
	}
	frames := len(samples) / channels
	out := make([][]int16, channels)
	for ch := range out {
		out[ch] = make([]int16, frames)
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			out[ch][i] = samples[i*channels+ch]
		}
	}
	return out
}

// MonoFloat64 mixes interleaved samples down to a single normalized
// float64 channel in [-1, 1]
func MonoFloat64(samples []int16, channels int) []float64 {
	if channels <= 0 {
		return nil
	}
	frames := len(samples) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(samples[i*channels+ch])
		}
		out[i] = sum / float64(channels) / 32768.0
	}
	return out
}

// BytesToSamples converts little-endian 16-bit PCM bytes to samples
func BytesToSamples(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}

// SamplesToBytes converts samples to little-endian 16-bit PCM bytes
func SamplesToBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return data
}
