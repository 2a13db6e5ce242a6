// ABOUTME: WAV export of captured session audio
// ABOUTME: Writes a canonical 44-byte RIFF/WAVE header plus raw PCM data
package export

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Driftwave-Audio/driftwave-go/pkg/audio"
)

// HeaderSize is the canonical RIFF/WAVE header length. The data chunk
// length lives at byte offset 40.
const HeaderSize = 44

// EncodeWAVHeader builds the 44-byte header for dataLen bytes of PCM
func EncodeWAVHeader(format audio.Format, dataLen int) []byte {
	byteRate := format.SampleRate * format.Channels * format.BitDepth / 8
	blockAlign := format.Channels * format.BitDepth / 8

	h := make([]byte, HeaderSize)
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], uint32(36+dataLen))
	copy(h[8:12], "WAVE")

	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16) // fmt chunk size
	binary.LittleEndian.PutUint16(h[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(h[22:24], uint16(format.Channels))
	binary.LittleEndian.PutUint32(h[24:28], uint32(format.SampleRate))
	binary.LittleEndian.PutUint32(h[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(h[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(h[34:36], uint16(format.BitDepth))

	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], uint32(dataLen))

	return h
}

// WriteWAV writes the samples captured so far as a complete WAV stream
func WriteWAV(w io.Writer, format audio.Format, samples []int16) error {
	data := audio.SamplesToBytes(samples)

	if _, err := w.Write(EncodeWAVHeader(format, len(data))); err != nil {
		return fmt.Errorf("failed to write wav header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write wav data: %w", err)
	}
	return nil
}

// WAV returns the samples as one in-memory WAV byte sequence
func WAV(format audio.Format, samples []int16) []byte {
	data := audio.SamplesToBytes(samples)
	out := make([]byte, 0, HeaderSize+len(data))
	out = append(out, EncodeWAVHeader(format, len(data))...)
	return append(out, data...)
}
