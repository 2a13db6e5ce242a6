// ABOUTME: Generator session message type definitions
// ABOUTME: Defines JSON control messages and binary chunk framing
package protocol

import (
	"encoding/binary"
	"fmt"
)

// Message is the top-level wrapper for all JSON session messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ClientHello is sent by clients to initiate the handshake
type ClientHello struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
	APIKey   string `json:"api_key,omitempty"`
}

// ServerHello is the generator's response to client/hello
type ServerHello struct {
	ServerID string `json:"server_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
}

// SessionCommand controls the generation session
type SessionCommand struct {
	Command string `json:"command"` // "play", "pause", "stop"
}

// PromptUpdate steers generation with a weighted text prompt
type PromptUpdate struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

// GenerationParams tunes the generative process
type GenerationParams struct {
	BPM         int     `json:"bpm,omitempty"`
	Density     float64 `json:"density,omitempty"`
	Brightness  float64 `json:"brightness,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// StreamStart notifies the client of the chunk format for the session
type StreamStart struct {
	Codec      string `json:"codec"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	BitDepth   int    `json:"bit_depth"`
}

// SessionError reports a fatal session failure from the generator
type SessionError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Binary message framing: [type:1][seq:8 big-endian][payload].
// Type 0 is an audio chunk; seq is the generator's send counter, used
// only to observe loss (a missing seq is a gap, never an error).
const (
	BinaryTypeAudioChunk = 0

	chunkHeaderSize = 9
)

// ChunkFrame is one decoded binary audio message
type ChunkFrame struct {
	Seq  uint64
	Data []byte
}

// EncodeChunkFrame builds the wire form of an audio chunk
func EncodeChunkFrame(seq uint64, data []byte) []byte {
	out := make([]byte, chunkHeaderSize+len(data))
	out[0] = BinaryTypeAudioChunk
	binary.BigEndian.PutUint64(out[1:chunkHeaderSize], seq)
	copy(out[chunkHeaderSize:], data)
	return out
}

// DecodeChunkFrame parses a binary audio message
func DecodeChunkFrame(data []byte) (ChunkFrame, error) {
	if len(data) < chunkHeaderSize {
		return ChunkFrame{}, fmt.Errorf("binary message too short: %d bytes", len(data))
	}

	if data[0] != BinaryTypeAudioChunk {
		return ChunkFrame{}, fmt.Errorf("unknown binary message type: %d", data[0])
	}

	return ChunkFrame{
		Seq:  binary.BigEndian.Uint64(data[1:chunkHeaderSize]),
		Data: data[chunkHeaderSize:],
	}, nil
}
