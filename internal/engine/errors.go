// ABOUTME: Failure taxonomy for the playout engine
// ABOUTME: Distinguishes recoverable decode errors from fatal session/device errors
package engine

import "errors"

var (
	// ErrDecode marks a single chunk that failed to decode. The chunk is
	// dropped and the stream continues.
	ErrDecode = errors.New("chunk decode failed")

	// ErrSessionLost marks a lost or rejected generator session. Not
	// recoverable in place; forces a full teardown to stopped.
	ErrSessionLost = errors.New("generator session lost")

	// ErrDevice marks an unavailable output device. Fatal; forces a full
	// teardown to stopped.
	ErrDevice = errors.New("output device unavailable")

	// ErrNotSeekable is returned for a seek issued while the transport
	// is stopped or the timeline is empty
	ErrNotSeekable = errors.New("cannot seek: transport stopped or timeline empty")
)
