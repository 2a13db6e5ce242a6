// ABOUTME: Append-only log of raw encoded audio chunks
// ABOUTME: Source of truth for export and arrival ordering
package store

import "sync"

// ChunkStore holds every raw encoded chunk received in one session, in
// arrival order. Chunks are immutable once stored; the store is cleared
// only on an explicit session reset, never on pause or stop.
type ChunkStore struct {
	mu     sync.RWMutex
	chunks [][]byte
	bytes  int
}

// New creates an empty chunk store
func New() *ChunkStore {
	return &ChunkStore{}
}

// Append stores a chunk and returns its arrival sequence number.
// O(1) amortized, never fails.
func (s *ChunkStore) Append(data []byte) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := uint64(len(s.chunks))
	s.chunks = append(s.chunks, data)
	s.bytes += len(data)
	return seq
}

// Snapshot returns the ordered chunk sequence as a consistent
// point-in-time view. Chunk contents are shared (immutable); the slice
// itself is a copy, so concurrent appends cannot tear the view.
func (s *ChunkStore) Snapshot() [][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([][]byte, len(s.chunks))
	copy(out, s.chunks)
	return out
}

// SnapshotBytes returns every stored chunk concatenated in arrival
// order, for WAV wrapping and encoder handoff
func (s *ChunkStore) SnapshotBytes() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]byte, 0, s.bytes)
	for _, c := range s.chunks {
		out = append(out, c...)
	}
	return out
}

// Len returns the number of stored chunks
func (s *ChunkStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Bytes returns the total stored payload size
func (s *ChunkStore) Bytes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bytes
}

// Clear empties the store for a fresh session
func (s *ChunkStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = nil
	s.bytes = 0
}
