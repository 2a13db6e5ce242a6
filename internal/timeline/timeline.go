// ABOUTME: Ordered timeline of decoded buffers with a cumulative index
// ABOUTME: Reorders racing decode completions back into arrival order
package timeline

import (
	"sort"
	"sync"

	"github.com/Driftwave-Audio/driftwave-go/pkg/audio"
)

// Timeline is the append-only ordered sequence of decoded buffers and
// the source of truth for seeking. Decode completions may arrive out of
// order; each carries its source chunk's arrival sequence number, and
// the timeline holds early arrivals in a pending set until the expected
// next sequence is available, then flushes the contiguous run.
type Timeline struct {
	mu      sync.RWMutex
	buffers []audio.Buffer
	ends    []float64 // cumulative end time of buffers[i], maintained incrementally
	pending map[uint64]audio.Buffer
	nextSeq uint64
}

// New creates an empty timeline
func New() *Timeline {
	return &Timeline{pending: make(map[uint64]audio.Buffer)}
}

// Append admits a decoded buffer in the arrival order of its source
// chunk. It returns the buffers admitted by this call, in order: empty
// if buf arrived ahead of a still-missing predecessor, possibly several
// if buf unblocked pending successors.
func (t *Timeline) Append(buf audio.Buffer) []audio.Buffer {
	t.mu.Lock()
	defer t.mu.Unlock()

	if buf.Seq < t.nextSeq {
		// Duplicate or already-skipped chunk
		return nil
	}

	t.pending[buf.Seq] = buf
	return t.flushLocked()
}

// Skip drops a chunk sequence whose decode failed and returns any
// pending successors that become admissible
func (t *Timeline) Skip(seq uint64) []audio.Buffer {
	t.mu.Lock()
	defer t.mu.Unlock()

	if seq < t.nextSeq {
		return nil
	}

	delete(t.pending, seq)
	if seq == t.nextSeq {
		t.nextSeq++
	} else {
		// Mark the hole so the flush can step over it later
		t.pending[seq] = audio.Buffer{Seq: seq}
	}
	return t.flushLocked()
}

// flushLocked admits the contiguous run starting at nextSeq
func (t *Timeline) flushLocked() []audio.Buffer {
	var admitted []audio.Buffer
	for {
		buf, ok := t.pending[t.nextSeq]
		if !ok {
			break
		}
		delete(t.pending, t.nextSeq)
		t.nextSeq++

		if len(buf.Samples) == 0 {
			// Skipped hole
			continue
		}

		end := buf.Duration()
		if n := len(t.ends); n > 0 {
			end += t.ends[n-1]
		}
		t.buffers = append(t.buffers, buf)
		t.ends = append(t.ends, end)
		admitted = append(admitted, buf)
	}
	return admitted
}

// Len returns the number of admitted buffers
func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.buffers)
}

// At returns the admitted buffer at the given index
func (t *Timeline) At(i int) audio.Buffer {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.buffers[i]
}

// CumulativeDurationAt returns the cumulative end time, in seconds, of
// the buffer at index i. O(1) via the maintained prefix sums.
func (t *Timeline) CumulativeDurationAt(i int) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ends[i]
}

// TotalDuration returns the current sum of all buffer durations.
// Monotonically non-decreasing until Clear.
func (t *Timeline) TotalDuration() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.ends) == 0 {
		return 0
	}
	return t.ends[len(t.ends)-1]
}

// Locate maps a global timeline instant to (bufferIndex, intraOffset).
// The target is clamped to [0, TotalDuration]. A target exactly on a
// buffer boundary locates the following buffer at offset zero; a target
// at TotalDuration returns index == Len, meaning nothing to play.
func (t *Timeline) Locate(target float64) (int, float64) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.ends) == 0 {
		return 0, 0
	}

	total := t.ends[len(t.ends)-1]
	if target < 0 {
		target = 0
	}
	if target >= total {
		return len(t.buffers), 0
	}

	idx := sort.Search(len(t.ends), func(i int) bool { return t.ends[i] > target })

	start := 0.0
	if idx > 0 {
		start = t.ends[idx-1]
	}
	return idx, target - start
}

// Window extracts up to frames mono samples beginning at the given
// timeline instant, for the visualizer. Returns nil if the instant is
// outside the admitted timeline.
func (t *Timeline) Window(at float64, frames int) []float64 {
	idx, offset := t.Locate(at)

	t.mu.RLock()
	defer t.mu.RUnlock()

	if idx >= len(t.buffers) {
		return nil
	}

	out := make([]float64, 0, frames)
	for i := idx; i < len(t.buffers) && len(out) < frames; i++ {
		buf := t.buffers[i]
		tail := buf.TailFrom(offset)
		offset = 0
		mono := audio.MonoFloat64(tail, buf.Format.Channels)
		if need := frames - len(out); len(mono) > need {
			mono = mono[:need]
		}
		out = append(out, mono...)
	}
	return out
}

// SnapshotSamples returns every admitted buffer's samples as one
// interleaved sequence, for export
func (t *Timeline) SnapshotSamples() []int16 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var total int
	for _, buf := range t.buffers {
		total += len(buf.Samples)
	}

	out := make([]int16, 0, total)
	for _, buf := range t.buffers {
		out = append(out, buf.Samples...)
	}
	return out
}

// Clear atomically empties the timeline, its derived index, and the
// pending reorder set. Used only on session reset.
func (t *Timeline) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buffers = nil
	t.ends = nil
	t.pending = make(map[uint64]audio.Buffer)
	t.nextSeq = 0
}
