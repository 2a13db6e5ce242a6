// ABOUTME: Tests for the decoded-buffer timeline
// ABOUTME: Covers reordering, prefix sums, locate, and clear semantics
package timeline

import (
	"testing"

	"github.com/Driftwave-Audio/driftwave-go/pkg/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buffer builds a mono 10Hz buffer whose duration is frames/10 seconds
func buffer(seq uint64, frames int) audio.Buffer {
	return audio.Buffer{
		Seq:     seq,
		Samples: make([]int16, frames),
		Format:  audio.Format{Codec: "pcm", SampleRate: 10, Channels: 1, BitDepth: 16},
	}
}

func TestAppendInOrder(t *testing.T) {
	tl := New()

	admitted := tl.Append(buffer(0, 10))
	require.Len(t, admitted, 1)
	admitted = tl.Append(buffer(1, 10))
	require.Len(t, admitted, 1)

	assert.Equal(t, 2, tl.Len())
	assert.Equal(t, 1.0, tl.CumulativeDurationAt(0))
	assert.Equal(t, 2.0, tl.CumulativeDurationAt(1))
	assert.Equal(t, 2.0, tl.TotalDuration())
}

func TestAppendReordersRacingCompletions(t *testing.T) {
	tl := New()

	// Decodes complete 2, 0, 1; timeline must admit 0, 1, 2
	assert.Empty(t, tl.Append(buffer(2, 10)))
	admitted := tl.Append(buffer(0, 10))
	require.Len(t, admitted, 1)
	assert.Equal(t, uint64(0), admitted[0].Seq)

	admitted = tl.Append(buffer(1, 10))
	require.Len(t, admitted, 2)
	assert.Equal(t, uint64(1), admitted[0].Seq)
	assert.Equal(t, uint64(2), admitted[1].Seq)

	for i := 0; i < tl.Len(); i++ {
		assert.Equal(t, uint64(i), tl.At(i).Seq)
	}
}

func TestSkipUnblocksSuccessors(t *testing.T) {
	tl := New()

	tl.Append(buffer(0, 10))
	assert.Empty(t, tl.Append(buffer(2, 10)))

	// Chunk 1 failed to decode; 2 must flush
	admitted := tl.Skip(1)
	require.Len(t, admitted, 1)
	assert.Equal(t, uint64(2), admitted[0].Seq)
	assert.Equal(t, 2, tl.Len())
	assert.Equal(t, 2.0, tl.TotalDuration())
}

func TestSkipAheadOfPredecessors(t *testing.T) {
	tl := New()

	// Failure reported before earlier chunks finish decoding
	assert.Empty(t, tl.Skip(1))
	admitted := tl.Append(buffer(0, 10))
	require.Len(t, admitted, 1)

	admitted = tl.Append(buffer(2, 10))
	require.Len(t, admitted, 1)
	assert.Equal(t, uint64(2), admitted[0].Seq)
}

func TestDuplicateAppendIgnored(t *testing.T) {
	tl := New()
	tl.Append(buffer(0, 10))
	assert.Empty(t, tl.Append(buffer(0, 10)))
	assert.Equal(t, 1, tl.Len())
}

func TestLocate(t *testing.T) {
	tl := New()
	tl.Append(buffer(0, 10)) // [0.0, 1.0)
	tl.Append(buffer(1, 10)) // [1.0, 2.0)
	tl.Append(buffer(2, 5))  // [2.0, 2.5)

	idx, off := tl.Locate(0)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 0.0, off)

	idx, off = tl.Locate(1.5)
	assert.Equal(t, 1, idx)
	assert.InDelta(t, 0.5, off, 1e-9)

	// Exact boundary picks the following buffer at zero offset
	idx, off = tl.Locate(1.0)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 0.0, off)

	// Past the end: nothing to play
	idx, off = tl.Locate(2.5)
	assert.Equal(t, 3, idx)
	assert.Equal(t, 0.0, off)

	// Clamped below zero
	idx, off = tl.Locate(-3)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 0.0, off)
}

func TestLocateIdempotent(t *testing.T) {
	tl := New()
	tl.Append(buffer(0, 10))
	tl.Append(buffer(1, 7))

	i1, o1 := tl.Locate(1.3)
	i2, o2 := tl.Locate(1.3)
	assert.Equal(t, i1, i2)
	assert.Equal(t, o1, o2)
}

func TestLocateEmpty(t *testing.T) {
	idx, off := New().Locate(1.0)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 0.0, off)
}

func TestWindow(t *testing.T) {
	tl := New()
	b := buffer(0, 10)
	for i := range b.Samples {
		b.Samples[i] = int16(i)
	}
	tl.Append(b)

	win := tl.Window(0.5, 3)
	require.Len(t, win, 3)
	assert.InDelta(t, 5.0/32768.0, win[0], 1e-9)

	assert.Nil(t, tl.Window(1.0, 4))
}

func TestWindowSpansBuffers(t *testing.T) {
	tl := New()
	tl.Append(buffer(0, 10))
	tl.Append(buffer(1, 10))

	win := tl.Window(0.8, 6)
	assert.Len(t, win, 6)
}

func TestSnapshotSamplesConcatenatesInOrder(t *testing.T) {
	tl := New()

	a := buffer(0, 2)
	a.Samples[0], a.Samples[1] = 1, 2
	b := buffer(1, 2)
	b.Samples[0], b.Samples[1] = 3, 4

	tl.Append(a)
	tl.Append(b)

	assert.Equal(t, []int16{1, 2, 3, 4}, tl.SnapshotSamples())
	assert.Empty(t, New().SnapshotSamples())
}

func TestClearResetsEverything(t *testing.T) {
	tl := New()
	tl.Append(buffer(0, 10))
	tl.Append(buffer(2, 10)) // pending

	tl.Clear()
	assert.Equal(t, 0, tl.Len())
	assert.Equal(t, 0.0, tl.TotalDuration())

	// Sequence numbering restarts after clear
	admitted := tl.Append(buffer(0, 10))
	assert.Len(t, admitted, 1)
}
