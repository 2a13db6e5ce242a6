// ABOUTME: Gapless look-ahead scheduler
// ABOUTME: Maps timeline buffers to device-clock-anchored scheduled units
package engine

import (
	"fmt"
	"time"

	"github.com/Driftwave-Audio/driftwave-go/pkg/audio"
	"github.com/charmbracelet/log"
)

// DefaultLookahead is the buffering window added before the first
// audible sample to absorb decode and network jitter.
const DefaultLookahead = 1.0

// Unit is a live, device-clock-anchored instance of a decoded buffer
// (or a tail-offset slice of it)
type Unit struct {
	ID      uint64
	Buffer  audio.Buffer
	Offset  float64 // intra-buffer start offset, seconds
	StartAt float64 // device-clock start time, seconds
}

// Duration returns the remaining playable length of the unit
func (u *Unit) Duration() float64 {
	return u.Buffer.Duration() - u.Offset
}

// Sink realizes scheduled units on an output device. Implementations
// deliver exactly one completion per started unit unless the unit is
// stopped first, and apply gain ramps across everything audible.
type Sink interface {
	// Start begins playback of the unit at its StartAt time
	Start(u *Unit) error

	// StopAll hard-stops every live unit immediately
	StopAll()

	// SetGain ramps the output gain to target over ramp, blocking until
	// the ramp completes
	SetGain(target float64, ramp time.Duration)

	// Completions delivers the ids of units whose playback finished
	Completions() <-chan uint64

	// Close releases the device
	Close() error
}

// SchedulerStats tracks scheduler metrics
type SchedulerStats struct {
	Scheduled int64
	Completed int64
	Gaps      int64
}

// Scheduler owns the mapping from timeline buffers to scheduled units.
// It is the only component that touches the device clock. nextTime is
// forward-only between ClearAll calls, which is what makes adjacent
// units gapless.
type Scheduler struct {
	clock     Clock
	sink      Sink
	logger    *log.Logger
	lookahead float64

	nextTime  float64
	timeSet   bool
	origin    float64
	originSet bool

	nextID uint64
	live   map[uint64]*Unit

	stats SchedulerStats
}

// NewScheduler creates a scheduler against the given clock and sink
func NewScheduler(clock Clock, sink Sink, lookahead float64, logger *log.Logger) *Scheduler {
	if lookahead <= 0 {
		lookahead = DefaultLookahead
	}
	return &Scheduler{
		clock:     clock,
		sink:      sink,
		logger:    logger.WithPrefix("scheduler"),
		lookahead: lookahead,
		live:      make(map[uint64]*Unit),
	}
}

// Schedule creates and starts a unit for buf beginning at the given
// intra-buffer offset. The unit starts at nextTime, or at deviceNow if
// generation has fallen behind (an audible gap, but a device clock
// cannot schedule in the past). A device failure is fatal.
func (s *Scheduler) Schedule(buf audio.Buffer, offset float64) (*Unit, error) {
	now := s.clock.Now()

	if !s.timeSet {
		s.nextTime = now + s.lookahead
		s.timeSet = true
		if !s.originSet {
			// First unit of the stream anchors the playback-time cursor
			s.origin = s.nextTime
			s.originSet = true
		}
	}

	start := s.nextTime
	if start < now {
		s.stats.Gaps++
		s.logger.Warn("generation fell behind, clamping start to now",
			"behind", fmt.Sprintf("%.3fs", now-start))
		start = now
	}

	s.nextID++
	unit := &Unit{
		ID:      s.nextID,
		Buffer:  buf,
		Offset:  offset,
		StartAt: start,
	}

	if err := s.sink.Start(unit); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDevice, err)
	}

	s.live[unit.ID] = unit
	s.nextTime = start + unit.Duration()
	s.stats.Scheduled++
	return unit, nil
}

// UnitDone deregisters a completed unit from the live set. It never
// perturbs nextTime.
func (s *Scheduler) UnitDone(id uint64) {
	if _, ok := s.live[id]; ok {
		delete(s.live, id)
		s.stats.Completed++
	}
}

// ClearAll stops every live unit immediately (hard cut, used on
// pause/stop/seek) and unsets nextTime
func (s *Scheduler) ClearAll() {
	s.sink.StopAll()
	s.live = make(map[uint64]*Unit)
	s.timeSet = false
}

// Rebase re-anchors the stream origin so cursor reads equal deviceNow
// minus origin for the given target, and restarts scheduling at
// deviceNow. Used by seek and resume.
func (s *Scheduler) Rebase(target float64) {
	now := s.clock.Now()
	s.origin = now - target
	s.originSet = true
	s.nextTime = now
	s.timeSet = true
}

// Cursor returns the playback-time cursor, or false before the first
// unit of a stream has anchored it
func (s *Scheduler) Cursor() (float64, bool) {
	if !s.originSet {
		return 0, false
	}
	cur := s.clock.Now() - s.origin
	if cur < 0 {
		cur = 0
	}
	return cur, true
}

// Reset unsets both the origin anchor and nextTime; used on full
// session teardown
func (s *Scheduler) Reset() {
	s.ClearAll()
	s.originSet = false
}

// LiveCount returns the number of currently live units
func (s *Scheduler) LiveCount() int {
	return len(s.live)
}

// Stats returns scheduler statistics
func (s *Scheduler) Stats() SchedulerStats {
	return s.stats
}
