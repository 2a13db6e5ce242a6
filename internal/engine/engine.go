// ABOUTME: Playout engine orchestration
// ABOUTME: Single-owner loop tying store, decode, timeline, and scheduler together
package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Driftwave-Audio/driftwave-go/internal/decode"
	"github.com/Driftwave-Audio/driftwave-go/internal/store"
	"github.com/Driftwave-Audio/driftwave-go/internal/timeline"
	"github.com/Driftwave-Audio/driftwave-go/pkg/audio"
	"github.com/charmbracelet/log"
)

// DefaultFadeRamp masks pause/resume cuts with a short gain ramp
const DefaultFadeRamp = 50 * time.Millisecond

// Session is the remote generation session as the engine sees it
type Session interface {
	Play() error
	Pause() error
	Stop() error
}

// Config holds engine configuration
type Config struct {
	Lookahead     float64       // seconds of buffering before first audible sample
	FadeRamp      time.Duration // pause/resume gain ramp length
	DecodeWorkers int
}

// Stats is a point-in-time view of engine counters
type Stats struct {
	State          string
	ChunksReceived int64
	DecodeFailures int64
	Scheduled      int64
	Completed      int64
	Gaps           int64
	LiveUnits      int
}

// Engine is the streaming playout engine. All mutable playback state is
// owned by its run loop; other goroutines reach it through commands and
// read-locked queries, never by touching shared fields.
type Engine struct {
	mu     sync.RWMutex
	cfg    Config
	logger *log.Logger

	clock     Clock
	sink      Sink
	session   Session
	store     *store.ChunkStore
	timeline  *timeline.Timeline
	sched     *Scheduler
	transport *Transport

	pool      *decode.Pool
	format    audio.Format
	formatSet bool

	cursor    float64 // frozen playback-time cursor while not playing
	nextIndex int     // next timeline index awaiting scheduling

	chunksReceived int64
	decodeFailures int64
	lastDecodeErr  error
	fatalErr       error

	cmds chan func()
	done chan struct{}
	wg   sync.WaitGroup
}

// New creates an engine against the given clock, sink, and session
func New(cfg Config, clock Clock, sink Sink, session Session, logger *log.Logger) *Engine {
	if cfg.FadeRamp <= 0 {
		cfg.FadeRamp = DefaultFadeRamp
	}
	return &Engine{
		cfg:       cfg,
		logger:    logger.WithPrefix("engine"),
		clock:     clock,
		sink:      sink,
		session:   session,
		store:     store.New(),
		timeline:  timeline.New(),
		sched:     NewScheduler(clock, sink, cfg.Lookahead, logger),
		transport: NewTransport(),
		cmds:      make(chan func(), 16),
		done:      make(chan struct{}),
	}
}

// Start launches the engine loop
func (e *Engine) Start() {
	e.wg.Add(1)
	go e.run()
}

// Close tears the engine down
func (e *Engine) Close() {
	close(e.done)
	e.wg.Wait()

	e.mu.Lock()
	if e.pool != nil {
		e.pool.Close()
	}
	e.mu.Unlock()

	e.sink.Close()
}

// run is the single owner of all playback state transitions
func (e *Engine) run() {
	defer e.wg.Done()

	for {
		select {
		case <-e.done:
			return
		case fn := <-e.cmds:
			fn()
		case res, ok := <-e.resultsCh():
			if ok {
				e.handleDecodeResult(res)
			}
		case id := <-e.sink.Completions():
			e.mu.Lock()
			e.sched.UnitDone(id)
			e.mu.Unlock()
		}
	}
}

// resultsCh returns the decode results channel, or nil (blocking
// forever in select) before the stream format is known
func (e *Engine) resultsCh() <-chan decode.Result {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.pool == nil {
		return nil
	}
	return e.pool.Results()
}

// do runs fn on the engine loop and waits for its result
func (e *Engine) do(fn func() error) error {
	errCh := make(chan error, 1)
	select {
	case e.cmds <- func() { errCh <- fn() }:
	case <-e.done:
		return errors.New("engine closed")
	}
	select {
	case err := <-errCh:
		return err
	case <-e.done:
		return errors.New("engine closed")
	}
}

// HandleStreamStart records the chunk format for the session and moves
// a stopped transport into loading. Safe to call from the session
// reader goroutine.
func (e *Engine) HandleStreamStart(format audio.Format) {
	_ = e.do(func() error {
		e.mu.Lock()
		defer e.mu.Unlock()

		e.logger.Info("stream starting",
			"codec", format.Codec, "rate", format.SampleRate,
			"channels", format.Channels, "bits", format.BitDepth)

		if e.pool != nil {
			e.pool.Close()
		}
		e.format = format
		e.formatSet = true
		e.pool = decode.NewPool(format, e.cfg.DecodeWorkers, e.logger)

		if e.transport.Current() == StateStopped {
			e.transport.Transition(StateLoading)
		}
		return nil
	})
}

// HandleChunk appends a raw chunk to the store and submits it for
// decoding. Safe to call from the session reader goroutine. Never
// fails; a chunk that cannot be decoded becomes a timeline hole.
func (e *Engine) HandleChunk(data []byte) {
	seq := e.store.Append(data)

	e.mu.Lock()
	e.chunksReceived++
	pool := e.pool
	e.mu.Unlock()

	if pool == nil {
		e.logger.Warn("chunk arrived before stream start, skipping decode", "seq", seq)
		e.timeline.Skip(seq)
		return
	}
	pool.Submit(seq, data)
}

// handleDecodeResult admits a decode completion into the timeline and
// schedules whatever became ready, if the transport permits
func (e *Engine) handleDecodeResult(res decode.Result) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// A result racing a teardown belongs to the torn-down session;
	// admitting it would seed the next session with old audio
	if e.transport.Current() == StateStopped {
		return
	}

	var admitted []audio.Buffer
	if res.Err != nil {
		e.decodeFailures++
		e.lastDecodeErr = fmt.Errorf("%w: seq %d: %v", ErrDecode, res.Seq, res.Err)
		e.logger.Warn("decode failed, dropping chunk", "seq", res.Seq, "err", res.Err)
		admitted = e.timeline.Skip(res.Seq)
	} else {
		admitted = e.timeline.Append(res.Buffer)
	}

	if len(admitted) == 0 || !e.transport.CanSchedule() {
		return
	}
	if err := e.scheduleReadyLocked(); err != nil {
		e.fatalLocked(err)
	}
}

// scheduleReadyLocked schedules every admitted-but-unscheduled timeline
// buffer back-to-back, and completes the loading -> playing transition
// once the first unit exists
func (e *Engine) scheduleReadyLocked() error {
	for e.nextIndex < e.timeline.Len() {
		buf := e.timeline.At(e.nextIndex)
		if _, err := e.sched.Schedule(buf, 0); err != nil {
			return err
		}
		e.nextIndex++
	}

	if e.transport.Current() == StateLoading && e.sched.LiveCount() > 0 {
		e.transport.Transition(StatePlaying)
		e.logger.Info("look-ahead filled, playing")
	}
	return nil
}

// Play begins a fresh session from stopped, or resumes from paused
func (e *Engine) Play() error {
	return e.do(func() error {
		e.mu.Lock()

		switch e.transport.Current() {
		case StateStopped:
			e.transport.Transition(StateLoading)
			e.mu.Unlock()
			return e.sessionPlay()
		case StatePaused:
			if err := e.resumeLocked(); err != nil {
				e.mu.Unlock()
				return err
			}
			cursor := e.cursor
			e.mu.Unlock()

			// Fade back in without the lock so cursor polls stay live
			e.sink.SetGain(1, e.cfg.FadeRamp)
			e.logger.Info("resumed", "cursor", cursor)
			return e.sessionPlay()
		default:
			e.mu.Unlock()
			return nil
		}
	})
}

// Pause freezes the cursor and cancels all pending units, masked by a
// gain fade so the cut is inaudible
func (e *Engine) Pause() error {
	return e.do(func() error {
		e.mu.Lock()

		if e.transport.Current() != StatePlaying {
			e.mu.Unlock()
			return nil
		}

		if cur, ok := e.sched.Cursor(); ok {
			e.cursor = e.clampToTimelineLocked(cur)
		}
		e.transport.Transition(StatePaused)
		cursor := e.cursor
		e.mu.Unlock()

		// The ramp blocks for its full duration; holding the lock here
		// would stall every CurrentTime/State poll for that long
		e.sink.SetGain(0, e.cfg.FadeRamp)

		e.mu.Lock()
		e.sched.ClearAll()
		e.mu.Unlock()

		e.logger.Info("paused", "cursor", cursor)
		return e.sessionPause()
	})
}

// resumeLocked re-derives the schedule from the frozen cursor. The
// caller holds e.mu and runs the fade-in after releasing it.
func (e *Engine) resumeLocked() error {
	if err := e.rescheduleLocked(e.cursor); err != nil {
		e.fatalLocked(err)
		return err
	}

	e.transport.Transition(StatePlaying)
	return nil
}

// Reset tears the whole session down: every scheduled unit, the chunk
// store, the timeline and its index (together, atomically), and the
// cursor
func (e *Engine) Reset() error {
	return e.do(func() error {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.resetLocked()
		return e.sessionStop()
	})
}

func (e *Engine) resetLocked() {
	e.sched.Reset()
	e.store.Clear()
	e.timeline.Clear()
	e.cursor = 0
	e.nextIndex = 0

	// Abandon the pool so decodes still in flight can never land in
	// the cleared timeline; the next stream start builds a fresh one
	if e.pool != nil {
		e.pool.Close()
		e.pool = nil
	}

	e.transport.Transition(StateStopped)
	e.logger.Info("session reset")
}

// fatalLocked handles unrecoverable session/device failures: the
// scheduling invariants cannot be resumed from an inconsistent
// mid-state, so the engine forces a full teardown
func (e *Engine) fatalLocked(err error) {
	e.fatalErr = err
	e.logger.Error("fatal playback error, tearing down", "err", err)
	e.resetLocked()
	_ = e.sessionStop()
}

// HandleSessionError reacts to a lost or rejected generator session
func (e *Engine) HandleSessionError(err error) {
	_ = e.do(func() error {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.fatalLocked(errors.Join(ErrSessionLost, err))
		return nil
	})
}

// CurrentTime returns the playback-time cursor in seconds. Safe to
// poll at high frequency.
func (e *Engine) CurrentTime() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	switch e.transport.Current() {
	case StatePlaying:
		if cur, ok := e.sched.Cursor(); ok {
			return e.clampToTimelineLocked(cur)
		}
		return e.cursor
	case StatePaused:
		return e.cursor
	default:
		return 0
	}
}

// clampToTimelineLocked keeps the cursor within the admitted timeline
func (e *Engine) clampToTimelineLocked(cur float64) float64 {
	if total := e.timeline.TotalDuration(); cur > total {
		return total
	}
	return cur
}

// TotalDuration returns the admitted timeline length in seconds. Safe
// to poll at high frequency.
func (e *Engine) TotalDuration() float64 {
	return e.timeline.TotalDuration()
}

// State returns the current transport state
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.transport.Current()
}

// Err returns the last fatal error, if any
func (e *Engine) Err() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.fatalErr
}

// LastDecodeError returns the most recent recovered decode failure, if
// any. Decode failures never stop playback.
func (e *Engine) LastDecodeError() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastDecodeErr
}

// Format returns the active stream format
func (e *Engine) Format() (audio.Format, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.format, e.formatSet
}

// SnapshotRaw returns everything received so far as one ordered byte
// sequence, for export
func (e *Engine) SnapshotRaw() []byte {
	return e.store.SnapshotBytes()
}

// SnapshotPCM returns the admitted timeline as one interleaved decoded
// sample sequence, for export
func (e *Engine) SnapshotPCM() []int16 {
	return e.timeline.SnapshotSamples()
}

// AudibleWindow returns a mono sample window under the playback cursor
// for the visualizer, or nil while not playing
func (e *Engine) AudibleWindow(frames int) []float64 {
	e.mu.RLock()
	playing := e.transport.Current() == StatePlaying
	e.mu.RUnlock()

	if !playing {
		return nil
	}
	return e.timeline.Window(e.CurrentTime(), frames)
}

// EngineStats returns a point-in-time view of the engine counters
func (e *Engine) EngineStats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ss := e.sched.Stats()
	return Stats{
		State:          e.transport.Current().String(),
		ChunksReceived: e.chunksReceived,
		DecodeFailures: e.decodeFailures,
		Scheduled:      ss.Scheduled,
		Completed:      ss.Completed,
		Gaps:           ss.Gaps,
		LiveUnits:      e.sched.LiveCount(),
	}
}

func (e *Engine) sessionPlay() error {
	if e.session == nil {
		return nil
	}
	return e.session.Play()
}

func (e *Engine) sessionPause() error {
	if e.session == nil {
		return nil
	}
	return e.session.Pause()
}

func (e *Engine) sessionStop() error {
	if e.session == nil {
		return nil
	}
	return e.session.Stop()
}
