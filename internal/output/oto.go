// ABOUTME: Oto-backed device sink for scheduled playout units
// ABOUTME: Feeds a persistent pipe player, filling inter-unit gaps with silence
package output

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Driftwave-Audio/driftwave-go/internal/engine"
	"github.com/Driftwave-Audio/driftwave-go/pkg/audio"
	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

const (
	queueDepth = 256

	// sliceDur bounds how long a pipe write can run before the feeder
	// re-checks for a flush and re-samples the gain ramp
	sliceDur = 100 * time.Millisecond
)

// OtoSink realizes scheduled units on the system audio device. A single
// persistent oto player reads from a pipe; the feeder goroutine writes
// unit samples in device-time order, padding any gap between units with
// silence so the pipe clock stays aligned with unit start times.
type OtoSink struct {
	format audio.Format
	clock  engine.Clock
	logger *log.Logger

	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter

	queue chan *engine.Unit
	comps chan uint64

	// flushGen is bumped by StopAll; the feeder abandons any unit whose
	// generation no longer matches
	flushGen atomic.Uint64

	gainMu    sync.Mutex
	gainFrom  float64
	gainTo    float64
	rampStart float64
	rampDur   float64

	done      chan struct{}
	closeOnce sync.Once
}

// NewOtoSink opens the output device for the given stream format and
// starts the feeder. oto only allows one context per process, so the
// sink must be created once and reused for the life of the process.
func NewOtoSink(format audio.Format, clock engine.Clock, logger *log.Logger) (*OtoSink, error) {
	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	}

	otoCtx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	s := &OtoSink{
		format: format,
		clock:  clock,
		logger: logger.WithPrefix("output"),
		otoCtx: otoCtx,
		queue:  make(chan *engine.Unit, queueDepth),
		comps:  make(chan uint64, queueDepth),
		gainTo: 1.0,
		done:   make(chan struct{}),
	}

	s.pipeReader, s.pipeWriter = io.Pipe()
	s.player = otoCtx.NewPlayer(s.pipeReader)
	s.player.Play()

	go s.run()

	s.logger.Info("output device opened",
		"rate", format.SampleRate, "channels", format.Channels)
	return s, nil
}

// Start enqueues the unit for playout at its StartAt time. Units must
// arrive in non-decreasing StartAt order.
func (s *OtoSink) Start(u *engine.Unit) error {
	select {
	case s.queue <- u:
		return nil
	case <-s.done:
		return fmt.Errorf("sink closed")
	default:
		return fmt.Errorf("playout queue full")
	}
}

// StopAll hard-stops everything audible: queued units are discarded and
// the unit currently being fed is abandoned at the next slice boundary
func (s *OtoSink) StopAll() {
	s.flushGen.Add(1)
	for {
		select {
		case <-s.queue:
		default:
			return
		}
	}
}

// SetGain ramps the output gain to target over ramp, blocking until the
// ramp has elapsed. The feeder samples the ramp per write slice.
func (s *OtoSink) SetGain(target float64, ramp time.Duration) {
	s.gainMu.Lock()
	now := s.clock.Now()
	s.gainFrom = s.gainAt(now)
	s.gainTo = target
	s.rampStart = now
	s.rampDur = ramp.Seconds()
	s.gainMu.Unlock()

	if ramp > 0 {
		time.Sleep(ramp)
	}
}

// Completions delivers the ids of units played to their end
func (s *OtoSink) Completions() <-chan uint64 {
	return s.comps
}

// Close releases the device. The oto context cannot be torn down, so it
// is suspended.
func (s *OtoSink) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.pipeWriter.Close()
		s.player.Close()
		s.pipeReader.Close()
		s.otoCtx.Suspend()
		s.logger.Info("output device closed")
	})
	return nil
}

// run feeds the pipe in device-time order. writtenUntil tracks the
// device time covered by bytes written so far; it resets after a flush
// because the schedule restarts from deviceNow.
func (s *OtoSink) run() {
	writtenUntil := -1.0
	lastGen := s.flushGen.Load()

	for {
		select {
		case <-s.done:
			return
		case u := <-s.queue:
			gen := s.flushGen.Load()
			if gen != lastGen || writtenUntil < 0 {
				writtenUntil = s.clock.Now()
				lastGen = gen
			}

			if u.StartAt > writtenUntil {
				if !s.writeSilence(u.StartAt-writtenUntil, gen) {
					writtenUntil = -1.0
					continue
				}
				writtenUntil = u.StartAt
			}

			if !s.writeSamples(u.Buffer.TailFrom(u.Offset), gen) {
				writtenUntil = -1.0
				continue
			}
			writtenUntil += u.Duration()

			select {
			case s.comps <- u.ID:
			case <-s.done:
				return
			}
		}
	}
}

// writeSilence pads the pipe with zeroed frames for the given duration.
// Returns false if the write was abandoned by a flush or close.
func (s *OtoSink) writeSilence(seconds float64, gen uint64) bool {
	frames := int(seconds * float64(s.format.SampleRate))
	return s.writeSamples(make([]int16, frames*s.format.Channels), gen)
}

// writeSamples writes interleaved samples slice by slice, applying the
// current gain. Returns false if abandoned.
func (s *OtoSink) writeSamples(samples []int16, gen uint64) bool {
	sliceSamples := int(sliceDur.Seconds()*float64(s.format.SampleRate)) * s.format.Channels
	if sliceSamples == 0 {
		sliceSamples = s.format.Channels
	}

	for start := 0; start < len(samples); start += sliceSamples {
		select {
		case <-s.done:
			return false
		default:
		}
		if s.flushGen.Load() != gen {
			return false
		}

		end := start + sliceSamples
		if end > len(samples) {
			end = len(samples)
		}

		scaled := s.applyGain(samples[start:end])
		if _, err := s.pipeWriter.Write(audio.SamplesToBytes(scaled)); err != nil {
			return false
		}
	}
	return true
}

// applyGain scales samples by the current ramp position with clipping
// protection
func (s *OtoSink) applyGain(samples []int16) []int16 {
	s.gainMu.Lock()
	gain := s.gainAt(s.clock.Now())
	s.gainMu.Unlock()

	if gain == 1.0 {
		return samples
	}

	out := make([]int16, len(samples))
	for i, sample := range samples {
		scaled := float64(sample) * gain
		if scaled > 32767 {
			scaled = 32767
		} else if scaled < -32768 {
			scaled = -32768
		}
		out[i] = int16(scaled)
	}
	return out
}

// gainAt interpolates the gain ramp at the given device time. Callers
// hold gainMu.
func (s *OtoSink) gainAt(now float64) float64 {
	if s.rampDur <= 0 || now >= s.rampStart+s.rampDur {
		return s.gainTo
	}
	frac := (now - s.rampStart) / s.rampDur
	return s.gainFrom + (s.gainTo-s.gainFrom)*frac
}
