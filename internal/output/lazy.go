// ABOUTME: Deferred device sink
// ABOUTME: Bridges engine startup to a device that opens at stream start
package output

import (
	"fmt"
	"sync"
	"time"

	"github.com/Driftwave-Audio/driftwave-go/internal/engine"
	"github.com/Driftwave-Audio/driftwave-go/pkg/audio"
	"github.com/charmbracelet/log"
)

// LazySink defers opening the output device until the stream format is
// known. The engine holds a sink from construction, but the device
// format only arrives with stream start; before Open, completions never
// fire and gain changes are remembered for the eventual device.
type LazySink struct {
	clock  engine.Clock
	logger *log.Logger

	mu       sync.Mutex
	dev      *OtoSink
	lastGain float64

	comps     chan uint64
	done      chan struct{}
	closeOnce sync.Once
}

// NewLazySink creates a sink whose device opens later
func NewLazySink(clock engine.Clock, logger *log.Logger) *LazySink {
	return &LazySink{
		clock:    clock,
		logger:   logger,
		lastGain: 1.0,
		comps:    make(chan uint64, queueDepth),
		done:     make(chan struct{}),
	}
}

// Open creates the device for the given format. A second Open with a
// new format is ignored; oto allows one context per process.
func (s *LazySink) Open(format audio.Format) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev != nil {
		return nil
	}

	dev, err := NewOtoSink(format, s.clock, s.logger)
	if err != nil {
		return err
	}
	dev.SetGain(s.lastGain, 0)
	s.dev = dev

	go s.forwardCompletions(dev)
	return nil
}

// forwardCompletions relays device completions onto the stable channel
// the engine selected on before the device existed
func (s *LazySink) forwardCompletions(dev *OtoSink) {
	for {
		select {
		case <-s.done:
			return
		case id, ok := <-dev.Completions():
			if !ok {
				return
			}
			select {
			case s.comps <- id:
			case <-s.done:
				return
			}
		}
	}
}

// Start begins playback of the unit, failing if the device never opened
func (s *LazySink) Start(u *engine.Unit) error {
	s.mu.Lock()
	dev := s.dev
	s.mu.Unlock()

	if dev == nil {
		return fmt.Errorf("output device not open")
	}
	return dev.Start(u)
}

// StopAll hard-stops every live unit
func (s *LazySink) StopAll() {
	s.mu.Lock()
	dev := s.dev
	s.mu.Unlock()

	if dev != nil {
		dev.StopAll()
	}
}

// SetGain ramps the gain, remembering the target if the device is not
// open yet
func (s *LazySink) SetGain(target float64, ramp time.Duration) {
	s.mu.Lock()
	s.lastGain = target
	dev := s.dev
	s.mu.Unlock()

	if dev != nil {
		dev.SetGain(target, ramp)
	}
}

// Completions delivers finished unit ids
func (s *LazySink) Completions() <-chan uint64 {
	return s.comps
}

// Close releases the device if it was opened
func (s *LazySink) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.mu.Lock()
		dev := s.dev
		s.mu.Unlock()
		if dev != nil {
			err = dev.Close()
		}
	})
	return err
}
