// ABOUTME: Concurrent chunk decode pool
// ABOUTME: Tags every result with its source chunk's arrival sequence
package decode

import (
	"sync"

	"github.com/Driftwave-Audio/driftwave-go/pkg/audio"
	codec "github.com/Driftwave-Audio/driftwave-go/pkg/audio/decode"
	"github.com/charmbracelet/log"
)

// Job is one chunk awaiting decode
type Job struct {
	Seq  uint64
	Data []byte
}

// Result is one completed decode. Err is set when the chunk was
// malformed; the stream continues without it.
type Result struct {
	Seq    uint64
	Buffer audio.Buffer
	Err    error
}

// Pool decodes chunks concurrently. Decoders are constructed per job,
// so workers share no mutable state; results complete in whatever order
// the decodes finish and carry their sequence number so the timeline
// can restore arrival order.
type Pool struct {
	format  audio.Format
	logger  *log.Logger
	jobs    chan Job
	results chan Result
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewPool creates a decode pool for the given stream format
func NewPool(format audio.Format, workers int, logger *log.Logger) *Pool {
	if workers <= 0 {
		workers = 4
	}

	p := &Pool{
		format:  format,
		logger:  logger.WithPrefix("decode"),
		jobs:    make(chan Job, 64),
		results: make(chan Result, 64),
		done:    make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit enqueues a chunk for decoding. A no-op after Close.
func (p *Pool) Submit(seq uint64, data []byte) {
	select {
	case p.jobs <- Job{Seq: seq, Data: data}:
	case <-p.done:
	}
}

// Results returns the completion channel
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Close abandons all pending work: workers stop whether they are
// waiting for a job or blocked delivering a result, and the results
// channel closes once they have exited. Closing never blocks, so a
// pool with no consumer left cannot leak its workers.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.done)
		go func() {
			p.wg.Wait()
			close(p.results)
		}()
	})
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		var job Job
		select {
		case <-p.done:
			return
		case job = <-p.jobs:
		}

		res := p.decode(job)
		select {
		case p.results <- res:
		case <-p.done:
			return
		}
	}
}

func (p *Pool) decode(job Job) Result {
	dec, err := codec.New(p.format)
	if err != nil {
		return Result{Seq: job.Seq, Err: err}
	}

	samples, err := dec.Decode(job.Data)
	_ = dec.Close()
	if err != nil {
		p.logger.Warn("dropping malformed chunk", "seq", job.Seq, "err", err)
		return Result{Seq: job.Seq, Err: err}
	}

	return Result{
		Seq: job.Seq,
		Buffer: audio.Buffer{
			Seq:     job.Seq,
			Samples: samples,
			Format:  p.format,
		},
	}
}
