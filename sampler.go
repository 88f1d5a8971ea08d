package memmetrics

import (
	"context"
	"runtime/pprof"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/heroku/memmetrics/tickgroup"
)

// Interval between two samples.
const Interval = 10 * time.Second

// WorkerName labels the sampling goroutine in profiles (pprof label "worker").
const WorkerName = "runtime-memory-metrics-updater"

// An Option configures a Sampler.
type Option func(*Sampler)

// WithLogger sets the logger tick errors are reported to. The default is
// logrus.StandardLogger().
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Sampler) { s.logger = l }
}

// WithEnumerator sets where pools are read from. The default is
// RuntimePools.
func WithEnumerator(e Enumerator) Option {
	return func(s *Sampler) { s.pools = e }
}

// WithRecorder sets where pools are recorded. The default is OpenCensus.
func WithRecorder(r Recorder) Option {
	return func(s *Sampler) { s.recorder = r }
}

// Sampler periodically records the memory pools of the runtime.
//
// At most one sampling goroutine per Sampler is running at any time. Start
// and Stop are safe for concurrent use.
type Sampler struct {
	logger   logrus.FieldLogger
	pools    Enumerator
	recorder Recorder
	interval time.Duration

	mu      sync.Mutex
	w       *worker // nil when idle
	spawned int
}

// worker is the handle of one sampling goroutine.
type worker struct {
	cancel   context.CancelFunc
	stopping bool
	done     chan struct{}
}

// NewSampler returns an idle Sampler.
func NewSampler(opts ...Option) *Sampler {
	s := &Sampler{
		logger:   logrus.StandardLogger(),
		pools:    RuntimePools{},
		recorder: OpenCensus{},
		interval: Interval,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithField("component", "memmetrics")

	return s
}

// Start ensures a sampling goroutine is running. It does nothing if one
// already is.
//
// The first sample is taken right away, then every Interval. If a previous
// goroutine is still winding down after Stop, the new one waits for it to
// exit before sampling.
func (s *Sampler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var prev <-chan struct{}
	if s.w != nil {
		if !s.w.stopping {
			return
		}
		prev = s.w.done
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &worker{cancel: cancel, done: make(chan struct{})}
	s.w = w
	s.spawned++

	go s.run(ctx, w, prev)
}

// Stop asks the sampling goroutine to exit and returns without waiting for
// it. A wait between two samples is cut short; a sample in progress is
// completed. Stop does nothing if the Sampler is not running.
//
// Use Done to wait for the goroutine to exit.
func (s *Sampler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.w == nil || s.w.stopping {
		return
	}
	s.w.stopping = true
	s.w.cancel()
}

// Running reports whether a sampling goroutine is running and has not been
// asked to stop.
func (s *Sampler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.w != nil && !s.w.stopping
}

var closed = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// Done returns a channel that is closed when the current sampling
// goroutine, and every goroutine started before it, has exited. The
// channel is already closed if the Sampler is idle.
func (s *Sampler) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.w == nil {
		return closed
	}
	return s.w.done
}

// Tick takes one sample: it enumerates the pools and records each of them.
// The first error ends the tick and is returned. Panics are returned as
// errors.
func (s *Sampler) Tick(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("memory sampling panic: %v", r)
		}
	}()

	pools, err := s.pools.Pools(ctx)
	if err != nil {
		return errors.Wrap(err, "enumerating memory pools")
	}

	for _, p := range pools {
		if err := s.recorder.Record(ctx, p); err != nil {
			return errors.Wrapf(err, "recording pool %s", p.Name)
		}
	}
	return nil
}

func (s *Sampler) run(ctx context.Context, w *worker, prev <-chan struct{}) {
	defer s.exit(w)

	// w.done closes only after prev has, even when stopped while waiting.
	if prev != nil {
		<-prev
		if ctx.Err() != nil {
			return
		}
	}

	pprof.Do(ctx, pprof.Labels("worker", WorkerName), func(ctx context.Context) {
		tg := tickgroup.New(ctx).OnError(func(err error) {
			s.logger.WithError(err).Error("updating runtime memory metrics")
		})
		tg.Go(s.interval, func() error {
			return s.Tick(ctx)
		})
		_ = tg.Wait()
	})
}

func (s *Sampler) exit(w *worker) {
	s.mu.Lock()
	if s.w == w {
		s.w = nil
	}
	s.mu.Unlock()

	close(w.done)
}
