package memmetrics

import "sync"

var (
	defaultMu      sync.Mutex
	defaultSampler *Sampler
)

// Default returns the process-wide Sampler used by Start and Stop. It reads
// RuntimePools, records through OpenCensus and logs to
// logrus.StandardLogger().
func Default() *Sampler {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultSampler == nil {
		defaultSampler = NewSampler()
	}
	return defaultSampler
}

// Start starts the process-wide Sampler. It does nothing if it is already
// running.
func Start() { Default().Start() }

// Stop asks the process-wide Sampler to stop. It does nothing if it was never
// started or is already stopped.
func Stop() {
	defaultMu.Lock()
	s := defaultSampler
	defaultMu.Unlock()

	if s != nil {
		s.Stop()
	}
}

// Running reports whether the process-wide Sampler is running.
func Running() bool {
	defaultMu.Lock()
	s := defaultSampler
	defaultMu.Unlock()

	return s != nil && s.Running()
}
