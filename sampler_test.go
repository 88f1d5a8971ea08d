package memmetrics

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heroku/memmetrics/testing/testlog"
)

const waitTimeout = 5 * time.Second

func fixedPools(pools ...Pool) Enumerator {
	return EnumeratorFunc(func(context.Context) ([]Pool, error) {
		return pools, nil
	})
}

// capture is a Recorder keeping every pool it is given.
type capture struct {
	mu    sync.Mutex
	pools []Pool
}

func (c *capture) Record(_ context.Context, p Pool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pools = append(c.pools, p)
	return nil
}

func (c *capture) recorded() []Pool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]Pool(nil), c.pools...)
}

// ticker is an Enumerator that numbers its calls, reports them on a channel
// and tracks how many calls overlap.
type ticker struct {
	calls   int32
	active  int32
	overlap int32
	ticks   chan int
	fail    func(n int) error
	block   func(n int)
}

func newTicker() *ticker {
	return &ticker{ticks: make(chan int, 1024)}
}

func (tk *ticker) Pools(context.Context) ([]Pool, error) {
	if atomic.AddInt32(&tk.active, 1) > 1 {
		atomic.StoreInt32(&tk.overlap, 1)
	}
	defer atomic.AddInt32(&tk.active, -1)

	n := int(atomic.AddInt32(&tk.calls, 1))
	defer func() {
		select {
		case tk.ticks <- n:
		default:
		}
	}()

	if tk.block != nil {
		tk.block(n)
	}
	if tk.fail != nil {
		if err := tk.fail(n); err != nil {
			return nil, err
		}
	}
	return []Pool{{Name: "heap", Area: Heap, Used: int64(n), Committed: int64(n), Max: Undefined}}, nil
}

func (tk *ticker) waitFor(t *testing.T, n int) {
	t.Helper()

	deadline := time.After(waitTimeout)
	for {
		select {
		case got := <-tk.ticks:
			if got >= n {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for tick %d", n)
		}
	}
}

// holdFirst makes the first call signal entered and then block until
// release is closed.
func (tk *ticker) holdFirst() (entered, release chan struct{}) {
	entered = make(chan struct{})
	release = make(chan struct{})
	tk.block = func(n int) {
		if n == 1 {
			close(entered)
			<-release
		}
	}
	return entered, release
}

// noTick fails t if the ticker is called within d.
func (tk *ticker) noTick(t *testing.T, d time.Duration) {
	t.Helper()

	before := atomic.LoadInt32(&tk.calls)
	time.Sleep(d)
	if got := atomic.LoadInt32(&tk.calls); got != before {
		t.Fatalf("want no sample, got %d calls (was %d)", got, before)
	}
}

func newTestSampler(e Enumerator, r Recorder, interval time.Duration) (*Sampler, *testlog.Hook) {
	logger, hook := testlog.New()
	s := NewSampler(WithLogger(logger), WithEnumerator(e), WithRecorder(r))
	s.interval = interval
	return s, hook
}

func waitDone(t *testing.T, s *Sampler) {
	t.Helper()

	select {
	case <-s.Done():
	case <-time.After(waitTimeout):
		t.Fatal("sampler did not exit")
	}
}

func wait(t *testing.T, c <-chan struct{}, what string) {
	t.Helper()

	select {
	case <-c:
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func spawned(s *Sampler) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spawned
}

func TestTickTwoAreas(t *testing.T) {
	rec := new(capture)
	s, _ := newTestSampler(fixedPools(
		Pool{Name: "heap", Area: Heap, Used: 100, Committed: 200, Max: 400},
		Pool{Name: "stack", Area: NonHeap, Used: 10, Committed: 20, Max: -1},
	), rec, Interval)

	require.NoError(t, s.Tick(context.Background()))

	want := []Pool{
		{Name: "heap", Area: Heap, Used: 100, Committed: 200, Max: 400},
		{Name: "stack", Area: NonHeap, Used: 10, Committed: 20, Max: -1},
	}
	assert.Equal(t, want, rec.recorded())
}

func TestTickSameArea(t *testing.T) {
	rec := new(capture)
	s, _ := newTestSampler(fixedPools(
		Pool{Name: "a", Area: Heap, Used: 50, Committed: 100, Max: 200},
		Pool{Name: "b", Area: Heap, Used: 70, Committed: 140, Max: 280},
	), rec, Interval)

	require.NoError(t, s.Tick(context.Background()))

	got := rec.recorded()
	require.Len(t, got, 2)
	assert.Equal(t, Pool{Name: "b", Area: Heap, Used: 70, Committed: 140, Max: 280}, got[len(got)-1])
}

func TestTickEnumeratorError(t *testing.T) {
	rec := new(capture)
	wantErr := errors.New("no pools")
	s, _ := newTestSampler(EnumeratorFunc(func(context.Context) ([]Pool, error) {
		return nil, wantErr
	}), rec, Interval)

	err := s.Tick(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no pools")
	assert.Empty(t, rec.recorded())
}

func TestTickRecorderErrorStopsTick(t *testing.T) {
	var calls int
	rec := RecorderFunc(func(context.Context, Pool) error {
		calls++
		return errors.New("pipeline closed")
	})
	s, _ := newTestSampler(fixedPools(
		Pool{Name: "heap", Area: Heap},
		Pool{Name: "stack", Area: NonHeap},
	), rec, Interval)

	err := s.Tick(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recording pool heap")
	assert.Equal(t, 1, calls)
}

func TestTickRecoversPanics(t *testing.T) {
	s, _ := newTestSampler(EnumeratorFunc(func(context.Context) ([]Pool, error) {
		panic("pool went away")
	}), new(capture), Interval)

	err := s.Tick(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool went away")
}

func TestStartIsIdempotent(t *testing.T) {
	tk := newTicker()
	s, _ := newTestSampler(tk, new(capture), time.Millisecond)

	s.Start()
	s.Start()
	assert.True(t, s.Running())
	assert.Equal(t, 1, spawned(s))

	tk.waitFor(t, 5)
	s.Start()
	assert.Equal(t, 1, spawned(s))

	s.Stop()
	assert.False(t, s.Running())
	waitDone(t, s)

	assert.Zero(t, atomic.LoadInt32(&tk.overlap), "ticks overlapped")
}

func TestStopWithoutStart(t *testing.T) {
	s, _ := newTestSampler(newTicker(), new(capture), time.Millisecond)

	s.Stop()
	s.Stop()

	assert.False(t, s.Running())
	assert.Equal(t, 0, spawned(s))
	waitDone(t, s)
}

func TestStopTwice(t *testing.T) {
	tk := newTicker()
	s, _ := newTestSampler(tk, new(capture), time.Millisecond)

	s.Start()
	tk.waitFor(t, 1)

	s.Stop()
	s.Stop()
	waitDone(t, s)
	assert.False(t, s.Running())
}

func TestStopInterruptsWait(t *testing.T) {
	tk := newTicker()
	s, _ := newTestSampler(tk, new(capture), time.Hour)

	s.Start()
	tk.waitFor(t, 1)

	s.Stop()
	waitDone(t, s)

	assert.Equal(t, int32(1), atomic.LoadInt32(&tk.calls))
}

func TestTransientErrorIsolation(t *testing.T) {
	tk := newTicker()
	tk.fail = func(n int) error {
		if n == 2 {
			return errors.New("pool read failed")
		}
		return nil
	}
	rec := new(capture)
	s, hook := newTestSampler(tk, rec, time.Millisecond)

	s.Start()
	tk.waitFor(t, 3)
	s.Stop()
	waitDone(t, s)

	assert.Equal(t, 1, hook.Count(logrus.ErrorLevel))
	hook.CheckAllContained(t, "pool read failed", "component=memmetrics")

	var used []int64
	for _, p := range rec.recorded() {
		used = append(used, p.Used)
	}
	assert.Contains(t, used, int64(1))
	assert.NotContains(t, used, int64(2))
	assert.Contains(t, used, int64(3))
}

func TestRestartAfterStop(t *testing.T) {
	tk := newTicker()
	s, _ := newTestSampler(tk, new(capture), time.Millisecond)

	s.Start()
	tk.waitFor(t, 1)
	s.Stop()
	waitDone(t, s)

	before := atomic.LoadInt32(&tk.calls)

	s.Start()
	assert.True(t, s.Running())
	assert.Equal(t, 2, spawned(s))

	tk.waitFor(t, int(before)+1)

	s.Stop()
	waitDone(t, s)
}

func TestStartStopStart(t *testing.T) {
	tk := newTicker()
	s, _ := newTestSampler(tk, new(capture), time.Millisecond)

	s.Start()
	s.Stop()
	s.Start()

	assert.True(t, s.Running())
	assert.Equal(t, 2, spawned(s))

	tk.waitFor(t, 2)
	assert.True(t, s.Running())

	s.Stop()
	waitDone(t, s)
	assert.False(t, s.Running())
	assert.Zero(t, atomic.LoadInt32(&tk.overlap), "ticks overlapped")
}

func TestStartWhileStoppingWaitsForPreviousTick(t *testing.T) {
	tk := newTicker()
	entered, release := tk.holdFirst()
	s, _ := newTestSampler(tk, new(capture), time.Millisecond)

	s.Start()
	wait(t, entered, "first sample")

	s.Stop()
	s.Start()
	assert.True(t, s.Running())
	assert.Equal(t, 2, spawned(s))

	tk.noTick(t, 50*time.Millisecond)
	assert.True(t, s.Running())

	close(release)
	tk.waitFor(t, 2)
	assert.True(t, s.Running())

	s.Stop()
	waitDone(t, s)
	assert.Zero(t, atomic.LoadInt32(&tk.overlap), "ticks overlapped")
}

func TestStopWhileWaitingKeepsDoneOpen(t *testing.T) {
	tk := newTicker()
	entered, release := tk.holdFirst()
	s, _ := newTestSampler(tk, new(capture), time.Millisecond)

	s.Start()
	wait(t, entered, "first sample")

	// The second goroutine is cancelled while it waits for the first.
	s.Stop()
	s.Start()
	s.Stop()

	done := s.Done()
	select {
	case <-done:
		t.Fatal("Done closed while a sample is in progress")
	case <-time.After(50 * time.Millisecond):
	}

	s.Start()
	assert.Equal(t, 3, spawned(s))
	tk.noTick(t, 50*time.Millisecond)

	close(release)
	wait(t, done, "second goroutine to exit")
	tk.waitFor(t, 2)

	s.Stop()
	waitDone(t, s)
	assert.Zero(t, atomic.LoadInt32(&tk.overlap), "ticks overlapped")
}

func TestConcurrentStartStop(t *testing.T) {
	tk := newTicker()
	s, _ := newTestSampler(tk, new(capture), time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Start()
		}()
		go func() {
			defer wg.Done()
			s.Stop()
		}()
	}
	wg.Wait()

	s.Stop()
	waitDone(t, s)
	assert.False(t, s.Running())

	// Nothing samples once Done is closed.
	tk.noTick(t, 20*time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&tk.overlap), "ticks overlapped")
}

func TestDefaultSampler(t *testing.T) {
	// Never started: Stop is a no-op.
	Stop()
	assert.False(t, Running())

	Start()
	Start()
	assert.True(t, Running())
	assert.Same(t, Default(), Default())

	Stop()
	Stop()
	assert.False(t, Running())

	select {
	case <-Default().Done():
	case <-time.After(waitTimeout):
		t.Fatal("default sampler did not exit")
	}
}
