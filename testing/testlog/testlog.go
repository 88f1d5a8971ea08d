// Package testlog provides a discarding logrus logger for tests and a hook
// to make assertions about what was logged.
package testlog

import (
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
)

// Hook records every entry fired on the logger it is attached to.
type Hook struct {
	mu      sync.Mutex
	entries []logrus.Entry
}

// New returns a logger that writes nothing and the hook observing it.
func New() (*logrus.Logger, *Hook) {
	l := logrus.New()
	l.Out = io.Discard
	l.Level = logrus.DebugLevel

	hook := new(Hook)
	l.Hooks.Add(hook)

	return l, hook
}

// Levels implements logrus.Hook.
func (h *Hook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook.
func (h *Hook) Fire(e *logrus.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, logrus.Entry{
		Logger:  e.Logger,
		Time:    e.Time,
		Data:    copyFields(e.Data),
		Message: e.Message,
		Level:   e.Level,
	})
	return nil
}

// Entries returns a copy of the recorded entries.
func (h *Hook) Entries() []logrus.Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]logrus.Entry(nil), h.entries...)
}

// Count returns how many entries were logged at level.
func (h *Hook) Count(level logrus.Level) int {
	var n int
	for _, e := range h.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}

// Reset forgets all recorded entries.
func (h *Hook) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = nil
}

// String renders all recorded entries in logfmt, one per line.
func (h *Hook) String() string {
	f := &logrus.TextFormatter{DisableTimestamp: true, DisableColors: true}

	var sb strings.Builder
	for _, e := range h.Entries() {
		b, err := f.Format(&e)
		if err != nil {
			continue
		}
		sb.Write(b)
	}
	return sb.String()
}

// CheckContained fails tb unless at least one fragment appears in the log
// output. It passes when no fragments are given.
func (h *Hook) CheckContained(tb testing.TB, fragments ...string) {
	tb.Helper()

	if len(fragments) == 0 {
		return
	}

	out := h.String()
	for _, f := range fragments {
		if strings.Contains(out, f) {
			return
		}
	}
	tb.Fatalf("want one of %q in log output, got:\n%s", fragments, out)
}

// CheckAllContained fails tb unless every fragment appears in the log
// output.
func (h *Hook) CheckAllContained(tb testing.TB, fragments ...string) {
	tb.Helper()

	out := h.String()
	for _, f := range fragments {
		if !strings.Contains(out, f) {
			tb.Fatalf("want %q in log output, got:\n%s", f, out)
		}
	}
}

// CheckNotContained fails tb if any fragment appears in the log output.
func (h *Hook) CheckNotContained(tb testing.TB, fragments ...string) {
	tb.Helper()

	out := h.String()
	for _, f := range fragments {
		if strings.Contains(out, f) {
			tb.Fatalf("want no %q in log output, got:\n%s", f, out)
		}
	}
}

func copyFields(in logrus.Fields) logrus.Fields {
	out := make(logrus.Fields, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
