package memmetrics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiRecorder(t *testing.T) {
	a, b := new(capture), new(capture)
	p := Pool{Name: "heap", Area: Heap, Used: 1, Committed: 2, Max: Undefined}

	require.NoError(t, MultiRecorder(a, b).Record(context.Background(), p))

	assert.Equal(t, []Pool{p}, a.recorded())
	assert.Equal(t, []Pool{p}, b.recorded())
}

func TestMultiRecorderStopsAtFirstError(t *testing.T) {
	wantErr := errors.New("closed")
	failing := RecorderFunc(func(context.Context, Pool) error { return wantErr })
	after := new(capture)

	err := MultiRecorder(failing, after).Record(context.Background(), Pool{Area: Heap})

	assert.Equal(t, wantErr, err)
	assert.Empty(t, after.recorded())
}

func TestOpenCensusWithoutViews(t *testing.T) {
	// Recording against measures no view subscribes to is dropped silently.
	assert.NoError(t, OpenCensus{}.Record(context.Background(), Pool{Name: "heap", Area: Heap, Used: 1}))
}
