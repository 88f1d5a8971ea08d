// Package tickgroup runs subtasks on a fixed interval until a context is done.
package tickgroup

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// A Group is a collection of goroutines, each calling a subtask every set
// interval.
//
// By default the first subtask error terminates its goroutine and cancels
// the group. When an error handler is installed with OnError, errors are
// handed to it instead and the subtask keeps ticking.
type Group struct {
	g       *errgroup.Group
	donec   <-chan struct{}
	handler func(error)
}

// New returns a new Group that stops calling subtasks when ctx is done.
func New(ctx context.Context) *Group {
	return &Group{g: new(errgroup.Group), donec: ctx.Done()}
}

// WithContext creates a child context from the given context, and uses that to
// control context cancelation.
func WithContext(ctx context.Context) (*Group, context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	return &Group{g: g, donec: ctx.Done()}, ctx
}

// OnError installs fn as the handler of subtask errors. It must be called
// before Go.
func (g *Group) OnError(fn func(error)) *Group {
	g.handler = fn
	return g
}

// Go calls f immediately and then every d until the group's context is done.
//
// Without an error handler, the first call to return a non-nil error
// terminates the goroutine; its error will be returned by Wait.
func (g *Group) Go(d time.Duration, f func() error) {
	g.g.Go(func() error {
		if err := g.call(f); err != nil {
			return err
		}

		t := time.NewTicker(d)
		defer t.Stop()

		for {
			select {
			case <-g.donec:
				return nil

			case <-t.C:
				// A tick and cancelation may be ready together; cancelation wins.
				select {
				case <-g.donec:
					return nil
				default:
				}

				if err := g.call(f); err != nil {
					return err
				}
			}
		}
	})
}

func (g *Group) call(f func() error) error {
	err := f()
	if err != nil && g.handler != nil {
		g.handler(err)
		return nil
	}
	return err
}

// Wait blocks until all function calls from the Go method have returned,
// then returns the first non-nil error (if any) from them.
func (g *Group) Wait() error { return g.g.Wait() }
