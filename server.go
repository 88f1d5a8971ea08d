package memmetrics

import (
	"context"

	"github.com/heroku/memmetrics/cmdutil"
)

// NewServer returns a cmdutil.Server owning s: Run starts s and blocks
// until Stop is called, then stops s and waits for its goroutine to exit.
func NewServer(s *Sampler) cmdutil.Server {
	return cmdutil.NewContextServer(func(ctx context.Context) error {
		s.Start()
		<-ctx.Done()

		s.Stop()
		<-s.Done()
		return nil
	})
}
