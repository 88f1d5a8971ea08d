// Package debug runs a gops agent as a cmdutil.Server.
package debug

import (
	"fmt"
	"sync"

	"github.com/google/gops/agent"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// New initializes a debug server listening on the provided port of the
// loopback interface.
//
// Connect to the debug server with gops:
//
//	gops stack localhost:PORT
//	gops memstats localhost:PORT
func New(l logrus.FieldLogger, port int) *Server {
	return &Server{
		logger: l,
		addr:   fmt.Sprintf("127.0.0.1:%d", port),
		done:   make(chan struct{}),
	}
}

// Server wraps a gops agent for use with oklog/run.
type Server struct {
	logger logrus.FieldLogger
	addr   string

	stopOnce sync.Once
	done     chan struct{}
}

// Run starts the gops agent and blocks until Stop is called.
//
// It implements oklog group's runFn.
func (s *Server) Run() error {
	s.logger.WithFields(logrus.Fields{
		"at":      "binding",
		"service": "debug",
		"addr":    s.addr,
	}).Info()

	opts := agent.Options{
		Addr:            s.addr,
		ShutdownCleanup: false,
	}
	if err := agent.Listen(opts); err != nil {
		return errors.Wrap(err, "starting gops agent")
	}
	defer agent.Close()

	<-s.done
	return nil
}

// Stop makes Run return and shuts the agent down. It is safe to call more
// than once, and before Run.
//
// It implements oklog group's interruptFn.
func (s *Server) Stop(_ error) {
	s.stopOnce.Do(func() { close(s.done) })
}
