package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/aesd-project/aesdsocketd/internal/device"
	"github.com/aesd-project/aesdsocketd/internal/xerrors"
	"github.com/aesd-project/aesdsocketd/internal/xsignal"
)

// Supervisor binds a listening endpoint, accepts connections, spawns a
// Handler per connection, and orchestrates a cooperative shutdown on
// SIGINT/SIGTERM via an errgroup-based accept/signal race.
type Supervisor struct {
	port      int
	chunkSize int
	dev       *device.Device
	log       *zap.SugaredLogger

	handlers sync.WaitGroup
}

// NewSupervisor returns a Supervisor listening on port, serving dev, and
// reading chunkSize bytes per transport receive call.
func NewSupervisor(port, chunkSize int, dev *device.Device, log *zap.SugaredLogger) *Supervisor {
	return &Supervisor{port: port, chunkSize: chunkSize, dev: dev, log: log}
}

// Run binds the listening endpoint and blocks until shutdown: either a
// SIGINT/SIGTERM is received or the parent context is canceled. It never
// returns an error for a clean shutdown; bind/listen failures are
// reported as xerrors.FatalStartup.
func (s *Supervisor) Run(ctx context.Context) error {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}

	// The listen backlog is the system maximum: Go's listener takes it from
	// the kernel's somaxconn setting and exposes no parameter to change it.
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return xerrors.FatalStartup{Op: "listen", Err: err}
	}

	s.log.Infow("listening", "port", s.port)

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return s.acceptLoop(listener)
	})

	group.Go(func() error {
		err := xsignal.WaitInterrupted(gctx)
		s.log.Infow("shutting down", "reason", err)
		listener.Close()
		return nil
	})

	err = group.Wait()

	s.handlers.Wait()
	s.dev.Close()

	return err
}

// acceptLoop accepts connections until the listener is closed (by the
// signal-wait goroutine), spawning and registering a Handler per
// connection.
func (s *Supervisor) acceptLoop(listener net.Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Warnw("accept failed", "error", err)
			continue
		}

		s.handlers.Add(1)
		go func() {
			defer s.handlers.Done()
			s.serveConn(conn)
		}()
	}
}

func (s *Supervisor) serveConn(conn net.Conn) {
	remote := conn.RemoteAddr().String()
	s.log.Infow("Accepted connection from", "remote", remote)

	handler := NewHandler(s.dev, s.log, s.chunkSize)
	handler.Serve(conn)

	conn.Close()
	s.log.Infow("Closed connection from", "remote", remote)
}
