// Package xsignal provides the process-level interruption primitive used
// by the server supervisor to drive a cooperative shutdown.
package xsignal

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aesd-project/aesdsocketd/internal/xerrors"
)

// WaitInterrupted blocks until either SIGINT or SIGTERM is received or the
// provided context is canceled. On signal it returns an xerrors.Interrupted
// wrapping the signal that fired; on context cancellation it returns the
// context's error.
func WaitInterrupted(ctx context.Context) error {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(ch)

	select {
	case sig := <-ch:
		return xerrors.Interrupted{Signal: sig}
	case <-ctx.Done():
		return ctx.Err()
	}
}
