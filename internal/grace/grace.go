// Package grace orchestrates startup and bounded-grace-period shutdown for
// the proxy's listener: start serving, wait for an interrupt signal (or the
// caller's own stop trigger), then give in-flight work — including open SSE
// streams — a fixed window to finish before returning.
//
// The teacher's own kit/grace package wasn't present in the retrieved
// reference pack; this reimplements the same Orchestrate(OrchestrateOptions)
// calling convention observed at its one surviving call site
// (site/go/server/server.go), backed by errgroup and signal.NotifyContext
// instead of whatever the original used internally.
package grace

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultShutdownGrace is used when OrchestrateOptions.ShutdownGrace is zero.
const DefaultShutdownGrace = 10 * time.Second

// OrchestrateOptions configures Orchestrate.
type OrchestrateOptions struct {
	// StartupCallback runs the blocking serve loop. It must return when the
	// listener stops accepting connections (e.g. after its own Shutdown
	// returns), and its error is propagated to Orchestrate's caller.
	StartupCallback func() error

	// ShutdownCallback is invoked once an interrupt/terminate signal (or
	// StopCh) fires, with a context carrying ShutdownGrace's deadline. It
	// should stop accepting new work and wait for in-flight work to drain.
	ShutdownCallback func(shutdownCtx context.Context) error

	// ShutdownGrace bounds how long ShutdownCallback's context stays valid.
	// Defaults to DefaultShutdownGrace.
	ShutdownGrace time.Duration

	// StopCh, if non-nil, is an additional trigger for shutdown alongside
	// SIGINT/SIGTERM — used by callers (like the control surface's stop)
	// that need to shut the listener down programmatically, not just on a
	// process signal.
	StopCh <-chan struct{}
}

// Orchestrate runs StartupCallback and ShutdownCallback concurrently: the
// shutdown path waits for either an OS signal or StopCh, then calls
// ShutdownCallback with a bounded context. It blocks until both callbacks
// have returned and returns the first non-nil error from either.
func Orchestrate(opts OrchestrateOptions) error {
	grace := opts.ShutdownGrace
	if grace <= 0 {
		grace = DefaultShutdownGrace
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var eg errgroup.Group

	eg.Go(func() error {
		if opts.StartupCallback == nil {
			return nil
		}
		return opts.StartupCallback()
	})

	eg.Go(func() error {
		select {
		case <-sigCtx.Done():
		case <-opts.StopCh:
		}

		if opts.ShutdownCallback == nil {
			return nil
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		return opts.ShutdownCallback(shutdownCtx)
	})

	return eg.Wait()
}
