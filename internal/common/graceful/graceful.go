// Package graceful starts long running processes in the background and stops
// them in reverse order on SIGINT, SIGTERM or SIGUSR1.
package graceful

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/exp/slices"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog"
)

type ProcessStarter func() error

type ProcessStopper func(ctx context.Context) error

type ProcessStartStopper interface {
	Start() ProcessStarter
	Stop() ProcessStopper
}

func StartProcessAtBackground(ps ...ProcessStarter) {
	for _, p := range ps {
		if p == nil {
			continue
		}
		go func(start ProcessStarter) {
			if err := start(); err != nil {
				xlog.Error(context.Background(), "[GRACEFUL.START] process exited", xlog.Err(err))
			}
		}(p)
	}
}

// StopProcessAtBackground blocks until a stop signal arrives, then stops ps.
func StopProcessAtBackground(duration time.Duration, ps ...ProcessStopper) {
	StopProcessOnContext(context.Background(), duration, ps...)
}

// StopProcessOnContext is StopProcessAtBackground that also stops when ctx
// is done.
func StopProcessOnContext(ctx context.Context, duration time.Duration, ps ...ProcessStopper) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)
	defer signal.Stop(sig)

	select {
	case s := <-sig:
		xlog.Info(ctx, "[GRACEFUL.STOP] signal received", xlog.String("signal", s.String()))
	case <-ctx.Done():
	}
	StopProcess(duration, ps...)
}

// StopProcess runs the stoppers last to first, each with its own timeout.
func StopProcess(duration time.Duration, ps ...ProcessStopper) {
	ps = slices.Clone(ps)
	slices.Reverse(ps)

	for _, p := range ps {
		if p == nil {
			continue
		}
		func() {
			ctx, stop := context.WithTimeout(context.Background(), duration)
			defer stop()
			if err := p(ctx); err != nil {
				xlog.Warn(ctx, "[GRACEFUL.STOP] stopper failed", xlog.Err(err))
			}
		}()
	}
}
