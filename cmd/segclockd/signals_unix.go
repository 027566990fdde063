//go:build unix

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/muurk/segclock/internal/logging"
)

// pressReleaser is the button as seen by the signal handler.
type pressReleaser interface {
	Press()
	Release()
}

// watchButtonSignals maps SIGUSR1 to a button press and SIGUSR2 to its
// release until ctx ends.
func watchButtonSignals(ctx context.Context, button pressReleaser) {
	signals := make(chan os.Signal, 4)
	signal.Notify(signals, syscall.SIGUSR1, syscall.SIGUSR2)

	go func() {
		defer signal.Stop(signals)
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-signals:
				logging.Debug("Button signal received")
				if sig == syscall.SIGUSR1 {
					button.Press()
				} else {
					button.Release()
				}
			}
		}
	}()
}
