//go:build !unix

package main

import "context"

type pressReleaser interface {
	Press()
	Release()
}

// watchButtonSignals does nothing where SIGUSR1 and SIGUSR2 do not exist.
func watchButtonSignals(ctx context.Context, button pressReleaser) {}
