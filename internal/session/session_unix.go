// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package session

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/creack/pty"
)

func terminalSize(f *os.File) (uint, uint, error) {
	ws, err := pty.GetsizeFull(f)
	if err != nil {
		return 0, 0, err
	}
	return uint(ws.Rows), uint(ws.Cols), nil
}

// watchResize turns SIGWINCH into coalesced change notifications.
func watchResize(ctx context.Context) <-chan struct{} {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGWINCH)

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer signal.Stop(sigs)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigs:
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out
}
