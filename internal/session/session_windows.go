// SPDX-License-Identifier: MPL-2.0

//go:build windows

package session

import (
	"context"
	"os"

	"golang.org/x/term"
)

func terminalSize(f *os.File) (uint, uint, error) {
	width, height, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0, 0, err
	}
	return uint(height), uint(width), nil
}

// watchResize never fires: the console has no resize signal. The size is
// applied once when the session starts.
func watchResize(ctx context.Context) <-chan struct{} {
	return make(chan struct{})
}
