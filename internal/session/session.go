// SPDX-License-Identifier: MPL-2.0

// Package session relays the local terminal to an attached container stream.
//
// Output is copied until the engine closes the stream, which happens when the
// container exits or the user types the detach sequence. When stdin is a
// terminal it is switched to raw mode for the session, and the container TTY
// follows the local window size.
package session

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/invowk/launchbox/internal/engine"
)

type (
	// Resizer resizes the TTY of a running container.
	Resizer interface {
		ResizeContainer(ctx context.Context, name string, height, width uint) error
	}

	// Options configures a relay session.
	Options struct {
		// Container is the name passed to Resizer.
		Container string
		// Resizer keeps the container TTY in sync with the local window. Nil disables resizing.
		Resizer Resizer
		Stdin   io.Reader
		Stdout  io.Writer
		Logger  *log.Logger
	}

	session struct {
		stream *engine.Stream
		opts   Options
		logger *log.Logger

		// size reports the local window as rows, columns. Nil when stdout is not a terminal.
		size func() (uint, uint, error)
		// resizes fires on every local window change until ctx ends.
		resizes func(ctx context.Context) <-chan struct{}
	}
)

// Relay copies the container's output to opts.Stdout and opts.Stdin to the
// container until the stream ends or ctx is canceled. It closes the stream
// before returning.
func Relay(ctx context.Context, stream *engine.Stream, opts Options) error {
	s := newSession(stream, opts)
	if restore := s.makeRaw(); restore != nil {
		defer restore()
	}
	return s.run(ctx)
}

func newSession(stream *engine.Stream, opts Options) *session {
	s := &session{stream: stream, opts: opts, logger: opts.Logger, resizes: watchResize}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if f, ok := opts.Stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		s.size = func() (uint, uint, error) { return terminalSize(f) }
	}
	return s
}

// makeRaw puts a terminal stdin into raw mode and returns the restore func.
func (s *session) makeRaw() func() {
	f, ok := s.opts.Stdin.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	state, err := term.MakeRaw(int(f.Fd()))
	if err != nil {
		s.logger.Debug("could not switch terminal to raw mode", "err", err)
		return nil
	}
	return func() { _ = term.Restore(int(f.Fd()), state) }
}

func (s *session) run(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		_, err := io.Copy(s.opts.Stdout, s.stream.Reader)
		if err != nil && gctx.Err() == nil {
			return fmt.Errorf("relay container output: %w", err)
		}
		return nil
	})

	// Closing the stream is the only way to unblock the output copy on cancel.
	g.Go(func() error {
		<-gctx.Done()
		s.stream.Close()
		return nil
	})

	if s.opts.Resizer != nil && s.size != nil {
		g.Go(func() error {
			s.followWindow(gctx)
			return nil
		})
	}

	// A blocked stdin read cannot be interrupted, so input is not part of the group.
	if s.opts.Stdin != nil {
		go s.copyInput()
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return parent.Err()
}

func (s *session) copyInput() {
	if _, err := io.Copy(s.stream.Writer, s.opts.Stdin); err != nil {
		s.logger.Debug("stdin relay ended", "err", err)
	}
	if err := s.stream.CloseWrite(); err != nil {
		s.logger.Debug("close container stdin", "err", err)
	}
}

func (s *session) followWindow(ctx context.Context) {
	s.resize(ctx)
	changes := s.resizes(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			s.resize(ctx)
		}
	}
}

func (s *session) resize(ctx context.Context) {
	rows, cols, err := s.size()
	if err != nil {
		s.logger.Debug("could not read terminal size", "err", err)
		return
	}
	if rows == 0 || cols == 0 {
		return
	}
	if err := s.opts.Resizer.ResizeContainer(ctx, s.opts.Container, rows, cols); err != nil {
		s.logger.Debug("resize container tty", "container", s.opts.Container, "err", err)
	}
}
