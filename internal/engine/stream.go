// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"io"
	"sync"

	"github.com/docker/docker/api/types"
)

// Stream is an attached connection to a container's standard streams.
// With a TTY the output side is the raw terminal byte stream.
type Stream struct {
	// Reader yields container output.
	Reader io.Reader
	// Writer feeds container stdin.
	Writer io.Writer

	closeOnce  sync.Once
	closeFn    func()
	closeWrite func() error
}

// NewStream wraps an arbitrary reader/writer pair. closeFn and closeWrite may be nil.
func NewStream(r io.Reader, w io.Writer, closeFn func(), closeWrite func() error) *Stream {
	return &Stream{Reader: r, Writer: w, closeFn: closeFn, closeWrite: closeWrite}
}

func newHijackedStream(resp types.HijackedResponse) *Stream {
	return NewStream(resp.Reader, resp.Conn, resp.Close, resp.CloseWrite)
}

// CloseWrite signals end of input to the container.
func (s *Stream) CloseWrite() error {
	if s.closeWrite == nil {
		return nil
	}
	return s.closeWrite()
}

// Close tears down the connection. It is safe to call more than once.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		if s.closeFn != nil {
			s.closeFn()
		}
	})
}
