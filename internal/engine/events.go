// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"sync"

	"github.com/docker/docker/pkg/jsonmessage"
)

const (
	// maxEventLine bounds a single JSON message; build output lines can be long.
	maxEventLine = 1 << 20
	// malformedPrefix is how much of an oversized line a MalformedEventError keeps.
	malformedPrefix = 256
)

// ErrEventsConsumed is reported when an Events sequence is ranged over twice.
var ErrEventsConsumed = errors.New("event stream already consumed")

// ErrEventTooLong is wrapped by the MalformedEventError reported for a line
// longer than the feed accepts. Reading continues with the next line.
var ErrEventTooLong = errors.New("progress event too long")

type (
	// ProgressEvent is one message from a pull or build feed.
	ProgressEvent struct {
		// ID is the layer or step the message refers to, if any.
		ID string
		// Status is the human-readable pull status ("Downloading", "Pull complete", ...).
		Status string
		// Progress is the rendered progress bar, if any.
		Progress string
		// Stream is raw build output text.
		Stream string
		// Err is set when the event carried an error or could not be decoded.
		Err error
	}

	// MalformedEventError wraps a line that was not a valid JSON message.
	MalformedEventError struct {
		Line string
		Err  error
	}

	// Events is a finite, single-use sequence of progress events read lazily
	// from the engine. Call Close when done, even after ranging to the end.
	Events struct {
		body     io.ReadCloser
		mu       sync.Mutex
		consumed bool
	}
)

// NewEvents wraps a JSON message stream.
func NewEvents(body io.ReadCloser) *Events {
	return &Events{body: body}
}

// Error implements the error interface.
func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed progress event %q: %v", e.Line, e.Err)
}

// Unwrap returns the decoding error.
func (e *MalformedEventError) Unwrap() error { return e.Err }

// HasError reports whether the event carried an error.
func (ev ProgressEvent) HasError() bool { return ev.Err != nil }

// Text returns the printable text of the event: the stream text for build
// output, otherwise the status with its id and progress.
func (ev ProgressEvent) Text() string {
	if ev.Stream != "" {
		return ev.Stream
	}
	var b strings.Builder
	if ev.ID != "" {
		b.WriteString(ev.ID)
		b.WriteString(": ")
	}
	b.WriteString(ev.Status)
	if ev.Progress != "" {
		b.WriteString(" ")
		b.WriteString(ev.Progress)
	}
	return b.String()
}

// All yields events as the engine sends them. The feed ends when the engine
// closes it or the consumer stops. A second call yields a single event whose
// Err is ErrEventsConsumed.
func (e *Events) All() iter.Seq[ProgressEvent] {
	return func(yield func(ProgressEvent) bool) {
		e.mu.Lock()
		if e.consumed {
			e.mu.Unlock()
			yield(ProgressEvent{Err: ErrEventsConsumed})
			return
		}
		e.consumed = true
		e.mu.Unlock()

		r := bufio.NewReaderSize(e.body, 64*1024)
		for {
			line, tooLong, err := readLine(r)
			switch {
			case tooLong:
				if !yield(ProgressEvent{Err: &MalformedEventError{Line: string(line), Err: ErrEventTooLong}}) {
					return
				}
			case len(bytes.TrimSpace(line)) > 0:
				if !yield(decodeEvent(bytes.TrimSpace(line))) {
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					yield(ProgressEvent{Err: fmt.Errorf("read progress stream: %w", err)})
				}
				return
			}
		}
	}
}

// readLine reads up to and including the next newline. A line longer than
// maxEventLine is consumed to its end and only its first bytes are returned,
// with tooLong set.
func readLine(r *bufio.Reader) ([]byte, bool, error) {
	var line []byte
	tooLong := false
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > maxEventLine {
				tooLong = true
				line = append(line, chunk...)[:malformedPrefix]
			} else {
				line = append(line, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return line, tooLong, err
	}
}

// Close closes the underlying response body.
func (e *Events) Close() error {
	if e.body == nil {
		return nil
	}
	return e.body.Close()
}

func decodeEvent(line []byte) ProgressEvent {
	var msg jsonmessage.JSONMessage
	if err := json.Unmarshal(line, &msg); err != nil {
		return ProgressEvent{Err: &MalformedEventError{Line: string(line), Err: err}}
	}

	ev := ProgressEvent{
		ID:     msg.ID,
		Status: msg.Status,
		Stream: msg.Stream,
	}
	if msg.Progress != nil {
		ev.Progress = msg.Progress.String()
	}
	switch {
	case msg.Error != nil:
		ev.Err = msg.Error
	case msg.ErrorMessage != "": //nolint:staticcheck // older engines only fill the flat field
		ev.Err = errors.New(msg.ErrorMessage) //nolint:staticcheck // see above
	}
	return ev
}
