package progress

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// WriteSSE writes e as one server-sent event: "data: <json>\n\n"
func WriteSSE(w io.Writer, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	if f, ok := w.(interface{ Flush() }); ok {
		f.Flush()
	}
	return nil
}

// SSEWriter is a Sink that streams events to w. Write errors stop the
// stream and are available from Err.
type SSEWriter struct {
	mu  sync.Mutex
	w   io.Writer
	err error
}

// NewSSEWriter creates a streaming sink over w
func NewSSEWriter(w io.Writer) *SSEWriter {
	return &SSEWriter{w: w}
}

// Emit writes e unless an earlier write failed
func (s *SSEWriter) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return
	}
	s.err = WriteSSE(s.w, e)
}

// Err returns the first write error
func (s *SSEWriter) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
