package progress

import (
	"sync"
	"sync/atomic"
)

// Sink receives events. Emit must not block the job for long.
type Sink interface {
	Emit(Event)
}

// Func adapts a function to Sink
type Func func(Event)

// Emit calls f
func (f Func) Emit(e Event) { f(e) }

// Discard drops every event
var Discard Sink = Func(func(Event) {})

// Multi fans events out to several sinks in order
func Multi(sinks ...Sink) Sink {
	return Func(func(e Event) {
		for _, s := range sinks {
			if s != nil {
				s.Emit(e)
			}
		}
	})
}

// ChannelSink buffers events in a bounded channel. When the buffer is full
// the oldest event is dropped, so Emit never blocks.
type ChannelSink struct {
	ch      chan Event
	mu      sync.Mutex
	closed  bool
	dropped int64
}

// NewChannelSink creates a sink with room for size events (minimum 1)
func NewChannelSink(size int) *ChannelSink {
	if size < 1 {
		size = 1
	}
	return &ChannelSink{ch: make(chan Event, size)}
}

// Emit enqueues e, evicting the oldest buffered event when full
func (s *ChannelSink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		atomic.AddInt64(&s.dropped, 1)
		return
	}

	for {
		select {
		case s.ch <- e:
			return
		default:
		}

		select {
		case <-s.ch:
			atomic.AddInt64(&s.dropped, 1)
		default:
		}
	}
}

// Events returns the channel consumers read from
func (s *ChannelSink) Events() <-chan Event {
	return s.ch
}

// Close closes the channel after the last Emit; later events are dropped
func (s *ChannelSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Dropped returns how many events were discarded
func (s *ChannelSink) Dropped() int64 {
	return atomic.LoadInt64(&s.dropped)
}
