package crawler

import (
	"fmt"
	"sync"

	"imgcrawler/pkg/logger"
	"imgcrawler/pkg/progress"
)

// emitter serializes events from the page loop and the download workers so
// the sink sees them one at a time. A panicking sink is logged and ignored.
type emitter struct {
	mu     sync.Mutex
	sink   progress.Sink
	logger logger.Logger
}

func (e *emitter) emit(ev progress.Event) {
	if e.sink == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			e.logger.WithField("event", string(ev.Type)).Warn(fmt.Sprintf("Progress sink panicked: %v", r))
		}
	}()
	e.sink.Emit(ev)
}
