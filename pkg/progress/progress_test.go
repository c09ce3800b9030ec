package progress

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventJSON(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		expected string
	}{
		{"plan", Plan(3), `{"type":"plan","pages":3}`},
		{"page", Page(1, 3, "https://example.com/"), `{"type":"page","index":1,"total":3,"url":"https://example.com/"}`},
		{"fallback", Fallback("http_404", "https://example.com/x"), `{"type":"fallback","url":"https://example.com/x","reason":"http_404"}`},
		{"page_done zero", PageDone(2, 3, 0), `{"type":"page_done","index":2,"total":3,"added":0}`},
		{"scroll", Scroll(4, 12), `{"type":"scroll","total":12,"step":4}`},
		{"discover", Discover(2), `{"type":"discover","count":2}`},
		{"saved", Saved("https://example.com/a.png", "a.png"), `{"type":"saved","url":"https://example.com/a.png","file":"a.png"}`},
		{"download_failed", DownloadFailed("https://example.com/b", errors.New("boom")), `{"type":"download_failed","url":"https://example.com/b","error":"boom"}`},
		{"complete", Complete(0, "storage/images"), `{"type":"complete","saved":0,"outDir":"storage/images"}`},
		{"error", Failure(errors.New("invalid url")), `{"type":"error","error":"invalid url"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.event)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}

func TestResultEvent(t *testing.T) {
	evt, err := Result(map[string]interface{}{"count": 2, "outDir": "storage/images"})
	require.NoError(t, err)

	data, err := json.Marshal(evt)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"result","result":{"count":2,"outDir":"storage/images"}}`, string(data))
}

func TestWriteSSE(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSSE(&buf, Discover(5)))
	require.NoError(t, WriteSSE(&buf, Complete(4, "storage/x")))

	frames := strings.Split(strings.TrimSuffix(buf.String(), "\n\n"), "\n\n")
	require.Len(t, frames, 2)
	assert.Equal(t, `data: {"type":"discover","count":5}`, frames[0])
	assert.True(t, strings.HasPrefix(frames[1], `data: {"type":"complete"`))
}

type failingWriter struct{ writes int }

func (w *failingWriter) Write(p []byte) (int, error) {
	w.writes++
	return 0, errors.New("broken pipe")
}

func TestSSEWriterStopsAfterError(t *testing.T) {
	w := &failingWriter{}
	sink := NewSSEWriter(w)

	sink.Emit(Plan(1))
	sink.Emit(Plan(2))

	assert.Error(t, sink.Err())
	assert.Equal(t, 1, w.writes)
}

func TestChannelSinkDropsOldest(t *testing.T) {
	sink := NewChannelSink(2)
	sink.Emit(Plan(1))
	sink.Emit(Plan(2))
	sink.Emit(Plan(3))
	sink.Close()

	var pages []int
	for e := range sink.Events() {
		pages = append(pages, e.Pages)
	}

	assert.Equal(t, []int{2, 3}, pages)
	assert.Equal(t, int64(1), sink.Dropped())
}

func TestChannelSinkNeverBlocks(t *testing.T) {
	sink := NewChannelSink(0)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			sink.Emit(Plan(i))
		}
		close(done)
	}()
	<-done

	last := <-sink.Events()
	assert.Equal(t, 999, last.Pages)
	assert.Equal(t, int64(999), sink.Dropped())
}

func TestChannelSinkEmitAfterClose(t *testing.T) {
	sink := NewChannelSink(4)
	sink.Close()
	sink.Close()

	assert.NotPanics(t, func() { sink.Emit(Plan(1)) })
	assert.Equal(t, int64(1), sink.Dropped())
}

func TestMultiAndFunc(t *testing.T) {
	var mu sync.Mutex
	var got []Type
	record := Func(func(e Event) {
		mu.Lock()
		got = append(got, e.Type)
		mu.Unlock()
	})

	Multi(record, nil, Discard, record).Emit(Discover(1))
	assert.Equal(t, []Type{TypeDiscover, TypeDiscover}, got)
}

func TestIntValue(t *testing.T) {
	assert.Equal(t, 0, IntValue(nil))
	assert.Equal(t, 3, IntValue(PageDone(1, 1, 3).Added))
}
