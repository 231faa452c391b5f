package escalation

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"mindguard/internal/detector"
)

type recordingSink struct {
	mu     sync.Mutex
	events []*Event
	fail   bool
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Deliver(_ context.Context, ev *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("sink down")
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) Close(context.Context) error { return nil }

func (s *recordingSink) delivered() []*Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Event, len(s.events))
	copy(out, s.events)
	return out
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.PanicLevel)
	return log
}

func testEvent(action Action) *Event {
	return NewEvent(detector.Assessment{
		Score: 3,
		Tier:  detector.TierModerate,
	}, Directive{Tier: detector.TierModerate, Action: action}, "test message")
}

func TestDispatcherDeliversQueuedEvents(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(DispatcherConfig{QueueSize: 8, Workers: 2}, []Sink{sink}, quietLogger())

	for i := 0; i < 5; i++ {
		d.Dispatch(context.Background(), testEvent(ActionSuggestResources))
	}
	d.Close(context.Background())

	if got := len(sink.delivered()); got != 5 {
		t.Fatalf("delivered %d events, want 5", got)
	}
	m := d.MetricsSnapshot()
	if m.Enqueued() != 5 {
		t.Errorf("enqueued = %d, want 5", m.Enqueued())
	}
	if m.SinkSuccess("recording") != 5 {
		t.Errorf("sink success = %d, want 5", m.SinkSuccess("recording"))
	}
}

// Crisis triggers are delivered in the caller's goroutine, so they land
// even when the queue has no capacity at all.
func TestDispatcherCrisisBypassesQueue(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(DispatcherConfig{QueueSize: 1, Workers: 1}, []Sink{sink}, quietLogger())
	defer d.Close(context.Background())

	d.Dispatch(context.Background(), testEvent(ActionTriggerCrisisProtocol))

	delivered := sink.delivered()
	if len(delivered) != 1 {
		t.Fatalf("delivered %d events, want 1 immediately", len(delivered))
	}
	if delivered[0].Action != ActionTriggerCrisisProtocol {
		t.Errorf("action = %v, want TRIGGER_CRISIS_PROTOCOL", delivered[0].Action)
	}
}

// Even after Close, a crisis trigger still reaches the sinks.
func TestDispatcherCrisisAfterClose(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(DispatcherConfig{QueueSize: 1, Workers: 1}, []Sink{sink}, quietLogger())
	d.Close(context.Background())

	d.Dispatch(context.Background(), testEvent(ActionTriggerCrisisProtocol))

	if got := len(sink.delivered()); got != 1 {
		t.Fatalf("delivered %d events after close, want 1", got)
	}
}

func TestDispatcherCountsDrops(t *testing.T) {
	// A sink that blocks until released, so the queue backs up.
	release := make(chan struct{})
	blocking := &blockingSink{release: release}
	d := NewDispatcher(DispatcherConfig{QueueSize: 1, Workers: 1}, []Sink{blocking}, quietLogger())

	// First event occupies the worker, second fills the queue, the
	// rest must be dropped.
	for i := 0; i < 6; i++ {
		d.Dispatch(context.Background(), testEvent(ActionSuggestResources))
	}
	close(release)
	d.Close(context.Background())

	m := d.MetricsSnapshot()
	if m.Dropped() == 0 {
		t.Error("expected dropped events, got none")
	}
	if m.Enqueued()+m.Dropped() != 6 {
		t.Errorf("enqueued %d + dropped %d != 6", m.Enqueued(), m.Dropped())
	}
}

func TestDispatcherCountsSinkFailures(t *testing.T) {
	sink := &recordingSink{fail: true}
	d := NewDispatcher(DispatcherConfig{QueueSize: 4, Workers: 1}, []Sink{sink}, quietLogger())

	d.Dispatch(context.Background(), testEvent(ActionNotifyCounselor))
	d.Close(context.Background())

	m := d.MetricsSnapshot()
	if m.SinkFailure("recording") != 1 {
		t.Errorf("sink failure = %d, want 1", m.SinkFailure("recording"))
	}
}

type blockingSink struct {
	release <-chan struct{}
}

func (s *blockingSink) Name() string { return "blocking" }

func (s *blockingSink) Deliver(_ context.Context, _ *Event) error {
	<-s.release
	return nil
}

func (s *blockingSink) Close(context.Context) error { return nil }

func TestFileSinkWritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "escalations.jsonl")
	sink, err := NewFileSink(path)
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := sink.Deliver(context.Background(), testEvent(ActionNotifyCounselor)); err != nil {
			t.Fatalf("Deliver: %v", err)
		}
	}
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines, err)
		}
		if ev.Action != ActionNotifyCounselor {
			t.Errorf("line %d action = %v", lines, ev.Action)
		}
		lines++
	}
	if lines != 3 {
		t.Errorf("wrote %d lines, want 3", lines)
	}
}

func TestWebhookSink(t *testing.T) {
	var (
		mu       sync.Mutex
		received []Event
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		received = append(received, ev)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink, err := NewWebhookSink(srv.URL, map[string]string{"X-Source": "test"}, time.Second)
	if err != nil {
		t.Fatalf("NewWebhookSink: %v", err)
	}

	ev := testEvent(ActionTriggerCrisisProtocol)
	if err := sink.Deliver(context.Background(), ev); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("server received %d events, want 1", len(received))
	}
	if received[0].ID != ev.ID {
		t.Errorf("event id = %q, want %q", received[0].ID, ev.ID)
	}
}

func TestWebhookSinkRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink, err := NewWebhookSink(srv.URL, nil, time.Second)
	if err != nil {
		t.Fatalf("NewWebhookSink: %v", err)
	}

	if err := sink.Deliver(context.Background(), testEvent(ActionNotifyCounselor)); err != nil {
		t.Fatalf("Deliver after retries: %v", err)
	}
	if calls != 3 {
		t.Errorf("server saw %d calls, want 3", calls)
	}
}

func TestEventExcerptTruncated(t *testing.T) {
	tests := []struct {
		name, word string
	}{
		{"ascii", "overwhelmed "},
		{"multibyte", "überfordert "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			long := ""
			for len(long) < 500 {
				long += tt.word
			}
			ev := NewEvent(detector.Assessment{Tier: detector.TierModerate}, Directive{Action: ActionSuggestResources}, long)
			if len(ev.Excerpt) > excerptLimit {
				t.Errorf("excerpt length %d exceeds %d", len(ev.Excerpt), excerptLimit)
			}
			if !utf8.ValidString(ev.Excerpt) {
				t.Error("excerpt split a multibyte rune")
			}
		})
	}

	short := NewEvent(detector.Assessment{Tier: detector.TierLow}, Directive{Action: ActionSuggestResources}, "brief note")
	if short.Excerpt != "brief note" {
		t.Errorf("short excerpt = %q, want unchanged", short.Excerpt)
	}
}
