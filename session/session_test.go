package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/maxgfr/ratio-master/torrent"
	"github.com/maxgfr/ratio-master/tracker"
)

type scriptedAnnouncer struct {
	mu       sync.Mutex
	events   []tracker.Event
	outcomes []tracker.Outcome
	calls    chan struct{}
}

func (a *scriptedAnnouncer) Announce(event tracker.Event, counters tracker.Counters) tracker.Outcome {
	a.mu.Lock()
	a.events = append(a.events, event)
	i := len(a.events) - 1
	a.mu.Unlock()

	if a.calls != nil {
		select {
		case a.calls <- struct{}{}:
		default:
		}
	}
	if i < len(a.outcomes) {
		return a.outcomes[i]
	}
	return tracker.Outcome{}
}

func (a *scriptedAnnouncer) snapshot() []tracker.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]tracker.Event(nil), a.events...)
}

type fakeRecorder struct {
	mu       sync.Mutex
	events   []string
	finished bool
}

func (r *fakeRecorder) RecordAnnounce(event, summary string, ok bool, uploaded uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *fakeRecorder) FinishSession(uploaded uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = true
}

func TestLifecycleEventOrdering(t *testing.T) {
	// Scripted tracker: OK, then an HTTP failure, then OK again. Errors in
	// the middle must not change the event sequence or stop the loop.
	ann := &scriptedAnnouncer{
		outcomes: []tracker.Outcome{
			{},
			{Kind: tracker.OutcomeHTTPError, StatusCode: 500},
			{},
		},
		calls: make(chan struct{}, 64),
	}
	rec := &fakeRecorder{}

	s := New(&torrent.Metadata{Name: "x", TotalLength: 1024}, ann, 1024)
	s.SetRecorder(rec)
	s.tick = time.Millisecond
	s.interval = 2 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	// Wait for the started announce plus two periodic ones.
	for i := 0; i < 3; i++ {
		select {
		case <-ann.calls:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for announces")
		}
	}
	cancel()
	<-done

	events := ann.snapshot()
	if len(events) < 4 {
		t.Fatalf("got %d announces, want at least 4", len(events))
	}
	if events[0] != tracker.EventStarted {
		t.Errorf("first event = %q, want started", events[0])
	}
	if last := events[len(events)-1]; last != tracker.EventStopped {
		t.Errorf("last event = %q, want stopped", last)
	}
	for _, ev := range events[1 : len(events)-1] {
		if ev != tracker.EventNone {
			t.Errorf("middle event = %q, want none", ev)
		}
	}

	if s.State() != Stopped {
		t.Errorf("State() = %d, want Stopped", s.State())
	}
	if !rec.finished {
		t.Error("recorder was not finalized on shutdown")
	}
}

func TestTickUploadJitterBounds(t *testing.T) {
	const speed = 100000
	s := New(&torrent.Metadata{TotalLength: 1024}, &scriptedAnnouncer{}, speed)

	for i := 0; i < 10000; i++ {
		got := s.tickUpload()
		if got == 0 {
			t.Fatal("tick upload reached zero")
		}
		if got < speed*7/10 || got > speed*13/10 {
			t.Fatalf("tick upload %d outside ±30%% of %d", got, speed)
		}
	}
}

func TestUploadedMonotonic(t *testing.T) {
	s := New(&torrent.Metadata{TotalLength: 1024}, &scriptedAnnouncer{}, 4096)
	s.interval = time.Hour // keep advance from announcing

	prev := s.Uploaded()
	s.lastAnnounce = time.Now()
	for i := 0; i < 100; i++ {
		s.advance()
		if s.Uploaded() <= prev {
			t.Fatalf("uploaded not strictly increasing at step %d", i)
		}
		prev = s.Uploaded()
	}
}

func TestNumWantByPhase(t *testing.T) {
	s := New(&torrent.Metadata{TotalLength: 1024}, &scriptedAnnouncer{}, 1024)

	s.left = 1 << 20
	if got := s.numWant(); got != downloadNumWant {
		t.Errorf("numWant while downloading = %d, want %d", got, downloadNumWant)
	}

	s.left = 0
	for i := 0; i < 1000; i++ {
		got := s.numWant()
		if got < seedNumWantBase || got >= seedNumWantBase+seedNumWantSpan {
			t.Fatalf("seeding numWant %d outside [%d, %d)", got, seedNumWantBase, seedNumWantBase+seedNumWantSpan)
		}
	}
}

func TestAnnounceAdoptsTrackerInterval(t *testing.T) {
	ann := &scriptedAnnouncer{outcomes: []tracker.Outcome{{Interval: 900}}}
	s := New(&torrent.Metadata{TotalLength: 1024}, ann, 1024)

	s.announce(tracker.EventNone)
	if s.interval != 900*time.Second {
		t.Errorf("interval = %s, want 900s", s.interval)
	}
}

func TestTrackerFailureDoesNotStopSession(t *testing.T) {
	ann := &scriptedAnnouncer{
		outcomes: []tracker.Outcome{{Kind: tracker.OutcomeTrackerError, Reason: "banned"}},
	}
	s := New(&torrent.Metadata{TotalLength: 1024}, ann, 1024)

	out := s.announce(tracker.EventStarted)
	if out.Kind != tracker.OutcomeTrackerError || out.Reason != "banned" {
		t.Fatalf("outcome = %+v, want tracker failure banned", out)
	}

	// The loop keeps ticking after a tracker failure.
	s.interval = time.Hour
	before := s.Uploaded()
	s.advance()
	if s.Uploaded() <= before {
		t.Error("session stopped advancing after tracker failure")
	}
}

func TestSeedModeCounters(t *testing.T) {
	s := New(&torrent.Metadata{TotalLength: 4096}, &scriptedAnnouncer{}, 1024)
	if s.downloaded != 4096 {
		t.Errorf("downloaded = %d, want 4096", s.downloaded)
	}
	if s.left != 0 {
		t.Errorf("left = %d, want 0", s.left)
	}

	unknown := New(&torrent.Metadata{}, &scriptedAnnouncer{}, 1024)
	if unknown.downloaded != fallbackDownloaded {
		t.Errorf("downloaded fallback = %d, want %d", unknown.downloaded, fallbackDownloaded)
	}
}
