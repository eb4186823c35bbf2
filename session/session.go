package session

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/maxgfr/ratio-master/config"
	"github.com/maxgfr/ratio-master/torrent"
	"github.com/maxgfr/ratio-master/tracker"
	"github.com/maxgfr/ratio-master/utils"
)

// Announcer performs one announce exchange. *tracker.Client implements it;
// tests substitute scripted implementations.
type Announcer interface {
	Announce(event tracker.Event, counters tracker.Counters) tracker.Outcome
}

// Recorder persists announce history. Recording failures must never
// interrupt the session, so the methods return nothing.
type Recorder interface {
	RecordAnnounce(event string, summary string, ok bool, uploaded uint64)
	FinishSession(uploaded uint64)
}

type State int

const (
	NotStarted State = iota
	Started
	Seeding
	Stopped
)

// Counters fallback when the torrent's total size cannot be determined:
// present a completed 1 GiB download.
const fallbackDownloaded = 1 << 30

// numwant sizing: ask big while a real client would still be downloading,
// small and varied once seeding.
const (
	downloadNumWant = 200
	seedNumWantBase = 10
	seedNumWantSpan = 40
)

// Session drives the started → periodic → stopped announce lifecycle for a
// single torrent. All state is owned by the one goroutine running Run.
type Session struct {
	meta      *torrent.Metadata
	announcer Announcer
	recorder  Recorder

	speed    uint64 // target upload bytes per second
	interval time.Duration
	tick     time.Duration
	rng      *rand.Rand

	state        State
	uploaded     uint64
	downloaded   uint64
	left         uint64
	startedAt    time.Time
	lastAnnounce time.Time
}

// New builds a session in seed mode: the full content is presented as
// already downloaded and left stays 0 throughout.
func New(meta *torrent.Metadata, announcer Announcer, speed uint64) *Session {
	downloaded := meta.TotalLength
	if downloaded == 0 {
		downloaded = fallbackDownloaded
	}
	return &Session{
		meta:       meta,
		announcer:  announcer,
		speed:      speed,
		interval:   config.Main.AnnounceInterval,
		tick:       time.Second,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		downloaded: downloaded,
	}
}

func (s *Session) SetRecorder(r Recorder) {
	s.recorder = r
}

func (s *Session) State() State     { return s.state }
func (s *Session) Uploaded() uint64 { return s.uploaded }

// Run announces started, then ticks until ctx is cancelled, and always
// finishes with a stopped announce. No announce outcome is fatal: a failed
// started event is surfaced and retried on the normal cadence.
func (s *Session) Run(ctx context.Context) {
	s.state = Started
	s.startedAt = time.Now()
	log.Info().
		Str("name", s.meta.Name).
		Str("size", utils.FormatBytes(s.downloaded)).
		Str("speed", utils.FormatBytes(s.speed)+"/s").
		Msg("Starting announce session")

	s.announce(tracker.EventStarted)
	s.state = Seeding

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return
		case <-ticker.C:
			s.advance()
		}
	}
}

// advance moves the simulated counters one tick forward and announces when
// the interval has elapsed.
func (s *Session) advance() {
	s.uploaded += s.tickUpload()
	if time.Since(s.lastAnnounce) >= s.interval {
		s.announce(tracker.EventNone)
	}
}

// tickUpload returns the bytes uploaded during one tick: the target speed
// perturbed by a uniform ±30% jitter recomputed every tick. A perfectly
// constant rate would look nothing like an organic client.
func (s *Session) tickUpload() uint64 {
	jitter := 0.7 + 0.6*s.rng.Float64()
	return uint64(float64(s.speed) * jitter * s.tick.Seconds())
}

func (s *Session) numWant() int {
	if s.left > 0 {
		return downloadNumWant
	}
	return seedNumWantBase + s.rng.Intn(seedNumWantSpan)
}

func (s *Session) announce(event tracker.Event) tracker.Outcome {
	counters := tracker.Counters{
		Uploaded:   s.uploaded,
		Downloaded: s.downloaded,
		Left:       s.left,
		NumWant:    s.numWant(),
	}
	out := s.announcer.Announce(event, counters)
	s.lastAnnounce = time.Now()

	switch out.Kind {
	case tracker.OutcomeOK:
		if out.Interval > 0 {
			s.interval = time.Duration(out.Interval) * time.Second
		}
		log.Info().
			Str("event", eventName(event)).
			Str("uploaded", utils.FormatBytes(s.uploaded)).
			Dur("interval", s.interval).
			Int64("seeders", out.Seeders).
			Int64("leechers", out.Leechers).
			Msg("Announce accepted")
	case tracker.OutcomeTrackerError:
		log.Error().
			Str("event", eventName(event)).
			Str("reason", out.Reason).
			Msg("Tracker rejected announce")
	case tracker.OutcomeHTTPError:
		log.Warn().
			Str("event", eventName(event)).
			Int("status", out.StatusCode).
			Msg("Announce failed")
	case tracker.OutcomeNetworkError:
		log.Warn().
			Str("event", eventName(event)).
			Err(out.Err).
			Msg("Announce failed")
	}

	if s.recorder != nil {
		s.recorder.RecordAnnounce(eventName(event), out.Summary(), out.Succeeded(), s.uploaded)
	}
	return out
}

// shutdown sends the final stopped announce, best-effort. Skipping it would
// leave the peer registered on the tracker until its stale-peer expiry.
func (s *Session) shutdown() {
	log.Info().
		Str("uploaded", utils.FormatBytes(s.uploaded)).
		Dur("elapsed", time.Since(s.startedAt)).
		Msg("Stopping session")
	s.announce(tracker.EventStopped)
	s.state = Stopped
	if s.recorder != nil {
		s.recorder.FinishSession(s.uploaded)
	}
}

func eventName(e tracker.Event) string {
	if e == tracker.EventNone {
		return "periodic"
	}
	return string(e)
}
