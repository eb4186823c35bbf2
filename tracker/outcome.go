package tracker

import "fmt"

// Event is the announce lifecycle event reported to the tracker.
type Event string

const (
	EventNone    Event = ""
	EventStarted Event = "started"
	EventStopped Event = "stopped"
)

type OutcomeKind int

const (
	OutcomeOK OutcomeKind = iota
	// Transport failure: DNS, connect, timeout.
	OutcomeNetworkError
	// Non-2xx HTTP status.
	OutcomeHTTPError
	// 2xx with a bencoded "failure reason" in the body.
	OutcomeTrackerError
)

// Outcome classifies a single announce exchange. None of the non-OK kinds
// are fatal: the tracker relationship is best-effort and the session loop
// retries on its normal cadence.
type Outcome struct {
	Kind       OutcomeKind
	StatusCode int    // set for OutcomeHTTPError
	Reason     string // set for OutcomeTrackerError
	Err        error  // set for OutcomeNetworkError

	// Interval is the tracker-requested announce cadence in seconds,
	// 0 when the response did not carry one.
	Interval int64
	Seeders  int64
	Leechers int64
}

func (o Outcome) Succeeded() bool {
	return o.Kind == OutcomeOK
}

// Summary is a short human-readable form for logs and session records.
func (o Outcome) Summary() string {
	switch o.Kind {
	case OutcomeOK:
		return "ok"
	case OutcomeNetworkError:
		return fmt.Sprintf("network error: %v", o.Err)
	case OutcomeHTTPError:
		return fmt.Sprintf("http status %d", o.StatusCode)
	case OutcomeTrackerError:
		return "tracker failure: " + o.Reason
	default:
		return "unknown"
	}
}
