package tracker

import (
	"bytes"
	"compress/gzip"
	"io"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/maxgfr/ratio-master/bencode"
	"github.com/maxgfr/ratio-master/config"
	"github.com/maxgfr/ratio-master/torrent"
)

// Transfer counters are floored to a 16 KiB boundary before transmission,
// matching the emulated client. Trackers log the rounded values.
const transferQuantum = 16 * 1024

// Counters is the progress snapshot sent with one announce.
type Counters struct {
	Uploaded   uint64
	Downloaded uint64
	Left       uint64
	NumWant    int
}

// Client performs HTTP announces for one torrent and one session identity.
// It never retries internally; retry timing belongs to the session loop.
type Client struct {
	announceURL string
	infoHash    *torrent.InfoHash
	identity    *torrent.Identity
	http        *resty.Client
}

func NewClient(announceURL string, ih *torrent.InfoHash, id *torrent.Identity) *Client {
	// The header set mimics the emulated client exactly: User-Agent,
	// Accept-Encoding: gzip and an explicitly empty Accept. Extra headers
	// risk tracker-side fingerprint mismatches.
	cli := resty.New().
		SetTimeout(config.Main.HTTPTimeout).
		SetHeader("User-Agent", torrent.UserAgent).
		SetHeader("Accept-Encoding", "gzip").
		SetHeader("Accept", "")

	return &Client{
		announceURL: announceURL,
		infoHash:    ih,
		identity:    id,
		http:        cli,
	}
}

// Announce sends one announce with the given event and counters and
// classifies the exchange.
func (c *Client) Announce(event Event, counters Counters) Outcome {
	reqURL := c.announceURL + querySeparator(c.announceURL) + c.buildQuery(event, counters)

	resp, err := c.http.R().Get(reqURL)
	if err != nil {
		return Outcome{Kind: OutcomeNetworkError, Err: err}
	}
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return Outcome{Kind: OutcomeHTTPError, StatusCode: code}
	}

	body, err := responseBody(resp)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read tracker response body")
		return Outcome{Kind: OutcomeOK}
	}
	return classify(body)
}

// buildQuery assembles the query string by hand: the parameter order is part
// of the client fingerprint and url.Values would sort it alphabetically.
func (c *Client) buildQuery(event Event, counters Counters) string {
	var q strings.Builder
	q.WriteString("info_hash=" + c.infoHash.URLForm())
	q.WriteString("&peer_id=" + c.identity.PeerIDURLForm())
	q.WriteString("&port=" + strconv.Itoa(c.identity.Port))
	q.WriteString("&uploaded=" + strconv.FormatUint(roundToQuantum(counters.Uploaded), 10))
	q.WriteString("&downloaded=" + strconv.FormatUint(roundToQuantum(counters.Downloaded), 10))
	q.WriteString("&left=" + strconv.FormatUint(counters.Left, 10))
	q.WriteString("&corrupt=0")
	q.WriteString("&key=" + c.identity.Key)
	if event != EventNone {
		q.WriteString("&event=" + string(event))
	}
	q.WriteString("&numwant=" + strconv.Itoa(counters.NumWant))
	q.WriteString("&compact=1")
	q.WriteString("&no_peer_id=1")
	return q.String()
}

func roundToQuantum(n uint64) uint64 {
	return n - n%transferQuantum
}

func querySeparator(announceURL string) string {
	if strings.Contains(announceURL, "?") {
		return "&"
	}
	return "?"
}

// responseBody returns the decoded body bytes. Setting Accept-Encoding by
// hand disables the transport's transparent gzip handling, so a compressed
// body arrives verbatim and is inflated here.
func responseBody(resp *resty.Response) ([]byte, error) {
	if resp.Header().Get("Content-Encoding") != "gzip" {
		return resp.Body(), nil
	}
	r, err := gzip.NewReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func classify(body []byte) Outcome {
	data, err := bencode.Decode(body)
	if err != nil {
		// Some trackers answer an empty or plain-text body on success;
		// treat it as OK with the interval unchanged.
		log.Debug().Err(err).Msg("Tracker response is not valid bencode")
		return Outcome{Kind: OutcomeOK}
	}

	if reason := data.Lookup("failure reason"); reason != nil {
		return Outcome{Kind: OutcomeTrackerError, Reason: reason.Str()}
	}

	out := Outcome{Kind: OutcomeOK}
	if interval := data.Lookup("interval"); interval != nil {
		out.Interval = interval.Int()
	}
	if complete := data.Lookup("complete"); complete != nil {
		out.Seeders = complete.Int()
	}
	if incomplete := data.Lookup("incomplete"); incomplete != nil {
		out.Leechers = incomplete.Int()
	}
	if warning := data.Lookup("warning message"); warning != nil {
		log.Warn().Str("warning", warning.Str()).Msg("Tracker warning")
	}
	return out
}
