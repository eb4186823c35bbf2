package torrent

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// Wire fingerprint of the emulated client. Trackers validate the peer id
// prefix against known client encodings, so the signature must stay a
// recognizable real-client tag for the whole session.
const (
	ClientSignature = "-UT3550-"
	UserAgent       = "uTorrent/3550(44294)"
)

var clientMarker = []byte{0x9C, 0x04}

// Port range for the randomized listen port.
const (
	minPort = 10000
	maxPort = 65000
)

// Identity is the session-scoped announce identity. Generated once per run
// and never mutated afterwards; concurrent readers need no synchronization.
type Identity struct {
	PeerID [20]byte
	Key    string // 8 uppercase hex characters
	Port   int
}

// NewIdentity draws a fresh identity from the secure random source. Two
// calls in the same process never share bytes.
func NewIdentity() (*Identity, error) {
	id := &Identity{}

	copy(id.PeerID[:], ClientSignature)
	copy(id.PeerID[len(ClientSignature):], clientMarker)
	if _, err := rand.Read(id.PeerID[len(ClientSignature)+len(clientMarker):]); err != nil {
		return nil, fmt.Errorf("generating peer id: %w", err)
	}

	var key [4]byte
	if _, err := rand.Read(key[:]); err != nil {
		return nil, fmt.Errorf("generating session key: %w", err)
	}
	id.Key = strings.ToUpper(hex.EncodeToString(key[:]))

	var port [2]byte
	if _, err := rand.Read(port[:]); err != nil {
		return nil, fmt.Errorf("generating listen port: %w", err)
	}
	id.Port = minPort + int(binary.BigEndian.Uint16(port[:]))%(maxPort-minPort+1)

	return id, nil
}

// PeerIDURLForm returns the percent-encoded peer id for announce queries.
func (id *Identity) PeerIDURLForm() string {
	return Escape(id.PeerID[:])
}
