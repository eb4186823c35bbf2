package peerwire

import (
	"fmt"
	"io"
)

const protocolIdentifier = "BitTorrent protocol"

// Handshake is the initial BitTorrent peer-wire message.
type Handshake struct {
	InfoHash [20]byte
	PeerID   [20]byte
}

// Serialize converts the Handshake into its wire form:
// <pstrlen><pstr><8 reserved bytes><info_hash><peer_id>
func (h *Handshake) Serialize() []byte {
	buf := make([]byte, 49+len(protocolIdentifier))
	buf[0] = byte(len(protocolIdentifier))
	copy(buf[1:], protocolIdentifier)
	copy(buf[1+len(protocolIdentifier)+8:], h.InfoHash[:])
	copy(buf[1+len(protocolIdentifier)+8+20:], h.PeerID[:])
	return buf
}

// ReadHandshake reads and validates one handshake from the reader.
func ReadHandshake(r io.Reader) (*Handshake, error) {
	lengthBuf := make([]byte, 1)
	if _, err := io.ReadFull(r, lengthBuf); err != nil {
		return nil, err
	}
	pstrlen := int(lengthBuf[0])
	if pstrlen == 0 {
		return nil, fmt.Errorf("pstrlen cannot be 0")
	}

	handshakeBuf := make([]byte, 48+pstrlen)
	if _, err := io.ReadFull(r, handshakeBuf); err != nil {
		return nil, err
	}

	if pstr := string(handshakeBuf[:pstrlen]); pstr != protocolIdentifier {
		return nil, fmt.Errorf("unsupported protocol identifier: %q", pstr)
	}

	h := &Handshake{}
	copy(h.InfoHash[:], handshakeBuf[pstrlen+8:pstrlen+8+20])
	copy(h.PeerID[:], handshakeBuf[pstrlen+8+20:])
	return h, nil
}
