package peerwire

import (
	"context"
	"net"
	"time"

	"github.com/rs/zerolog/log"
)

const handshakeTimeout = 5 * time.Second

// Responder answers inbound BitTorrent handshakes on the announced port so
// the port looks alive to trackers that probe it. It is a compatibility
// shim, not a peer: the connection is closed right after the reply.
//
// It shares only the immutable session identity with the announce loop, so
// no synchronization is needed.
type Responder struct {
	infoHash [20]byte
	peerID   [20]byte
	ln       net.Listener
}

func Listen(addr string, infoHash, peerID [20]byte) (*Responder, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Responder{
		infoHash: infoHash,
		peerID:   peerID,
		ln:       ln,
	}, nil
}

func (r *Responder) Addr() net.Addr {
	return r.ln.Addr()
}

// Serve accepts connections until ctx is cancelled.
func (r *Responder) Serve(ctx context.Context) {
	go func() {
		<-ctx.Done()
		r.ln.Close()
	}()

	log.Info().Stringer("addr", r.ln.Addr()).Msg("Handshake responder listening")
	for {
		conn, err := r.ln.Accept()
		if err != nil {
			if ctx.Err() == nil {
				log.Warn().Err(err).Msg("Handshake responder stopped accepting")
			}
			return
		}
		go r.respond(conn)
	}
}

func (r *Responder) respond(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(handshakeTimeout))

	theirs, err := ReadHandshake(conn)
	if err != nil {
		log.Debug().Err(err).Stringer("peer", conn.RemoteAddr()).Msg("Bad inbound handshake")
		return
	}
	if theirs.InfoHash != r.infoHash {
		log.Debug().Stringer("peer", conn.RemoteAddr()).Msg("Handshake for unknown info hash")
		return
	}

	ours := &Handshake{InfoHash: r.infoHash, PeerID: r.peerID}
	if _, err := conn.Write(ours.Serialize()); err != nil {
		log.Debug().Err(err).Stringer("peer", conn.RemoteAddr()).Msg("Failed to answer handshake")
		return
	}
	log.Debug().Stringer("peer", conn.RemoteAddr()).Msg("Answered peer handshake")
}
