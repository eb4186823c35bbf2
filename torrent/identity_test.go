package torrent

import (
	"bytes"
	"regexp"
	"testing"
)

func TestNewIdentity(t *testing.T) {
	id, err := NewIdentity()
	if err != nil {
		t.Fatalf("NewIdentity() error = %v", err)
	}

	if got := string(id.PeerID[:len(ClientSignature)]); got != ClientSignature {
		t.Errorf("peer id signature = %q, want %q", got, ClientSignature)
	}
	if !bytes.Equal(id.PeerID[8:10], clientMarker) {
		t.Errorf("peer id marker = %v, want %v", id.PeerID[8:10], clientMarker)
	}

	if !regexp.MustCompile(`^[0-9A-F]{8}$`).MatchString(id.Key) {
		t.Errorf("Key = %q, want 8 uppercase hex chars", id.Key)
	}

	if id.Port < 10000 || id.Port > 65000 {
		t.Errorf("Port = %d, want within [10000, 65000]", id.Port)
	}
}

func TestNewIdentityDrawsFreshRandomness(t *testing.T) {
	a, err := NewIdentity()
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewIdentity()
	if err != nil {
		t.Fatal(err)
	}
	if a.PeerID == b.PeerID {
		t.Error("two identities share the same peer id")
	}
	if a.Key == b.Key {
		t.Error("two identities share the same session key")
	}
}
