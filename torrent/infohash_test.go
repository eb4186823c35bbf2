package torrent

import (
	"bytes"
	"errors"
	"regexp"
	"testing"
)

func torrentWithComment(comment string) []byte {
	var buf bytes.Buffer
	buf.WriteString("d8:announce23:" + announceURL)
	buf.WriteString("7:comment")
	buf.WriteString(lenPrefixed(comment))
	buf.WriteString("4:infod6:lengthi1024e4:name8:test.bin12:piece lengthi16384e6:pieces20:aaaaaaaaaaaaaaaaaaaaee")
	return buf.Bytes()
}

func lenPrefixed(s string) string {
	return string(rune('0'+len(s))) + ":" + s
}

func TestComputeInfoHashDeterministic(t *testing.T) {
	data := singleFileTorrent()
	first, err := ComputeInfoHash(data)
	if err != nil {
		t.Fatalf("ComputeInfoHash() error = %v", err)
	}
	second, err := ComputeInfoHash(data)
	if err != nil {
		t.Fatalf("ComputeInfoHash() error = %v", err)
	}
	if first.Digest() != second.Digest() {
		t.Error("same bytes produced different digests")
	}
}

func TestInfoHashIgnoresBytesOutsideInfoSpan(t *testing.T) {
	a, err := ComputeInfoHash(torrentWithComment("hello"))
	if err != nil {
		t.Fatalf("ComputeInfoHash() error = %v", err)
	}
	b, err := ComputeInfoHash(torrentWithComment("world"))
	if err != nil {
		t.Fatalf("ComputeInfoHash() error = %v", err)
	}
	if a.Digest() != b.Digest() {
		t.Error("changing the comment changed the info hash")
	}
}

func TestInfoHashSensitiveToInfoSpan(t *testing.T) {
	original := singleFileTorrent()
	mutated := bytes.Replace(original, []byte("piece lengthi16384e"), []byte("piece lengthi32768e"), 1)
	if bytes.Equal(original, mutated) {
		t.Fatal("mutation did not apply")
	}

	a, err := ComputeInfoHash(original)
	if err != nil {
		t.Fatalf("ComputeInfoHash() error = %v", err)
	}
	b, err := ComputeInfoHash(mutated)
	if err != nil {
		t.Fatalf("ComputeInfoHash() error = %v", err)
	}
	if a.Digest() == b.Digest() {
		t.Error("changing piece length did not change the info hash")
	}
}

func TestComputeInfoHashMissingInfo(t *testing.T) {
	_, err := ComputeInfoHash([]byte("d8:announce23:" + announceURL + "e"))
	if !errors.Is(err, ErrMissingInfoDict) {
		t.Errorf("error = %v, want ErrMissingInfoDict", err)
	}
}

func TestInfoHashForms(t *testing.T) {
	ih, err := ComputeInfoHash(singleFileTorrent())
	if err != nil {
		t.Fatalf("ComputeInfoHash() error = %v", err)
	}
	if !regexp.MustCompile(`^[0-9a-f]{40}$`).MatchString(ih.Hex()) {
		t.Errorf("Hex() = %q, want 40 lowercase hex chars", ih.Hex())
	}
	if ih.URLForm() != Escape(func() []byte { d := ih.Digest(); return d[:] }()) {
		t.Error("URLForm() does not match Escape of the digest")
	}
}

func TestEscape(t *testing.T) {
	got := Escape([]byte{0x00, 'a', 0xFF, '5', '~', ' '})
	want := "%00a%FF5%7E%20"
	if got != want {
		t.Errorf("Escape() = %q, want %q", got, want)
	}
}
