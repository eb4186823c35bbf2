package bencode

import (
	"bytes"
	"fmt"
	"strconv"
)

// FindKey searches data for the bencoded string key (its length prefix
// included, e.g. "4:name") and returns the offset immediately after it,
// which is where the associated value starts. Returns -1 when absent.
//
// This is a shallow pattern search, not a parse: it is the cheap way to pull
// a handful of known scalar fields out of a torrent file without building a
// tree. A key pattern can in principle also occur inside an opaque string
// payload, so callers treat the results as best-effort.
func FindKey(data []byte, key string) int {
	pattern := []byte(strconv.Itoa(len(key)) + ":" + key)
	i := bytes.Index(data, pattern)
	if i < 0 {
		return -1
	}
	return i + len(pattern)
}

// StringValue reads a length-prefixed string value starting at off and
// returns its payload bytes.
func StringValue(data []byte, off int) ([]byte, error) {
	if off < 0 || off >= len(data) {
		return nil, fmt.Errorf("string offset %d out of range", off)
	}
	if data[off] < '0' || data[off] > '9' {
		return nil, &SyntaxError{Offset: off, Byte: data[off]}
	}
	end, err := stringEnd(data, off)
	if err != nil {
		return nil, err
	}
	colon := bytes.IndexByte(data[off:end], ':')
	return data[off+colon+1 : end], nil
}

// IntValue reads an integer value ("i<digits>e") starting at off.
func IntValue(data []byte, off int) (int64, error) {
	if off < 0 || off >= len(data) {
		return 0, fmt.Errorf("integer offset %d out of range", off)
	}
	if data[off] != 'i' {
		return 0, &SyntaxError{Offset: off, Byte: data[off]}
	}
	end := bytes.IndexByte(data[off:], 'e')
	if end < 0 {
		return 0, fmt.Errorf("unterminated integer starting at offset %d", off)
	}
	n, err := strconv.ParseInt(string(data[off+1:off+end]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer at offset %d: %w", off, err)
	}
	return n, nil
}

// SumKeyInts sums every integer value that follows an occurrence of key
// within data. Used to total the per-file lengths of a multi-file torrent,
// with data already bounded to the "files" list span.
func SumKeyInts(data []byte, key string) int64 {
	var total int64
	pos := 0
	for {
		off := FindKey(data[pos:], key)
		if off < 0 {
			return total
		}
		pos += off
		if n, err := IntValue(data, pos); err == nil {
			total += n
		}
	}
}
