package bencode

import "fmt"

// SyntaxError reports a byte that cannot start or continue a bencode value,
// together with its offset in the input.
type SyntaxError struct {
	Offset int
	Byte   byte
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("malformed bencode at offset %d: unexpected byte %q", e.Offset, e.Byte)
}

// Torrent files nest three to four levels deep; anything past this is garbage.
const maxDepth = 64

// ValueEnd walks one complete bencode value starting at off and returns the
// offset just past its final byte. It never allocates and never interprets
// string payloads, so binary blobs such as piece hashes pass through untouched.
func ValueEnd(data []byte, off int) (int, error) {
	return valueEnd(data, off, 0)
}

func valueEnd(data []byte, off, depth int) (int, error) {
	if depth > maxDepth {
		return 0, fmt.Errorf("bencode nested deeper than %d levels at offset %d", maxDepth, off)
	}
	if off >= len(data) {
		return 0, fmt.Errorf("unexpected end of data at offset %d", off)
	}

	switch b := data[off]; {
	case b == 'd' || b == 'l':
		i := off + 1
		for {
			if i >= len(data) {
				return 0, fmt.Errorf("unterminated container starting at offset %d", off)
			}
			if data[i] == 'e' {
				return i + 1, nil
			}
			end, err := valueEnd(data, i, depth+1)
			if err != nil {
				return 0, err
			}
			i = end
		}
	case b == 'i':
		for i := off + 1; i < len(data); i++ {
			if data[i] == 'e' {
				return i + 1, nil
			}
		}
		return 0, fmt.Errorf("unterminated integer starting at offset %d", off)
	case b >= '0' && b <= '9':
		return stringEnd(data, off)
	default:
		return 0, &SyntaxError{Offset: off, Byte: b}
	}
}

// stringEnd skips a length-prefixed string at off. Non-digit bytes in the
// length prefix are rejected rather than silently truncated.
func stringEnd(data []byte, off int) (int, error) {
	length := 0
	i := off
	for ; i < len(data) && data[i] != ':'; i++ {
		if data[i] < '0' || data[i] > '9' {
			return 0, &SyntaxError{Offset: i, Byte: data[i]}
		}
		// A prefix larger than the input can never be satisfied. Checking
		// before the multiply keeps the accumulator from overflowing on
		// absurdly long prefixes in hostile input.
		if length > len(data)/10 {
			return 0, fmt.Errorf("string length at offset %d exceeds input size", off)
		}
		length = length*10 + int(data[i]-'0')
		if length > len(data) {
			return 0, fmt.Errorf("string length at offset %d exceeds input size", off)
		}
	}
	if i >= len(data) {
		return 0, fmt.Errorf("string length without colon at offset %d", off)
	}
	end := i + 1 + length
	if end > len(data) {
		return 0, fmt.Errorf("string at offset %d runs past end of data", off)
	}
	return end, nil
}
