package bencode

import (
	"fmt"
	"strconv"
)

type Kind int

const (
	Invalid Kind = iota
	String
	Integer
	List
	Dict
)

// Data is a decoded bencode value. Only tracker response bodies go through
// this path; torrent files are handled by the scanner and span locator so
// that the info dictionary's exact bytes stay untouched.
type Data struct {
	Kind Kind

	str  []byte
	num  int64
	list []*Data
	dict map[string]*Data
}

func (d *Data) Bytes() []byte { return d.str }
func (d *Data) Str() string   { return string(d.str) }
func (d *Data) Int() int64    { return d.num }
func (d *Data) List() []*Data { return d.list }

// Lookup returns the value for key in a dictionary, or nil when d is not a
// dictionary or the key is absent.
func (d *Data) Lookup(key string) *Data {
	if d == nil || d.Kind != Dict {
		return nil
	}
	return d.dict[key]
}

// Decode parses a single bencode value from data. Trailing bytes after the
// first value are ignored, matching how trackers terminate their responses.
func Decode(data []byte) (*Data, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty bencode data")
	}
	d, _, err := decodeValue(data, 0)
	return d, err
}

func decodeValue(data []byte, off int) (*Data, int, error) {
	if off >= len(data) {
		return nil, 0, fmt.Errorf("unexpected end of data at offset %d", off)
	}

	switch b := data[off]; {
	case b == 'i':
		end, err := ValueEnd(data, off)
		if err != nil {
			return nil, 0, err
		}
		n, err := strconv.ParseInt(string(data[off+1:end-1]), 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid integer at offset %d: %w", off, err)
		}
		return &Data{Kind: Integer, num: n}, end, nil

	case b == 'l':
		list := make([]*Data, 0)
		i := off + 1
		for {
			if i >= len(data) {
				return nil, 0, fmt.Errorf("unterminated list starting at offset %d", off)
			}
			if data[i] == 'e' {
				return &Data{Kind: List, list: list}, i + 1, nil
			}
			elem, next, err := decodeValue(data, i)
			if err != nil {
				return nil, 0, err
			}
			list = append(list, elem)
			i = next
		}

	case b == 'd':
		dict := make(map[string]*Data)
		i := off + 1
		for {
			if i >= len(data) {
				return nil, 0, fmt.Errorf("unterminated dictionary starting at offset %d", off)
			}
			if data[i] == 'e' {
				return &Data{Kind: Dict, dict: dict}, i + 1, nil
			}
			key, next, err := decodeValue(data, i)
			if err != nil {
				return nil, 0, err
			}
			if key.Kind != String {
				return nil, 0, fmt.Errorf("dictionary key at offset %d is not a string", i)
			}
			val, after, err := decodeValue(data, next)
			if err != nil {
				return nil, 0, err
			}
			dict[key.Str()] = val
			i = after
		}

	case b >= '0' && b <= '9':
		end, err := stringEnd(data, off)
		if err != nil {
			return nil, 0, err
		}
		payload, err := StringValue(data, off)
		if err != nil {
			return nil, 0, err
		}
		return &Data{Kind: String, str: payload}, end, nil

	default:
		return nil, 0, &SyntaxError{Offset: off, Byte: b}
	}
}
