package torrent

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/maxgfr/ratio-master/bencode"
	"github.com/maxgfr/ratio-master/utils"
)

// DefaultPieceLength is assumed when a torrent omits "piece length".
const DefaultPieceLength = 262144

// ErrInvalidFormat means the file does not start with a bencoded dictionary.
var ErrInvalidFormat = errors.New("torrent file is not a bencoded dictionary")

// Metadata holds the handful of torrent fields the announce session needs.
// It is extracted with targeted key scans rather than a full parse; every
// field except the format check is best-effort.
type Metadata struct {
	Name        string
	TotalLength uint64
	PieceLength uint64
	PieceCount  uint64 // 0 when TotalLength is unknown
	Announce    string
	Comment     string
}

func (m *Metadata) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("  Name: %s\n", m.Name))
	if m.TotalLength > 0 {
		sb.WriteString(fmt.Sprintf("  Size: %s\n", utils.FormatBytes(m.TotalLength)))
	} else {
		sb.WriteString("  Size: unknown\n")
	}
	sb.WriteString(fmt.Sprintf("  PieceLength: %s\n", utils.FormatBytes(m.PieceLength)))
	if m.PieceCount > 0 {
		sb.WriteString(fmt.Sprintf("  PieceCount: %d\n", m.PieceCount))
	} else {
		sb.WriteString("  PieceCount: unknown\n")
	}
	sb.WriteString(fmt.Sprintf("  Announce: %s\n", m.Announce))
	sb.WriteString(fmt.Sprintf("  Comment: %s\n", m.Comment))
	return sb.String()
}

// LoadMetadata reads a torrent file and extracts its metadata. A missing
// "name" falls back to the file name with the .torrent suffix stripped.
func LoadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading torrent file: %w", err)
	}
	meta, err := ParseMetadata(data)
	if err != nil {
		return nil, err
	}
	if meta.Name == "" {
		meta.Name = strings.TrimSuffix(filepath.Base(path), ".torrent")
	}
	return meta, nil
}

// ParseMetadata extracts metadata from raw torrent bytes.
func ParseMetadata(data []byte) (*Metadata, error) {
	if len(data) == 0 || data[0] != 'd' {
		return nil, ErrInvalidFormat
	}

	meta := &Metadata{PieceLength: DefaultPieceLength}

	if off := bencode.FindKey(data, "name"); off >= 0 {
		if s, err := bencode.StringValue(data, off); err == nil {
			meta.Name = string(s)
		}
	}
	if off := bencode.FindKey(data, "announce"); off >= 0 {
		if s, err := bencode.StringValue(data, off); err == nil {
			meta.Announce = string(s)
		}
	}
	if off := bencode.FindKey(data, "comment"); off >= 0 {
		if s, err := bencode.StringValue(data, off); err == nil {
			meta.Comment = string(s)
		}
	}
	if off := bencode.FindKey(data, "piece length"); off >= 0 {
		if n, err := bencode.IntValue(data, off); err == nil && n > 0 {
			meta.PieceLength = uint64(n)
		}
	}

	meta.TotalLength = totalLength(data)
	if meta.TotalLength > 0 {
		meta.PieceCount = (meta.TotalLength + meta.PieceLength - 1) / meta.PieceLength
	}
	return meta, nil
}

// totalLength sums the file lengths. A "files" list marker means multi-file
// mode and takes priority over a single top-level "length".
func totalLength(data []byte) uint64 {
	if off := bencode.FindKey(data, "files"); off >= 0 && off < len(data) && data[off] == 'l' {
		end, err := bencode.ValueEnd(data, off)
		if err != nil {
			return 0
		}
		if sum := bencode.SumKeyInts(data[off:end], "length"); sum > 0 {
			return uint64(sum)
		}
		return 0
	}
	if off := bencode.FindKey(data, "length"); off >= 0 {
		if n, err := bencode.IntValue(data, off); err == nil && n > 0 {
			return uint64(n)
		}
	}
	return 0
}
