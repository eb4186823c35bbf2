package torrent

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/maxgfr/ratio-master/bencode"
)

// ErrMissingInfoDict means no "info" key was found in the torrent file.
var ErrMissingInfoDict = errors.New("torrent file has no info dictionary")

// InfoHash is the SHA-1 digest of the torrent's info dictionary, hashed over
// the exact bytes of the source file. Re-encoding the dictionary is not an
// option: bencode does not round-trip the creator's key ordering or integer
// formatting, and a single differing byte changes the digest.
type InfoHash struct {
	digest  [20]byte
	hexForm string
	urlForm string
}

// ComputeInfoHash locates the info dictionary in raw torrent bytes and
// hashes its span.
func ComputeInfoHash(data []byte) (*InfoHash, error) {
	start := bencode.FindKey(data, "info")
	if start < 0 {
		return nil, ErrMissingInfoDict
	}
	end, err := bencode.ValueEnd(data, start)
	if err != nil {
		return nil, fmt.Errorf("locating end of info dictionary: %w", err)
	}

	ih := &InfoHash{digest: sha1.Sum(data[start:end])}
	ih.hexForm = hex.EncodeToString(ih.digest[:])
	ih.urlForm = Escape(ih.digest[:])
	return ih, nil
}

// ComputeInfoHashFile is ComputeInfoHash over a file on disk.
func ComputeInfoHashFile(path string) (*InfoHash, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading torrent file: %w", err)
	}
	return ComputeInfoHash(data)
}

// Digest returns the raw 20-byte SHA-1 digest.
func (ih *InfoHash) Digest() [20]byte { return ih.digest }

// Hex returns the lowercase hexadecimal form, for display and logging.
func (ih *InfoHash) Hex() string { return ih.hexForm }

// URLForm returns the percent-encoded form used in announce query strings.
func (ih *InfoHash) URLForm() string { return ih.urlForm }

// Escape percent-encodes raw bytes for a tracker query string. Alphanumeric
// ASCII passes through literally, everything else becomes %XX with uppercase
// hex. Trackers that log announce parameters compare these case-sensitively,
// so the casing must stay consistent across the session.
func Escape(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
			sb.WriteByte(c)
		default:
			sb.WriteString(fmt.Sprintf("%%%02X", c))
		}
	}
	return sb.String()
}
