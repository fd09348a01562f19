package resource

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// ErrChecksumMismatch is returned when two encodings of one graph differ.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// Checksum is the SHA-256 digest of an encoded container.
type Checksum [32]byte

// String returns the digest as lowercase hex.
func (c Checksum) String() string {
	return hex.EncodeToString(c[:])
}

// ComputeChecksum computes the SHA-256 checksum of data.
func ComputeChecksum(data []byte) Checksum {
	return sha256.Sum256(data)
}

// ComputeChecksumReader computes the SHA-256 checksum of everything r yields.
func ComputeChecksumReader(r io.Reader) (Checksum, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return Checksum{}, err
	}
	var sum Checksum
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

// ValidateChecksum returns ErrChecksumMismatch unless computed equals stored.
func ValidateChecksum(computed, stored Checksum) error {
	if computed != stored {
		return ErrChecksumMismatch
	}
	return nil
}

// EntryChecksums returns the checksum of each entry's standalone encoding. Pack entries
// are self-contained regions, so for a well-formed pack each digest also covers the
// entry's bytes in place.
func EntryChecksums[C any, P Container[C]](entries []P, ctx C, opts Options) ([]Checksum, error) {
	sums := make([]Checksum, len(entries))
	for i, ent := range entries {
		data, err := Marshal[C](ent, ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		sums[i] = ComputeChecksum(data)
	}
	return sums, nil
}
