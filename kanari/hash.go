package kanari

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// HashLength is the width of a digest produced anywhere in this module:
// transaction hashes and state roots share it.
const HashLength = 32

// Hash is a 32-byte SHA3-256 digest.
type Hash [HashLength]byte

// String returns the canonical "0x"-prefixed lowercase hex form.
func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// Bytes returns the digest as a byte slice.
func (h Hash) Bytes() []byte {
	return h[:]
}

// IsZero reports whether every byte of the digest is zero.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Sum256 computes the SHA3-256 digest of data.
func Sum256(data []byte) Hash {
	var h Hash
	sum := sha3.Sum256(data)
	copy(h[:], sum[:])
	return h
}

// BytesToHash converts b into a Hash, left-padding or cropping from the
// left the same way BytesToAddress does.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}
