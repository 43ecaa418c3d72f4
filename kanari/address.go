// Package kanari holds the foundational types shared by every layer of the
// execution core: the account address, state digests, the canonical
// little-endian wire encoding, and the error taxonomy.
package kanari

import (
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

// AddressLength is the fixed width of an account identifier, in bytes.
const AddressLength = 32

// Address is an opaque fixed-width account identifier. Equality is
// byte-wise; the canonical text form is lowercase hex with a "0x" prefix.
type Address [AddressLength]byte

// String returns the canonical "0x"-prefixed lowercase hex form.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Bytes returns the address as a byte slice.
func (a Address) Bytes() []byte {
	return a[:]
}

// IsZero reports whether every byte of the address is zero.
func (a Address) IsZero() bool {
	return a == Address{}
}

// BytesToAddress converts a byte slice into an Address. If b is longer than
// AddressLength it is cropped from the left; if shorter, it is left-padded
// with zeros.
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

// ParseAddress parses a hex string, with or without a "0x" prefix, into an
// Address. Any decoded length up to AddressLength is accepted and
// left-padded with zeros; longer input is rejected.
func ParseAddress(s string) (Address, error) {
	raw := s
	if len(raw) >= 2 && strings.EqualFold(raw[:2], "0x") {
		raw = raw[2:]
	}
	if len(raw)%2 != 0 {
		raw = "0" + raw
	}
	if len(raw) > AddressLength*2 {
		return Address{}, errors.Errorf("address: hex length exceeds %d bytes", AddressLength)
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return Address{}, errors.Wrap(err, "address: invalid hex")
	}
	return BytesToAddress(b), nil
}

// MustParseAddress is ParseAddress for compile-time-known-good
// literals; it panics on a malformed one.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FeeCollector is the well-known account that a failed transaction's
// gas fee is paid to — a fixed system address rather than a per-node
// configuration value. A successful transaction pays it nothing.
var FeeCollector = MustParseAddress("0xbeea29083fee79171d91c39cc257a6ba71c6f1adb7789ec2dbbd79622d9dde42")
