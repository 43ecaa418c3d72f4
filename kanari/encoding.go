package kanari

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Encoder builds up the canonical wire form used for transaction
// hashing, journal records, and on-disk account records: fixed-width
// integers little-endian, variable-length fields length-prefixed by a
// 4-byte unsigned count. It is the one serialization scheme crossing
// every boundary named in the specification.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// Bytes returns the accumulated encoding.
func (e *Encoder) Bytes() []byte { return e.buf }

// Uint32 appends v as 4 little-endian bytes.
func (e *Encoder) Uint32(v uint32) *Encoder {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf = append(e.buf, b[:]...)
	return e
}

// Uint64 appends v as 8 little-endian bytes.
func (e *Encoder) Uint64(v uint64) *Encoder {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf = append(e.buf, b[:]...)
	return e
}

// Byte appends a single byte, typically used for tag/discriminant values.
func (e *Encoder) Byte(v byte) *Encoder {
	e.buf = append(e.buf, v)
	return e
}

// Bytes32 appends a fixed 32-byte field with no length prefix (addresses,
// hashes).
func (e *Encoder) Bytes32(v [32]byte) *Encoder {
	e.buf = append(e.buf, v[:]...)
	return e
}

// Raw appends b verbatim, with no length prefix. Used to splice one
// Encoder's output into another, such as prefixing an already-encoded
// unsigned transaction body ahead of its signature fields.
func (e *Encoder) Raw(b []byte) *Encoder {
	e.buf = append(e.buf, b...)
	return e
}

// Blob appends v prefixed by its 4-byte little-endian length.
func (e *Encoder) Blob(v []byte) *Encoder {
	e.Uint32(uint32(len(v)))
	e.buf = append(e.buf, v...)
	return e
}

// String appends s prefixed by its 4-byte little-endian byte length.
func (e *Encoder) String(s string) *Encoder {
	return e.Blob([]byte(s))
}

// Decoder reads back values produced by Encoder, in order.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder returns a Decoder over buf.
func NewDecoder(buf []byte) *Decoder { return &Decoder{buf: buf} }

func (d *Decoder) need(n int) error {
	if d.pos+n > len(d.buf) {
		return io.ErrUnexpectedEOF
	}
	return nil
}

// Uint32 decodes a 4-byte little-endian unsigned integer.
func (d *Decoder) Uint32() (uint32, error) {
	if err := d.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(d.buf[d.pos : d.pos+4])
	d.pos += 4
	return v, nil
}

// Uint64 decodes an 8-byte little-endian unsigned integer.
func (d *Decoder) Uint64() (uint64, error) {
	if err := d.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(d.buf[d.pos : d.pos+8])
	d.pos += 8
	return v, nil
}

// Byte decodes a single byte.
func (d *Decoder) Byte() (byte, error) {
	if err := d.need(1); err != nil {
		return 0, err
	}
	v := d.buf[d.pos]
	d.pos++
	return v, nil
}

// Bytes32 decodes a fixed 32-byte field.
func (d *Decoder) Bytes32() ([32]byte, error) {
	var out [32]byte
	if err := d.need(32); err != nil {
		return out, err
	}
	copy(out[:], d.buf[d.pos:d.pos+32])
	d.pos += 32
	return out, nil
}

// Blob decodes a 4-byte length-prefixed byte slice.
func (d *Decoder) Blob() ([]byte, error) {
	n, err := d.Uint32()
	if err != nil {
		return nil, err
	}
	if err := d.need(int(n)); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, d.buf[d.pos:d.pos+int(n)])
	d.pos += int(n)
	return out, nil
}

// String decodes a 4-byte length-prefixed UTF-8 string.
func (d *Decoder) String() (string, error) {
	b, err := d.Blob()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Done reports whether the decoder has consumed the full buffer.
func (d *Decoder) Done() bool { return d.pos == len(d.buf) }

// Remaining reports how many bytes the decoder has not yet consumed.
func (d *Decoder) Remaining() int { return len(d.buf) - d.pos }

// ErrTrailingBytes is returned by strict decode helpers when a buffer
// has bytes left over after the expected fields are consumed.
var ErrTrailingBytes = errors.New("kanari: trailing bytes after decode")
