package packet

import (
	"errors"
	"fmt"
	"time"
)

// ErrTruncated indicates a read beyond the end of the payload.
var ErrTruncated = errors.New("packet: truncated read")

// ErrNegativeLength indicates a string length prefix was negative.
var ErrNegativeLength = errors.New("packet: negative string length")

// Reader decodes little-endian primitives out of a Packet's payload.
type Reader struct {
	data []byte
	pos  int
}

// NewReader wraps a Packet's bytes for sequential decoding.
func NewReader(p *Packet) *Reader {
	return &Reader{data: p.Bytes()}
}

// NewReaderBytes wraps a raw byte slice for sequential decoding.
func NewReaderBytes(b []byte) *Reader {
	return &Reader{data: b}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

func (r *Reader) need(n int) error {
	if r.Remaining() < n {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, n, r.Remaining())
	}
	return nil
}

// ReadByte reads an unsigned 8-bit integer.
func (r *Reader) ReadByte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

// ReadInt8 reads a signed 8-bit integer.
func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.ReadByte()
	return int8(v), err
}

// ReadUint16 reads a little-endian unsigned 16-bit integer.
func (r *Reader) ReadUint16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := uint16(r.data[r.pos]) | uint16(r.data[r.pos+1])<<8
	r.pos += 2
	return v, nil
}

// ReadInt16 reads a little-endian signed 16-bit integer.
func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

// ReadUint32 reads a little-endian unsigned 32-bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := uint32(r.data[r.pos]) | uint32(r.data[r.pos+1])<<8 |
		uint32(r.data[r.pos+2])<<16 | uint32(r.data[r.pos+3])<<24
	r.pos += 4
	return v, nil
}

// ReadInt32 reads a little-endian signed 32-bit integer.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

// ReadUint64 reads a little-endian unsigned 64-bit integer.
func (r *Reader) ReadUint64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(r.data[r.pos+i]) << (8 * i)
	}
	r.pos += 8
	return v, nil
}

// ReadInt64 reads a little-endian signed 64-bit integer.
func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

// ReadUint128 reads a little-endian unsigned 128-bit integer as 16 raw
// bytes (low byte first). Per spec.md §9, straight little-endian — not
// the four-reversed-int32 variant of an earlier revision.
func (r *Reader) ReadUint128() ([16]byte, error) {
	var out [16]byte
	if err := r.need(16); err != nil {
		return out, err
	}
	copy(out[:], r.data[r.pos:r.pos+16])
	r.pos += 16
	return out, nil
}

// ReadBytes reads exactly n raw bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	v := r.data[r.pos : r.pos+n]
	r.pos += n
	return v, nil
}

// ReadBool reads one byte; non-zero is true.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// ReadString reads a 16-bit signed length prefix followed by that many
// Latin-1 bytes. A negative length is a format error; zero is empty.
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadInt16()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", fmt.Errorf("%w: %d", ErrNegativeLength, n)
	}
	if n == 0 {
		return "", nil
	}
	raw, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	return latin1ToString(raw), nil
}

// ReadFixedString reads exactly n Latin-1 bytes as a string.
func (r *Reader) ReadFixedString(n int) (string, error) {
	raw, err := r.ReadBytes(n)
	if err != nil {
		return "", err
	}
	return latin1ToString(raw), nil
}

// ReadDurationMillis16 reads a 16-bit unsigned millisecond count.
func (r *Reader) ReadDurationMillis16() (time.Duration, error) {
	v, err := r.ReadUint16()
	if err != nil {
		return 0, err
	}
	return time.Duration(v) * time.Millisecond, nil
}

// ReadDurationMillis32 reads a 32-bit unsigned millisecond count.
func (r *Reader) ReadDurationMillis32() (time.Duration, error) {
	v, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	return time.Duration(v) * time.Millisecond, nil
}

func latin1ToString(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}
