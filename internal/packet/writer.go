package packet

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/kestrelnet/shroomd/internal/bufpool"
)

// ErrStringTooLarge indicates a fixed-width Latin-1 string would not fit,
// including its trailing null, in the requested field width.
var ErrStringTooLarge = errors.New("packet: string exceeds fixed field width")

// Writer builds a packet payload, little-endian, into a growable buffer.
type Writer struct {
	buf []byte
}

// NewWriter creates an empty Writer backed by a pooled buffer rented at
// the given capacity hint.
func NewWriter(capHint int) *Writer {
	return &Writer{buf: bufpool.Shared.Rent(capHint)[:0]}
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the written bytes without copying.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// WriteByte appends an unsigned 8-bit integer.
func (w *Writer) WriteByte(v byte) {
	w.buf = append(w.buf, v)
}

// WriteInt8 appends a signed 8-bit integer.
func (w *Writer) WriteInt8(v int8) {
	w.WriteByte(byte(v))
}

// WriteUint16 appends a little-endian unsigned 16-bit integer.
func (w *Writer) WriteUint16(v uint16) {
	w.buf = append(w.buf, byte(v), byte(v>>8))
}

// WriteInt16 appends a little-endian signed 16-bit integer.
func (w *Writer) WriteInt16(v int16) {
	w.WriteUint16(uint16(v))
}

// WriteUint32 appends a little-endian unsigned 32-bit integer.
func (w *Writer) WriteUint32(v uint32) {
	w.buf = append(w.buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// WriteInt32 appends a little-endian signed 32-bit integer.
func (w *Writer) WriteInt32(v int32) {
	w.WriteUint32(uint32(v))
}

// WriteUint64 appends a little-endian unsigned 64-bit integer.
func (w *Writer) WriteUint64(v uint64) {
	for i := 0; i < 8; i++ {
		w.buf = append(w.buf, byte(v>>(8*i)))
	}
}

// WriteInt64 appends a little-endian signed 64-bit integer.
func (w *Writer) WriteInt64(v int64) {
	w.WriteUint64(uint64(v))
}

// WriteUint128 appends 16 raw little-endian bytes.
func (w *Writer) WriteUint128(v [16]byte) {
	w.buf = append(w.buf, v[:]...)
}

// WriteBytes appends raw bytes verbatim.
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteBool appends a single byte, 1 for true and 0 for false.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteByte(1)
	} else {
		w.WriteByte(0)
	}
}

// WriteString appends a 16-bit signed length prefix followed by the
// Latin-1 encoding of s.
func (w *Writer) WriteString(s string) {
	w.WriteInt16(int16(utf8.RuneCountInString(s)))
	w.writeLatin1(s)
}

// WriteFixedString appends exactly width bytes: the Latin-1 encoding of s,
// zero-padded, with a trailing null. Fails if len(s)+1 > width.
func (w *Writer) WriteFixedString(s string, width int) error {
	n := utf8.RuneCountInString(s)
	if n+1 > width {
		return fmt.Errorf("%w: %q needs %d bytes, field is %d", ErrStringTooLarge, s, n+1, width)
	}
	w.writeLatin1(s)
	pad := width - n
	w.buf = append(w.buf, make([]byte, pad)...)
	return nil
}

// WriteDurationMillis16 appends a 16-bit unsigned millisecond count.
func (w *Writer) WriteDurationMillis16(d time.Duration) {
	w.WriteUint16(uint16(d.Milliseconds()))
}

// WriteDurationMillis32 appends a 32-bit unsigned millisecond count.
func (w *Writer) WriteDurationMillis32(d time.Duration) {
	w.WriteUint32(uint32(d.Milliseconds()))
}

func (w *Writer) writeLatin1(s string) {
	for _, r := range s {
		w.buf = append(w.buf, byte(r))
	}
}

// Detach finalises the written bytes into a Packet without copying,
// transferring ownership of the writer's backing buffer.
func (w *Writer) Detach() *Packet {
	p := Wrap(w.buf, len(w.buf))
	w.buf = nil
	return p
}
