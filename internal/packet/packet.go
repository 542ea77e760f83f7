// Package packet implements the pooled Packet buffer and the little-endian
// reader/writer codec used for every message on the wire.
package packet

import (
	"errors"
	"sync/atomic"

	"github.com/kestrelnet/shroomd/internal/bufpool"
)

// ErrAlreadyDisposed is returned by Dispose when called more than once on
// the same Packet.
var ErrAlreadyDisposed = errors.New("packet: already disposed")

// Packet exclusively owns a pooled byte buffer plus an authoritative
// logical length. It must be disposed exactly once; Dispose returns the
// buffer to the shared pool.
type Packet struct {
	buf      []byte
	length   int
	disposed atomic.Bool
}

// Rent allocates a new Packet backed by a pooled buffer of at least
// length bytes.
func Rent(length int) *Packet {
	return &Packet{
		buf:    bufpool.Shared.Rent(length),
		length: length,
	}
}

// Wrap takes ownership of an already-rented buffer (e.g. one filled by a
// read loop) without renting a new one.
func Wrap(buf []byte, length int) *Packet {
	return &Packet{buf: buf, length: length}
}

// Bytes returns the logical payload, buf[:length].
func (p *Packet) Bytes() []byte {
	return p.buf[:p.length]
}

// Len returns the logical length.
func (p *Packet) Len() int {
	return p.length
}

// Opcode returns the little-endian uint16 at offset 0, the packet's
// leading two-byte opcode. Panics if the packet is shorter than 2 bytes —
// callers must validate length before calling.
func (p *Packet) Opcode() uint16 {
	return uint16(p.buf[0]) | uint16(p.buf[1])<<8
}

// Dispose returns the backing buffer to the pool. It is safe to call only
// once; subsequent calls return ErrAlreadyDisposed without effect.
func (p *Packet) Dispose() error {
	if !p.disposed.CompareAndSwap(false, true) {
		return ErrAlreadyDisposed
	}
	bufpool.Shared.Return(p.buf)
	p.buf = nil
	return nil
}
