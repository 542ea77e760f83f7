// Package netcipher composes the scramble transform and the keystream
// cipher into the per-packet encryption used on the wire, and implements
// the 4-byte integrity-checked framing header.
package netcipher

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/kestrelnet/shroomd/internal/keystream"
	"github.com/kestrelnet/shroomd/internal/roundkey"
	"github.com/kestrelnet/shroomd/internal/scramble"
)

// MaxPayloadLen is the largest payload length accepted by the header codec.
const MaxPayloadLen = 32767

// ErrHeaderMismatch indicates the header's integrity check failed — the
// cipher state is desynced and the connection must be closed.
var ErrHeaderMismatch = errors.New("netcipher: header integrity check failed")

// ErrInvalidLength indicates a payload length outside 1..=32767.
var ErrInvalidLength = errors.New("netcipher: payload length out of range")

// State holds one direction's (send or receive) cipher state: the rolling
// round key and the bound protocol version.
type State struct {
	Key     roundkey.RoundKey
	Version roundkey.ShroomVersion
}

// EncryptHeader builds the 4-byte framing header for payloadLen, per §4.4:
// headerKey = roundKey.HighBits16; low = headerKey ^ version;
// high = low ^ payloadLen; header = low | (high << 16).
func (s State) EncryptHeader(payloadLen int) (uint32, error) {
	if payloadLen <= 0 || payloadLen > MaxPayloadLen {
		return 0, fmt.Errorf("%w: %d", ErrInvalidLength, payloadLen)
	}
	headerKey := s.Key.HighBits16()
	low := headerKey ^ uint16(s.Version)
	high := low ^ uint16(payloadLen)
	return uint32(low) | uint32(high)<<16, nil
}

// DecryptHeader extracts the payload length from header, validating the
// integrity field against the current round key and version. It returns
// ErrHeaderMismatch if desynced.
func (s State) DecryptHeader(header uint32) (int, error) {
	low := uint16(header)
	high := uint16(header >> 16)
	expected := low ^ uint16(s.Version)
	if expected != s.Key.HighBits16() {
		return 0, ErrHeaderMismatch
	}
	length := low ^ high
	if length == 0 || length > MaxPayloadLen {
		return 0, fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}
	return int(length), nil
}

// TryDecryptHeader is the non-throwing variant: it returns (length, true)
// on success, or (0, false) on mismatch, without allocating an error.
func (s State) TryDecryptHeader(header uint32) (int, bool) {
	low := uint16(header)
	high := uint16(header >> 16)
	expected := low ^ uint16(s.Version)
	if expected != s.Key.HighBits16() {
		return 0, false
	}
	length := low ^ high
	if length == 0 || length > MaxPayloadLen {
		return 0, false
	}
	return int(length), true
}

// PutHeader writes header into dst (4 bytes), little-endian byte order.
func PutHeader(dst []byte, header uint32) {
	binary.LittleEndian.PutUint32(dst, header)
}

// ReadHeader reads a 4-byte little-endian header from src.
func ReadHeader(src []byte) uint32 {
	return binary.LittleEndian.Uint32(src)
}

// Encrypt applies the send-direction transform to payload in place, in the
// order obfuscation -> keystream -> round-key update, and returns the new
// State with the advanced key.
func Encrypt(s State, payload []byte) (State, error) {
	scramble.Encrypt(payload)
	if err := keystream.Apply(keystream.Key, s.Key, payload); err != nil {
		return s, fmt.Errorf("applying keystream cipher: %w", err)
	}
	s.Key = s.Key.Next()
	return s, nil
}

// Decrypt applies the receive-direction transform to payload in place, in
// the order keystream -> round-key update -> obfuscation, and returns the
// new State with the advanced key.
func Decrypt(s State, payload []byte) (State, error) {
	if err := keystream.Apply(keystream.Key, s.Key, payload); err != nil {
		return s, fmt.Errorf("applying keystream cipher: %w", err)
	}
	s.Key = s.Key.Next()
	scramble.Decrypt(payload)
	return s, nil
}
