package packet

import (
	"fmt"

	"github.com/kestrelnet/shroomd/internal/roundkey"
)

const (
	// MinHandshakeLen and MaxHandshakeLen bound the plaintext handshake
	// body, excluding its 2-byte length prefix.
	MinHandshakeLen = 1
	MaxHandshakeLen = 128

	// MinLocale and MaxLocale bound the handshake's locale byte.
	MinLocale = 1
	MaxLocale = 10
)

// ErrInvalidLocale indicates a locale byte outside 1..=10.
var ErrInvalidLocale = fmt.Errorf("packet: locale out of range %d..=%d", MinLocale, MaxLocale)

// ErrHandshakeLen indicates the encoded handshake body is outside
// 1..=128 bytes.
var ErrHandshakeLen = fmt.Errorf("packet: handshake body out of range %d..=%d bytes", MinHandshakeLen, MaxHandshakeLen)

// Handshake is the plaintext first message sent by the server at accept
// time, establishing cipher keys, protocol version, and locale.
type Handshake struct {
	Version    roundkey.ShroomVersion
	SubVersion string
	SendKey    roundkey.RoundKey
	RecvKey    roundkey.RoundKey
	Locale     uint8
}

// Encode serialises the handshake body (without the 2-byte length
// prefix). Returns ErrInvalidLocale if Locale is out of range.
func (h Handshake) Encode() ([]byte, error) {
	if h.Locale < MinLocale || h.Locale > MaxLocale {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLocale, h.Locale)
	}
	w := NewWriter(16 + len(h.SubVersion))
	w.WriteUint16(uint16(h.Version))
	w.WriteString(h.SubVersion)
	w.WriteUint32(uint32(h.SendKey))
	w.WriteUint32(uint32(h.RecvKey))
	w.WriteByte(h.Locale)
	return w.Bytes(), nil
}

// DecodeHandshake parses a handshake body. body must already exclude the
// 2-byte length prefix and satisfy 1..=128 bytes.
func DecodeHandshake(body []byte) (Handshake, error) {
	if len(body) < MinHandshakeLen || len(body) > MaxHandshakeLen {
		return Handshake{}, fmt.Errorf("%w: got %d", ErrHandshakeLen, len(body))
	}
	r := NewReaderBytes(body)

	version, err := r.ReadUint16()
	if err != nil {
		return Handshake{}, fmt.Errorf("reading version: %w", err)
	}
	subVersion, err := r.ReadString()
	if err != nil {
		return Handshake{}, fmt.Errorf("reading subVersion: %w", err)
	}
	sendKey, err := r.ReadUint32()
	if err != nil {
		return Handshake{}, fmt.Errorf("reading sendKey: %w", err)
	}
	recvKey, err := r.ReadUint32()
	if err != nil {
		return Handshake{}, fmt.Errorf("reading recvKey: %w", err)
	}
	locale, err := r.ReadByte()
	if err != nil {
		return Handshake{}, fmt.Errorf("reading locale: %w", err)
	}
	if locale < MinLocale || locale > MaxLocale {
		return Handshake{}, fmt.Errorf("%w: got %d", ErrInvalidLocale, locale)
	}

	return Handshake{
		Version:    roundkey.ShroomVersion(version),
		SubVersion: subVersion,
		SendKey:    roundkey.RoundKey(sendKey),
		RecvKey:    roundkey.RoundKey(recvKey),
		Locale:     locale,
	}, nil
}
