// Package conn implements the framed connection: the handshake exchange
// and the encrypted, length-prefixed read/write loop that sits directly
// on top of a net.Conn.
package conn

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"github.com/kestrelnet/shroomd/internal/netcipher"
	"github.com/kestrelnet/shroomd/internal/packet"
)

const headerSize = 4

// FramedConnection owns the underlying byte stream plus both cipher
// directions. Concurrent reads from multiple producers are undefined;
// concurrent writes must be serialised externally (the ConnectionPump
// does this).
type FramedConnection struct {
	rw   net.Conn
	send netcipher.State
	recv netcipher.State

	headerBuf [headerSize]byte
	sendBuf   []byte
}

func newFramed(rw net.Conn, send, recv netcipher.State) *FramedConnection {
	return &FramedConnection{
		rw:      rw,
		send:    send,
		recv:    recv,
		sendBuf: make([]byte, headerSize+netcipher.MaxPayloadLen),
	}
}

// DialClient connects, reads the server's plaintext handshake, and derives
// the client's cipher directions: send = (handshake.SendKey, version),
// recv = (handshake.RecvKey, version.Invert()).
func DialClient(rw net.Conn) (*FramedConnection, packet.Handshake, error) {
	hs, err := readHandshake(rw)
	if err != nil {
		return nil, packet.Handshake{}, fmt.Errorf("reading handshake: %w", err)
	}
	send := netcipher.State{Key: hs.SendKey, Version: hs.Version}
	recv := netcipher.State{Key: hs.RecvKey, Version: hs.Version.Invert()}
	return newFramed(rw, send, recv), hs, nil
}

// AcceptServer writes the plaintext handshake and derives the server's
// cipher directions — the asymmetric counterpart to DialClient: server
// send matches client recv, and vice versa.
func AcceptServer(rw net.Conn, hs packet.Handshake) (*FramedConnection, error) {
	if err := writeHandshake(rw, hs); err != nil {
		return nil, fmt.Errorf("writing handshake: %w", err)
	}
	send := netcipher.State{Key: hs.RecvKey, Version: hs.Version.Invert()}
	recv := netcipher.State{Key: hs.SendKey, Version: hs.Version}
	return newFramed(rw, send, recv), nil
}

func writeHandshake(rw net.Conn, hs packet.Handshake) error {
	body, err := hs.Encode()
	if err != nil {
		return fmt.Errorf("encoding handshake: %w", err)
	}
	var lenPrefix [2]byte
	binary.LittleEndian.PutUint16(lenPrefix[:], uint16(len(body)))
	if _, err := rw.Write(lenPrefix[:]); err != nil {
		return fmt.Errorf("writing length prefix: %w", err)
	}
	if _, err := rw.Write(body); err != nil {
		return fmt.Errorf("writing handshake body: %w", err)
	}
	return nil
}

func readHandshake(rw net.Conn) (packet.Handshake, error) {
	var lenPrefix [2]byte
	if _, err := io.ReadFull(rw, lenPrefix[:]); err != nil {
		return packet.Handshake{}, fmt.Errorf("reading length prefix: %w", err)
	}
	n := binary.LittleEndian.Uint16(lenPrefix[:])
	if int(n) < packet.MinHandshakeLen || int(n) > packet.MaxHandshakeLen {
		return packet.Handshake{}, fmt.Errorf("%w: %d", packet.ErrHandshakeLen, n)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(rw, body); err != nil {
		return packet.Handshake{}, fmt.Errorf("reading handshake body: %w", err)
	}
	return packet.DecodeHandshake(body)
}

// ReadPacket reads one encrypted frame: 4-byte header, decrypt, validate
// length, rent a buffer of exactly that length, read the payload,
// decrypt in place, and transfer ownership into a Packet. Any rented
// buffer is disposed before an error propagates.
func (c *FramedConnection) ReadPacket() (*packet.Packet, error) {
	if _, err := io.ReadFull(c.rw, c.headerBuf[:]); err != nil {
		return nil, fmt.Errorf("reading frame header: %w", err)
	}
	header := netcipher.ReadHeader(c.headerBuf[:])
	length, err := c.recv.DecryptHeader(header)
	if err != nil {
		return nil, fmt.Errorf("decoding frame header: %w", err)
	}

	p := packet.Rent(length)
	if _, err := io.ReadFull(c.rw, p.Bytes()); err != nil {
		_ = p.Dispose()
		return nil, fmt.Errorf("reading frame payload: %w", err)
	}

	newRecv, err := netcipher.Decrypt(c.recv, p.Bytes())
	if err != nil {
		_ = p.Dispose()
		return nil, fmt.Errorf("decrypting frame payload: %w", err)
	}
	c.recv = newRecv
	return p, nil
}

// WritePacket encrypts payload and issues a single write of header+payload.
func (c *FramedConnection) WritePacket(payload []byte) error {
	if len(payload) == 0 || len(payload) > netcipher.MaxPayloadLen {
		return fmt.Errorf("%w: %d", netcipher.ErrInvalidLength, len(payload))
	}
	header, err := c.send.EncryptHeader(len(payload))
	if err != nil {
		return fmt.Errorf("encoding frame header: %w", err)
	}

	total := headerSize + len(payload)
	netcipher.PutHeader(c.sendBuf[:headerSize], header)
	copy(c.sendBuf[headerSize:total], payload)

	newSend, err := netcipher.Encrypt(c.send, c.sendBuf[headerSize:total])
	if err != nil {
		return fmt.Errorf("encrypting frame payload: %w", err)
	}
	c.send = newSend

	if _, err := c.rw.Write(c.sendBuf[:total]); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (c *FramedConnection) Close() error {
	return c.rw.Close()
}
