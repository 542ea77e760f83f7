// Package keystream implements the Shroom protocol's AES-ECB-as-keystream
// cipher: a fixed 32-byte key and a rolling RoundKey seed generate a
// per-fragment keystream that is XORed into the payload. Encrypt and
// decrypt are the same operation.
package keystream

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/kestrelnet/shroomd/internal/roundkey"
)

const (
	firstFragmentSize = 1456
	fragmentSize      = 1460
	blockSize         = 16
)

// Key is the fixed 32-byte cipher key shared by every connection.
var Key = [32]byte{
	0x13, 0xC1, 0xD4, 0x9A, 0x5E, 0x2F, 0x88, 0x06,
	0x4B, 0x71, 0xA0, 0xD3, 0x3E, 0x9C, 0x27, 0xF5,
	0x60, 0x1D, 0xE2, 0x48, 0x7A, 0xB9, 0x0C, 0x55,
	0x92, 0xFE, 0x31, 0x6D, 0xA8, 0x04, 0xC7, 0x3B,
}

// Apply XORs the keystream derived from key and rk into payload, in place.
// The caller is responsible for advancing rk exactly once per packet; Apply
// never mutates rk.
func Apply(key [32]byte, rk roundkey.RoundKey, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return fmt.Errorf("constructing AES block cipher: %w", err)
	}
	seed := rk.ExpandSeed()

	offset := 0
	first := true
	for offset < len(payload) {
		fragLen := fragmentSize
		if first {
			fragLen = firstFragmentSize
			first = false
		}
		if offset+fragLen > len(payload) {
			fragLen = len(payload) - offset
		}
		applyFragment(block, seed, payload[offset:offset+fragLen])
		offset += fragLen
	}
	return nil
}

func applyFragment(block cipher.Block, seed [16]byte, frag []byte) {
	ks := seed
	for i := 0; i < len(frag); i += blockSize {
		block.Encrypt(ks[:], ks[:])
		n := blockSize
		if i+n > len(frag) {
			n = len(frag) - i
		}
		for j := 0; j < n; j++ {
			frag[i+j] ^= ks[j]
		}
	}
}
