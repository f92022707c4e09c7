package utils

import (
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// KeyTag computes a keyed BLAKE2b-256 tag of secret under public.
// The key is not secret, so the tag only detects accidental corruption of
// stored key material, not tampering.
func KeyTag(public, secret []byte) ([]byte, error) {
	h, err := blake2b.New256(public)
	if err != nil {
		return nil, fmt.Errorf("key tag: %w", err)
	}
	h.Write(secret)
	return h.Sum(nil), nil
}
