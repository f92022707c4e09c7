package utils

import (
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/sha3"
)

// PassphraseIterations is the PBKDF2 work factor for SeedFromPassphrase.
const PassphraseIterations = 100_000

// DeriveSeed expands secret into length bytes bound to info using
// HKDF-SHA3-256. Distinct info labels yield independent seeds.
func DeriveSeed(secret []byte, info string, length int) ([]byte, error) {
	reader := hkdf.New(sha3.New256, secret, nil, []byte(info))
	seed := make([]byte, length)

	if _, err := io.ReadFull(reader, seed); err != nil {
		return nil, fmt.Errorf("failed to derive seed: %w", err)
	}

	return seed, nil
}

// SeedFromPassphrase stretches a passphrase into a 32-byte seed with
// PBKDF2-SHA3-256. The salt may be empty; a fixed salt makes the result
// reproducible across runs, which is the point for demo keys.
func SeedFromPassphrase(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, PassphraseIterations, 32, sha3.New256)
}
