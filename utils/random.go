package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"io"
	"math/bits"
	"runtime"

	toyrsa "github.com/BackendStack21/toyrsa-go"
	"github.com/BackendStack21/toyrsa-go/core"
)

var RandReader io.Reader = rand.Reader

// SecureRandomBytes generates n cryptographically secure random bytes.
// It reads from RandReader, which defaults to crypto/rand.
func SecureRandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := io.ReadFull(RandReader, buf)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// RandomInt63 generates a cryptographically secure random integer in [0, max).
// It uses rejection sampling to ensure a uniform distribution.
func RandomInt63(max int64) (int64, error) {
	if max <= 0 {
		return 0, errors.New("max must be positive")
	}
	if max == 1 {
		return 0, nil
	}

	mask := sampleMask(max)
	for {
		buf, err := SecureRandomBytes(8)
		if err != nil {
			return 0, err
		}

		value := binary.BigEndian.Uint64(buf) & mask

		if value < uint64(max) {
			return int64(value), nil
		}
	}
}

// sampleMask returns the smallest all-ones mask covering [0, max).
func sampleMask(max int64) uint64 {
	return uint64(1)<<bits.Len64(uint64(max-1)) - 1
}

// CryptoSource is a toyrsa.RandomSource backed by RandReader.
// It is safe for concurrent use when RandReader is.
type CryptoSource struct{}

// Int63n returns a uniform value in [0, n). It panics if n <= 0 or if the
// underlying reader fails, matching the behavior of math/rand.
func (CryptoSource) Int63n(n int64) int64 {
	if n <= 0 {
		panic("utils: invalid argument to Int63n")
	}
	v, err := RandomInt63(n)
	if err != nil {
		panic("utils: random source failed: " + err.Error())
	}
	return v
}

// RandomInRange samples uniformly in [0, n) after clamping n to
// core.RandomCeiling. It returns 0 when n <= 0.
func RandomInRange(src toyrsa.RandomSource, n int64) int64 {
	if n <= 0 {
		return 0
	}
	if n > core.RandomCeiling {
		n = core.RandomCeiling
	}
	return src.Int63n(n)
}

// ValidateSeedEntropy checks if a seed has sufficient entropy.
// It performs basic statistical tests to reject obviously weak seeds (e.g., all zeros, sequential).
// This is a sanity check, not a rigorous randomness test.
func ValidateSeedEntropy(seed []byte) error {
	if len(seed) < 32 {
		return errors.New("seed must be at least 32 bytes")
	}

	first := seed[0]
	allSame := true
	for i := 1; i < len(seed); i++ {
		if seed[i] != first {
			allSame = false
			break
		}
	}
	if allSame {
		return errors.New("seed has low entropy: all bytes are identical")
	}

	isAscending := true
	isDescending := true
	for i := 1; i < len(seed); i++ {
		if seed[i] != byte((int(seed[i-1])+1)%256) {
			isAscending = false
		}
		if seed[i] != byte((int(seed[i-1])-1+256)%256) {
			isDescending = false
		}
		if !isAscending && !isDescending {
			break
		}
	}
	if isAscending || isDescending {
		return errors.New("seed has low entropy: sequential pattern detected")
	}

	unique := make(map[byte]struct{})
	for _, b := range seed {
		unique[b] = struct{}{}
		if len(unique) >= 8 {
			break
		}
	}
	if len(unique) < 8 {
		return errors.New("seed has low entropy: insufficient byte diversity")
	}

	return nil
}

// ConstantTimeEqual compares two byte slices in constant time.
// It returns true if the slices are equal, false otherwise.
// This function leaks only the length of the slices.
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

// Zeroize overwrites a byte slice with zeros.
// Uses runtime.KeepAlive to prevent compiler optimization from eliminating the stores.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
