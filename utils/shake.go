package utils

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// HashWithDomain computes a domain-separated SHA3-256 hash.
// It prefixes the data with the length of the domain string and the domain string itself.
// Panics if domain is longer than 255 bytes.
func HashWithDomain(domain string, data []byte) []byte {
	domainBytes := []byte(domain)
	if len(domainBytes) > 255 {
		panic("domain string must be at most 255 bytes")
	}
	h := sha3.New256()
	h.Write([]byte{byte(len(domainBytes))})
	h.Write(domainBytes)
	h.Write(data)
	return h.Sum(nil)
}

// ShakeSource is a deterministic toyrsa.RandomSource reading from a
// domain-separated SHAKE256 stream. The same domain and seed always yield the
// same sequence. It is not safe for concurrent use.
type ShakeSource struct {
	h   sha3.ShakeHash
	buf [8]byte
}

// NewShakeSource absorbs domain and seed and returns a source squeezing the
// resulting stream. Panics if domain is longer than 255 bytes.
func NewShakeSource(domain string, seed []byte) *ShakeSource {
	domainBytes := []byte(domain)
	if len(domainBytes) > 255 {
		panic("domain string must be at most 255 bytes")
	}
	h := sha3.NewShake256()
	h.Write([]byte{byte(len(domainBytes))})
	h.Write(domainBytes)
	h.Write(seed)
	return &ShakeSource{h: h}
}

// Uint64 squeezes the next 8 bytes of the stream.
func (s *ShakeSource) Uint64() uint64 {
	_, _ = s.h.Read(s.buf[:])
	return binary.LittleEndian.Uint64(s.buf[:])
}

// Int63n returns a uniform value in [0, n) by rejection sampling.
// Panics if n <= 0.
func (s *ShakeSource) Int63n(n int64) int64 {
	if n <= 0 {
		panic("utils: invalid argument to Int63n")
	}
	mask := sampleMask(n)
	for {
		v := s.Uint64() & mask
		if v < uint64(n) {
			return int64(v)
		}
	}
}
