package rsa

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	toyrsa "github.com/BackendStack21/toyrsa-go"
	"github.com/BackendStack21/toyrsa-go/utils"
)

// KeySize is the length of a serialized key.
const KeySize = 16

// DomainFingerprint separates key fingerprints from other hashes.
const DomainFingerprint = "toyrsa-key-fingerprint-v1"

// SerializeKey encodes a key as modulus then exponent, little-endian.
func SerializeKey(key toyrsa.Key) []byte {
	buf := make([]byte, KeySize)
	binary.LittleEndian.PutUint64(buf[0:], uint64(key.Modulus))
	binary.LittleEndian.PutUint64(buf[8:], uint64(key.Exponent))
	return buf
}

// DeserializeKey decodes and validates a key.
func DeserializeKey(data []byte) (toyrsa.Key, error) {
	if len(data) != KeySize {
		return toyrsa.Key{}, fmt.Errorf("%w: key is %d bytes, want %d", utils.ErrInvalidLength, len(data), KeySize)
	}
	key := toyrsa.Key{
		Modulus:  int64(binary.LittleEndian.Uint64(data[0:])),
		Exponent: int64(binary.LittleEndian.Uint64(data[8:])),
	}
	if err := ValidateKey(key); err != nil {
		return toyrsa.Key{}, err
	}
	return key, nil
}

// Fingerprint returns a short hex identifier for a key.
func Fingerprint(key toyrsa.Key) string {
	return hex.EncodeToString(utils.HashWithDomain(DomainFingerprint, SerializeKey(key))[:8])
}
