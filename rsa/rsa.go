package rsa

import (
	"errors"
	"fmt"

	toyrsa "github.com/BackendStack21/toyrsa-go"
	"github.com/BackendStack21/toyrsa-go/arith"
	"github.com/BackendStack21/toyrsa-go/codec"
)

var (
	// ErrInvalidKey is returned for a key with modulus below 2 or a negative
	// exponent.
	ErrInvalidKey = errors.New("invalid key")

	// ErrBlockOutOfRange is returned for a plaintext block outside [0, n).
	ErrBlockOutOfRange = errors.New("block out of range")
)

// ValidateKey checks that key can be used with Transform.
func ValidateKey(key toyrsa.Key) error {
	if key.Modulus < 2 {
		return fmt.Errorf("%w: modulus %d", ErrInvalidKey, key.Modulus)
	}
	if key.Exponent < 0 {
		return fmt.Errorf("%w: exponent %d", ErrInvalidKey, key.Exponent)
	}
	return nil
}

// Transform computes value^exponent mod modulus.
func Transform(value int64, key toyrsa.Key) int64 {
	return arith.ModExp(value, key.Exponent, key.Modulus)
}

// EncryptBlocks encrypts in chained mode: each block is reduced by the
// previous ciphertext before the transform, starting from zero.
func EncryptBlocks(blocks []int64, key toyrsa.Key) ([]int64, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	n := key.Modulus

	out := make([]int64, len(blocks))
	var prev int64
	for i, b := range blocks {
		if b < 0 || b >= n {
			return nil, fmt.Errorf("%w: block %d is %d, modulus %d", ErrBlockOutOfRange, i, b, n)
		}
		out[i] = Transform(arith.Mod(b-prev, n), key)
		prev = out[i]
	}
	return out, nil
}

// DecryptBlocks inverts EncryptBlocks. key must satisfy ValidateKey.
func DecryptBlocks(ciphertexts []int64, key toyrsa.Key) []int64 {
	n := key.Modulus

	out := make([]int64, len(ciphertexts))
	var prev int64
	for i, x := range ciphertexts {
		out[i] = arith.AddMod(Transform(x, key), prev, n)
		prev = x
	}
	return out
}

// EncryptString packs text params.BlockChars characters per block and
// encrypts the blocks.
func EncryptString(text string, key toyrsa.Key, params toyrsa.Params) ([]int64, error) {
	blocks, err := codec.Encode(text, params.BlockChars)
	if err != nil {
		return nil, err
	}
	return EncryptBlocks(blocks, key)
}

// DecryptString decrypts blocks and unpacks them into text.
func DecryptString(ciphertexts []int64, key toyrsa.Key, params toyrsa.Params) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return codec.Decode(DecryptBlocks(ciphertexts, key), params.BlockChars)
}
