// Package sign implements the toyrsa sign-and-encrypt protocol.
//
// The signed payload is Digest, the sum of the ciphertext blocks mod 2^28.
// It is not a cryptographic hash: colliding ciphertexts are easy to build.
package sign

import (
	"errors"
	"fmt"

	toyrsa "github.com/BackendStack21/toyrsa-go"
	"github.com/BackendStack21/toyrsa-go/arith"
	"github.com/BackendStack21/toyrsa-go/core"
	"github.com/BackendStack21/toyrsa-go/rsa"
	"github.com/BackendStack21/toyrsa-go/utils"
)

var (
	// ErrModulusTooSmall is returned when the signer's modulus cannot carry
	// every digest value.
	ErrModulusTooSmall = errors.New("signer modulus does not exceed digest modulus")

	// ErrMalformedMessage is returned for a serialized message with a bad
	// layout.
	ErrMalformedMessage = errors.New("malformed signed message")
)

// Digest sums blocks mod core.DigestModulus.
func Digest(blocks []int64) int64 {
	var sum int64
	for _, b := range blocks {
		sum = arith.AddMod(sum, b, core.DigestModulus)
	}
	return sum
}

// SignAndEncrypt encrypts plain for the recipient and signs the digest of
// the ciphertext with the signer's private key.
func SignAndEncrypt(plain []int64, signerPrivate, recipientPublic toyrsa.Key) (*toyrsa.SignedMessage, error) {
	if err := rsa.ValidateKey(signerPrivate); err != nil {
		return nil, err
	}
	if signerPrivate.Modulus <= core.DigestModulus {
		return nil, fmt.Errorf("%w: %d", ErrModulusTooSmall, signerPrivate.Modulus)
	}

	cipher, err := rsa.EncryptBlocks(plain, recipientPublic)
	if err != nil {
		return nil, err
	}
	digest := Digest(cipher)
	utils.Debugf("sign", "%d blocks, digest %d", len(cipher), digest)

	return &toyrsa.SignedMessage{
		Ciphertext: cipher,
		Signature:  rsa.Transform(digest, signerPrivate),
	}, nil
}

// AuthenticateAndDecrypt decrypts msg and checks its signature. It returns
// false, with no plaintext, when the signature does not match the
// ciphertext or a key is unusable.
func AuthenticateAndDecrypt(msg *toyrsa.SignedMessage, signerPublic, recipientPrivate toyrsa.Key) ([]int64, bool) {
	if msg == nil {
		return nil, false
	}
	if rsa.ValidateKey(signerPublic) != nil || rsa.ValidateKey(recipientPrivate) != nil {
		return nil, false
	}

	plain := rsa.DecryptBlocks(msg.Ciphertext, recipientPrivate)
	expected := Digest(msg.Ciphertext)
	actual := rsa.Transform(msg.Signature, signerPublic)
	if actual != expected {
		utils.Debugf("sign", "digest mismatch: expected %d, got %d", expected, actual)
		return nil, false
	}
	return plain, true
}
