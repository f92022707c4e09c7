// Package toyrsa implements a from-scratch RSA cryptosystem.
//
// WARNING: This is a teaching construction. Keys are small enough to be
// factored by trial division.
package toyrsa

// Level names a parameter set.
type Level string

const (
	// RSA28 draws primes from [2^14, 2^15), giving 28-30 bit moduli.
	RSA28 Level = "RSA-28"
	// RSA56 draws primes from [2^28, 2^29), giving 56-58 bit moduli.
	RSA56 Level = "RSA-56"
)

// Params contains the complete parameter set for a level.
type Params struct {
	Level       Level `json:"level"`
	PrimeBase   int64 `json:"prime_base"`   // Primes are searched upward from [PrimeBase, 2*PrimeBase)
	PrimeRounds int   `json:"prime_rounds"` // Fermat rounds per candidate
	BlockChars  int   `json:"block_chars"`  // Characters packed into one block
}

// RandomSource yields uniform integers in [0, n) for n > 0.
// *math/rand.Rand satisfies it.
type RandomSource interface {
	Int63n(n int64) int64
}

// =============================================================================
// Key Types
// =============================================================================

// Key is one half of an RSA key pair: a modulus and the exponent applied
// under it.
type Key struct {
	Modulus  int64 `json:"modulus"`
	Exponent int64 `json:"exponent"`
}

// KeyPair contains a public and a private key sharing one modulus.
type KeyPair struct {
	Level   Level `json:"level"`
	Public  Key   `json:"public"`
	Private Key   `json:"private"`
}

// =============================================================================
// Message Types
// =============================================================================

// SignedMessage is produced by sign-and-encrypt.
type SignedMessage struct {
	Ciphertext []int64 // Chained ciphertext blocks
	Signature  int64   // Digest of Ciphertext under the signer's private key
}
