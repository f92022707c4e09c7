// Package core provides parameter sets, limits and validation for toyrsa.
package core

import (
	"errors"
	"fmt"

	toyrsa "github.com/BackendStack21/toyrsa-go"
)

const (
	// DigestModulus bounds the signature digest. Every signer modulus must
	// exceed it.
	DigestModulus int64 = 1 << 28

	// RandomCeiling is the largest bound handed to a random source.
	RandomCeiling int64 = 1_000_000_000_000_000_000

	// DefaultLevel is used when no level is requested.
	DefaultLevel = toyrsa.RSA28
)

// Retry limits for the rejection loops of key generation.
const (
	// MaxPrimeSearchSteps caps the upward scan for a probable prime.
	MaxPrimeSearchSteps = 1 << 20

	// MaxExponentAttempts caps rejection sampling of the public exponent.
	MaxExponentAttempts = 1 << 16

	// MaxKeygenAttempts caps regeneration after a prime collision (p == q).
	MaxKeygenAttempts = 64
)

var (
	// ErrUnknownLevel is returned for a level with no parameter set.
	ErrUnknownLevel = errors.New("unknown level")

	// ErrKeygenExhausted is returned when every key generation attempt drew
	// the same prime twice.
	ErrKeygenExhausted = errors.New("key generation attempts exhausted")

	// ErrExponentExhausted is returned when no exponent coprime to the totient
	// was drawn.
	ErrExponentExhausted = errors.New("exponent selection attempts exhausted")
)

// RSA28Params is the default parameter set: 28-30 bit moduli, four
// characters per block.
var RSA28Params = toyrsa.Params{
	Level:       toyrsa.RSA28,
	PrimeBase:   1 << 14,
	PrimeRounds: 2,
	BlockChars:  4,
}

// RSA56Params uses 56-58 bit moduli and eight characters per block.
var RSA56Params = toyrsa.Params{
	Level:       toyrsa.RSA56,
	PrimeBase:   1 << 28,
	PrimeRounds: 2,
	BlockChars:  8,
}

// GetParams returns the parameter set for the given level.
func GetParams(level toyrsa.Level) (toyrsa.Params, error) {
	switch level {
	case toyrsa.RSA28:
		return RSA28Params, nil
	case toyrsa.RSA56:
		return RSA56Params, nil
	default:
		return toyrsa.Params{}, fmt.Errorf("%w: %q", ErrUnknownLevel, level)
	}
}

// ValidateParams validates the parameter set for consistency.
func ValidateParams(params toyrsa.Params) error {
	if params.PrimeBase < 16 {
		return errors.New("prime base must be at least 16")
	}
	if params.PrimeBase&(params.PrimeBase-1) != 0 {
		return errors.New("prime base must be a power of two")
	}
	// Primes stay below 2*base plus a prime gap, so the modulus must fit
	// comfortably in an int64.
	if params.PrimeBase > 1<<30 {
		return errors.New("prime base too large for int64 moduli")
	}
	if params.PrimeRounds < 1 {
		return errors.New("prime rounds must be positive")
	}
	if params.BlockChars < 1 {
		return errors.New("block width must be positive")
	}
	if !blocksFit(params.BlockChars, params.PrimeBase) {
		return errors.New("block width exceeds the smallest modulus")
	}
	if params.PrimeBase*params.PrimeBase < DigestModulus {
		return errors.New("smallest modulus cannot carry a signature digest")
	}
	return nil
}

// blocksFit reports whether 128^chars <= base^2, i.e. every packed block is
// below the smallest possible modulus.
func blocksFit(chars int, base int64) bool {
	bits := 7 * chars
	baseBits := 0
	for b := base; b > 1; b >>= 1 {
		baseBits++
	}
	return bits <= 2*baseBits
}
