// Package rsa implements toyrsa key generation and the chained block cipher.
package rsa

import (
	"errors"
	"fmt"

	toyrsa "github.com/BackendStack21/toyrsa-go"
	"github.com/BackendStack21/toyrsa-go/arith"
	"github.com/BackendStack21/toyrsa-go/core"
	"github.com/BackendStack21/toyrsa-go/primality"
	"github.com/BackendStack21/toyrsa-go/utils"
)

const (
	// DomainKeygenSeed is the HKDF info label for the keygen stream seed.
	DomainKeygenSeed   = "toyrsa-keygen-seed-v1"
	// DomainKeygenStream separates the SHAKE256 keygen stream.
	DomainKeygenStream = "toyrsa-keygen-stream-v1"
)

// GenerateKeyPair generates a key pair from the system CSPRNG.
func GenerateKeyPair(level toyrsa.Level) (*toyrsa.KeyPair, error) {
	params, err := core.GetParams(level)
	if err != nil {
		return nil, err
	}
	if err := core.ValidateParams(params); err != nil {
		return nil, err
	}
	return GenerateKeyPairWithSource(params, utils.CryptoSource{})
}

// GenerateKeyPairFromSeed generates a deterministic key pair.
func GenerateKeyPairFromSeed(params toyrsa.Params, seed []byte) (*toyrsa.KeyPair, error) {
	if len(seed) < 32 {
		return nil, errors.New("seed must be at least 32 bytes")
	}
	if err := utils.ValidateSeedEntropy(seed); err != nil {
		return nil, err
	}
	if err := core.ValidateParams(params); err != nil {
		return nil, err
	}

	streamSeed, err := utils.DeriveSeed(seed, DomainKeygenSeed, 32)
	if err != nil {
		return nil, err
	}
	src := utils.NewShakeSource(DomainKeygenStream, streamSeed)
	utils.Zeroize(streamSeed)

	return GenerateKeyPairWithSource(params, src)
}

// GenerateKeyPairWithSource draws two distinct primes from
// [PrimeBase, 2*PrimeBase) upward, then a public exponent coprime to the
// totient, and inverts it.
func GenerateKeyPairWithSource(params toyrsa.Params, src toyrsa.RandomSource) (*toyrsa.KeyPair, error) {
	base := params.PrimeBase
	for attempt := 0; attempt < core.MaxKeygenAttempts; attempt++ {
		p, err := primality.ChoosePrime(src, base, base, params.PrimeRounds)
		if err != nil {
			return nil, err
		}
		q, err := primality.ChoosePrime(src, base, base, params.PrimeRounds)
		if err != nil {
			return nil, err
		}
		if p == q {
			utils.Debugf("keygen", "attempt %d drew p == q == %d, retrying", attempt, p)
			continue
		}

		n, err := utils.SafeMultiply64(p, q)
		if err != nil {
			return nil, fmt.Errorf("modulus %d*%d: %w", p, q, err)
		}
		m := (p - 1) * (q - 1)

		e, err := SelectExponent(src, m)
		if err != nil {
			return nil, err
		}
		d, err := arith.ModInverse(e, m)
		if err != nil {
			panic(fmt.Sprintf("rsa: exponent %d not invertible mod %d: %v", e, m, err))
		}

		utils.Debugf("keygen", "p=%d q=%d n=%d e=%d", p, q, n, e)
		return &toyrsa.KeyPair{
			Level:   params.Level,
			Public:  toyrsa.Key{Modulus: n, Exponent: e},
			Private: toyrsa.Key{Modulus: n, Exponent: d},
		}, nil
	}
	return nil, fmt.Errorf("%w: %d attempts", core.ErrKeygenExhausted, core.MaxKeygenAttempts)
}

// SelectExponent samples e uniformly from [0, m) until gcd(e, m) == 1.
// Unlike plain rejection sampling on the gcd alone, it also rejects
// e == 1, which makes the transform the identity.
func SelectExponent(src toyrsa.RandomSource, m int64) (int64, error) {
	for i := 0; i < core.MaxExponentAttempts; i++ {
		e := utils.RandomInRange(src, m)
		if e != 1 && arith.GCD(e, m) == 1 {
			return e, nil
		}
	}
	return 0, fmt.Errorf("%w: totient %d", core.ErrExponentExhausted, m)
}
