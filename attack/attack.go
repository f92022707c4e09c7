// Package attack recovers toyrsa private keys from public keys by trial
// division. It succeeds quickly because toyrsa moduli are small.
package attack

import (
	"context"
	"errors"
	"fmt"

	toyrsa "github.com/BackendStack21/toyrsa-go"
	"github.com/BackendStack21/toyrsa-go/arith"
	"github.com/BackendStack21/toyrsa-go/rsa"
	"github.com/BackendStack21/toyrsa-go/utils"
)

// ErrInvalidModulus is returned for a modulus that is even, below 9 or prime.
var ErrInvalidModulus = errors.New("modulus is not an odd composite")

// pollInterval is the number of trial divisions between context checks.
const pollInterval = 1 << 16

// Recovery is the outcome of a successful attack.
type Recovery struct {
	P         int64      `json:"p"`
	Q         int64      `json:"q"`
	Totient   int64      `json:"totient"`
	Divisions int64      `json:"divisions"`
	Key       toyrsa.Key `json:"private_key"`
}

// Factor returns the smallest odd prime divisor p of n and q = n/p.
func Factor(n int64) (p, q int64, err error) {
	p, q, _, err = factor(context.Background(), n)
	return p, q, err
}

// FactorContext is Factor with cancellation.
func FactorContext(ctx context.Context, n int64) (p, q int64, err error) {
	p, q, _, err = factor(ctx, n)
	return p, q, err
}

func factor(ctx context.Context, n int64) (p, q, divisions int64, err error) {
	if n < 9 || n%2 == 0 {
		return 0, 0, 0, fmt.Errorf("%w: %d", ErrInvalidModulus, n)
	}
	for p = 3; p <= n/p; p += 2 {
		if divisions%pollInterval == 0 {
			if err := ctx.Err(); err != nil {
				return 0, 0, divisions, err
			}
		}
		divisions++
		if n%p == 0 {
			utils.Debugf("attack", "n=%d factored as %d*%d after %d divisions", n, p, n/p, divisions)
			return p, n / p, divisions, nil
		}
	}
	return 0, 0, divisions, fmt.Errorf("%w: %d is prime", ErrInvalidModulus, n)
}

// Crack factors the public modulus and derives the private exponent from
// the recovered totient.
func Crack(ctx context.Context, pub toyrsa.Key) (*Recovery, error) {
	if err := rsa.ValidateKey(pub); err != nil {
		return nil, err
	}
	p, q, divisions, err := factor(ctx, pub.Modulus)
	if err != nil {
		return nil, err
	}

	m := (p - 1) * (q - 1)
	if g := arith.GCD(pub.Exponent, m); g != 1 {
		return nil, fmt.Errorf("%w: gcd(%d, %d) = %d", arith.ErrNotInvertible, pub.Exponent, m, g)
	}
	d, err := arith.ModInverse(pub.Exponent, m)
	if err != nil {
		return nil, err
	}

	return &Recovery{
		P:         p,
		Q:         q,
		Totient:   m,
		Divisions: divisions,
		Key:       toyrsa.Key{Modulus: pub.Modulus, Exponent: d},
	}, nil
}

// CrackPrivateKey returns the private key matching pub.
func CrackPrivateKey(pub toyrsa.Key) (toyrsa.Key, error) {
	r, err := Crack(context.Background(), pub)
	if err != nil {
		return toyrsa.Key{}, err
	}
	return r.Key, nil
}
