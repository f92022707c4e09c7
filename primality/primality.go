// Package primality implements the Fermat probabilistic primality test and
// the prime selection used by toyrsa key generation.
//
// The test is Monte Carlo: primes always pass, most composites fail with
// high probability per round, and Carmichael numbers pass every round.
// No Miller-Rabin strengthening is performed.
package primality

import (
	toyrsa "github.com/BackendStack21/toyrsa-go"
	"github.com/BackendStack21/toyrsa-go/arith"
	"github.com/BackendStack21/toyrsa-go/utils"
)

// FermatTest draws a witness a in [1, n) and reports whether a^n = a (mod n).
// Values below 2 are never prime.
func FermatTest(src toyrsa.RandomSource, n int64) bool {
	if n < 2 {
		return false
	}
	a := 1 + utils.RandomInRange(src, n-1)
	return arith.ModExp(a, n, n) == a
}

// IsProbablyPrime runs FermatTest rounds times and stops at the first
// failure. Zero rounds accept any n.
func IsProbablyPrime(src toyrsa.RandomSource, n int64, rounds int) bool {
	for i := 0; i < rounds; i++ {
		if !FermatTest(src, n) {
			return false
		}
	}
	return true
}
