package primality

import (
	"errors"
	"fmt"
	"math"

	toyrsa "github.com/BackendStack21/toyrsa-go"
	"github.com/BackendStack21/toyrsa-go/core"
	"github.com/BackendStack21/toyrsa-go/utils"
)

// ErrSearchExhausted is returned when the upward scan for a probable prime
// gives up.
var ErrSearchExhausted = errors.New("prime search exhausted")

// ChoosePrime picks a random start in [lower, lower+span), forces it odd and
// scans upward for a probable prime.
func ChoosePrime(src toyrsa.RandomSource, lower, span int64, rounds int) (int64, error) {
	start := lower + utils.RandomInRange(src, span)
	if start%2 == 0 {
		start++
	}
	return SearchForPrime(src, start, rounds)
}

// SearchForPrime tests candidate, candidate+2, candidate+4, ... and returns
// the first that passes IsProbablyPrime. candidate should be odd.
func SearchForPrime(src toyrsa.RandomSource, candidate int64, rounds int) (int64, error) {
	return searchForPrime(src, candidate, rounds, core.MaxPrimeSearchSteps)
}

func searchForPrime(src toyrsa.RandomSource, candidate int64, rounds, maxSteps int) (int64, error) {
	start := candidate
	for step := 0; step < maxSteps; step++ {
		if IsProbablyPrime(src, candidate, rounds) {
			utils.Debugf("primality", "prime %d found after %d steps from %d", candidate, step, start)
			return candidate, nil
		}
		if candidate > math.MaxInt64-2 {
			break
		}
		candidate += 2
	}
	return 0, fmt.Errorf("%w: no probable prime within %d steps of %d", ErrSearchExhausted, maxSteps, start)
}
