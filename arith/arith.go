// Package arith implements the modular arithmetic behind toyrsa:
// exponentiation by squaring, the extended Euclidean algorithm and modular
// inversion over int64.
package arith

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrNotInvertible is returned when a value shares a factor with the modulus.
var ErrNotInvertible = errors.New("value is not invertible")

// Mod returns x mod m, ensuring the result is always non-negative in [0, m).
func Mod(x, m int64) int64 {
	r := x % m
	if r < 0 {
		r += m
	}
	return r
}

// MulMod returns a*b mod m. The product is formed in 128 bits, so any int64
// operands are safe.
func MulMod(a, b, m int64) int64 {
	hi, lo := bits.Mul64(uint64(Mod(a, m)), uint64(Mod(b, m)))
	return int64(bits.Rem64(hi, lo, uint64(m)))
}

// AddMod returns a+b mod m without overflowing.
func AddMod(a, b, m int64) int64 {
	a, b = Mod(a, m), Mod(b, m)
	if a >= m-b {
		return a - (m - b)
	}
	return a + b
}

// ModExp computes base^exponent mod modulus by repeated squaring.
// Panics if exponent is negative or modulus is not positive.
func ModExp(base, exponent, modulus int64) int64 {
	if exponent < 0 {
		panic("arith: negative exponent")
	}
	if modulus <= 0 {
		panic("arith: modulus must be positive")
	}
	if modulus == 1 {
		return 0
	}

	result := int64(1)
	b := Mod(base, modulus)
	for e := exponent; e > 0; e >>= 1 {
		if e&1 == 1 {
			result = MulMod(result, b, modulus)
		}
		b = MulMod(b, b, modulus)
	}
	return result
}

// GCD returns the greatest common divisor of |a| and |b|.
func GCD(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// ExtendedGCD solves a*x + b*y = g where g = gcd(a, b), for a, b >= 0.
//
// With a = b*q + r it solves (b, r) for (x', y') and returns (y', x' - q*y').
// The recursion bottoms out when b divides a, with (x, y) = (0, 1) and g = b.
func ExtendedGCD(a, b int64) (g, x, y int64) {
	if b == 0 {
		return a, 1, 0
	}
	q, r := a/b, a%b
	if r == 0 {
		return b, 0, 1
	}
	g, x1, y1 := ExtendedGCD(b, r)
	return g, y1, x1 - q*y1
}

// ModInverse returns d in [0, m) with e*d = 1 (mod m).
// It returns an error wrapping ErrNotInvertible when gcd(e, m) != 1.
func ModInverse(e, m int64) (int64, error) {
	if m <= 0 {
		return 0, fmt.Errorf("%w: modulus %d is not positive", ErrNotInvertible, m)
	}
	g, x, _ := ExtendedGCD(Mod(e, m), m)
	if g != 1 {
		return 0, fmt.Errorf("%w: gcd(%d, %d) = %d", ErrNotInvertible, e, m, g)
	}
	return Mod(x, m), nil
}
