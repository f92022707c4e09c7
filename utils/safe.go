// Package utils provides utility functions for toyrsa.
// This file contains checked arithmetic and allocation helpers to prevent
// integer overflow and denial-of-service via large allocations.

package utils

import (
	"encoding/binary"
	"errors"
	"math"
)

// Maximum allowed lengths to prevent DoS via large allocations.
const (
	// MaxBlockCount is the maximum number of blocks in one message.
	MaxBlockCount = 1 << 20 // 1M blocks

	// MaxMessageSize is the maximum allowed plaintext size in bytes.
	MaxMessageSize = 1 << 20 // 1MB
)

var (
	// ErrOverflow indicates an integer overflow occurred.
	ErrOverflow = errors.New("integer overflow")

	// ErrExceedsLimit indicates a value exceeds the allowed limit.
	ErrExceedsLimit = errors.New("value exceeds allowed limit")

	// ErrInvalidLength indicates an invalid length value.
	ErrInvalidLength = errors.New("invalid length")
)

// SafeMultiply64 multiplies two non-negative integers and returns an error if overflow occurs.
func SafeMultiply64(a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, ErrInvalidLength
	}
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a > math.MaxInt64/b {
		return 0, ErrOverflow
	}
	return a * b, nil
}

// CheckLength validates that length is within [0, maxAllowed].
func CheckLength(length, maxAllowed int) error {
	if length < 0 {
		return ErrInvalidLength
	}
	if length > maxAllowed {
		return ErrExceedsLimit
	}
	return nil
}

// SafeReadLength reads a uint32 length from data at offset, validates it, and returns the value.
// Returns error if not enough bytes available or length exceeds maxAllowed.
func SafeReadLength(data []byte, offset, maxAllowed int) (length int, newOffset int, err error) {
	if offset < 0 || offset+4 > len(data) {
		return 0, offset, errors.New("truncated length field")
	}
	raw := binary.LittleEndian.Uint32(data[offset:])
	if raw > uint32(maxAllowed) || (maxAllowed > math.MaxInt32 && int(raw) < 0) {
		return 0, offset, ErrExceedsLimit
	}
	return int(raw), offset + 4, nil
}

// ValidateSliceAccess checks that accessing data[offset:offset+size] is safe.
func ValidateSliceAccess(data []byte, offset, size int) error {
	if offset < 0 || size < 0 {
		return ErrInvalidLength
	}
	if offset+size < offset { // overflow check
		return ErrOverflow
	}
	if offset+size > len(data) {
		return errors.New("slice access out of bounds")
	}
	return nil
}
