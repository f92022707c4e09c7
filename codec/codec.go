// Package codec packs 7-bit ASCII text into integer blocks and back.
//
// A block holds width characters, most significant first, so "AB" at width
// 2 is 65*128 + 66. The final block is padded with NUL characters, which
// Decode strips again; text that itself ends in NUL does not round-trip.
package codec

import (
	"errors"
	"fmt"
	"strings"
)

// MaxWidth is the widest block whose limit 128^width fits in an int64.
const MaxWidth = 8

var (
	// ErrNonASCII is returned for text containing bytes above 0x7f.
	ErrNonASCII = errors.New("text is not 7-bit ASCII")

	// ErrInvalidBlock is returned for a block outside [0, 128^width).
	ErrInvalidBlock = errors.New("block out of range for width")

	// ErrInvalidWidth is returned for a width outside [1, MaxWidth].
	ErrInvalidWidth = errors.New("invalid block width")
)

// Limit returns 128^width, the exclusive upper bound of a block.
func Limit(width int) (int64, error) {
	if width < 1 || width > MaxWidth {
		return 0, fmt.Errorf("%w: %d", ErrInvalidWidth, width)
	}
	return int64(1) << (7 * width), nil
}

// Encode packs text into blocks of width characters.
// Empty text yields no blocks.
func Encode(text string, width int) ([]int64, error) {
	if _, err := Limit(width); err != nil {
		return nil, err
	}

	blocks := make([]int64, 0, (len(text)+width-1)/width)
	for start := 0; start < len(text); start += width {
		var block int64
		for i := start; i < start+width; i++ {
			var c byte
			if i < len(text) {
				c = text[i]
				if c > 0x7f {
					return nil, fmt.Errorf("%w: byte 0x%02x at offset %d", ErrNonASCII, c, i)
				}
			}
			block = block<<7 | int64(c)
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

// Decode unpacks blocks of width characters and strips trailing NUL padding.
func Decode(blocks []int64, width int) (string, error) {
	limit, err := Limit(width)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.Grow(len(blocks) * width)
	buf := make([]byte, width)
	for i, block := range blocks {
		if block < 0 || block >= limit {
			return "", fmt.Errorf("%w: block %d is %d", ErrInvalidBlock, i, block)
		}
		for j := width - 1; j >= 0; j-- {
			buf[j] = byte(block & 0x7f)
			block >>= 7
		}
		sb.Write(buf)
	}
	return strings.TrimRight(sb.String(), "\x00"), nil
}
