package codec

import (
	"errors"
	"strings"
	"testing"
)

func TestEncode_Packing(t *testing.T) {
	blocks, err := Encode("AB", 2)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(blocks) != 1 || blocks[0] != 65*128+66 {
		t.Errorf("Encode(\"AB\", 2) = %v, want [%d]", blocks, 65*128+66)
	}

	// "HELLO" at width 4 pads the second block with three NULs
	blocks, err = Encode("HELLO", 4)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	want := []int64{
		((int64('H')*128+'E')*128+'L')*128 + 'L',
		int64('O') << 21,
	}
	if len(blocks) != len(want) {
		t.Fatalf("Encode returned %d blocks, want %d", len(blocks), len(want))
	}
	for i := range want {
		if blocks[i] != want[i] {
			t.Errorf("block %d = %d, want %d", i, blocks[i], want[i])
		}
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	texts := []string{
		"",
		"a",
		"HELLO",
		"attack at dawn",
		"The quick brown fox jumps over the lazy dog.",
		strings.Repeat("~", 37),
		"tabs\tand\nnewlines",
	}
	for width := 1; width <= MaxWidth; width++ {
		limit, _ := Limit(width)
		for _, text := range texts {
			blocks, err := Encode(text, width)
			if err != nil {
				t.Fatalf("Encode(%q, %d) failed: %v", text, width, err)
			}
			for _, b := range blocks {
				if b < 0 || b >= limit {
					t.Errorf("Encode(%q, %d) produced out-of-range block %d", text, width, b)
				}
			}
			got, err := Decode(blocks, width)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if got != text {
				t.Errorf("round trip at width %d: got %q, want %q", width, got, text)
			}
		}
	}
}

func TestEncode_Empty(t *testing.T) {
	blocks, err := Encode("", 4)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(blocks) != 0 {
		t.Errorf("Encode(\"\") = %v, want no blocks", blocks)
	}
}

func TestEncode_NonASCII(t *testing.T) {
	_, err := Encode("café", 4)
	if !errors.Is(err, ErrNonASCII) {
		t.Errorf("Encode non-ASCII error = %v, want ErrNonASCII", err)
	}
}

func TestInvalidWidth(t *testing.T) {
	for _, w := range []int{-1, 0, MaxWidth + 1} {
		if _, err := Encode("x", w); !errors.Is(err, ErrInvalidWidth) {
			t.Errorf("Encode width %d error = %v, want ErrInvalidWidth", w, err)
		}
		if _, err := Decode([]int64{1}, w); !errors.Is(err, ErrInvalidWidth) {
			t.Errorf("Decode width %d error = %v, want ErrInvalidWidth", w, err)
		}
	}
}

func TestDecode_InvalidBlock(t *testing.T) {
	for _, b := range []int64{-1, 1 << 28, 1 << 40} {
		if _, err := Decode([]int64{b}, 4); !errors.Is(err, ErrInvalidBlock) {
			t.Errorf("Decode(%d) error = %v, want ErrInvalidBlock", b, err)
		}
	}
}

func TestDecode_TrailingNUL(t *testing.T) {
	blocks, _ := Encode("ab\x00\x00", 2)
	got, err := Decode(blocks, 2)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got != "ab" {
		t.Errorf("Decode = %q, want %q", got, "ab")
	}
}

func FuzzDecode(f *testing.F) {
	f.Add(int64(0), 4)
	f.Add(int64(-1), 1)
	f.Add(int64(1<<62), 9)

	f.Fuzz(func(t *testing.T, block int64, width int) {
		// Should not panic, may return error
		_, _ = Decode([]int64{block}, width)
	})
}
