// Package bcd implements the 2-digit packed binary-coded decimal byte
// used throughout CD addressing (minutes, seconds, frames, track and
// index numbers): an 8-bit value whose nibbles each hold a decimal
// digit 0-9, valid domain 0x00..0x99.
package bcd

import (
	"fmt"
	"strconv"
)

// Bcd is a single binary-coded decimal byte: high nibble and low
// nibble each range over 0-9, giving a decimal value of 0-99.
type Bcd struct {
	bcd byte
}

// Zero and One are the two BCD literals used pervasively by index and
// track numbering.
var (
	Zero = Bcd{0x00}
	One  = Bcd{0x01}
)

// FromBinary builds a Bcd from a plain binary value 0..=99. Returns
// false if v is out of range.
func FromBinary(v uint8) (Bcd, bool) {
	if v > 99 {
		return Bcd{}, false
	}

	return Bcd{bcd: (v/10)<<4 | (v % 10)}, true
}

// FromBcd builds a Bcd from a raw byte already in BCD form. Returns
// false if either nibble is not a decimal digit.
func FromBcd(raw byte) (Bcd, bool) {
	hi := raw >> 4
	lo := raw & 0x0f

	if hi > 9 || lo > 9 {
		return Bcd{}, false
	}

	return Bcd{bcd: raw}, true
}

// Binary returns the plain binary value of b (0-99).
func (b Bcd) Binary() uint8 {
	return (b.bcd>>4)*10 + (b.bcd & 0x0f)
}

// BcdByte returns the raw BCD-encoded byte.
func (b Bcd) BcdByte() byte {
	return b.bcd
}

// Next returns the wrapping successor of b: 0x99 wraps to 0x00.
func (b Bcd) Next() Bcd {
	if b.bcd == 0x99 {
		return Zero
	}

	lo := b.bcd & 0x0f
	if lo == 9 {
		return Bcd{bcd: (b.bcd &^ 0x0f) + 0x10}
	}

	return Bcd{bcd: b.bcd + 1}
}

// Cmp orders two Bcd values by their binary value.
func (b Bcd) Cmp(o Bcd) int {
	switch {
	case b.bcd < o.bcd:
		return -1
	case b.bcd > o.bcd:
		return 1
	default:
		return 0
	}
}

// Equal reports whether b and o encode the same value.
func (b Bcd) Equal(o Bcd) bool {
	return b.bcd == o.bcd
}

// String renders the BCD byte as a zero-padded two hex digit string,
// which for any valid Bcd coincides with its decimal rendering since
// each nibble already holds a decimal digit, e.g. "07", "42".
func (b Bcd) String() string {
	return fmt.Sprintf("%02x", b.bcd)
}

// ParseString parses a plain decimal string (no BCD encoding, leading
// zeroes allowed) into a Bcd, e.g. "099" -> 0x99. Returns false if the
// string is not a valid unsigned decimal or the value exceeds 99.
func ParseString(s string) (Bcd, bool) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return Bcd{}, false
	}

	return FromBinary(uint8(v))
}

// Table holds every valid Bcd value indexed by its binary value, for
// callers that need compile-time-like literals without repeating the
// fallible constructors.
var Table [100]Bcd

func init() {
	for v := uint8(0); v <= 99; v++ {
		b, _ := FromBinary(v)
		Table[v] = b
	}
}
