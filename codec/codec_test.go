package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC16CCITTKnownVector(t *testing.T) {
	// "123456789" is the standard CRC self-check string; CRC-16/XMODEM
	// (poly 0x1021, init 0x0000, no reflect, no xorout) of it is 0x31C3.
	got := CRC16CCITT([]byte("123456789"))
	assert.Equal(t, uint16(0x31c3), got)
}

func TestCRC16CCITTEmpty(t *testing.T) {
	assert.Equal(t, uint16(0), CRC16CCITT(nil))
}

func TestComputeECCDeterministic(t *testing.T) {
	var a, b [2340]byte
	for i := range a {
		a[i] = byte(i * 7)
		b[i] = byte(i * 7)
	}

	ComputeECC(&a)
	ComputeECC(&b)

	assert.Equal(t, a, b)
}

func TestComputeECCZeroSource(t *testing.T) {
	var buf [2340]byte

	ComputeECC(&buf)

	// An all-zero source produces all-zero parity: every codeword XORs
	// zero bytes together.
	for _, b := range buf[2064:] {
		assert.Equal(t, byte(0), b)
	}
}
