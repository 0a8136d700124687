package codec

// ECC implements the two-layer Reed-Solomon P/Q parity code specified
// by ECMA-130 §14 for CD-ROM Mode 1 and Mode 2 Form 1 sectors.
//
// ComputeECC operates on the 2340-byte tail of a sector starting at
// byte 12 (i.e. header + data + EDC + reserved, followed by the P and
// Q parity regions it overwrites):
//
//	buf[0:2064]     header, user data, EDC and the 8 reserved zero bytes (P source)
//	buf[2064:2236]  P parity (172 bytes; together with buf[0:2064], the Q source)
//	buf[2236:2340]  Q parity (104 bytes)

// gf8Fwd and gf8Bwd are the forward/backward Galois-field(2^8) tables
// over the primitive polynomial x^8+x^4+x^3+x^2+1 (0x11d), used by the
// P/Q parity computation below.
var (
	gf8Fwd [256]byte
	gf8Bwd [256]byte
)

func init() {
	for i := 0; i < 256; i++ {
		j := i << 1
		if i&0x80 != 0 {
			j ^= 0x11d
		}
		j &= 0xff

		gf8Fwd[i] = byte(j)
		gf8Bwd[i^j] = byte(i)
	}
}

// eccCompute fills dest with the interleaved Reed-Solomon parity of
// src, following the (majorCount, minorCount, majorMult, minorInc)
// parametrisation common to both the P and Q layers of the CD-ROM ECC
// code: majorCount codewords are each built by striding minorCount
// bytes out of src with step minorInc (wrapping modulo majorCount *
// minorCount), and emit two parity bytes per codeword into dest at
// [major] and [major+majorCount].
func eccCompute(src []byte, majorCount, minorCount, majorMult, minorInc int, dest []byte) {
	size := majorCount * minorCount

	for major := 0; major < majorCount; major++ {
		index := (major/2)*majorMult + (major % 2)

		var eccA, eccB byte
		for minor := 0; minor < minorCount; minor++ {
			temp := src[index]
			index += minorInc
			if index >= size {
				index -= size
			}

			eccA ^= temp
			eccB ^= temp
			eccA = gf8Fwd[eccA]
		}

		eccA = gf8Bwd[gf8Fwd[eccA]^eccB]
		dest[major] = eccA
		dest[major+majorCount] = eccA ^ eccB
	}
}

// ComputeECC overwrites the P and Q parity regions of buf (a 2340-byte
// slice starting at sector byte 12) in place: P parity from the
// header/data/EDC/reserved bytes at buf[0:2064], then Q parity from
// those bytes plus the freshly written P parity, buf[0:2236].
func ComputeECC(buf *[2340]byte) {
	eccCompute(buf[0:2064], 86, 24, 2, 86, buf[2064:2236])
	eccCompute(buf[0:2236], 52, 43, 86, 88, buf[2236:2340])
}
