// Package codec implements the byte-level codecs needed to synthesise
// and validate a CD sector: the CRC-16 used by the Q subchannel, the
// CRC-32 used by the sector EDC, and the Reed-Solomon P/Q ECC defined
// by ECMA-130 §14.
package codec

// CRC16CCITT computes the CRC-16 underlying the CD subchannel-Q check:
// CCITT polynomial 0x1021, initial value 0, MSB-first, no reflection,
// no final XOR, over data. A Q frame stores the one's complement of
// this value.
func CRC16CCITT(data []byte) uint16 {
	var crc uint16

	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}

	return crc
}

// crc32EdcTable is the reflected lookup table for the CD-ROM EDC
// polynomial x^32+x^31+x^16+x^15+x^4+x^3+x+1 (reflected mask 0xD8018001). This
// is NOT the IEEE 802.3 CRC-32 polynomial used by hash/crc32 in the
// standard library, so that package cannot be reused here.
var crc32EdcTable [256]uint32

func init() {
	for i := 0; i < 256; i++ {
		edc := uint32(i)
		for j := 0; j < 8; j++ {
			if edc&1 != 0 {
				edc = (edc >> 1) ^ 0xD8018001
			} else {
				edc >>= 1
			}
		}
		crc32EdcTable[i] = edc
	}
}

// CRC32EDC computes the CD sector EDC: a reflected CRC-32 with the
// ECMA-130 EDC polynomial, initial value 0, no final XOR. The spec's
// wire format stores this little-endian.
func CRC32EDC(data []byte) uint32 {
	var edc uint32

	for _, b := range data {
		edc = crc32EdcTable[byte(edc)^b] ^ (edc >> 8)
	}

	return edc
}
