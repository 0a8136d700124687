// Package msf implements the Minute:Second:Frame timestamp used to
// address any sector on a CD, including lead-in and lead-out.
package msf

import (
	"fmt"
	"strings"

	"github.com/aiSzzPL-retroio/cdimage/bcd"
)

// FramesPerSecond is the number of sectors (frames) per second of CD
// audio, 75Hz.
const FramesPerSecond = 75

// SecondsPerMinute bounds the valid second field (0..=59).
const SecondsPerMinute = 60

// MaxSectorIndex is the number of addressable sectors on a disc
// (99:59:74 inclusive), i.e. 100 minutes of playing time.
const MaxSectorIndex = 100 * SecondsPerMinute * FramesPerSecond

// Msf is a minute:second:frame timestamp. Invariant:
// sector_index = (m*60+s)*75+f is a bijection onto 0..MaxSectorIndex.
type Msf struct {
	m, s, f bcd.Bcd
}

// Zero is 00:00:00.
var Zero = Msf{}

// Max is 99:59:74, the last addressable sector.
var Max = mustFromSectorIndex(MaxSectorIndex - 1)

// T97_30_00 is the innermost lead-in position: about 2.5 minutes of
// lead-in, enough to hold the largest possible table of contents.
var T97_30_00 = mustNew(97, 30, 0)

func mustNew(m, s, f uint8) Msf {
	msf, ok := New(m, s, f)
	if !ok {
		panic("invalid built-in Msf constant")
	}
	return msf
}

func mustFromSectorIndex(i uint32) Msf {
	msf, ok := FromSectorIndex(i)
	if !ok {
		panic("invalid built-in Msf constant")
	}
	return msf
}

// New builds an Msf from binary minute/second/frame values. Returns
// false if any field is out of range (s >= 60, f >= 75) or not
// representable in BCD (m > 99).
func New(m, s, f uint8) (Msf, bool) {
	if s >= SecondsPerMinute || f >= FramesPerSecond {
		return Msf{}, false
	}

	bm, ok := bcd.FromBinary(m)
	if !ok {
		return Msf{}, false
	}
	bs, _ := bcd.FromBinary(s)
	bf, _ := bcd.FromBinary(f)

	return Msf{m: bm, s: bs, f: bf}, true
}

// FromBcd builds an Msf from already-BCD-encoded fields, validating
// the s < 60, f < 75 rules.
func FromBcd(m, s, f bcd.Bcd) (Msf, bool) {
	if s.Binary() >= SecondsPerMinute || f.Binary() >= FramesPerSecond {
		return Msf{}, false
	}

	return Msf{m: m, s: s, f: f}, true
}

// FromSectorIndex builds an Msf from its absolute sector index
// (0..MaxSectorIndex).
func FromSectorIndex(i uint32) (Msf, bool) {
	if i >= MaxSectorIndex {
		return Msf{}, false
	}

	f := i % FramesPerSecond
	rest := i / FramesPerSecond
	s := rest % SecondsPerMinute
	m := rest / SecondsPerMinute

	return New(uint8(m), uint8(s), uint8(f))
}

// SectorIndex returns the absolute sector index of m.
func (m Msf) SectorIndex() uint32 {
	return (uint32(m.m.Binary())*SecondsPerMinute+uint32(m.s.Binary()))*FramesPerSecond + uint32(m.f.Binary())
}

// Minutes, Seconds and Frames return the individual BCD fields.
func (m Msf) Minutes() bcd.Bcd { return m.m }
func (m Msf) Seconds() bcd.Bcd { return m.s }
func (m Msf) Frames() bcd.Bcd  { return m.f }

// Cmp orders two Msf values by their sector index.
func (m Msf) Cmp(o Msf) int {
	a, b := m.SectorIndex(), o.SectorIndex()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Equal reports whether m and o address the same sector.
func (m Msf) Equal(o Msf) bool {
	return m.SectorIndex() == o.SectorIndex()
}

// Less reports whether m sorts before o.
func (m Msf) Less(o Msf) bool {
	return m.Cmp(o) < 0
}

// CheckedAdd returns m advanced by delta sectors, or false on overflow
// past Max.
func (m Msf) CheckedAdd(delta Msf) (Msf, bool) {
	sum := m.SectorIndex() + delta.SectorIndex()
	return FromSectorIndex(sum)
}

// CheckedSub returns m moved back by delta sectors, or false if it
// would go below Zero.
func (m Msf) CheckedSub(delta Msf) (Msf, bool) {
	a, b := m.SectorIndex(), delta.SectorIndex()
	if b > a {
		return Msf{}, false
	}

	return FromSectorIndex(a - b)
}

// Next returns the next sector, or false if m is already Max.
func (m Msf) Next() (Msf, bool) {
	return FromSectorIndex(m.SectorIndex() + 1)
}

// String renders m as "mm:ss:ff".
func (m Msf) String() string {
	return fmt.Sprintf("%s:%s:%s", m.m, m.s, m.f)
}

// FromString parses "mm:ss:ff" into an Msf. Requires exactly three
// colon-separated fields, each a valid decimal BCD value, jointly
// satisfying s < 60, f < 75.
func FromString(s string) (Msf, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Msf{}, false
	}

	m, ok := bcd.ParseString(parts[0])
	if !ok {
		return Msf{}, false
	}
	sec, ok := bcd.ParseString(parts[1])
	if !ok {
		return Msf{}, false
	}
	f, ok := bcd.ParseString(parts[2])
	if !ok {
		return Msf{}, false
	}

	return FromBcd(m, sec, f)
}
