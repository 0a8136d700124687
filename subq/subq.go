// Package subq implements the Q subchannel codec: the ADR/CONTROL
// byte, the six QData payload shapes and the raw/interleaved wire
// formats.
//
// FromRaw dispatches on the track byte at raw[1] (0x00 -> lead-in ToC
// entry, further split by the pointer byte at raw[2]; 0xAA -> lead-out,
// the Red Book/ECMA-130 sentinel for the TRACK field in the lead-out
// area; anything else -> a plain program-area entry), and ToRaw is its
// byte-for-byte inverse (lead-out frames always carry index 01).
package subq

import (
	"bytes"
	"encoding/binary"

	"github.com/icza/bitio"

	"github.com/aiSzzPL-retroio/cdimage/bcd"
	"github.com/aiSzzPL-retroio/cdimage/cderror"
	"github.com/aiSzzPL-retroio/cdimage/codec"
	"github.com/aiSzzPL-retroio/cdimage/msf"
)

// AdrControl is the first byte of a Q subchannel frame: ADR in the low
// nibble (only mode 1 is supported), CONTROL flags in the high
// nibble.
type AdrControl struct {
	raw byte
}

// Mode1Audio and Mode1Data are Mode-1 ADR/CONTROL bytes with no other
// attribute set; FLAGS commands in a CUE sheet toggle bits on top of
// whichever of these the track format selects.
var (
	Mode1Audio = AdrControl{raw: 0x01}
	Mode1Data  = AdrControl{raw: 0x41}
)

// FromByte wraps a raw ADR/CONTROL byte without validating it; the
// caller (Q.FromRaw) is responsible for rejecting unsupported modes.
func FromByte(raw byte) AdrControl {
	return AdrControl{raw: raw}
}

// Byte returns the raw ADR/CONTROL byte.
func (a AdrControl) Byte() byte { return a.raw }

// IsData reports whether the data/audio bit (0x40) is set.
func (a AdrControl) IsData() bool { return a.raw&0x40 != 0 }

// IsAudio is the negation of IsData.
func (a AdrControl) IsAudio() bool { return !a.IsData() }

// DigitalCopyPermitted reports the 0x20 bit.
func (a AdrControl) DigitalCopyPermitted() bool { return a.raw&0x20 != 0 }

// PreEmphasis reports the 0x10 bit; meaningful for audio tracks only.
func (a AdrControl) PreEmphasis() bool { return a.IsAudio() && a.raw&0x10 != 0 }

// FourChannelAudio reports the 0x80 bit; meaningful for audio tracks
// only.
func (a AdrControl) FourChannelAudio() bool { return a.IsAudio() && a.raw&0x80 != 0 }

// Mode returns the low nibble (ADR); only mode 1 is supported by this
// module.
func (a AdrControl) Mode() byte { return a.raw & 0x0f }

// SetDigitalCopyPermitted toggles the 0x20 bit, used by the cue
// package's FLAGS DCP handler.
func (a *AdrControl) SetDigitalCopyPermitted(v bool) { a.setBit(0x20, v) }

// SetFourChannelAudio toggles the 0x80 bit (FLAGS 4CH).
func (a *AdrControl) SetFourChannelAudio(v bool) { a.setBit(0x80, v) }

// SetPreEmphasis toggles the 0x10 bit (FLAGS PRE).
func (a *AdrControl) SetPreEmphasis(v bool) { a.setBit(0x10, v) }

func (a *AdrControl) setBit(mask byte, v bool) {
	if v {
		a.raw |= mask
	} else {
		a.raw &^= mask
	}
}

// SessionFormat is the session type advertised by the 0xA0 ToC
// pointer, derived from the formats of the disc's tracks.
type SessionFormat int

const (
	CdDaCdRom SessionFormat = iota
	Cdi
	CdXa
)

// Byte encodes the SessionFormat as the second AP byte of a 0xA0
// entry.
func (s SessionFormat) Byte() byte {
	switch s {
	case Cdi:
		return 0x10
	case CdXa:
		return 0x20
	default:
		return 0x00
	}
}

func (s SessionFormat) String() string {
	switch s {
	case Cdi:
		return "CD-i"
	case CdXa:
		return "CD-ROM XA"
	default:
		return "CD-DA/CD-ROM"
	}
}

func sessionFormatFromByte(b byte) (SessionFormat, bool) {
	switch b {
	case 0x00:
		return CdDaCdRom, true
	case 0x10:
		return Cdi, true
	case 0x20:
		return CdXa, true
	default:
		return 0, false
	}
}

// QData is the decoded payload of a Q subchannel frame. The six
// concrete types below are the only implementors; toRaw is unexported
// so the set stays closed.
type QData interface {
	// Amsf returns the MSF written into a sector's CD-ROM header
	// address field when this QData is used to synthesise that
	// sector: the absolute disc MSF for program/lead-out entries,
	// the lead-in MSF for ToC entries.
	Amsf() msf.Msf
	toRaw(adr AdrControl) [12]byte
}

// Mode1 addresses a sector in the program area or lead-out.
type Mode1 struct {
	Track    bcd.Bcd
	Index    bcd.Bcd
	TrackMsf msf.Msf
	DiscMsf  msf.Msf
}

func (d Mode1) Amsf() msf.Msf { return d.DiscMsf }

func (d Mode1) toRaw(adr AdrControl) [12]byte {
	var raw [12]byte
	raw[0] = adr.raw
	raw[1] = d.Track.BcdByte()
	raw[2] = d.Index.BcdByte()
	raw[3], raw[4], raw[5] = d.TrackMsf.Minutes().BcdByte(), d.TrackMsf.Seconds().BcdByte(), d.TrackMsf.Frames().BcdByte()
	raw[7], raw[8], raw[9] = d.DiscMsf.Minutes().BcdByte(), d.DiscMsf.Seconds().BcdByte(), d.DiscMsf.Frames().BcdByte()
	return raw
}

// Mode1LeadOut addresses a sector in the lead-out area.
type Mode1LeadOut struct {
	LeadOutMsf msf.Msf
	DiscMsf    msf.Msf
}

func (d Mode1LeadOut) Amsf() msf.Msf { return d.DiscMsf }

func (d Mode1LeadOut) toRaw(adr AdrControl) [12]byte {
	var raw [12]byte
	raw[0] = adr.raw
	raw[1] = 0xaa
	// Real discs always carry INDEX 01 on lead-out sectors; this
	// design doesn't model the index separately for Mode1LeadOut, so
	// it's written as the fixed convention rather than round-tripped.
	raw[2] = bcd.One.BcdByte()
	raw[3], raw[4], raw[5] = d.LeadOutMsf.Minutes().BcdByte(), d.LeadOutMsf.Seconds().BcdByte(), d.LeadOutMsf.Frames().BcdByte()
	raw[7], raw[8], raw[9] = d.DiscMsf.Minutes().BcdByte(), d.DiscMsf.Seconds().BcdByte(), d.DiscMsf.Frames().BcdByte()
	return raw
}

// Mode1Toc is a ToC entry describing a normal track's INDEX 01.
type Mode1Toc struct {
	Track     bcd.Bcd
	Index1Msf msf.Msf
	LeadInMsf msf.Msf
}

func (d Mode1Toc) Amsf() msf.Msf { return d.LeadInMsf }

func (d Mode1Toc) toRaw(adr AdrControl) [12]byte {
	var raw [12]byte
	raw[0] = adr.raw
	raw[2] = d.Track.BcdByte()
	raw[3], raw[4], raw[5] = d.LeadInMsf.Minutes().BcdByte(), d.LeadInMsf.Seconds().BcdByte(), d.LeadInMsf.Frames().BcdByte()
	raw[7], raw[8], raw[9] = d.Index1Msf.Minutes().BcdByte(), d.Index1Msf.Seconds().BcdByte(), d.Index1Msf.Frames().BcdByte()
	return raw
}

// Mode1TocFirstTrack is the 0xA0 ToC pointer.
type Mode1TocFirstTrack struct {
	FirstTrack    bcd.Bcd
	SessionFormat SessionFormat
	LeadInMsf     msf.Msf
}

func (d Mode1TocFirstTrack) Amsf() msf.Msf { return d.LeadInMsf }

func (d Mode1TocFirstTrack) toRaw(adr AdrControl) [12]byte {
	var raw [12]byte
	raw[0] = adr.raw
	raw[2] = 0xa0
	raw[3], raw[4], raw[5] = d.LeadInMsf.Minutes().BcdByte(), d.LeadInMsf.Seconds().BcdByte(), d.LeadInMsf.Frames().BcdByte()
	raw[7] = d.FirstTrack.BcdByte()
	raw[8] = d.SessionFormat.Byte()
	return raw
}

// Mode1TocLastTrack is the 0xA1 ToC pointer.
type Mode1TocLastTrack struct {
	LastTrack bcd.Bcd
	LeadInMsf msf.Msf
}

func (d Mode1TocLastTrack) Amsf() msf.Msf { return d.LeadInMsf }

func (d Mode1TocLastTrack) toRaw(adr AdrControl) [12]byte {
	var raw [12]byte
	raw[0] = adr.raw
	raw[2] = 0xa1
	raw[3], raw[4], raw[5] = d.LeadInMsf.Minutes().BcdByte(), d.LeadInMsf.Seconds().BcdByte(), d.LeadInMsf.Frames().BcdByte()
	raw[7] = d.LastTrack.BcdByte()
	return raw
}

// Mode1TocLeadOut is the 0xA2 ToC pointer.
type Mode1TocLeadOut struct {
	LeadOutStart msf.Msf
	LeadInMsf    msf.Msf
}

func (d Mode1TocLeadOut) Amsf() msf.Msf { return d.LeadInMsf }

func (d Mode1TocLeadOut) toRaw(adr AdrControl) [12]byte {
	var raw [12]byte
	raw[0] = adr.raw
	raw[2] = 0xa2
	raw[3], raw[4], raw[5] = d.LeadInMsf.Minutes().BcdByte(), d.LeadInMsf.Seconds().BcdByte(), d.LeadInMsf.Frames().BcdByte()
	raw[7], raw[8], raw[9] = d.LeadOutStart.Minutes().BcdByte(), d.LeadOutStart.Seconds().BcdByte(), d.LeadOutStart.Frames().BcdByte()
	return raw
}

// Q pairs a decoded QData payload with the ADR/CONTROL byte it was
// read with (or should be written with).
type Q struct {
	data QData
	adr  AdrControl
}

// NewQ pairs data with control. Taking the full AdrControl rather
// than just a data/audio flag lets FLAGS bits (DCP/4CH/PRE) set on
// the originating track survive into synthesised pregap, ToC and
// lead-out sectors too.
func NewQ(data QData, control AdrControl) Q {
	return Q{data: data, adr: control}
}

// FromRaw validates and parses a raw 12-byte Q subchannel frame. The
// stored CRC is the one's complement of the CRC-16 of bytes 0..10.
func FromRaw(raw [12]byte) (Q, error) {
	crc := ^codec.CRC16CCITT(raw[:10])
	if raw[10] != byte(crc>>8) || raw[11] != byte(crc) {
		return Q{}, cderror.New(cderror.InvalidSubQCRC)
	}

	adr := FromByte(raw[0])
	if adr.Mode() != 1 {
		return Q{}, cderror.New(cderror.Unsupported)
	}

	// raw[1] is the TRACK field. 0xAA is the Red Book/ECMA-130 sentinel
	// for the lead-out area; it is not itself a valid BCD track number,
	// so it has to be checked before (not via) bcd.FromBcd.
	isLeadOut := raw[1] == 0xaa
	var track bcd.Bcd
	if !isLeadOut {
		var ok bool
		track, ok = bcd.FromBcd(raw[1])
		if !ok {
			return Q{}, cderror.New(cderror.Unsupported)
		}
	}

	min, ok := bcd.FromBcd(raw[3])
	if !ok {
		return Q{}, cderror.New(cderror.Unsupported)
	}
	sec, ok := bcd.FromBcd(raw[4])
	if !ok {
		return Q{}, cderror.New(cderror.Unsupported)
	}
	frac, ok := bcd.FromBcd(raw[5])
	if !ok {
		return Q{}, cderror.New(cderror.Unsupported)
	}
	m, ok := msf.FromBcd(min, sec, frac)
	if !ok {
		return Q{}, cderror.New(cderror.Unsupported)
	}

	if raw[6] != 0 {
		return Q{}, cderror.New(cderror.Unsupported)
	}

	apMin, ok := bcd.FromBcd(raw[7])
	if !ok {
		return Q{}, cderror.New(cderror.Unsupported)
	}
	apSec, ok := bcd.FromBcd(raw[8])
	if !ok {
		return Q{}, cderror.New(cderror.Unsupported)
	}
	apFrac, ok := bcd.FromBcd(raw[9])
	if !ok {
		return Q{}, cderror.New(cderror.Unsupported)
	}
	apMsf, ok := msf.FromBcd(apMin, apSec, apFrac)
	if !ok {
		return Q{}, cderror.New(cderror.Unsupported)
	}

	var data QData

	if isLeadOut {
		data = Mode1LeadOut{LeadOutMsf: m, DiscMsf: apMsf}
	} else if track.Binary() == 0 {
		// Lead-in: this is a ToC entry, split further by the pointer
		// byte at raw[2].
		switch pointer := raw[2]; pointer {
		case 0xa0:
			sf, ok := sessionFormatFromByte(apSec.BcdByte())
			if !ok || apFrac.BcdByte() != 0 {
				return Q{}, cderror.New(cderror.Unsupported)
			}
			data = Mode1TocFirstTrack{FirstTrack: apMin, SessionFormat: sf, LeadInMsf: m}
		case 0xa1:
			if apSec.BcdByte() != 0 || apFrac.BcdByte() != 0 {
				return Q{}, cderror.New(cderror.Unsupported)
			}
			data = Mode1TocLastTrack{LastTrack: apMin, LeadInMsf: m}
		case 0xa2:
			data = Mode1TocLeadOut{LeadOutStart: apMsf, LeadInMsf: m}
		default:
			ptrack, ok := bcd.FromBcd(pointer)
			if !ok {
				return Q{}, cderror.New(cderror.Unsupported)
			}
			data = Mode1Toc{Track: ptrack, Index1Msf: apMsf, LeadInMsf: m}
		}
	} else {
		index, ok := bcd.FromBcd(raw[2])
		if !ok {
			return Q{}, cderror.New(cderror.Unsupported)
		}
		data = Mode1{Track: track, Index: index, TrackMsf: m, DiscMsf: apMsf}
	}

	return Q{data: data, adr: adr}, nil
}

// FromRawInterleaved extracts a Q frame from a 96-byte raw R-W
// subchannel dump (bit 6 of each byte, concatenated MSB-first) before
// delegating to FromRaw. Built on icza/bitio: a single bit-granularity
// Reader walks the 96-byte stream, discarding bit 7, keeping bit 6 and
// discarding the remaining 6 bits of each byte; a bitio.Writer packs
// the 96 surviving bits back into the 12-byte frame.
func FromRawInterleaved(raw [96]byte) (Q, error) {
	br := bitio.NewReader(bytes.NewReader(raw[:]))

	var packed bytes.Buffer
	bw := bitio.NewWriter(&packed)

	for i := 0; i < 96; i++ {
		if _, err := br.ReadBool(); err != nil {
			return Q{}, cderror.Wrap(err, cderror.IoError, "reading interleaved subchannel")
		}
		bit, err := br.ReadBool()
		if err != nil {
			return Q{}, cderror.Wrap(err, cderror.IoError, "reading interleaved subchannel")
		}
		if _, err := br.ReadBits(6); err != nil {
			return Q{}, cderror.Wrap(err, cderror.IoError, "reading interleaved subchannel")
		}
		if err := bw.WriteBool(bit); err != nil {
			return Q{}, cderror.Wrap(err, cderror.IoError, "packing subchannel Q")
		}
	}
	if err := bw.Close(); err != nil {
		return Q{}, cderror.Wrap(err, cderror.IoError, "packing subchannel Q")
	}

	var subq [12]byte
	copy(subq[:], packed.Bytes())

	return FromRaw(subq)
}

// ToRaw serialises q back to its 12-byte wire form, recomputing the
// (complemented) CRC; this is the exact inverse of FromRaw for every
// variant above, except that lead-out frames are always written with
// index byte 01.
func (q Q) ToRaw() [12]byte {
	raw := q.data.toRaw(q.adr)

	crc := ^codec.CRC16CCITT(raw[:10])
	binary.BigEndian.PutUint16(raw[10:12], crc)

	return raw
}

// IsData reports whether q describes a data track (or, for ToC
// entries, a data target track).
func (q Q) IsData() bool { return q.adr.IsData() }

// IsAudio is the negation of IsData.
func (q Q) IsAudio() bool { return q.adr.IsAudio() }

// Data returns the decoded payload.
func (q Q) Data() QData { return q.data }

// AdrControl returns the ADR/CONTROL byte.
func (q Q) AdrControl() AdrControl { return q.adr }

// IsLeadIn reports whether q is one of the four lead-in ToC variants.
func (q Q) IsLeadIn() bool {
	switch q.data.(type) {
	case Mode1Toc, Mode1TocFirstTrack, Mode1TocLastTrack, Mode1TocLeadOut:
		return true
	default:
		return false
	}
}

// IsLeadOut reports whether q addresses the lead-out area.
func (q Q) IsLeadOut() bool {
	_, ok := q.data.(Mode1LeadOut)
	return ok
}

// IsPregap reports whether q is a program-area Mode1 entry at index
// 00 (a track's pregap).
func (q Q) IsPregap() bool {
	m1, ok := q.data.(Mode1)
	return ok && m1.Index.Binary() == 0
}
