// Package sector synthesises and decodes individual 2352-byte CD
// sectors: the CD-ROM header, the Mode 2 XA subheader and the EDC/ECC
// parity regions.
//
// A Sector's header and parity are always fully synthesised at
// construction time, so a Sector read back from an image is
// byte-for-byte what a real drive would return.
package sector

import (
	"encoding/binary"

	"github.com/aiSzzPL-retroio/cdimage/bcd"
	"github.com/aiSzzPL-retroio/cdimage/cderror"
	"github.com/aiSzzPL-retroio/cdimage/codec"
	"github.com/aiSzzPL-retroio/cdimage/msf"
	"github.com/aiSzzPL-retroio/cdimage/subq"
)

// TrackFormat is the on-disc format of the track a Sector belongs to.
type TrackFormat int

const (
	Audio TrackFormat = iota
	Mode1
	Mode2Xa
	Mode2CdI
)

func (f TrackFormat) String() string {
	switch f {
	case Audio:
		return "Audio"
	case Mode1:
		return "Mode1"
	case Mode2Xa:
		return "Mode2Xa"
	case Mode2CdI:
		return "Mode2CdI"
	default:
		return "Unknown"
	}
}

// isData reports whether f is a CD-ROM data format (i.e. not Audio).
func (f TrackFormat) isData() bool { return f != Audio }

// CdRomMode is the mode byte of a decoded CD-ROM header.
type CdRomMode int

const (
	CdRomMode1 CdRomMode = 1
	CdRomMode2 CdRomMode = 2
)

// CdRomHeader is the decoded address and mode of a CD-ROM sector
// header.
type CdRomHeader struct {
	Msf  msf.Msf
	Mode CdRomMode
}

// Sector holds one fully-synthesised 2352-byte sector plus the Q
// subchannel frame and track format it was built with.
type Sector struct {
	data   [2352]byte
	q      subq.Q
	format TrackFormat
}

func checkFormat(q subq.Q, format TrackFormat) error {
	var ok bool
	if format == Audio {
		ok = q.IsAudio()
	} else {
		ok = q.IsData()
	}
	if !ok {
		return cderror.New(cderror.BadFormat)
	}
	return nil
}

// Uninitialized allocates a zero-filled sector with the given Q frame
// and format, after checking that the two are compatible (audio Q iff
// audio format).
func Uninitialized(q subq.Q, format TrackFormat) (*Sector, error) {
	if err := checkFormat(q, format); err != nil {
		return nil, err
	}
	return &Sector{q: q, format: format}, nil
}

// Empty builds an all-zero-payload sector with a fully synthesised
// header and EDC/ECC: byte-for-byte what a real drive returns for a
// blank sector at this Q's address.
func Empty(q subq.Q, format TrackFormat) (*Sector, error) {
	return New(q, format, func(*[2352]byte) error { return nil })
}

// New builds a sector whose payload is filled in by loader (typically a
// raw 2352-byte read off a BIN image), then regenerates the CD-ROM
// header and EDC/ECC regions over it so the result is what a drive
// would return for that payload at this Q's address. Audio sectors are
// passed through untouched.
func New(q subq.Q, format TrackFormat, loader func(*[2352]byte) error) (*Sector, error) {
	s, err := Uninitialized(q, format)
	if err != nil {
		return nil, err
	}
	if err := loader(&s.data); err != nil {
		return nil, err
	}
	s.writeHeaders()
	s.writeEDCECC()
	return s, nil
}

// Q returns the Q subchannel frame for this sector.
func (s *Sector) Q() subq.Q { return s.q }

// Format returns the track format this sector belongs to.
func (s *Sector) Format() TrackFormat { return s.format }

// Data2352 returns the full 2352-byte sector buffer (everything but
// the subchannel data).
func (s *Sector) Data2352() *[2352]byte { return &s.data }

// SetData2352 hands loader a mutable reference to the sector buffer,
// for callers that fill in raw bytes themselves; unlike New, it does
// not regenerate the header or EDC/ECC afterwards.
func (s *Sector) SetData2352(loader func(*[2352]byte) error) error {
	return loader(&s.data)
}

// writeHeaders is a no-op for audio; for CD-ROM formats it writes the
// sync pattern, the BCD sector address (with the lead-in high-nibble
// convention) and the mode byte, and defaults the XA submode copies
// when the caller hasn't set them.
func (s *Sector) writeHeaders() {
	if !s.format.isData() {
		return
	}

	s.data[0] = 0x00
	for i := 1; i < 11; i++ {
		s.data[i] = 0xff
	}
	s.data[11] = 0x00

	amsf := s.q.Data().Amsf()
	mByte := amsf.Minutes().BcdByte()
	if s.q.IsLeadIn() {
		// ECMA-130 lead-in convention: the high nibble is forced to 0xA
		// (a sentinel distinguishing a lead-in address from a
		// program-area one) and only the ones digit of the minute is
		// kept; CdromHeader reverses this by restoring a tens digit of
		// 9, so only lead-in addresses from 90:00:00 up (which covers
		// Innermost, 97:30:00) round-trip.
		mByte = 0xa0 | (mByte & 0x0f)
	}
	s.data[12] = mByte
	s.data[13] = amsf.Seconds().BcdByte()
	s.data[14] = amsf.Frames().BcdByte()

	mode := byte(1)
	if s.format == Mode2Xa || s.format == Mode2CdI {
		mode = 2
	}
	s.data[15] = mode

	if s.format == Mode2Xa || s.format == Mode2CdI {
		if s.data[18] == 0 && s.data[22] == 0 {
			v := byte(0x08)
			if s.q.IsLeadIn() || s.q.IsPregap() || s.q.IsLeadOut() {
				v = 0x28
			}
			s.data[18] = v
			s.data[22] = v
		}
	}
}

// writeEDCECC computes and writes the EDC/ECC regions appropriate to
// s.format: Mode1 EDC over 0..2064 at 2064..2068 plus ECC; Mode 2
// Form 1 EDC over 16..2072 at 2072..2076 plus ECC (computed with the
// address bytes 12..16 zeroed); Mode 2 Form 2 EDC over 16..2348 at
// 2348..2352 and no ECC; nothing for audio.
func (s *Sector) writeEDCECC() {
	switch s.format {
	case Audio:
		return
	case Mode1:
		edc := codec.CRC32EDC(s.data[0:2064])
		binary.LittleEndian.PutUint32(s.data[2064:2068], edc)
		buf := (*[2340]byte)(s.data[12:2352])
		codec.ComputeECC(buf)
	case Mode2Xa, Mode2CdI:
		switch s.xaForm() {
		case XaForm1:
			var savedAddr [4]byte
			copy(savedAddr[:], s.data[12:16])
			for i := 12; i < 16; i++ {
				s.data[i] = 0
			}

			edc := codec.CRC32EDC(s.data[16:2072])
			binary.LittleEndian.PutUint32(s.data[2072:2076], edc)

			buf := (*[2340]byte)(s.data[12:2352])
			codec.ComputeECC(buf)

			copy(s.data[12:16], savedAddr[:])
		case XaForm2:
			edc := codec.CRC32EDC(s.data[16:2348])
			binary.LittleEndian.PutUint32(s.data[2348:2352], edc)
		}
	}
}

// xaForm reads the Form bit straight out of the submode byte already
// present in the buffer (set either by writeHeaders' default or by the
// caller through SetData2352).
func (s *Sector) xaForm() XaForm {
	return XaSubmode(s.data[18]).Form()
}

// EdcValid recomputes the EDC for this sector's format and reports
// whether it matches the stored value. Audio always reports valid, and
// so does a Mode 2 Form 2 sector whose stored EDC is all-zero (the EDC
// is optional there).
func (s *Sector) EdcValid() bool {
	switch s.format {
	case Audio:
		return true
	case Mode1:
		got := binary.LittleEndian.Uint32(s.data[2064:2068])
		return got == codec.CRC32EDC(s.data[0:2064])
	case Mode2Xa, Mode2CdI:
		switch s.xaForm() {
		case XaForm1:
			var savedAddr [4]byte
			copy(savedAddr[:], s.data[12:16])
			for i := 12; i < 16; i++ {
				s.data[i] = 0
			}
			got := binary.LittleEndian.Uint32(s.data[2072:2076])
			want := codec.CRC32EDC(s.data[16:2072])
			copy(s.data[12:16], savedAddr[:])
			return got == want
		case XaForm2:
			stored := s.data[2348:2352]
			allZero := true
			for _, b := range stored {
				if b != 0 {
					allZero = false
					break
				}
			}
			if allZero {
				return true
			}
			got := binary.LittleEndian.Uint32(stored)
			return got == codec.CRC32EDC(s.data[16:2348])
		}
	}
	return true
}

// CdromHeaderRaw returns the raw 16-byte CD-ROM header. Fails with
// BadFormat on audio tracks.
func (s *Sector) CdromHeaderRaw() (*[16]byte, error) {
	if !s.q.IsData() {
		return nil, cderror.New(cderror.BadFormat)
	}
	return (*[16]byte)(s.data[0:16]), nil
}

// CdromHeader parses the CD-ROM header: validates the sync pattern,
// decodes the BCD address (reversing the lead-in high-nibble
// convention when q.IsLeadIn), and maps the mode byte.
func (s *Sector) CdromHeader() (CdRomHeader, error) {
	header, err := s.CdromHeaderRaw()
	if err != nil {
		return CdRomHeader{}, err
	}

	if header[0] != 0 || header[11] != 0 {
		return CdRomHeader{}, cderror.New(cderror.BadSyncPattern)
	}
	for i := 1; i < 11; i++ {
		if header[i] != 0xff {
			return CdRomHeader{}, cderror.New(cderror.BadSyncPattern)
		}
	}

	mByte := header[12]
	if s.q.IsLeadIn() {
		mByte = 0x90 | (mByte & 0x0f)
	}

	m, ok := bcd.FromBcd(mByte)
	if !ok {
		return CdRomHeader{}, cderror.New(cderror.BadBcd)
	}
	sec, ok := bcd.FromBcd(header[13])
	if !ok {
		return CdRomHeader{}, cderror.New(cderror.BadBcd)
	}
	frac, ok := bcd.FromBcd(header[14])
	if !ok {
		return CdRomHeader{}, cderror.New(cderror.BadBcd)
	}
	addr, ok := msf.FromBcd(m, sec, frac)
	if !ok {
		return CdRomHeader{}, cderror.New(cderror.BadBcd)
	}

	var mode CdRomMode
	switch header[15] {
	case 1:
		mode = CdRomMode1
	case 2:
		mode = CdRomMode2
	default:
		return CdRomHeader{}, cderror.New(cderror.BadFormat)
	}

	return CdRomHeader{Msf: addr, Mode: mode}, nil
}

// Mode2XaSubheader returns the XA subheader. Fails with BadFormat
// unless this is a Mode2Xa sector whose header mode is 2.
func (s *Sector) Mode2XaSubheader() (XaSubHeader, error) {
	header, err := s.CdromHeader()
	if err != nil {
		return XaSubHeader{}, err
	}
	if s.format != Mode2Xa || header.Mode != CdRomMode2 {
		return XaSubHeader{}, cderror.New(cderror.BadFormat)
	}

	var sh [8]byte
	copy(sh[:], s.data[16:24])
	return XaSubHeader(sh), nil
}

// Mode2XaPayload returns the user-data payload of a Mode 2 XA sector:
// 2048 bytes (Form 1) or 2324 bytes (Form 2) depending on the
// subheader's form bit.
func (s *Sector) Mode2XaPayload() ([]byte, error) {
	sh, err := s.Mode2XaSubheader()
	if err != nil {
		return nil, err
	}

	switch sh.Submode().Form() {
	case XaForm1:
		return s.data[24:2072], nil
	default:
		return s.data[24:2348], nil
	}
}
