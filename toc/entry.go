package toc

import (
	"fmt"
	"strings"

	"github.com/aiSzzPL-retroio/cdimage/bcd"
	"github.com/aiSzzPL-retroio/cdimage/cderror"
	"github.com/aiSzzPL-retroio/cdimage/msf"
	"github.com/aiSzzPL-retroio/cdimage/sector"
	"github.com/aiSzzPL-retroio/cdimage/subq"
)

// Track is one entry of a built Toc: a track number, its on-disc
// format, where it starts (at INDEX 01, after any pregap) and its
// length.
type Track struct {
	Track   bcd.Bcd
	Format  sector.TrackFormat
	Start   msf.Msf
	Length  msf.Msf
	Control subq.AdrControl
}

// Toc is the assembled table of contents for a disc: every track from
// 01 up to the first gap.
type Toc struct {
	Tracks []Track
}

// NewToc rejects an empty track list; every other caller goes through
// IndexCache.Toc instead of this directly.
func NewToc(tracks []Track) (*Toc, error) {
	if len(tracks) == 0 {
		return nil, cderror.New(cderror.EmptyToc)
	}
	return &Toc{Tracks: tracks}, nil
}

// LeadOutStart is the first sector past the last track.
func (t *Toc) LeadOutStart() msf.Msf {
	last := t.Tracks[len(t.Tracks)-1]
	sum, _ := last.Start.CheckedAdd(last.Length)
	return sum
}

// SessionFormat derives the disc's session format from its tracks: a
// CD-i track wins over an XA track, which wins over plain CD-DA/CD-ROM.
func (t *Toc) SessionFormat() subq.SessionFormat {
	for _, tr := range t.Tracks {
		if tr.Format == sector.Mode2CdI {
			return subq.Cdi
		}
	}
	for _, tr := range t.Tracks {
		if tr.Format == sector.Mode2Xa {
			return subq.CdXa
		}
	}
	return subq.CdDaCdRom
}

// String renders the table of contents the way a disc-info tool would
// display it.
func (t *Toc) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s session, %d track(s), lead-out at %s\n",
		t.SessionFormat(), len(t.Tracks), t.LeadOutStart())

	for _, tr := range t.Tracks {
		fmt.Fprintf(&b, "  Track %s %-8s start %s length %s\n",
			tr.Track, tr.Format, tr.Start, tr.Length)
	}

	return b.String()
}

// BuildTocSector synthesises the lead-in sector addressed by
// leadInMsf, mapping it to one of the Toc's n_tracks+3 entries
// (0xA0/0xA1/0xA2 plus one per track), each repeated three times
// consecutively per ECMA-130.
//
// The 0xA1/0xA2 pointers borrow their ADR/CONTROL bits and sector
// format from the last track (spec calls this track the "format
// template" for those two entries); 0xA0 borrows the first track's, and
// each track entry its own track's.
func (t *Toc) BuildTocSector(leadInMsf msf.Msf) (*sector.Sector, error) {
	leadOut := t.LeadOutStart()
	nEntries := uint32(len(t.Tracks) + 3)

	i := leadOut.SectorIndex() - 1 - leadInMsf.SectorIndex()
	entry := nEntries - 1 - ((i / 3) % nEntries)

	firstTrack := t.Tracks[0]
	lastTrack := t.Tracks[len(t.Tracks)-1]

	var data subq.QData
	var control subq.AdrControl
	var format sector.TrackFormat

	switch entry {
	case 0:
		data = subq.Mode1TocFirstTrack{
			FirstTrack:    firstTrack.Track,
			SessionFormat: t.SessionFormat(),
			LeadInMsf:     leadInMsf,
		}
		control = firstTrack.Control
		format = firstTrack.Format
	case 1:
		data = subq.Mode1TocLastTrack{LastTrack: lastTrack.Track, LeadInMsf: leadInMsf}
		control = lastTrack.Control
		format = lastTrack.Format
	case 2:
		data = subq.Mode1TocLeadOut{LeadOutStart: leadOut, LeadInMsf: leadInMsf}
		control = lastTrack.Control
		format = lastTrack.Format
	default:
		tr := t.Tracks[entry-3]
		data = subq.Mode1Toc{Track: tr.Track, Index1Msf: tr.Start, LeadInMsf: leadInMsf}
		control = tr.Control
		format = tr.Format
	}

	return sector.Empty(subq.NewQ(data, control), format)
}

// BuildLeadOutSector synthesises the lead-out sector at absolute
// position m, in the last track's format.
func (t *Toc) BuildLeadOutSector(m msf.Msf) (*sector.Sector, error) {
	leadOut := t.LeadOutStart()

	leadOutMsf, ok := m.CheckedSub(leadOut)
	if !ok {
		return nil, cderror.New(cderror.InvalidLeadOutPosition)
	}

	lastTrack := t.Tracks[len(t.Tracks)-1]
	data := subq.Mode1LeadOut{LeadOutMsf: leadOutMsf, DiscMsf: m}

	return sector.Empty(subq.NewQ(data, lastTrack.Control), lastTrack.Format)
}
