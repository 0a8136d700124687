// Package toc implements the generic index cache and table-of-contents
// builder shared by every image format backend.
//
// Index and IndexCache are generic over the backend-specific "private"
// payload (for this module, a cue.Storage), so this package never
// needs to import cue.
package toc

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aiSzzPL-retroio/cdimage/bcd"
	"github.com/aiSzzPL-retroio/cdimage/cderror"
	"github.com/aiSzzPL-retroio/cdimage/msf"
	"github.com/aiSzzPL-retroio/cdimage/sector"
	"github.com/aiSzzPL-retroio/cdimage/subq"
)

// Index is one entry of an image's table of contents: the sector it
// starts at, which track/index number it belongs to, and the
// backend-specific Private payload needed to actually read its bytes.
type Index[T any] struct {
	sectorIndex uint32
	index       bcd.Bcd
	track       bcd.Bcd
	format      sector.TrackFormat
	session     uint8
	control     subq.AdrControl
	private     T
}

// NewIndex builds an Index for the sector at start.
func NewIndex[T any](index, track bcd.Bcd, start msf.Msf, format sector.TrackFormat, session uint8, control subq.AdrControl, private T) Index[T] {
	return Index[T]{
		sectorIndex: start.SectorIndex(),
		index:       index,
		track:       track,
		format:      format,
		session:     session,
		control:     control,
		private:     private,
	}
}

func (i Index[T]) SectorIndex() uint32 { return i.sectorIndex }

func (i Index[T]) Msf() msf.Msf {
	m, _ := msf.FromSectorIndex(i.sectorIndex)
	return m
}

// Private returns the backend-specific payload (a cue.Storage, in this
// module).
func (i Index[T]) Private() *T { return &i.private }

func (i Index[T]) Control() subq.AdrControl     { return i.control }
func (i Index[T]) Index() bcd.Bcd               { return i.index }
func (i Index[T]) Track() bcd.Bcd               { return i.track }
func (i Index[T]) Format() sector.TrackFormat   { return i.format }
func (i Index[T]) Session() uint8               { return i.session }

// IsPregap reports whether this is INDEX 00 of its track.
func (i Index[T]) IsPregap() bool { return i.index.Binary() == 0 }

// IndexCache is the ordered, immutable table of every Index on a disc,
// plus the absolute sector index of the lead-out. Built once by a
// parser, then used read-only for lookups.
type IndexCache[T any] struct {
	indices []Index[T]
	leadOut uint32
}

// NewIndexCache sorts indices by sector index and validates that the
// disc structure is sane: non-empty, and starting with track 01's
// pregap at sector 0. path is only used to annotate a BadImage error.
func NewIndexCache[T any](path string, indices []Index[T], leadOut msf.Msf) (*IndexCache[T], error) {
	if len(indices) == 0 {
		return nil, cderror.BadImageErr(path, "empty disc")
	}

	sort.Slice(indices, func(a, b int) bool {
		return indices[a].sectorIndex < indices[b].sectorIndex
	})

	if indices[0].sectorIndex != 0 {
		return nil, cderror.BadImageErr(path, fmt.Sprintf("track 01's pregap starts at %s", indices[0].Msf()))
	}

	return &IndexCache[T]{indices: indices, leadOut: leadOut.SectorIndex()}, nil
}

// LeadOut returns the MSF of the first lead-out sector.
func (c *IndexCache[T]) LeadOut() msf.Msf {
	m, _ := msf.FromSectorIndex(c.leadOut)
	return m
}

// Get returns the index at pos, or false if pos is out of bounds.
func (c *IndexCache[T]) Get(pos int) (*Index[T], bool) {
	if pos < 0 || pos >= len(c.indices) {
		return nil, false
	}
	return &c.indices[pos], true
}

// FindIndexForMsf locates the index directly at or before m. Returns
// ok=false if m is in (or past) the lead-out.
func (c *IndexCache[T]) FindIndexForMsf(m msf.Msf) (pos int, idx *Index[T], ok bool) {
	sec := m.SectorIndex()
	if sec >= c.leadOut {
		return 0, nil, false
	}

	i := sort.Search(len(c.indices), func(i int) bool {
		return c.indices[i].sectorIndex >= sec
	})
	if i == len(c.indices) || c.indices[i].sectorIndex != sec {
		i--
	}

	return i, &c.indices[i], true
}

// FindIndexForTrack locates the given (track, index) pair.
func (c *IndexCache[T]) FindIndexForTrack(track, index bcd.Bcd) (pos int, idx *Index[T], err error) {
	i := sort.Search(len(c.indices), func(i int) bool {
		e := c.indices[i]
		if e.track.Binary() != track.Binary() {
			return e.track.Binary() > track.Binary()
		}
		return e.index.Binary() >= index.Binary()
	})

	if i < len(c.indices) && c.indices[i].track.Binary() == track.Binary() && c.indices[i].index.Binary() == index.Binary() {
		return i, &c.indices[i], nil
	}

	return 0, nil, cderror.New(cderror.BadTrack)
}

// FindIndex01ForTrack locates INDEX 01 of track.
func (c *IndexCache[T]) FindIndex01ForTrack(track bcd.Bcd) (pos int, idx *Index[T], err error) {
	return c.FindIndexForTrack(track, bcd.One)
}

// TrackLength returns the length of track starting at INDEX 01 (not
// counting its pregap), along with the position and Index of INDEX 01.
func (c *IndexCache[T]) TrackLength(track bcd.Bcd) (length msf.Msf, pos01 int, index01 *Index[T], err error) {
	pos01, index01, err = c.FindIndex01ForTrack(track)
	if err != nil {
		return msf.Msf{}, 0, nil, err
	}

	end := c.leadOut
	for i := pos01 + 1; i < len(c.indices); i++ {
		if c.indices[i].track.Binary() != track.Binary() {
			end = c.indices[i].sectorIndex
			break
		}
	}

	length, ok := msf.FromSectorIndex(end - index01.sectorIndex)
	if !ok {
		return msf.Msf{}, 0, nil, cderror.New(cderror.InvalidMsf)
	}

	return length, pos01, index01, nil
}

// TrackMsf returns the absolute Msf for position trackMsf within
// track, or EndOfTrack if trackMsf is past the track's length.
func (c *IndexCache[T]) TrackMsf(track bcd.Bcd, trackMsf msf.Msf) (msf.Msf, error) {
	length, _, index01, err := c.TrackLength(track)
	if err != nil {
		return msf.Msf{}, err
	}

	if trackMsf.Cmp(length) >= 0 {
		return msf.Msf{}, cderror.New(cderror.EndOfTrack)
	}

	sum, ok := index01.Msf().CheckedAdd(trackMsf)
	if !ok {
		return msf.Msf{}, cderror.New(cderror.InvalidMsf)
	}

	return sum, nil
}

// Toc builds a table of contents from the cache's current contents, by
// walking track numbers 1..=99 and stopping at the first one that
// isn't present.
func (c *IndexCache[T]) Toc() (*Toc, error) {
	var tracks []Track

	for b := uint8(1); b <= 99; b++ {
		trackNo, ok := bcd.FromBinary(b)
		if !ok {
			break
		}

		length, _, idx, err := c.TrackLength(trackNo)
		if err != nil {
			break
		}

		tracks = append(tracks, Track{
			Track:   trackNo,
			Format:  idx.format,
			Start:   idx.Msf(),
			Length:  length,
			Control: idx.control,
		})
	}

	return NewToc(tracks)
}

// String renders the cache the way a disc-structure dump tool would:
// indices grouped by session, then track.
func (c *IndexCache[T]) String() string {
	var b strings.Builder

	forceDisplay := true
	var session uint8
	track := bcd.Zero

	for _, idx := range c.indices {
		if idx.session != session || forceDisplay {
			fmt.Fprintf(&b, "Session %d:\n", idx.session)
			session = idx.session
			forceDisplay = true
		}

		if idx.track.Binary() != track.Binary() || forceDisplay {
			fmt.Fprintf(&b, "  Track %s %s:\n", idx.track, idx.format)
			track = idx.track
			forceDisplay = false
		}

		fmt.Fprintf(&b, "    Index %s: %s\n", idx.index, idx.Msf())
	}

	fmt.Fprintf(&b, "Lead-out: %s\n", c.LeadOut())

	return b.String()
}
