package toc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiSzzPL-retroio/cdimage/bcd"
	"github.com/aiSzzPL-retroio/cdimage/msf"
	"github.com/aiSzzPL-retroio/cdimage/sector"
	"github.com/aiSzzPL-retroio/cdimage/subq"
)

func mustMsf(t *testing.T, m, s, f uint8) msf.Msf {
	t.Helper()
	v, ok := msf.New(m, s, f)
	require.True(t, ok)
	return v
}

// buildTwoTrackCache builds a two-track Mode1 data disc: track 01 runs
// sectors 150..300 (after its 150-sector pregap at 0..150), track 02
// runs 300..600, lead-out starts at 600.
func buildTwoTrackCache(t *testing.T) *IndexCache[int] {
	t.Helper()

	pregapMsf := mustMsf(t, 0, 0, 0)
	track1Index1 := mustMsf(t, 0, 2, 0)
	track2Index1 := mustMsf(t, 0, 4, 0)
	leadOut := mustMsf(t, 0, 8, 0)

	indices := []Index[int]{
		NewIndex(bcd.Zero, bcd.One, pregapMsf, sector.Mode1, 1, subq.Mode1Data, 0),
		NewIndex(bcd.One, bcd.One, track1Index1, sector.Mode1, 1, subq.Mode1Data, 1),
		NewIndex(bcd.One, bcd.Table[2], track2Index1, sector.Mode1, 1, subq.Mode1Data, 2),
	}

	cache, err := NewIndexCache("test.cue", indices, leadOut)
	require.NoError(t, err)
	return cache
}

func TestIndexCacheRejectsEmpty(t *testing.T) {
	_, err := NewIndexCache[int]("x.cue", nil, msf.Zero)
	assert.Error(t, err)
}

func TestIndexCacheRejectsBadPregapStart(t *testing.T) {
	nonZero := mustMsf(t, 0, 0, 1)
	indices := []Index[int]{
		NewIndex(bcd.One, bcd.One, nonZero, sector.Mode1, 1, subq.Mode1Data, 0),
	}
	_, err := NewIndexCache("x.cue", indices, mustMsf(t, 0, 2, 0))
	assert.Error(t, err)
}

func TestFindIndexForMsf(t *testing.T) {
	cache := buildTwoTrackCache(t)

	pos, idx, ok := cache.FindIndexForMsf(mustMsf(t, 0, 3, 0))
	require.True(t, ok)
	assert.Equal(t, 1, pos)
	assert.Equal(t, 1, *idx.Private())

	_, _, ok = cache.FindIndexForMsf(mustMsf(t, 0, 8, 0))
	assert.False(t, ok)
}

func TestTrackLengthAndMsf(t *testing.T) {
	cache := buildTwoTrackCache(t)

	length, _, _, err := cache.TrackLength(bcd.One)
	require.NoError(t, err)
	assert.Equal(t, uint32(150), length.SectorIndex())

	length2, _, _, err := cache.TrackLength(bcd.Table[2])
	require.NoError(t, err)
	assert.Equal(t, uint32(300), length2.SectorIndex())

	got, err := cache.TrackMsf(bcd.One, mustMsf(t, 0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, mustMsf(t, 0, 3, 0), got)

	_, err = cache.TrackMsf(bcd.One, mustMsf(t, 0, 2, 0))
	assert.Error(t, err)
}

func TestTocBuild(t *testing.T) {
	cache := buildTwoTrackCache(t)

	toc, err := cache.Toc()
	require.NoError(t, err)
	require.Len(t, toc.Tracks, 2)
	assert.Equal(t, mustMsf(t, 0, 8, 0), toc.LeadOutStart())
	assert.Equal(t, subq.CdDaCdRom, toc.SessionFormat())
}

func TestBuildTocSectorEntries(t *testing.T) {
	cache := buildTwoTrackCache(t)
	toc, err := cache.Toc()
	require.NoError(t, err)

	leadOut := toc.LeadOutStart()
	innermost := mustMsf(t, 97, 30, 0)

	// With 2 tracks there are 5 entries, cycling A0,A1,A2,T1,T2 as the
	// lead-in MSF increases. Per the i = leadOut-1-msf formula the
	// highest addresses map to the last track's entry, each entry
	// repeated three times.
	for off := uint32(1); off <= 3; off++ {
		leadInMsf, ok := msf.FromSectorIndex(leadOut.SectorIndex() - off)
		require.True(t, ok)

		s, err := toc.BuildTocSector(leadInMsf)
		require.NoError(t, err)

		entry, isTrack := s.Q().Data().(subq.Mode1Toc)
		require.True(t, isTrack)
		assert.Equal(t, uint8(2), entry.Track.Binary())
	}

	// Six sectors further in, the A2 (lead-out pointer) slot.
	leadInMsf, ok := msf.FromSectorIndex(leadOut.SectorIndex() - 1 - 6)
	require.True(t, ok)

	s, err := toc.BuildTocSector(leadInMsf)
	require.NoError(t, err)
	a2, isA2 := s.Q().Data().(subq.Mode1TocLeadOut)
	require.True(t, isA2)
	assert.Equal(t, leadOut, a2.LeadOutStart)

	_, err = toc.BuildTocSector(innermost)
	require.NoError(t, err)
}

func TestBuildLeadOutSector(t *testing.T) {
	cache := buildTwoTrackCache(t)
	toc, err := cache.Toc()
	require.NoError(t, err)

	leadOut := toc.LeadOutStart()
	s, err := toc.BuildLeadOutSector(leadOut)
	require.NoError(t, err)

	q := s.Q()
	assert.True(t, q.IsLeadOut())
	lo, ok := q.Data().(subq.Mode1LeadOut)
	require.True(t, ok)
	assert.Equal(t, msf.Zero, lo.LeadOutMsf)
}
