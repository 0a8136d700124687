package cue

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiSzzPL-retroio/cdimage/bcd"
	"github.com/aiSzzPL-retroio/cdimage/cderror"
	"github.com/aiSzzPL-retroio/cdimage/discpos"
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

// oneTrackImage builds a single-track disc out of count all-zero
// sectors and the given TRACK format keyword.
func oneTrackImage(t *testing.T, format string, count int) *Cue {
	t.Helper()

	sheet := "FILE \"disc.bin\" BINARY\n" +
		"  TRACK 01 " + format + "\n" +
		"    INDEX 01 00:00:00\n"
	cuePath := writeImage(t, sheet, map[string][]byte{"disc.bin": zeroSectors(count)})

	c, err := New(cuePath)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	return c
}

func TestReadSectorEmptyMode1(t *testing.T) {
	c := oneTrackImage(t, "MODE1/2352", 4500)

	got, err := c.ReadSector(discpos.NewProgram(mustMsf(t, 0, 2, 14)))
	require.NoError(t, err)

	// An all-zero BIN sector comes back with a regenerated header and
	// parity: exactly what a blank Mode 1 sector at that address looks
	// like.
	q := subq.NewQ(subq.Mode1{
		Track:    bcd.One,
		Index:    bcd.One,
		TrackMsf: mustMsf(t, 0, 0, 14),
		DiscMsf:  mustMsf(t, 0, 2, 14),
	}, subq.Mode1Data)
	want, err := sector.Empty(q, sector.Mode1)
	require.NoError(t, err)

	assert.Equal(t, want.Data2352(), got.Data2352())
	assert.Equal(t, want.Q().ToRaw(), got.Q().ToRaw())
	assert.True(t, got.EdcValid())

	header, err := got.CdromHeader()
	require.NoError(t, err)
	assert.Equal(t, sector.CdRomMode1, header.Mode)
	assert.Equal(t, mustMsf(t, 0, 2, 14), header.Msf)
}

func TestReadSectorEmptyMode2XaForm1(t *testing.T) {
	c := oneTrackImage(t, "MODE2/2352", 4500)

	got, err := c.ReadSector(discpos.NewProgram(mustMsf(t, 0, 2, 3)))
	require.NoError(t, err)

	q := subq.NewQ(subq.Mode1{
		Track:    bcd.One,
		Index:    bcd.One,
		TrackMsf: mustMsf(t, 0, 0, 3),
		DiscMsf:  mustMsf(t, 0, 2, 3),
	}, subq.Mode1Data)
	want, err := sector.Empty(q, sector.Mode2Xa)
	require.NoError(t, err)

	assert.Equal(t, want.Data2352(), got.Data2352())
	assert.True(t, got.EdcValid())

	// In-track Mode 2 defaults to Data, Form 1.
	subheader, err := got.Mode2XaSubheader()
	require.NoError(t, err)
	assert.Equal(t, sector.XaForm1, subheader.Submode().Form())

	payload, err := got.Mode2XaPayload()
	require.NoError(t, err)
	assert.Len(t, payload, 2048)
}

func TestReadSectorTrack1Pregap(t *testing.T) {
	c := oneTrackImage(t, "MODE1/2352", 4500)

	got, err := c.ReadSector(discpos.Zero)
	require.NoError(t, err)

	q := got.Q()
	assert.True(t, q.IsPregap())

	// The track MSF counts down through the pregap towards INDEX 01.
	data, ok := q.Data().(subq.Mode1)
	require.True(t, ok)
	assert.Equal(t, uint32(150), data.TrackMsf.SectorIndex())
	assert.Equal(t, msf.Zero, data.DiscMsf)

	assert.True(t, got.EdcValid())
}

func TestReadSectorLeadIn(t *testing.T) {
	c := oneTrackImage(t, "MODE1/2352", 4500)

	got, err := c.ReadSector(discpos.Innermost)
	require.NoError(t, err)

	assert.True(t, got.Q().IsLeadIn())
	assert.True(t, got.EdcValid())
}

func TestReadSectorLeadOut(t *testing.T) {
	c := oneTrackImage(t, "MODE1/2352", 4500)

	// 4500 data sectors plus the 150 sector pregap put the lead-out at
	// 01:02:00.
	leadOut := mustMsf(t, 1, 2, 0)
	assert.Equal(t, leadOut, c.Toc().LeadOutStart())

	got, err := c.ReadSector(discpos.NewProgram(leadOut))
	require.NoError(t, err)

	require.True(t, got.Q().IsLeadOut())
	data, ok := got.Q().Data().(subq.Mode1LeadOut)
	require.True(t, ok)
	assert.Equal(t, msf.Zero, data.LeadOutMsf)
	assert.Equal(t, leadOut, data.DiscMsf)
}

func TestReadSectorAudioPassThrough(t *testing.T) {
	sheet := "FILE \"disc.bin\" BINARY\n" +
		"  TRACK 01 AUDIO\n" +
		"    INDEX 01 00:00:00\n"

	// Non-zero samples so pass-through is observable.
	bin := zeroSectors(300)
	for i := range bin {
		bin[i] = byte(i)
	}
	cuePath := writeImage(t, sheet, map[string][]byte{"disc.bin": bin})

	c, err := New(cuePath)
	require.NoError(t, err)
	defer c.Close()

	got, err := c.ReadSector(discpos.NewProgram(mustMsf(t, 0, 2, 1)))
	require.NoError(t, err)

	assert.Equal(t, (*[2352]byte)(bin[2352:4704]), got.Data2352())
	assert.True(t, got.Q().IsAudio())

	_, err = got.CdromHeaderRaw()
	assert.True(t, cderror.Is(err, cderror.BadFormat))
}

func TestReadSectorNon2352Unsupported(t *testing.T) {
	sheet := "FILE \"disc.bin\" BINARY\n" +
		"  TRACK 01 MODE1/2048\n" +
		"    INDEX 01 00:00:00\n"
	cuePath := writeImage(t, sheet, map[string][]byte{"disc.bin": make([]byte, 300*2048)})

	c, err := New(cuePath)
	require.NoError(t, err)
	defer c.Close()

	// The sheet parses fine; only reading fails fast.
	assert.Len(t, c.Toc().Tracks, 1)

	_, err = c.ReadSector(discpos.NewProgram(mustMsf(t, 0, 2, 0)))
	require.Error(t, err)
	assert.True(t, cderror.Is(err, cderror.Unsupported))
}

func TestImageFormat(t *testing.T) {
	c := oneTrackImage(t, "MODE1/2352", 300)
	assert.Equal(t, "CUE", c.ImageFormat())
}

// writeZipImage packs a CUE sheet and its BINs into a ZIP archive and
// returns the archive's path.
func writeZipImage(t *testing.T, sheet string, bins map[string][]byte) string {
	t.Helper()

	zipPath := filepath.Join(t.TempDir(), "disc.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, data := range bins {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write(data)
		require.NoError(t, err)
	}
	entry, err := w.Create("disc.cue")
	require.NoError(t, err)
	_, err = entry.Write([]byte(sheet))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return zipPath
}

func TestNewFromZip(t *testing.T) {
	sheet := "FILE \"disc.bin\" BINARY\n" +
		"  TRACK 01 MODE1/2352\n" +
		"    INDEX 01 00:00:00\n"
	zipPath := writeZipImage(t, sheet, map[string][]byte{"disc.bin": zeroSectors(300)})

	c, err := NewFromZip(zipPath)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "ZIP+CUE", c.ImageFormat())
	assert.Len(t, c.Toc().Tracks, 1)

	// Two reads of the same blob exercise the decompress-once cache.
	for i := 0; i < 2; i++ {
		got, err := c.ReadSector(discpos.NewProgram(mustMsf(t, 0, 2, 14)))
		require.NoError(t, err)
		assert.True(t, got.EdcValid())
	}
}

func TestNewFromZipNoCue(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "disc.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	entry, err := w.Create("readme.txt")
	require.NoError(t, err)
	_, err = entry.Write([]byte("nothing here"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	_, err = NewFromZip(zipPath)
	require.Error(t, err)
	assert.True(t, cderror.Is(err, cderror.BadImage))
}

func TestNewFromZipMissingBin(t *testing.T) {
	sheet := "FILE \"other.bin\" BINARY\n" +
		"  TRACK 01 MODE1/2352\n" +
		"    INDEX 01 00:00:00\n"
	zipPath := writeZipImage(t, sheet, map[string][]byte{"disc.bin": zeroSectors(10)})

	_, err := NewFromZip(zipPath)
	require.Error(t, err)
	assert.True(t, cderror.Is(err, cderror.IoError))
}
