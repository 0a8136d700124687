// Package cue implements the BIN/CUE image format.
//
// The CUE sheet format was created for the CDRWIN burning software.
// The format was described in the CDRWIN user guide but many
// extensions and variations exist. The CUE file format does not
// support multi-session discs.
package cue

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aiSzzPL-retroio/cdimage/cderror"
	"github.com/aiSzzPL-retroio/cdimage/discpos"
	"github.com/aiSzzPL-retroio/cdimage/msf"
	"github.com/aiSzzPL-retroio/cdimage/sector"
	"github.com/aiSzzPL-retroio/cdimage/storage"
	"github.com/aiSzzPL-retroio/cdimage/subq"
	"github.com/aiSzzPL-retroio/cdimage/toc"
)

// CueSheetMaxLength is the maximum accepted size for a CUE sheet, used
// to detect bogus input early without attempting to load a huge file
// to RAM. Sheets bigger than this are rejected before being read.
const CueSheetMaxLength = 1024 * 1024

// TrackType is the on-disk sector layout declared by a TRACK command.
type TrackType int

const (
	// Audio is a CD-DA audio track (red book audio).
	Audio TrackType = iota
	// Mode1Data is CD-ROM MODE1/2048 (only data, no header or EDC/ECC).
	Mode1Data
	// Mode1Raw is CD-ROM MODE1/2352.
	Mode1Raw
	// Mode2Headerless is CD-ROM XA MODE2/2336 (without the 16 byte header).
	Mode2Headerless
	// Mode2Raw is CD-ROM XA MODE2/2352.
	Mode2Raw
	// CdIHeaderless is CD-I CDI/2336 (without the 16 byte header).
	CdIHeaderless
	// CdIRaw is CD-I CDI/2352.
	CdIRaw
)

// SectorSize returns the on-disk size of one sector of this type.
func (t TrackType) SectorSize() uint32 {
	switch t {
	case Mode1Data:
		return 2048
	case Mode2Headerless, CdIHeaderless:
		return 2336
	default:
		return 2352
	}
}

// StorageKind discriminates where an index's sectors come from.
type StorageKind int

const (
	// StorageBin sectors are stored in a portion of a BIN file.
	StorageBin StorageKind = iota
	// StoragePreGap sectors are not stored anywhere and must be
	// regenerated as empty sectors.
	StoragePreGap
)

// Storage locates an index's sectors: either a (bin file, byte offset)
// pair plus the on-disk sector layout, or a synthetic pregap.
type Storage struct {
	kind      StorageKind
	bin       uint32
	offset    uint64
	trackType TrackType
}

// PreGap is the Storage for an index that isn't backed by any BIN.
var PreGap = Storage{kind: StoragePreGap}

// BinStorage builds a Storage for sectors starting at byte offset
// within the BIN file identified by bin.
func BinStorage(bin uint32, offset uint64, trackType TrackType) Storage {
	return Storage{kind: StorageBin, bin: bin, offset: offset, trackType: trackType}
}

// IsPreGap reports whether s is a synthetic pregap.
func (s Storage) IsPreGap() bool { return s.kind == StoragePreGap }

// binSource is where BIN files are loaded from: the CUE sheet's parent
// directory, or the ZIP archive the sheet was found in.
type binSource interface {
	// open resolves name (as it appears in the FILE command) to a blob
	// and its size in bytes.
	open(name string) (binaryBlob, uint64, error)
	// format names the container for Cue.ImageFormat.
	format() string
	io.Closer
}

// binaryBlob is one opened BIN file, randomly addressable by byte
// offset.
type binaryBlob interface {
	readAt(buf []byte, offset uint64) error
	io.Closer
}

// fsSource loads BIN files relative to the CUE sheet's directory.
type fsSource struct {
	dir string
}

func (s *fsSource) open(name string) (binaryBlob, uint64, error) {
	// An absolute BIN path replaces the CUE's parent directory
	// completely. On Unix the name bytes are used verbatim as a path;
	// elsewhere the OS layer requires them to decode as UTF-8.
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.dir, name)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, cderror.Wrapf(err, cderror.IoError, "opening BIN file %q", path)
	}

	md, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, cderror.Wrapf(err, cderror.IoError, "reading BIN metadata for %q", path)
	}

	return &fsBlob{f: f}, uint64(md.Size()), nil
}

func (s *fsSource) format() string { return "CUE" }

func (s *fsSource) Close() error { return nil }

type fsBlob struct {
	f *os.File
}

func (b *fsBlob) readAt(buf []byte, offset uint64) error {
	if _, err := b.f.ReadAt(buf, int64(offset)); err != nil {
		return cderror.Wrapf(err, cderror.IoError, "reading %q", b.f.Name())
	}
	return nil
}

func (b *fsBlob) Close() error { return b.f.Close() }

// zipSource loads BIN files from the ZIP archive the CUE sheet came
// from, by exact (bytewise) name match.
type zipSource struct {
	archive *zip.ReadCloser
	path    string
}

func (s *zipSource) open(name string) (binaryBlob, uint64, error) {
	for _, f := range s.archive.File {
		if f.Name == name {
			return &zipBlob{entry: f}, f.UncompressedSize64, nil
		}
	}

	return nil, 0, cderror.Wrap(nil, cderror.IoError, fmt.Sprintf("couldn't find %q in %q", name, s.path))
}

func (s *zipSource) format() string { return "ZIP+CUE" }

func (s *zipSource) Close() error { return s.archive.Close() }

// zipBlob is a BIN stored compressed in the archive. The contents are
// decompressed on first access and kept for the lifetime of the image.
type zipBlob struct {
	entry *zip.File
	data  []byte
}

func (b *zipBlob) readAt(buf []byte, offset uint64) error {
	if b.data == nil {
		rc, err := b.entry.Open()
		if err != nil {
			return cderror.Wrapf(err, cderror.ZipError, "decompressing %q", b.entry.Name)
		}
		data, err := io.ReadAll(storage.NewReader(rc))
		rc.Close()
		if err != nil {
			return cderror.Wrapf(err, cderror.ZipError, "decompressing %q", b.entry.Name)
		}
		b.data = data
	}

	end := offset + uint64(len(buf))
	if end > uint64(len(b.data)) {
		return cderror.Wrap(nil, cderror.IoError, fmt.Sprintf("read past the end of %q", b.entry.Name))
	}

	copy(buf, b.data[offset:end])
	return nil
}

func (b *zipBlob) Close() error { return nil }

// Cue is a parsed BIN/CUE image: the index cache built from the sheet,
// the table of contents derived from it and the opened BIN blobs.
type Cue struct {
	indices *toc.IndexCache[Storage]
	toc     *toc.Toc
	source  binSource
	bins    []binaryBlob
}

// New parses the CUE sheet at cuePath, opens the BIN files it
// references and builds a Cue image.
func New(cuePath string) (*Cue, error) {
	md, err := os.Stat(cuePath)
	if err != nil {
		return nil, cderror.Wrapf(err, cderror.IoError, "reading CUE metadata for %q", cuePath)
	}
	if md.Size() > CueSheetMaxLength {
		return nil, cderror.BadImageErr(cuePath, "CUE sheet is too big")
	}

	f, err := os.Open(cuePath)
	if err != nil {
		return nil, cderror.Wrapf(err, cderror.IoError, "opening %q", cuePath)
	}
	defer f.Close()

	sheet, err := io.ReadAll(storage.NewReader(f))
	if err != nil {
		return nil, cderror.Wrapf(err, cderror.IoError, "reading %q", cuePath)
	}

	source := &fsSource{dir: filepath.Dir(cuePath)}

	return parseCue(cuePath, source, sheet)
}

// NewFromZip opens the ZIP archive at zipPath, takes the first entry
// with a .cue/.CUE extension and parses it, resolving BIN files inside
// the same archive.
func NewFromZip(zipPath string) (*Cue, error) {
	archive, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, cderror.Wrapf(err, cderror.ZipError, "opening %q", zipPath)
	}

	for _, f := range archive.File {
		ext := filepath.Ext(f.Name)
		if ext != ".cue" && ext != ".CUE" {
			continue
		}

		cuePath := filepath.Join(zipPath, f.Name)

		if f.UncompressedSize64 > CueSheetMaxLength {
			archive.Close()
			return nil, cderror.BadImageErr(cuePath, "CUE sheet is too big")
		}

		rc, err := f.Open()
		if err != nil {
			archive.Close()
			return nil, cderror.Wrapf(err, cderror.ZipError, "decompressing %q", f.Name)
		}
		sheet, err := io.ReadAll(storage.NewReader(rc))
		rc.Close()
		if err != nil {
			archive.Close()
			return nil, cderror.Wrapf(err, cderror.ZipError, "decompressing %q", f.Name)
		}

		source := &zipSource{archive: archive, path: zipPath}

		c, err := parseCue(cuePath, source, sheet)
		if err != nil {
			archive.Close()
			return nil, err
		}
		return c, nil
	}

	archive.Close()
	return nil, cderror.BadImageErr(zipPath, "No CUE file found in archive")
}

// ImageFormat names the image format, mentioning the container when
// the sheet came out of an archive.
func (c *Cue) ImageFormat() string { return c.source.format() }

// Toc returns the table of contents built when the sheet was parsed.
func (c *Cue) Toc() *toc.Toc { return c.toc }

// Close releases the BIN file handles (and the ZIP archive, if any)
// owned by this image.
func (c *Cue) Close() error {
	var first error
	for _, b := range c.bins {
		if err := b.Close(); err != nil && first == nil {
			first = err
		}
	}
	if err := c.source.Close(); err != nil && first == nil {
		first = err
	}
	return first
}

// String renders the image's index structure, for diagnostics.
func (c *Cue) String() string { return c.indices.String() }

// ReadSector returns the fully-formed 2352-byte sector at dp:
// synthesised ToC sectors in the lead-in, synthesised lead-out sectors
// past the last track, and BIN-backed (or regenerated pregap) sectors
// in between.
func (c *Cue) ReadSector(dp discpos.DiscPosition) (*sector.Sector, error) {
	if dp.InLeadIn() {
		return c.toc.BuildTocSector(dp.Msf())
	}

	m := dp.Msf()

	_, idx, ok := c.indices.FindIndexForMsf(m)
	if !ok {
		return c.toc.BuildLeadOutSector(m)
	}

	_, index01, err := c.indices.FindIndex01ForTrack(idx.Track())
	if err != nil {
		return nil, err
	}

	// The track-relative MSF counts up from INDEX 01 and counts *down*
	// through the pregap towards it.
	var trackMsf msf.Msf
	if idx.IsPregap() {
		trackMsf, ok = index01.Msf().CheckedSub(m)
	} else {
		trackMsf, ok = m.CheckedSub(index01.Msf())
	}
	if !ok {
		return nil, cderror.New(cderror.InvalidMsf)
	}

	q := subq.NewQ(subq.Mode1{
		Track:    idx.Track(),
		Index:    idx.Index(),
		TrackMsf: trackMsf,
		DiscMsf:  m,
	}, idx.Control())

	st := idx.Private()
	if st.IsPreGap() {
		return sector.Empty(q, idx.Format())
	}

	if st.trackType.SectorSize() != 2352 {
		return nil, cderror.Wrap(nil, cderror.Unsupported,
			fmt.Sprintf("unimplemented sector size %d", st.trackType.SectorSize()))
	}

	blob := c.bins[st.bin]
	offset := st.offset + uint64(m.SectorIndex()-idx.SectorIndex())*2352

	return sector.New(q, idx.Format(), func(buf *[2352]byte) error {
		return blob.readAt(buf[:], offset)
	})
}
