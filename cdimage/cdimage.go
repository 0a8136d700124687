// Package cdimage exposes the generic read-only interface to CD
// images. Any concrete format backend implements Image; the only one
// currently shipped is the BIN/CUE backend in the cue package.
package cdimage

import (
	"path/filepath"
	"strings"

	"github.com/aiSzzPL-retroio/cdimage/cderror"
	"github.com/aiSzzPL-retroio/cdimage/cue"
	"github.com/aiSzzPL-retroio/cdimage/discpos"
	"github.com/aiSzzPL-retroio/cdimage/sector"
	"github.com/aiSzzPL-retroio/cdimage/toc"
)

// Image is a read-only CD image. Every sector read returns a
// fully-formed, owned 2352-byte Sector; nothing borrows from the
// image, so sector lifetimes are independent of it. The image owns its
// backing file handles until Close.
//
// Reads mutate internal file positions (and, for archive-backed
// images, lazily populate per-blob caches), so callers are responsible
// for serialising access per Image instance.
type Image interface {
	// ImageFormat identifies the image format in a human-readable way,
	// mentioning the container when the backend is daisy-chained.
	ImageFormat() string
	// ReadSector returns the sector at dp: a synthesised ToC sector in
	// the lead-in, a synthesised lead-out sector past the last track,
	// or the track data in between.
	ReadSector(dp discpos.DiscPosition) (*sector.Sector, error)
	// Toc returns the image's table of contents.
	Toc() *toc.Toc
	// Close releases the backing storage.
	Close() error
}

// Open dispatches on path's extension: .cue opens a BIN/CUE image,
// .zip an archive expected to contain one.
func Open(path string) (Image, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return cue.New(path)
	case ".zip":
		return cue.NewFromZip(path)
	default:
		return nil, cderror.Wrap(nil, cderror.Unsupported, "unsupported image format "+filepath.Ext(path))
	}
}
