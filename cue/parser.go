package cue

import (
	"fmt"

	"github.com/aiSzzPL-retroio/cdimage/bcd"
	"github.com/aiSzzPL-retroio/cdimage/cderror"
	"github.com/aiSzzPL-retroio/cdimage/msf"
	"github.com/aiSzzPL-retroio/cdimage/sector"
	"github.com/aiSzzPL-retroio/cdimage/subq"
	"github.com/aiSzzPL-retroio/cdimage/toc"
)

// currentTrack is the state carried between a TRACK command and the
// PREGAP/INDEX/FLAGS commands that follow it.
type currentTrack struct {
	number    bcd.Bcd
	trackType TrackType
	format    sector.TrackFormat
	control   subq.AdrControl
}

// parser walks a CUE sheet line by line and accumulates the index list
// fed to the cache.
type parser struct {
	// cuePath may not be a valid filesystem path (it can reference
	// into an archive); it's only used for error reporting.
	cuePath string
	source  binSource
	line    uint32
	// Current absolute MSF. CUE always skips track 01's pregap (and
	// assumes it's 2 seconds long) so parsing starts at INDEX 01.
	msf  msf.Msf
	bins []binaryBlob
	// Length of the current BIN file in bytes, and how many of them
	// have been consumed by indices so far.
	binLen   uint64
	consumed uint64
	// MSF of the last generated index within the current BIN (00:00:00
	// is the beginning of the file, per CUE convention), and its type.
	indexMsf      msf.Msf
	indexType     TrackType
	haveIndexType bool
	track         *currentTrack
	track1Pregap  bool
	indices       []toc.Index[Storage]
}

type commandHandler struct {
	name string
	fn   func(*parser, [][]byte) error
	// nparams is the exact parameter count the command takes, or -1
	// for any.
	nparams int
}

var commandHandlers = []commandHandler{
	{"REM", (*parser).commandRem, -1},
	{"FILE", (*parser).commandFile, 2},
	{"TRACK", (*parser).commandTrack, 2},
	{"PREGAP", (*parser).commandPregap, 1},
	{"INDEX", (*parser).commandIndex, 2},
	{"FLAGS", (*parser).commandFlags, -1},
}

// parseCue runs the parser over sheet and assembles the resulting Cue
// image.
func parseCue(cuePath string, source binSource, sheet []byte) (*Cue, error) {
	startMsf, _ := msf.FromSectorIndex(150)

	p := &parser{
		cuePath: cuePath,
		source:  source,
		msf:     startMsf,
	}

	closeBins := func() {
		for _, b := range p.bins {
			b.Close()
		}
	}

	if err := p.parse(sheet); err != nil {
		closeBins()
		return nil, err
	}

	indices, err := toc.NewIndexCache(cuePath, p.indices, p.msf)
	if err != nil {
		closeBins()
		return nil, err
	}

	contents, err := indices.Toc()
	if err != nil {
		closeBins()
		return nil, err
	}

	return &Cue{
		indices: indices,
		toc:     contents,
		source:  source,
		bins:    p.bins,
	}, nil
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return cderror.Parse(p.cuePath, p.line, fmt.Sprintf(format, args...))
}

func (p *parser) parse(sheet []byte) error {
	for pos := 0; pos < len(sheet); {
		end := pos
		for end < len(sheet) && sheet[end] != '\n' {
			end++
		}
		if end < len(sheet) {
			end++
		}
		line := sheet[pos:end]
		pos = end
		p.line++

		params, err := p.split(line)
		if err != nil {
			return err
		}

		if len(params) == 0 {
			// Empty line
			continue
		}

		command := string(params[0])

		handler := -1
		for i, h := range commandHandlers {
			if h.name == command {
				handler = i
				break
			}
		}
		if handler < 0 {
			return p.errorf("Unexpected command %q", command)
		}

		h := commandHandlers[handler]
		if h.nparams >= 0 && len(params)-1 != h.nparams {
			return p.errorf("Wrong number of parameters for command %s: expected %d got %d",
				command, h.nparams, len(params)-1)
		}

		if err := h.fn(p, params); err != nil {
			return err
		}
	}

	return p.finalizeBin()
}

// split cuts a line into individual words. A word opening with a quote
// runs to the matching quote and is returned with the opening quote
// still attached, so callers can detect elements that shouldn't have
// been quoted in the first place. A missing closing quote is an error.
func (p *parser) split(line []byte) ([][]byte, error) {
	const whitespace = " \t\n\r"

	isWS := func(b byte) bool {
		for i := 0; i < len(whitespace); i++ {
			if whitespace[i] == b {
				return true
			}
		}
		return false
	}

	var words [][]byte
	start := -1
	quoted := false

	for pos := 0; pos < len(line); pos++ {
		cur := line[pos]

		if start < 0 {
			if !isWS(cur) {
				start = pos
				quoted = cur == '"'
			}
			continue
		}

		var delim bool
		if quoted {
			delim = cur == '"' && pos > start
		} else {
			delim = isWS(cur)
		}

		if delim {
			words = append(words, line[start:pos])
			start = -1
		}
	}

	if start >= 0 {
		if quoted {
			// End of line without the matching quote.
			return nil, p.errorf("Mismatched quote")
		}
		words = append(words, line[start:])
	}

	return words, nil
}

// REM comment
func (p *parser) commandRem([][]byte) error {
	return nil
}

// FILE filename filetype
func (p *parser) commandFile(params [][]byte) error {
	binName := params[1]
	binType := string(params[2])

	if err := p.finalizeBin(); err != nil {
		return err
	}

	if len(binName) > 0 && binName[0] == '"' {
		// The name was quoted: move past the quote, the end quote has
		// already been stripped by split.
		binName = binName[1:]
	}

	if binType != "BINARY" {
		return p.errorf("Unsupported file type %q", binType)
	}

	blob, size, err := p.source.open(string(binName))
	if err != nil {
		return err
	}

	p.bins = append(p.bins, blob)
	p.binLen = size
	p.consumed = 0
	p.indexMsf = msf.Zero
	p.haveIndexType = false

	return nil
}

// TRACK number format
func (p *parser) commandTrack(params [][]byte) error {
	if len(p.bins) == 0 {
		return p.errorf("File-less track")
	}

	n, ok := bcd.ParseString(string(params[1]))
	if !ok {
		return p.errorf("Invalid track number")
	}

	var trackType TrackType
	switch string(params[2]) {
	case "AUDIO":
		trackType = Audio
	case "CDG":
		return p.errorf("Unsupported CDG track format")
	case "MODE1/2048":
		trackType = Mode1Data
	case "MODE1/2352":
		trackType = Mode1Raw
	case "MODE2/2336":
		trackType = Mode2Headerless
	case "MODE2/2352":
		trackType = Mode2Raw
	case "CDI/2336":
		trackType = CdIHeaderless
	case "CDI/2352":
		trackType = CdIRaw
	default:
		return p.errorf("Unsupported track type %q", string(params[2]))
	}

	// Per the CDRWIN docs the MODE2 formats are specifically CD-ROM XA
	// and never plain CD-ROM Mode 2.
	var format sector.TrackFormat
	switch trackType {
	case Audio:
		format = sector.Audio
	case Mode1Data, Mode1Raw:
		format = sector.Mode1
	case Mode2Headerless, Mode2Raw:
		format = sector.Mode2Xa
	default:
		format = sector.Mode2CdI
	}

	control := subq.Mode1Data
	if format == sector.Audio {
		control = subq.Mode1Audio
	}

	p.track = &currentTrack{
		number:    n,
		trackType: trackType,
		format:    format,
		control:   control,
	}

	return nil
}

// PREGAP mm:ss:ff
//
// There can be only one PREGAP per track and it must appear before any
// INDEX.
func (p *parser) commandPregap(params [][]byte) error {
	track := p.track
	if track == nil {
		return p.errorf("Track-less pregap")
	}

	length, ok := msf.FromString(string(params[1]))
	if !ok {
		return p.errorf("Invalid pregap MSF")
	}

	pregap := toc.NewIndex(bcd.Zero, track.number, p.msf, track.format, 1, track.control, PreGap)
	p.indices = append(p.indices, pregap)

	// The pregap is not stored in the BIN, so only the absolute MSF
	// moves; INDEX offsets within the file don't include it.
	p.msf, ok = p.msf.CheckedAdd(length)
	if !ok {
		return p.errorf("Pregap overflows the disc, MSF overflow")
	}

	return nil
}

// INDEX number mm:ss:ff
func (p *parser) commandIndex(params [][]byte) error {
	track := p.track
	if track == nil {
		return p.errorf("Track-less index")
	}

	n, ok := bcd.ParseString(string(params[1]))
	if !ok {
		return p.errorf("Invalid index")
	}

	offset, ok := msf.FromString(string(params[2]))
	if !ok {
		return p.errorf("Invalid index MSF")
	}

	if track.number.Equal(bcd.One) && n.Equal(bcd.One) && !p.track1Pregap {
		// CUE always leaves out track 01's mandatory 150-sector pregap,
		// so it's regenerated here at the very start of the disc.
		pregap := toc.NewIndex(bcd.Zero, track.number, msf.Zero, track.format, 1, track.control, PreGap)
		p.indices = append(p.indices, pregap)
		p.track1Pregap = true
	}

	if err := p.consumeBinSectors(offset); err != nil {
		return err
	}

	binIndex := uint32(len(p.bins) - 1)

	index := toc.NewIndex(n, track.number, p.msf, track.format, 1, track.control,
		BinStorage(binIndex, p.consumed, track.trackType))
	p.indices = append(p.indices, index)

	p.indexType = track.trackType
	p.haveIndexType = true

	return nil
}

// FLAGS flag [flag [...]]
func (p *parser) commandFlags(params [][]byte) error {
	track := p.track
	if track == nil {
		return p.errorf("Track-less flag")
	}

	if len(params) < 2 {
		return p.errorf("Empty FLAGS command")
	}

	for _, flag := range params[1:] {
		switch string(flag) {
		case "DCP":
			track.control.SetDigitalCopyPermitted(true)
		case "4CH":
			track.control.SetFourChannelAudio(true)
		case "PRE":
			track.control.SetPreEmphasis(true)
		default:
			return p.errorf("Unknown flag %q", string(flag))
		}
	}

	return nil
}

// consumeBinSectors advances the in-file cursor to offset, accounting
// the bytes it crosses against the current BIN and moving the absolute
// MSF forward by the same amount.
func (p *parser) consumeBinSectors(offset msf.Msf) error {
	delta, ok := offset.CheckedSub(p.indexMsf)
	if !ok {
		return p.errorf("Misordered index")
	}

	if delta.SectorIndex() == 0 {
		return nil
	}

	if !p.haveIndexType {
		return p.errorf("File doesn't start at 00:00:00")
	}

	indexSize := uint64(p.indexType.SectorSize()) * uint64(delta.SectorIndex())

	if indexSize > p.binLen-p.consumed {
		return p.errorf("Index out of range (past the end of the BIN file)")
	}

	p.consumed += indexSize
	p.indexMsf = offset

	p.msf, ok = p.msf.CheckedAdd(delta)
	if !ok {
		return p.errorf("Index overflows the disc, MSF overflow")
	}

	return nil
}

// finalizeBin closes the accounting of the current BIN: whatever is
// left of the file belongs to the last index, and must be a whole
// number of sectors.
func (p *parser) finalizeBin() error {
	if !p.haveIndexType {
		// No previous index, nothing to be done.
		return nil
	}

	sectorSize := uint64(p.indexType.SectorSize())
	remaining := p.binLen - p.consumed

	if remaining%sectorSize != 0 {
		return p.errorf("Misaligned sector data while finishing a BIN file")
	}

	sectors := remaining / sectorSize
	if sectors >= uint64(msf.MaxSectorIndex) {
		return p.errorf("Previous BIN file is too big, MSF overflow")
	}

	length, ok := msf.FromSectorIndex(uint32(sectors))
	if !ok {
		return p.errorf("Previous BIN file is too big, MSF overflow")
	}

	p.msf, ok = p.msf.CheckedAdd(length)
	if !ok {
		return p.errorf("Previous BIN file is too big, MSF overflow")
	}

	return nil
}
