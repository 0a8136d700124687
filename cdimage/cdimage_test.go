package cdimage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiSzzPL-retroio/cdimage/cderror"
	"github.com/aiSzzPL-retroio/cdimage/discpos"
	"github.com/aiSzzPL-retroio/cdimage/msf"
)

func TestOpenDispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()

	sheet := "FILE \"disc.bin\" BINARY\n" +
		"  TRACK 01 MODE1/2352\n" +
		"    INDEX 01 00:00:00\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "disc.bin"), make([]byte, 300*2352), 0o644))
	cuePath := filepath.Join(dir, "disc.cue")
	require.NoError(t, os.WriteFile(cuePath, []byte(sheet), 0o644))

	img, err := Open(cuePath)
	require.NoError(t, err)
	defer img.Close()

	assert.Equal(t, "CUE", img.ImageFormat())

	m, ok := msf.New(0, 2, 0)
	require.True(t, ok)
	s, err := img.ReadSector(discpos.NewProgram(m))
	require.NoError(t, err)
	assert.True(t, s.EdcValid())
}

func TestOpenRejectsUnknownExtension(t *testing.T) {
	_, err := Open("disc.iso")
	require.Error(t, err)
	assert.True(t, cderror.Is(err, cderror.Unsupported))
}
