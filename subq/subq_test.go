package subq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiSzzPL-retroio/cdimage/bcd"
	"github.com/aiSzzPL-retroio/cdimage/msf"
)

func TestAdrControlAttrs(t *testing.T) {
	assert.True(t, Mode1Audio.IsAudio())
	assert.False(t, Mode1Audio.IsData())
	assert.Equal(t, byte(1), Mode1Audio.Mode())

	assert.False(t, Mode1Data.IsAudio())
	assert.True(t, Mode1Data.IsData())
	assert.Equal(t, byte(1), Mode1Data.Mode())
}

// Random Metal Gear Solid 1 raw subchannel data dumped with cdrdao.
var rawRW = [3][96]byte{
	{
		0x00, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x40,
		0x00, 0x40, 0x00, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40,
		0x00, 0x00, 0x00, 0x40, 0x00, 0x40, 0x00, 0x40, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00,
		0x40, 0x40, 0x40, 0x40, 0x40, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00, 0x40,
	},
	{
		0x00, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x40,
		0x00, 0x40, 0x00, 0x40, 0x00, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40,
		0x00, 0x00, 0x00, 0x40, 0x00, 0x40, 0x00, 0x40, 0x00, 0x40, 0x00, 0x00, 0x40, 0x40,
		0x00, 0x40, 0x00, 0x40, 0x40, 0x40, 0x40, 0x00, 0x00, 0x00, 0x00, 0x40,
	},
	{
		0x00, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00, 0x40,
		0x00, 0x00, 0x00, 0x00, 0xb3, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x40,
		0x00, 0x40, 0x00, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40,
		0x00, 0x00, 0x00, 0x40, 0x00, 0x40, 0x00, 0x40, 0x00, 0x00, 0x40, 0x40, 0x40, 0x40,
		0x40, 0x00, 0x40, 0x40, 0x40, 0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x40,
	},
}

func TestSubQRawRW(t *testing.T) {
	for _, raw := range rawRW {
		var subq [12]byte
		for bit, r := range raw {
			if r&0x40 == 0 {
				continue
			}
			subq[bit/8] |= 1 << (7 - uint(bit&7))
		}

		q, err := FromRawInterleaved(raw)
		require.NoError(t, err)

		qr, err := FromRaw(subq)
		require.NoError(t, err)

		assert.Equal(t, qr, q)
		assert.Equal(t, subq, q.ToRaw())
	}
}

func TestModeLeadOutRoundTrip(t *testing.T) {
	leadOutMsf, ok := msf.New(79, 59, 74)
	require.True(t, ok)
	discMsf, ok := msf.New(79, 59, 74)
	require.True(t, ok)

	q := NewQ(Mode1LeadOut{LeadOutMsf: leadOutMsf, DiscMsf: discMsf}, Mode1Data)
	raw := q.ToRaw()

	assert.Equal(t, byte(0xaa), raw[1])
	assert.True(t, q.IsLeadOut())
	assert.False(t, q.IsLeadIn())
	assert.False(t, q.IsPregap())

	qr, err := FromRaw(raw)
	require.NoError(t, err)
	assert.Equal(t, q, qr)
}

func TestModeTocDispatch(t *testing.T) {
	zero, ok := msf.New(0, 0, 0)
	require.True(t, ok)

	q := NewQ(Mode1TocFirstTrack{FirstTrack: bcd.One, SessionFormat: CdXa, LeadInMsf: zero}, Mode1Data)
	raw := q.ToRaw()
	qr, err := FromRaw(raw)
	require.NoError(t, err)
	assert.Equal(t, q, qr)
	assert.True(t, qr.IsLeadIn())

	gotFirstTrack, ok := qr.Data().(Mode1TocFirstTrack)
	require.True(t, ok)
	assert.Equal(t, CdXa, gotFirstTrack.SessionFormat)
}
