package discpos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiSzzPL-retroio/cdimage/msf"
)

func mustMsf(t *testing.T, s string) msf.Msf {
	t.Helper()
	m, ok := msf.FromString(s)
	require.True(t, ok, "invalid msf literal %q", s)
	return m
}

func mustDP(t *testing.T, s string) DiscPosition {
	t.Helper()
	dp, ok := FromString(s)
	require.True(t, ok, "invalid disc position literal %q", s)
	return dp
}

func TestCheckedSubCrossing(t *testing.T) {
	cases := []struct {
		dp, delta string
		want      string
		overflow  bool
	}{
		{"+00:00:00", "00:00:01", "<99:59:74", false},
		{"+00:00:00", "00:00:02", "<99:59:73", false},
		{"+00:00:01", "00:00:01", "+00:00:00", false},
		{"+99:59:74", "00:00:01", "+99:59:73", false},
		{"+99:00:00", "99:59:74", "<99:00:01", false},
		{"+00:00:00", "99:59:74", "<00:00:01", false},
		{"<99:59:74", "99:59:74", "<00:00:00", false},
		{"<00:00:00", "00:00:00", "<00:00:00", false},
		{"+00:00:00", "00:00:00", "+00:00:00", false},
		{"<99:59:73", "99:59:74", "", true},
		{"<00:00:00", "00:00:01", "", true},
	}

	for _, c := range cases {
		dp := mustDP(t, c.dp)
		delta := mustMsf(t, c.delta)

		got, ok := dp.CheckedSub(delta)
		if c.overflow {
			assert.False(t, ok, "%s - %s should overflow", c.dp, c.delta)
			continue
		}

		require.True(t, ok, "%s - %s should not overflow", c.dp, c.delta)
		want := mustDP(t, c.want)
		assert.True(t, want.Equal(got), "%s - %s = %s, want %s", c.dp, c.delta, got, want)

		back, ok := got.CheckedAdd(delta)
		require.True(t, ok)
		assert.True(t, dp.Equal(back), "(%s - %s) + %s should equal %s", c.dp, c.delta, c.delta, c.dp)
	}
}

func TestNextMatchesCheckedAddOne(t *testing.T) {
	one := mustMsf(t, "00:00:01")

	for _, s := range []string{"+00:00:00", "<99:59:74", "<00:00:00", "+99:59:74"} {
		dp := mustDP(t, s)

		next, nextOk := dp.Next()
		add, addOk := dp.CheckedAdd(one)

		require.Equal(t, nextOk, addOk)
		if nextOk {
			assert.True(t, next.Equal(add))
		}
	}
}

func TestOrderingLeadInBeforeProgram(t *testing.T) {
	li := mustDP(t, "<99:59:74")
	pr := mustDP(t, "+00:00:00")

	assert.Equal(t, -1, li.Cmp(pr))
	assert.Equal(t, 1, pr.Cmp(li))
}

func TestStringRoundTrip(t *testing.T) {
	for _, s := range []string{"<97:30:00", "+00:02:14", "<00:00:00"} {
		dp := mustDP(t, s)
		assert.Equal(t, s, dp.String())
	}
}
