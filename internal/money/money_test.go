package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDivRoundTiesAwayFromZero(t *testing.T) {
	assert.Equal(t, int64(1), DivRound(1, 2))
	assert.Equal(t, int64(-1), DivRound(-1, 2))
	assert.Equal(t, int64(2), DivRound(3, 2))
	assert.Equal(t, int64(-2), DivRound(-3, 2))
	assert.Equal(t, int64(0), DivRound(49, 100))
	assert.Equal(t, int64(1), DivRound(50, 100))
	assert.Equal(t, int64(-1), DivRound(-50, 100))
	assert.Equal(t, int64(600), DivRound(60000, 100))
}

func TestParseFixed(t *testing.T) {
	cases := map[string]int64{
		"2.20":  220,
		"2,20":  220,
		"2,2":   220,
		"3":     300,
		"0,5":   50,
		"+3,60": 360,
		"-3.60": -360,
		" 1,05 ": 105,
	}
	for in, want := range cases {
		got, err := ParseFixed(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}
}

func TestParseFixedRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "2.2.2", "--3"} {
		_, err := ParseFixed(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "2,20", FormatFixed(220))
	assert.Equal(t, "-0,05", FormatFixed(-5))
	assert.Equal(t, "100,60€", FormatEuro(10060))
	assert.Equal(t, "5,00%", FormatPct(500))
	assert.Equal(t, "+0,60€", FormatSignedEuro(60))
	assert.Equal(t, "-5,00€", FormatSignedEuro(-500))
	assert.Equal(t, "+3,60%", FormatSignedPct(360))
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, 99, 100, 220, 10060, -360} {
		got, err := ParseFixed(FormatFixed(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}
