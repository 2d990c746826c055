package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotbot/internal/models"
)

const canonicalPlay = "⚽ CALCIO\n" +
	"🎯 Produzione\n" +
	"Juventus - Inter, Over 2.5\n" +
	"@2.20\n" +
	"Stake 3%\n" +
	"LoT #42"

func TestParsePlayCanonical(t *testing.T) {
	p, err := ParsePlay(canonicalPlay, 1700000000)
	require.NoError(t, err)
	assert.Equal(t, "calcio", p.Sport)
	assert.Equal(t, "produzione", p.Strategy)
	assert.Equal(t, 42, p.Number)
	assert.Equal(t, int64(220), p.BaseOdds)
	assert.Equal(t, int64(300), p.BaseStakePct)
	assert.Equal(t, models.OutcomeOpen, p.Outcome)
	assert.Equal(t, float64(1700000000), p.SentTimestamp)
	assert.Equal(t, canonicalPlay, p.RawText)
}

func TestParsePlayQuotaAndCommaDecimals(t *testing.T) {
	text := "🎾 Tennis\n🎯 Recupero\nSinner - Alcaraz\nQuota 1,85\nStake 2,5%\n#7"
	p, err := ParsePlay(text, 0)
	require.NoError(t, err)
	assert.Equal(t, "tennis", p.Sport)
	assert.Equal(t, "recupero", p.Strategy)
	assert.Equal(t, int64(185), p.BaseOdds)
	assert.Equal(t, int64(250), p.BaseStakePct)
	assert.Equal(t, 7, p.Number)
}

func TestParsePlayErrors(t *testing.T) {
	cases := []struct {
		name string
		text string
		kind ErrorKind
	}{
		{"unknown sport", "🏏 Cricket\n🎯 Produzione\n@2.20\nStake 3%\n#1", ErrUnknownSport},
		{"unknown strategy", "⚽ Calcio\n🎯 Fantasia\n@2.20\nStake 3%\n#1", ErrUnknownStrategy},
		{"strategy not on sport", "🎾 Tennis\n🎯 Multipla\n@2.20\nStake 3%\n#1", ErrStrategyNotAllowed},
		{"missing strategy line", "⚽ Calcio\n@2.20\nStake 3%\n#1", ErrUnknownStrategy},
		{"missing stake", "⚽ Calcio\n🎯 Produzione\n@2.20\n#1", ErrMissingStake},
		{"missing odds", "⚽ Calcio\n🎯 Produzione\nStake 3%\n#1", ErrMissingOdds},
		{"odds below 1.00", "⚽ Calcio\n🎯 Produzione\n@0.80\nStake 3%\n#1", ErrMissingOdds},
		{"missing number", "⚽ Calcio\n🎯 Produzione\n@2.20\nStake 3%", ErrMissingNumber},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePlay(tc.text, 0)
			require.Error(t, err)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tc.kind, pe.What)
		})
	}
}

func TestParseOutcome(t *testing.T) {
	for _, verdict := range []string{"Vincente", "vinta", "VITTORIA"} {
		o, err := ParseOutcome("🟢 Calcio #42 " + verdict + " +3,60% 🟢")
		require.NoError(t, err)
		assert.Equal(t, "calcio", o.Sport.Name)
		assert.Equal(t, 42, o.Number)
		assert.Equal(t, models.OutcomeWin, o.Outcome)
		assert.Equal(t, int64(360), o.DeltaPct)
	}
	for _, verdict := range []string{"Perdente", "persa", "perdita", "Sconfitta"} {
		o, err := ParseOutcome("🔴 Calcio #42 " + verdict + " -3% 🔴")
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeLoss, o.Outcome)
		assert.Equal(t, int64(-300), o.DeltaPct)
	}
}

func TestParseOutcomeRejectsUnknownVerdict(t *testing.T) {
	_, err := ParseOutcome("🟢 Calcio #42 Pareggio +0% 🟢")
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrUnknownVerdict, pe.What)

	_, err = ParseOutcome("🟢 Cricket #42 Vincente +1% 🟢")
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrUnknownSport, pe.What)

	assert.True(t, LooksLikeOutcome("🟢 Calcio #42 Vincente +3,60% 🟢"))
	assert.False(t, LooksLikeOutcome("ciao a tutti"))
}

func TestParseCashout(t *testing.T) {
	c, err := ParseCashout("#42 +3,5")
	require.NoError(t, err)
	assert.Equal(t, 42, c.Number)
	assert.Equal(t, int64(350), c.Pct)

	c, err = ParseCashout("#9 -1.25")
	require.NoError(t, err)
	assert.Equal(t, int64(-125), c.Pct)

	_, err = ParseCashout("cashout 42")
	assert.Error(t, err)
	assert.True(t, LooksLikeCashout("#42 +3,5"))
	assert.False(t, LooksLikeCashout("#42 incasso"))
}

func TestParseBroadcast(t *testing.T) {
	b, err := ParseBroadcast("/messaggio_abbonati calcio - produzione\nCiao a tutti!")
	require.NoError(t, err)
	assert.Equal(t, "calcio", b.Sport.Name)
	assert.Equal(t, "produzione", b.Strategy)
	assert.Equal(t, "Ciao a tutti!", b.Body)

	b, err = ParseBroadcast("/messaggio_abbonati tennis - all\nbody")
	require.NoError(t, err)
	assert.Equal(t, "all", b.Strategy)

	var pe *ParseError
	_, err = ParseBroadcast("/messaggio_abbonati cricket - produzione")
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrUnknownSport, pe.What)

	_, err = ParseBroadcast("/messaggio_abbonati tennis - multipla")
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrStrategyNotAllowed, pe.What)

	_, err = ParseBroadcast("/messaggio_abbonati tennis produzione")
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrBadFormat, pe.What)
}
