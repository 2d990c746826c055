package bot

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotbot/internal/catalog"
	"lotbot/internal/models"
	"lotbot/internal/stake"
)

func TestChunkText(t *testing.T) {
	assert.Nil(t, chunkText("", 10))
	assert.Equal(t, []string{"abc"}, chunkText("abc", 10))

	chunks := chunkText(strings.Repeat("x", 25), 10)
	require.Len(t, chunks, 3)
	assert.Equal(t, 10, len(chunks[0]))
	assert.Equal(t, 10, len(chunks[1]))
	assert.Equal(t, 5, len(chunks[2]))
	assert.Equal(t, strings.Repeat("x", 25), strings.Join(chunks, ""))
}

func TestChunkTextKeepsRunesWhole(t *testing.T) {
	// 4-byte emoji straddling the cut must move whole to the next chunk.
	text := strings.Repeat("💰", 7)
	chunks := chunkText(text, 10)
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c), "chunk %q is not valid UTF-8", c)
		assert.LessOrEqual(t, len(c), 10)
	}
	assert.Equal(t, text, strings.Join(chunks, ""))

	// Mixed ASCII and accented text round-trips too.
	text = strings.Repeat("già perché ", 20)
	chunks = chunkText(text, 16)
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c), "chunk %q is not valid UTF-8", c)
	}
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestNormalizeReferralCode(t *testing.T) {
	code, ok := normalizeReferralCode("mario2024")
	require.True(t, ok)
	assert.Equal(t, "mario2024-lot", code)

	// Typing the suffix is optional, never doubled.
	code, ok = normalizeReferralCode("mario2024-lot")
	require.True(t, ok)
	assert.Equal(t, "mario2024-lot", code)

	code, ok = normalizeReferralCode("  ab-12 ")
	require.True(t, ok)
	assert.Equal(t, "ab-12-lot", code)

	for _, bad := range []string{"abc", "verylongcode12345", "così", "a b c d", ""} {
		_, ok := normalizeReferralCode(bad)
		assert.False(t, ok, bad)
	}
}

func TestSplitInterval(t *testing.T) {
	min, max, ok := splitInterval("1,50 - 2,00")
	require.True(t, ok)
	assert.Equal(t, "1,50", min)
	assert.Equal(t, "2,00", max)

	min, max, ok = splitInterval("1.50 2.00")
	require.True(t, ok)
	assert.Equal(t, "1.50", min)
	assert.Equal(t, "2.00", max)

	_, _, ok = splitInterval("1,50")
	assert.False(t, ok)
	_, _, ok = splitInterval("")
	assert.False(t, ok)
}

func TestDescribeRule(t *testing.T) {
	rule, err := stake.NewRule("1,50", "2,00", "5", "calcio", []string{"produzione"})
	require.NoError(t, err)
	assert.Equal(t, "calcio 1,50-2,00 → 5,00%", describeRule(rule))
}

func TestAcceptanceKeyboardCarriesPlayID(t *testing.T) {
	kb := acceptanceKeyboard(42)
	require.Len(t, kb.InlineKeyboard, 1)
	require.Len(t, kb.InlineKeyboard[0], 2)
	assert.Equal(t, cbAccept+"42", kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, cbRefuse+"42", kb.InlineKeyboard[0][1].CallbackData)
}

func TestStrategiesKeyboardTicksSubscribed(t *testing.T) {
	sport, ok := catalog.FindSport("calcio")
	require.True(t, ok)
	kb := strategiesKeyboard(sport, map[string]bool{"produzione": true})

	var labels []string
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			labels = append(labels, btn.Text)
		}
	}
	assert.Contains(t, labels, "✅ produzione")
	assert.Contains(t, labels, "recupero")
}

func TestTrendLineBucketsCashoutsBySign(t *testing.T) {
	neg, pos := int64(-5000), int64(8000)
	plays := []models.Play{
		{Outcome: models.OutcomeWin, BaseStakePct: 300, BaseOdds: 220},
		{Outcome: models.OutcomeLoss, BaseStakePct: 300},
		{Outcome: models.OutcomeVoid, BaseStakePct: 300},
		// Cashouts close as wins in the record but the sign decides
		// which column they land in.
		{Outcome: models.OutcomeWin, BaseStakePct: 500, Cashout: &neg},
		{Outcome: models.OutcomeWin, BaseStakePct: 500, Cashout: &pos},
	}

	// +3,60 −3,00 −2,50 +4,00 = +2,10%
	assert.Equal(t, "5 giocate, 2 vinte, 2 perse, 1 void, trend +2,10%",
		trendLine(plays))
}

func TestClassifySendErrorPassthrough(t *testing.T) {
	assert.NoError(t, classifySendError(nil))

	err := assert.AnError
	assert.Equal(t, err, classifySendError(err))
}
