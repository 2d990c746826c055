package bankroll

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lotbot/internal/models"
)

func TestWinDelta(t *testing.T) {
	// 100,00€ bankroll, 5% stake, odds 2.20: +6% of the bankroll.
	post, delta := Settle(10000, 500, 220, models.OutcomeWin)
	assert.Equal(t, int64(600), delta)
	assert.Equal(t, int64(10600), post)

	// Base stake 3% at 2.20: +3,60%.
	post, delta = Settle(10000, 300, 220, models.OutcomeWin)
	assert.Equal(t, int64(360), delta)
	assert.Equal(t, int64(10360), post)
}

func TestLossDelta(t *testing.T) {
	post, delta := Settle(10000, 500, 220, models.OutcomeLoss)
	assert.Equal(t, int64(-500), delta)
	assert.Equal(t, int64(9500), post)
}

func TestVoidAndOpenAreNeutral(t *testing.T) {
	assert.Equal(t, int64(0), Delta(10000, 500, 220, models.OutcomeVoid))
	assert.Equal(t, int64(0), Delta(10000, 500, 220, models.OutcomeOpen))
}

func TestRoundingTiesAwayFromZero(t *testing.T) {
	// pre·σ/10^4 = 1000·5/10000 = 0.5, a tie: away from zero on both signs.
	assert.Equal(t, int64(-1), Delta(1000, 5, 200, models.OutcomeLoss))
	assert.Equal(t, int64(1), Delta(1000, 5, 200, models.OutcomeWin))
}

func TestCashoutMatchesEquivalentWin(t *testing.T) {
	// A win of (σ=500, q=220) gains 6%; the cashout representation of the
	// same settlement carries +6,00% directly.
	_, winDelta := Settle(10000, 500, 220, models.OutcomeWin)
	cashDelta := CashoutDelta(10000, 600, models.OutcomeWin)
	assert.Equal(t, winDelta, cashDelta)
}

func TestCashoutVoidIsNeutral(t *testing.T) {
	assert.Equal(t, int64(0), CashoutDelta(10000, 600, models.OutcomeVoid))
	assert.Equal(t, int64(-350), CashoutDelta(10000, -350, models.OutcomeWin))
}
