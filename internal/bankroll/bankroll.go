// Package bankroll holds the pure settlement arithmetic. All quantities
// are int64 hundredths; rounding is to the nearest hundredth with ties
// away from zero.
package bankroll

import (
	"lotbot/internal/models"
	"lotbot/internal/money"
)

// Delta computes the bankroll adjustment for a win/loss settlement.
// pre is the pre-play balance, stakePct the stake in hundredths of a
// percent, odds the total odds in hundredths.
//
//	win:  pre · σ · (q − 100) / 10^6
//	loss: −pre · σ / 10^4
//	void, open: 0
func Delta(pre, stakePct, odds int64, outcome models.Outcome) int64 {
	switch outcome {
	case models.OutcomeWin:
		return money.DivRound(pre*stakePct*(odds-100), 1_000_000)
	case models.OutcomeLoss:
		return -money.DivRound(pre*stakePct, 10_000)
	default:
		return 0
	}
}

// CashoutDelta computes the adjustment for an exchange cashout settlement:
// the cashout percent (hundredths) applies to the pre-balance directly,
// unless the play was voided.
func CashoutDelta(pre, cashoutPct int64, outcome models.Outcome) int64 {
	if outcome == models.OutcomeVoid {
		return 0
	}
	return money.DivRound(pre*cashoutPct, 10_000)
}

// Settle returns the post-settlement balance alongside the delta.
func Settle(pre, stakePct, odds int64, outcome models.Outcome) (post, delta int64) {
	delta = Delta(pre, stakePct, odds, outcome)
	return pre + delta, delta
}
