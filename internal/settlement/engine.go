// Package settlement applies play outcomes: it freezes the play, adjusts
// every acceptor's bankroll exactly once and notifies each of them with
// the realised amount.
package settlement

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"lotbot/internal/bankroll"
	"lotbot/internal/catalog"
	"lotbot/internal/fanout"
	"lotbot/internal/metrics"
	"lotbot/internal/models"
	"lotbot/internal/money"
)

var (
	// ErrPlayNotFound: no play under the natural key.
	ErrPlayNotFound = errors.New("giocata non trovata")
	// ErrAlreadySettled: the same terminal outcome was already applied;
	// benign, nothing to do.
	ErrAlreadySettled = errors.New("esito già registrato")
	// ErrOutcomeConflict: a different terminal outcome was already applied.
	ErrOutcomeConflict = errors.New("esito in conflitto con quello registrato")
)

// Store is the slice of the repository the engine needs.
type Store interface {
	PlayByKey(ctx context.Context, sport string, number int) (*models.Play, error)
	SetPlayOutcome(ctx context.Context, playID uint, outcome models.Outcome, cashout *int64) (bool, error)
	AcceptancesForPlay(ctx context.Context, playID uint) ([]models.Acceptance, error)
	SettleAcceptance(ctx context.Context, acceptanceID, bankrollID uint, delta int64) (bool, error)
	UserByID(ctx context.Context, id uint) (*models.User, error)
	EnsureDefaultBankroll(ctx context.Context, userID uint) (*models.Bankroll, error)
}

type Engine struct {
	store  Store
	sender fanout.Sender
	log    *zap.Logger
}

func NewEngine(store Store, sender fanout.Sender, log *zap.Logger) *Engine {
	return &Engine{store: store, sender: sender, log: log}
}

// Outcome settles a play by win/loss/void verdict.
func (e *Engine) Outcome(ctx context.Context, sport catalog.Sport, number int, outcome models.Outcome) (*models.Play, error) {
	if !outcome.Terminal() {
		return nil, fmt.Errorf("esito non terminale: %q", outcome)
	}
	return e.settle(ctx, sport.Name, number, outcome, nil)
}

// Cashout settles an exchange play with an early-settlement percentage
// (hundredths of a percent) that supplies the delta directly.
func (e *Engine) Cashout(ctx context.Context, number int, pct int64) (*models.Play, error) {
	// Cashouts exist only on the exchange pair; the play lives under
	// whichever of the two authored it.
	play, err := e.store.PlayByKey(ctx, "exchange", number)
	if err != nil {
		play, err = e.store.PlayByKey(ctx, "maxexchange", number)
	}
	if err != nil {
		return nil, ErrPlayNotFound
	}
	return e.settle(ctx, play.Sport, number, models.OutcomeWin, &pct)
}

func (e *Engine) settle(ctx context.Context, sport string, number int, outcome models.Outcome, cashout *int64) (*models.Play, error) {
	play, err := e.store.PlayByKey(ctx, sport, number)
	if err != nil {
		return nil, ErrPlayNotFound
	}

	if play.Outcome != models.OutcomeOpen {
		if play.Outcome == outcome {
			// Benign replay. Still walk the acceptances: one whose credit
			// failed on the first pass is unstamped and gets repaired here,
			// while stamped ones are skipped by the marker.
			e.sweepAcceptances(ctx, play)
			return play, ErrAlreadySettled
		}
		return play, ErrOutcomeConflict
	}

	applied, err := e.store.SetPlayOutcome(ctx, play.ID, outcome, cashout)
	if err != nil {
		return nil, fmt.Errorf("freeze play: %w", err)
	}
	if !applied {
		// Lost the race to another settlement of the same message.
		return play, ErrAlreadySettled
	}
	play.Outcome = outcome
	play.Cashout = cashout

	e.sweepAcceptances(ctx, play)
	return play, nil
}

// sweepAcceptances settles every acceptance of the play; failures are
// logged and left unstamped for the next sweep.
func (e *Engine) sweepAcceptances(ctx context.Context, play *models.Play) {
	accs, err := e.store.AcceptancesForPlay(ctx, play.ID)
	if err != nil {
		e.log.Error("load acceptances failed", zap.Uint("play", play.ID), zap.Error(err))
		return
	}
	for _, acc := range accs {
		if err := e.settleAcceptance(ctx, play, acc); err != nil {
			e.log.Error("acceptance settlement failed",
				zap.Uint("user", acc.UserID),
				zap.Uint("play", play.ID),
				zap.Error(err))
		}
	}
}

// settleAcceptance adjusts one acceptor's default bankroll. The settled
// marker on the acceptance makes the adjustment exactly-once even when
// the outcome message is reprocessed.
func (e *Engine) settleAcceptance(ctx context.Context, play *models.Play, acc models.Acceptance) error {
	if acc.Settled() {
		return nil
	}

	user, err := e.store.UserByID(ctx, acc.UserID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	br, err := e.store.EnsureDefaultBankroll(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("default bankroll: %w", err)
	}

	stakeUsed := acc.StakePct
	if stakeUsed == 0 {
		stakeUsed = play.BaseStakePct
	}
	pre := br.Balance
	if acc.PreBankroll != nil {
		pre = *acc.PreBankroll
	}

	var delta int64
	if play.Cashout != nil {
		delta = bankroll.CashoutDelta(pre, *play.Cashout, play.Outcome)
	} else {
		delta = bankroll.Delta(pre, stakeUsed, play.BaseOdds, play.Outcome)
	}

	// Stamp and credit commit together: a failure leaves the acceptance
	// unstamped so the next sweep can retry it.
	applied, err := e.store.SettleAcceptance(ctx, acc.ID, br.ID, delta)
	if err != nil {
		return fmt.Errorf("settle acceptance: %w", err)
	}
	if !applied {
		// Another pass already credited this pair.
		return nil
	}
	metrics.SettlementsApplied.Inc()

	if err := e.sender.Send(ctx, user.TelegramID, outcomeMessage(play, delta)); err != nil {
		e.log.Warn("outcome notification failed",
			zap.Int64("recipient", user.TelegramID),
			zap.Error(err))
	}
	return nil
}

func outcomeMessage(play *models.Play, delta int64) string {
	sport, _ := catalog.FindSport(play.Sport)
	var verdict string
	switch {
	case play.Cashout != nil:
		verdict = "💰 Cashout"
	case play.Outcome == models.OutcomeWin:
		verdict = "🟢 Vincente"
	case play.Outcome == models.OutcomeLoss:
		verdict = "🔴 Perdente"
	default:
		verdict = "⚪ Annullata"
	}
	return fmt.Sprintf("%s %s #%d\n%s\nSaldo cassa: %s",
		sport.Emoji, sport.Display, play.Number, verdict,
		money.FormatSignedEuro(delta))
}
