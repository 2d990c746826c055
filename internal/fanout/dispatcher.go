// Package fanout delivers authored plays, cashout announcements and
// addressed broadcasts to every eligible subscriber, one message per
// recipient, best effort.
package fanout

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"lotbot/internal/catalog"
	"lotbot/internal/entitlement"
	"lotbot/internal/metrics"
	"lotbot/internal/models"
)

// Store is the slice of the repository the dispatcher needs.
type Store interface {
	InsertPlay(ctx context.Context, play *models.Play) error
	Recipients(ctx context.Context, sport, strategy string) ([]models.User, error)
	SportRecipients(ctx context.Context, sports []string) ([]models.User, error)
}

// Stats summarises one fan-out pass. Unreachable recipients are excluded
// from the expected count; Failed counts transient delivery errors.
type Stats struct {
	Attempted   int
	Sent        int
	Unreachable int
	Failed      int
}

type Dispatcher struct {
	store          Store
	sender         Sender
	log            *zap.Logger
	operatorChatID int64
}

func NewDispatcher(store Store, sender Sender, log *zap.Logger, operatorChatID int64) *Dispatcher {
	return &Dispatcher{store: store, sender: sender, log: log, operatorChatID: operatorChatID}
}

// Play persists the play under its natural key and fans it out to every
// subscriber of (sport, strategy). The store insert happens before any
// send, so a later outcome always finds the play.
func (d *Dispatcher) Play(ctx context.Context, play *models.Play) (Stats, error) {
	if err := d.store.InsertPlay(ctx, play); err != nil {
		return Stats{}, err
	}

	recipients, err := d.store.Recipients(ctx, play.Sport, play.Strategy)
	if err != nil {
		return Stats{}, fmt.Errorf("resolve recipients: %w", err)
	}

	stats := d.deliver(ctx, recipients, play.Sport, play.SentTimestamp, func(ctx context.Context, u *models.User) error {
		return d.sender.SendWithAcceptance(ctx, u.TelegramID, personalize(play, u), play.ID)
	})
	d.report(ctx, stats, play.Sport, play.Strategy)
	return stats, nil
}

// Cashout announces an exchange cashout. Recipients are fixed to the
// exchange/max-exchange subscriber pool; no acceptance keyboard.
func (d *Dispatcher) Cashout(ctx context.Context, play *models.Play, pct int64) (Stats, error) {
	recipients, err := d.store.SportRecipients(ctx, []string{"exchange", "maxexchange"})
	if err != nil {
		return Stats{}, fmt.Errorf("resolve recipients: %w", err)
	}

	text := renderCashout(play, pct)
	stats := d.deliver(ctx, recipients, play.Sport, play.SentTimestamp, func(ctx context.Context, u *models.User) error {
		return d.sender.Send(ctx, u.TelegramID, text)
	})
	d.report(ctx, stats, play.Sport, play.Strategy)
	return stats, nil
}

// Broadcast sends free text to the subscribers addressed by the header.
func (d *Dispatcher) Broadcast(ctx context.Context, sport catalog.Sport, strategy, body string, sentAt float64) (Stats, error) {
	recipients, err := d.store.Recipients(ctx, sport.Name, strategy)
	if err != nil {
		return Stats{}, fmt.Errorf("resolve recipients: %w", err)
	}

	stats := d.deliver(ctx, recipients, sport.Name, sentAt, func(ctx context.Context, u *models.User) error {
		return d.sender.Send(ctx, u.TelegramID, body)
	})
	d.report(ctx, stats, sport.Name, strategy)
	return stats, nil
}

// deliver loops the recipients sequentially; one failure never aborts the
// loop.
func (d *Dispatcher) deliver(ctx context.Context, recipients []models.User, sport string, at float64, send func(context.Context, *models.User) error) Stats {
	var stats Stats
	for i := range recipients {
		u := &recipients[i]
		if !entitlement.Entitled(u, sport, at) {
			continue
		}
		stats.Attempted++

		err := send(ctx, u)
		switch {
		case err == nil:
			stats.Sent++
			metrics.FanoutSent.WithLabelValues(sport).Inc()
		case errors.Is(err, ErrUnreachable):
			stats.Unreachable++
			metrics.FanoutUnreachable.WithLabelValues(sport).Inc()
		default:
			stats.Failed++
			metrics.FanoutFailed.WithLabelValues(sport).Inc()
			d.log.Warn("fanout delivery failed",
				zap.Int64("recipient", u.TelegramID),
				zap.String("sport", sport),
				zap.Error(err))
		}
	}
	return stats
}

// report raises the operator alert when deliveries failed beyond the
// silently-discounted unreachable ones.
func (d *Dispatcher) report(ctx context.Context, stats Stats, sport, strategy string) {
	if stats.Failed == 0 || d.operatorChatID == 0 {
		return
	}
	text := fmt.Sprintf("⚠️ Invii falliti per %s - %s: %d su %d",
		sport, strategy, stats.Failed, stats.Attempted-stats.Unreachable)
	if err := d.sender.Send(ctx, d.operatorChatID, text); err != nil {
		d.log.Error("operator alert failed", zap.Error(err))
	}
}
