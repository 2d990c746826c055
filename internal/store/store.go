// Package store is the repository over the record store. It exposes the
// small closed set of typed operations the engines need (get,
// insert-unique, guarded partial update, add-if-absent, pull,
// aggregation) so the query language never leaks into the engines.
package store

import (
	"context"
	"errors"
	"time"

	"lotbot/internal/models"
)

var (
	// ErrNotFound is returned when a get misses.
	ErrNotFound = errors.New("record non trovato")
	// ErrDuplicate is returned when an insert-unique collides.
	ErrDuplicate = errors.New("record già esistente")
)

// StatementLine is one settled acceptance of a user's statement.
type StatementLine struct {
	Play      models.Play
	Delta     int64
	SettledAt time.Time
}

// Store is the persistence contract. Implementations must keep
// add-if-absent and the guarded updates atomic at the row level.
type Store interface {
	// Users.
	FindOrCreateUser(ctx context.Context, telegramID int64, username, firstName string) (*models.User, error)
	UserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	UserByID(ctx context.Context, id uint) (*models.User, error)
	UserByHandle(ctx context.Context, handle string) (*models.User, error)
	UserByReferralCode(ctx context.Context, code string) (*models.User, error)
	ActiveUsers(ctx context.Context) ([]models.User, error)
	SetBlocked(ctx context.Context, userID uint, blocked bool) error
	SetRole(ctx context.Context, userID uint, role string) error
	SetReferralCode(ctx context.Context, userID uint, code string) error
	LinkReferral(ctx context.Context, userID uint, code string, referrerID uint) error

	// Plan and sport subscriptions.
	ExtendPlanSubscription(ctx context.Context, userID uint, plan string, days int, now time.Time) (float64, error)
	ExpiringPlanSubscriptions(ctx context.Context, from, to float64) ([]models.PlanSubscription, error)
	AddSportSubscription(ctx context.Context, userID uint, sport, strategy string) (bool, error)
	RemoveSportSubscription(ctx context.Context, userID uint, sport, strategy string) error

	// Plays.
	InsertPlay(ctx context.Context, play *models.Play) error
	PlayByKey(ctx context.Context, sport string, number int) (*models.Play, error)
	PlayByID(ctx context.Context, id uint) (*models.Play, error)
	SetPlayOutcome(ctx context.Context, playID uint, outcome models.Outcome, cashout *int64) (bool, error)

	// Subscriber resolution. Recipients are preloaded with everything the
	// fan-out personalisation needs.
	Recipients(ctx context.Context, sport, strategy string) ([]models.User, error)
	SportRecipients(ctx context.Context, sports []string) ([]models.User, error)

	// Acceptance protocol.
	AddAcceptance(ctx context.Context, a models.Acceptance) (bool, error)
	AddRefusal(ctx context.Context, r models.Refusal) (bool, error)
	AcceptancesForPlay(ctx context.Context, playID uint) ([]models.Acceptance, error)
	SettleAcceptance(ctx context.Context, acceptanceID, bankrollID uint, delta int64) (bool, error)

	// Bankrolls.
	EnsureDefaultBankroll(ctx context.Context, userID uint) (*models.Bankroll, error)
	AddBankroll(ctx context.Context, b *models.Bankroll) error
	SetDefaultBankroll(ctx context.Context, userID uint, name string) error
	AdjustBankrollBalance(ctx context.Context, bankrollID uint, delta int64) error

	// Personal stakes.
	StakeRules(ctx context.Context, userID uint) ([]models.StakeRule, error)
	AddStakeRule(ctx context.Context, r *models.StakeRule) error
	DeleteStakeRule(ctx context.Context, userID, ruleID uint) error

	// Ledger and aggregations.
	AddPayment(ctx context.Context, p *models.Payment) error
	SettledPlaysSince(ctx context.Context, since time.Time) ([]models.Play, error)
	LastSettledPlays(ctx context.Context, n int) ([]models.Play, error)
	StatementFor(ctx context.Context, userID uint, since time.Time) ([]StatementLine, error)
}
