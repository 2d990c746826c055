package models

import (
	"fmt"
	"strings"
	"time"
)

// Roles. Operator commands are gated on Admin/Analyst; Partner unlocks the
// referral dashboard.
const (
	RoleUser    = "user"
	RoleAnalyst = "analyst"
	RoleAdmin   = "admin"
	RolePartner = "partner"
)

// ReferralSuffix is appended to every referral code; user input without it
// gets it attached automatically.
const ReferralSuffix = "-lot"

// DefaultReferralCode derives the code a user owns until an operator
// assigns a custom one. Derived from the Telegram ID so it is unique from
// the moment the row is inserted.
func DefaultReferralCode(telegramID int64) string {
	return fmt.Sprintf("u%d%s", telegramID, ReferralSuffix)
}

type User struct {
	ID         uint   `gorm:"primaryKey"`
	TelegramID int64  `gorm:"uniqueIndex;not null"`
	Username   string `gorm:"size:255;index"`
	FirstName  string `gorm:"size:255"`
	Role       string `gorm:"size:16;default:'user'"`
	Blocked    bool   `gorm:"default:false"`

	// ReferralCode is the code this user owns (unique); LinkedReferralCode
	// is the code of whoever invited them, if any.
	ReferralCode       string `gorm:"size:32;uniqueIndex"`
	LinkedReferralCode string `gorm:"size:32"`
	LinkedReferrerID   *uint  `gorm:"index"`

	PlanSubscriptions  []PlanSubscription
	SportSubscriptions []SportSubscription
	StakeRules         []StakeRule
	Bankrolls          []Bankroll
	Acceptances        []Acceptance
	Refusals           []Refusal
	Payments           []Payment

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultBankroll returns the loaded bankroll flagged default, if any.
func (u *User) DefaultBankroll() *Bankroll {
	for i := range u.Bankrolls {
		if u.Bankrolls[i].IsDefault {
			return &u.Bankrolls[i]
		}
	}
	return nil
}

// PlanSubscription grants access to a plan until ExpirationTimestamp
// (epoch seconds).
type PlanSubscription struct {
	ID                  uint    `gorm:"primaryKey"`
	UserID              uint    `gorm:"not null;index"`
	PlanName            string  `gorm:"size:32;not null"`
	ExpirationTimestamp float64 `gorm:"not null"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// SportSubscription is one (sport, strategy) the user follows. Strategy
// sets are normalised to one row per strategy; an entry with no strategies
// left simply has no rows.
type SportSubscription struct {
	ID       uint   `gorm:"primaryKey"`
	UserID   uint   `gorm:"not null;uniqueIndex:idx_sport_sub"`
	Sport    string `gorm:"size:32;not null;uniqueIndex:idx_sport_sub"`
	Strategy string `gorm:"size:32;not null;uniqueIndex:idx_sport_sub"`
	CreatedAt time.Time
}

// StakeRule overrides the stake percent for plays whose odds fall inside
// [MinOdds, MaxOdds] and whose sport/strategy match. Rules of one user
// never overlap.
type StakeRule struct {
	ID       uint   `gorm:"primaryKey"`
	UserID   uint   `gorm:"not null;index"`
	MinOdds  int64  `gorm:"not null"` // hundredths
	MaxOdds  int64  `gorm:"not null"` // hundredths
	StakePct int64  `gorm:"not null"` // hundredths of a percent
	Sport    string `gorm:"size:32;not null"` // sport name or "all"
	// Strategies is a comma-joined set ("produzione,recupero" or "all").
	// Only Go code reads it, SQL never filters on it.
	Strategies string `gorm:"size:255;not null"`
	CreatedAt  time.Time
}

// StrategySet splits the stored strategy list.
func (r StakeRule) StrategySet() []string {
	parts := strings.Split(r.Strategies, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Bankroll interest types: simple stakes percentages of the initial
// deposit (InterestBase), compound of the live balance.
const (
	InterestSimple   = "simple"
	InterestCompound = "compound"
)

type Bankroll struct {
	ID           uint   `gorm:"primaryKey"`
	UserID       uint   `gorm:"not null;uniqueIndex:idx_bankroll_name"`
	Name         string `gorm:"size:64;not null;uniqueIndex:idx_bankroll_name"`
	Balance      int64  `gorm:"not null"` // hundredths
	InterestType string `gorm:"size:16;default:'compound'"`
	InterestBase int64  `gorm:"not null"` // hundredths, the initial deposit
	IsDefault    bool   `gorm:"default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StakeBase is the amount a stake percent applies to when rendering the
// absolute stake value.
func (b Bankroll) StakeBase() int64 {
	if b.InterestType == InterestSimple {
		return b.InterestBase
	}
	return b.Balance
}

// Acceptance records that a user follows a play. SettledDelta doubles as
// the idempotency marker: nil until settlement credits the bankroll,
// then the realised money delta in hundredths.
type Acceptance struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"not null;uniqueIndex:idx_acceptance"`
	PlayID uint `gorm:"not null;uniqueIndex:idx_acceptance"`
	// AcceptedAt is epoch seconds.
	AcceptedAt float64 `gorm:"not null"`
	// StakePct is the personal stake at acceptance time; 0 means the play's
	// base stake applies.
	StakePct int64 `gorm:"not null;default:0"`
	// PreBankroll is the default bankroll balance at acceptance time.
	PreBankroll  *int64
	SettledDelta *int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Settled reports whether the acceptance already adjusted a bankroll.
func (a Acceptance) Settled() bool { return a.SettledDelta != nil }

// Refusal records an explicit "no" to a play; no bankroll effect.
type Refusal struct {
	ID        uint    `gorm:"primaryKey"`
	UserID    uint    `gorm:"not null;uniqueIndex:idx_refusal"`
	PlayID    uint    `gorm:"not null;uniqueIndex:idx_refusal"`
	RefusedAt float64 `gorm:"not null"`
	CreatedAt time.Time
}

// Payment is one row of the append-only ledger.
type Payment struct {
	ID         uint   `gorm:"primaryKey"`
	UserID     uint   `gorm:"not null;index"`
	Amount     int64  `gorm:"not null"` // hundredths
	Kind       string `gorm:"size:32;not null"`
	ExternalID string `gorm:"size:64"`
	Note       string `gorm:"size:255"`
	CreatedAt  time.Time
}
