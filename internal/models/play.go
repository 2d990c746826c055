package models

import "time"

// Outcome is the terminal state of a Play. A play starts open ("?") and
// transitions to a terminal value exactly once.
type Outcome string

const (
	OutcomeOpen Outcome = "?"
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomeVoid Outcome = "void"
)

// Terminal reports whether o freezes the play.
func (o Outcome) Terminal() bool {
	return o == OutcomeWin || o == OutcomeLoss || o == OutcomeVoid
}

// Play is a staff-authored tip. The natural key (Sport, Number) is unique
// across history and routes later outcomes back to the play.
type Play struct {
	ID           uint   `gorm:"primaryKey"`
	Sport        string `gorm:"size:32;not null;uniqueIndex:idx_play_key"`
	Number       int    `gorm:"not null;uniqueIndex:idx_play_key"`
	Strategy     string `gorm:"size:32;not null"`
	BaseOdds     int64  `gorm:"not null"` // hundredths, >= 100
	BaseStakePct int64  `gorm:"not null"` // hundredths of a percent, >= 1
	// SentTimestamp is epoch seconds of the authoring message.
	SentTimestamp float64 `gorm:"not null"`
	RawText       string  `gorm:"type:text"`
	Outcome       Outcome `gorm:"size:8;default:'?'"`
	// Cashout is the exchange early-settlement delta in hundredths of a
	// percent; nil for plays settled by win/loss.
	Cashout   *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
