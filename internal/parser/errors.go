// Package parser decodes the free-form authoring messages: plays,
// play outcomes, cashouts and broadcast headers. Parsers are pure; they
// never touch the database.
package parser

import "fmt"

// ErrorKind classifies a ParseError.
type ErrorKind string

const (
	ErrUnknownSport       ErrorKind = "unknown_sport"
	ErrUnknownStrategy    ErrorKind = "unknown_strategy"
	ErrStrategyNotAllowed ErrorKind = "strategy_not_allowed"
	ErrMissingStake       ErrorKind = "missing_stake"
	ErrMissingOdds        ErrorKind = "missing_odds"
	ErrMissingNumber      ErrorKind = "missing_number"
	ErrUnknownVerdict     ErrorKind = "unknown_verdict"
	ErrBadFormat          ErrorKind = "bad_format"
)

// ParseError carries the kind, a human-readable reason and the offending
// token, so the authoring chat can be answered quoting the field.
type ParseError struct {
	What   ErrorKind
	Reason string
	Token  string
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("%s: %s (%q)", e.What, e.Reason, e.Token)
	}
	return fmt.Sprintf("%s: %s", e.What, e.Reason)
}

func parseErr(kind ErrorKind, reason, token string) *ParseError {
	return &ParseError{What: kind, Reason: reason, Token: token}
}
