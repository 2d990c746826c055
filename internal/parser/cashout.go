package parser

import (
	"regexp"
	"strconv"
	"strings"

	"lotbot/internal/money"
)

// CashoutMessage is the decoded form of an exchange cashout line like
// "#42 +3,5". Pct is in hundredths of a percent.
type CashoutMessage struct {
	Number int
	Pct    int64
}

var cashoutRe = regexp.MustCompile(`^#(\d+)\s+([+-]?\d+(?:[.,]\d+)?)\s*$`)

// LooksLikeCashout reports whether the line has the cashout shape.
func LooksLikeCashout(line string) bool {
	return cashoutRe.MatchString(strings.TrimSpace(line))
}

// ParseCashout decodes a single-line cashout. Only the exchange authoring
// chat routes here.
func ParseCashout(line string) (*CashoutMessage, error) {
	m := cashoutRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return nil, parseErr(ErrBadFormat, "formato cashout non riconosciuto", line)
	}
	num, err := strconv.Atoi(m[1])
	if err != nil || num <= 0 {
		return nil, parseErr(ErrMissingNumber, "numero giocata non valido", m[1])
	}
	pct, err := money.ParseFixed(m[2])
	if err != nil {
		return nil, parseErr(ErrBadFormat, "percentuale non valida", m[2])
	}
	return &CashoutMessage{Number: num, Pct: pct}, nil
}
