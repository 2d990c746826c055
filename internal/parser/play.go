package parser

import (
	"regexp"
	"strconv"
	"strings"

	"lotbot/internal/catalog"
	"lotbot/internal/models"
	"lotbot/internal/money"
)

// StrategyMarker starts the strategy line of an authored play.
const StrategyMarker = "🎯"

var (
	stakeRe  = regexp.MustCompile(`(?i)\bstake\s+(\d+(?:[.,]\d+)?)\s*%`)
	oddsAtRe = regexp.MustCompile(`@\s*(\d+(?:[.,]\d+)?)`)
	quotaRe  = regexp.MustCompile(`(?i)\bquota\s+(\d+(?:[.,]\d+)?)`)
	numberRe = regexp.MustCompile(`#(\d+)`)
)

// ParsePlay decodes a multi-line authored play. sentAt is the epoch-second
// timestamp of the authoring message. The returned play has outcome "?".
func ParsePlay(text string, sentAt float64) (*models.Play, error) {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, parseErr(ErrBadFormat, "messaggio vuoto", "")
	}

	sport, ok := findSportToken(lines[0])
	if !ok {
		return nil, parseErr(ErrUnknownSport, "sport non riconosciuto", strings.TrimSpace(lines[0]))
	}

	strategy := ""
	for _, line := range lines[1:] {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, StrategyMarker) {
			continue
		}
		token := strings.TrimSpace(strings.TrimPrefix(trimmed, StrategyMarker))
		if token == "" {
			return nil, parseErr(ErrUnknownStrategy, "strategia mancante", trimmed)
		}
		// Resolve against any sport first to tell "unknown" apart from
		// "not permitted on this sport".
		if st, ok := catalog.FindStrategy(sport, token); ok {
			strategy = st
			break
		}
		if knownStrategyAnywhere(token) {
			return nil, parseErr(ErrStrategyNotAllowed, "strategia non prevista per "+sport.Display, token)
		}
		return nil, parseErr(ErrUnknownStrategy, "strategia non riconosciuta", token)
	}
	if strategy == "" {
		return nil, parseErr(ErrUnknownStrategy, "riga strategia mancante", "")
	}

	m := stakeRe.FindStringSubmatch(text)
	if m == nil {
		return nil, parseErr(ErrMissingStake, "stake mancante", "")
	}
	stakePct, err := money.ParseFixed(m[1])
	if err != nil || stakePct < 1 {
		return nil, parseErr(ErrMissingStake, "stake non valido", m[1])
	}

	oddsTok := ""
	if m := oddsAtRe.FindStringSubmatch(text); m != nil {
		oddsTok = m[1]
	} else if m := quotaRe.FindStringSubmatch(text); m != nil {
		oddsTok = m[1]
	}
	if oddsTok == "" {
		return nil, parseErr(ErrMissingOdds, "quota mancante", "")
	}
	odds, err := money.ParseFixed(oddsTok)
	if err != nil || odds < 100 {
		return nil, parseErr(ErrMissingOdds, "quota non valida", oddsTok)
	}

	num, ok := findNumber(lines)
	if !ok {
		return nil, parseErr(ErrMissingNumber, "numero giocata mancante", "")
	}

	return &models.Play{
		Sport:         sport.Name,
		Number:        num,
		Strategy:      strategy,
		BaseOdds:      odds,
		BaseStakePct:  stakePct,
		SentTimestamp: sentAt,
		RawText:       text,
		Outcome:       models.OutcomeOpen,
	}, nil
}

// findSportToken scans the whitespace tokens of the first line for a sport
// name or emoji.
func findSportToken(line string) (catalog.Sport, bool) {
	for _, tok := range strings.Fields(line) {
		if s, ok := catalog.FindSport(tok); ok {
			return s, true
		}
	}
	// Multi-word display names ("Max Exchange") span tokens; try the whole
	// line as a last resort.
	return catalog.FindSport(line)
}

func knownStrategyAnywhere(token string) bool {
	for _, s := range catalog.Sports() {
		if s.HasStrategy(token) {
			return true
		}
	}
	return false
}

// findNumber takes the play number from the last line carrying a '#'.
func findNumber(lines []string) (int, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		if m := numberRe.FindStringSubmatch(lines[i]); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil || n <= 0 {
				return 0, false
			}
			return n, true
		}
	}
	return 0, false
}
