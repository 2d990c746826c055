package parser

import (
	"regexp"
	"strconv"
	"strings"

	"lotbot/internal/catalog"
	"lotbot/internal/models"
	"lotbot/internal/money"
)

// OutcomeMessage is the decoded form of a settlement line like
// "🟢 Calcio #42 Vincente +3,60% 🟢".
type OutcomeMessage struct {
	Sport   catalog.Sport
	Number  int
	Outcome models.Outcome
	// DeltaPct is the announced percent in hundredths; informational, the
	// settlement engine recomputes per recipient.
	DeltaPct int64
}

var outcomeRe = regexp.MustCompile(`^(?:🟢|🔴|⚪)\s+(.+?)\s+#(\d+)\s+(\p{L}+)\s+([+-]?\d+(?:[.,]\d+)?)\s*%\s*(?:🟢|🔴|⚪)\s*$`)

var verdicts = map[string]models.Outcome{
	"vincente":  models.OutcomeWin,
	"vinta":     models.OutcomeWin,
	"vittoria":  models.OutcomeWin,
	"perdente":  models.OutcomeLoss,
	"persa":     models.OutcomeLoss,
	"perdita":   models.OutcomeLoss,
	"sconfitta": models.OutcomeLoss,
}

// LooksLikeOutcome is a cheap routing probe: it only checks the shape, not
// the catalog.
func LooksLikeOutcome(line string) bool {
	return outcomeRe.MatchString(strings.TrimSpace(line))
}

// ParseOutcome decodes a single-line outcome message.
func ParseOutcome(line string) (*OutcomeMessage, error) {
	m := outcomeRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return nil, parseErr(ErrBadFormat, "formato esito non riconosciuto", line)
	}
	sport, ok := catalog.FindSport(m[1])
	if !ok {
		return nil, parseErr(ErrUnknownSport, "sport non riconosciuto", m[1])
	}
	num, err := strconv.Atoi(m[2])
	if err != nil || num <= 0 {
		return nil, parseErr(ErrMissingNumber, "numero giocata non valido", m[2])
	}
	outcome, ok := verdicts[strings.ToLower(m[3])]
	if !ok {
		return nil, parseErr(ErrUnknownVerdict, "verdetto non riconosciuto", m[3])
	}
	delta, err := money.ParseFixed(m[4])
	if err != nil {
		return nil, parseErr(ErrBadFormat, "percentuale non valida", m[4])
	}
	return &OutcomeMessage{Sport: sport, Number: num, Outcome: outcome, DeltaPct: delta}, nil
}
