package parser

import (
	"strings"

	"lotbot/internal/catalog"
)

// BroadcastCommand is the command prefix for addressed announcements.
const BroadcastCommand = "/messaggio_abbonati"

// BroadcastMessage targets every subscriber of (Sport, Strategy); Strategy
// "all" means every strategy of the sport.
type BroadcastMessage struct {
	Sport    catalog.Sport
	Strategy string
	Body     string
}

// ParseBroadcast decodes "/messaggio_abbonati <sport> - <strategy|all>"
// followed by the free-text body.
func ParseBroadcast(text string) (*BroadcastMessage, error) {
	header := text
	body := ""
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		header, body = text[:i], strings.TrimSpace(text[i+1:])
	}
	header = strings.TrimSpace(header)
	if !strings.HasPrefix(header, BroadcastCommand) {
		return nil, parseErr(ErrBadFormat, "comando mancante", header)
	}
	rest := strings.TrimSpace(strings.TrimPrefix(header, BroadcastCommand))
	parts := strings.SplitN(rest, "-", 2)
	if len(parts) != 2 {
		return nil, parseErr(ErrBadFormat, "atteso <sport> - <strategia>", rest)
	}
	sportTok := strings.TrimSpace(parts[0])
	stratTok := strings.TrimSpace(parts[1])

	sport, ok := catalog.FindSport(sportTok)
	if !ok {
		return nil, parseErr(ErrUnknownSport, "sport non riconosciuto", sportTok)
	}
	if catalog.Normalize(stratTok) == catalog.All {
		return &BroadcastMessage{Sport: sport, Strategy: catalog.All, Body: body}, nil
	}
	strategy, ok := catalog.FindStrategy(sport, stratTok)
	if !ok {
		if knownStrategyAnywhere(stratTok) {
			return nil, parseErr(ErrStrategyNotAllowed, "strategia non prevista per "+sport.Display, stratTok)
		}
		return nil, parseErr(ErrUnknownStrategy, "strategia non riconosciuta", stratTok)
	}
	return &BroadcastMessage{Sport: sport, Strategy: strategy, Body: body}, nil
}
