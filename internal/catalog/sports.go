package catalog

import "strings"

// All is the wildcard token accepted wherever a sport or strategy set is
// expected (personal-stake rules, broadcast headers).
const All = "all"

// Strategy names are plain strings; the closed set lives inside each Sport.
const (
	StrategyProduzione = "produzione"
	StrategyRecupero   = "recupero"
	StrategyMultipla   = "multipla"
)

// Sport is one entry of the closed sport catalog. Two sports are the same
// sport iff their Name matches; Display, Emoji and Strategies are
// presentation and policy, not identity.
type Sport struct {
	Name       string
	Display    string
	Emoji      string
	Strategies []string
}

func (s Sport) Equal(o Sport) bool { return s.Name == o.Name }

// HasStrategy reports whether the (normalised) strategy is permitted on s.
func (s Sport) HasStrategy(token string) bool {
	n := Normalize(token)
	for _, st := range s.Strategies {
		if st == n {
			return true
		}
	}
	return false
}

var sports = []Sport{
	{Name: "calcio", Display: "Calcio", Emoji: "⚽", Strategies: []string{StrategyProduzione, StrategyRecupero, StrategyMultipla}},
	{Name: "tennis", Display: "Tennis", Emoji: "🎾", Strategies: []string{StrategyProduzione, StrategyRecupero}},
	{Name: "basket", Display: "Basket", Emoji: "🏀", Strategies: []string{StrategyProduzione, StrategyRecupero}},
	{Name: "exchange", Display: "Exchange", Emoji: "📈", Strategies: []string{StrategyProduzione}},
	{Name: "maxexchange", Display: "Max Exchange", Emoji: "🚀", Strategies: []string{StrategyProduzione}},
}

// Sports returns the registration table in declaration order.
func Sports() []Sport { return sports }

// Normalize lowers the token and strips whitespace, underscores and hyphens
// so that "Max_Exchange", "max exchange" and "MAXEXCHANGE" all resolve.
func Normalize(token string) string {
	token = strings.ToLower(strings.TrimSpace(token))
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '_', '-':
			return -1
		}
		return r
	}, token)
}

// FindSport resolves a free-form token (name or emoji) against the catalog.
func FindSport(token string) (Sport, bool) {
	trimmed := strings.TrimSpace(token)
	n := Normalize(token)
	if n == "" && trimmed == "" {
		return Sport{}, false
	}
	for _, s := range sports {
		if Normalize(s.Name) == n || Normalize(s.Display) == n || s.Emoji == trimmed {
			return s, true
		}
	}
	return Sport{}, false
}

// FindStrategy resolves a strategy token within the given sport.
func FindStrategy(s Sport, token string) (string, bool) {
	n := Normalize(token)
	for _, st := range s.Strategies {
		if st == n {
			return st, true
		}
	}
	return "", false
}
