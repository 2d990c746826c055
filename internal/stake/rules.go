// Package stake implements the personal-stake rule engine: validation of
// new rules, the no-overlap invariant and rule selection at fan-out time.
package stake

import (
	"errors"
	"fmt"
	"strings"

	"lotbot/internal/catalog"
	"lotbot/internal/models"
	"lotbot/internal/money"
)

// ErrOverlap is returned when a new rule would overlap an existing one.
var ErrOverlap = errors.New("la regola si sovrappone a una esistente")

// MaxStakePct is 100% in hundredths.
const MaxStakePct = 10000

// NewRule validates and builds a rule from free-form tokens. Odds are
// decimal literals ("1,50"), stakePct likewise ("5" or "5,00"); sport may
// be "all"; each strategy must belong to the sport unless sport is "all".
func NewRule(minOdds, maxOdds, stakePct, sport string, strategies []string) (models.StakeRule, error) {
	var r models.StakeRule

	min, err := money.ParseFixed(minOdds)
	if err != nil || min <= 0 {
		return r, fmt.Errorf("quota minima non valida: %q", minOdds)
	}
	max, err := money.ParseFixed(maxOdds)
	if err != nil || max <= 0 {
		return r, fmt.Errorf("quota massima non valida: %q", maxOdds)
	}
	if min >= max {
		return r, fmt.Errorf("intervallo quote non valido: %s >= %s", minOdds, maxOdds)
	}
	pct, err := money.ParseFixed(stakePct)
	if err != nil || pct <= 0 || pct > MaxStakePct {
		return r, fmt.Errorf("stake non valido: %q", stakePct)
	}

	sportName := catalog.All
	if catalog.Normalize(sport) != catalog.All {
		s, ok := catalog.FindSport(sport)
		if !ok {
			return r, fmt.Errorf("sport non riconosciuto: %q", sport)
		}
		sportName = s.Name
	}

	set, err := normalizeStrategies(sportName, strategies)
	if err != nil {
		return r, err
	}

	return models.StakeRule{
		MinOdds:    min,
		MaxOdds:    max,
		StakePct:   pct,
		Sport:      sportName,
		Strategies: strings.Join(set, ","),
	}, nil
}

// normalizeStrategies resolves, validates and deduplicates the strategy
// tokens. "all" anywhere collapses the set to just "all".
func normalizeStrategies(sport string, tokens []string) ([]string, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("almeno una strategia richiesta")
	}
	var set []string
	seen := map[string]bool{}
	for _, tok := range tokens {
		n := catalog.Normalize(tok)
		if n == catalog.All {
			return []string{catalog.All}, nil
		}
		resolved := ""
		if sport == catalog.All {
			for _, s := range catalog.Sports() {
				if st, ok := catalog.FindStrategy(s, tok); ok {
					resolved = st
					break
				}
			}
		} else {
			s, _ := catalog.FindSport(sport)
			if st, ok := catalog.FindStrategy(s, tok); ok {
				resolved = st
			}
		}
		if resolved == "" {
			return nil, fmt.Errorf("strategia non valida per %s: %q", sport, tok)
		}
		if !seen[resolved] {
			seen[resolved] = true
			set = append(set, resolved)
		}
	}
	return set, nil
}

// Overlaps implements the overlap predicate: sport compatible AND strategy
// compatible AND odds intervals intersecting.
func Overlaps(a, b models.StakeRule) bool {
	return sportsCompatible(a.Sport, b.Sport) &&
		strategiesCompatible(a.StrategySet(), b.StrategySet()) &&
		a.MinOdds <= b.MaxOdds && b.MinOdds <= a.MaxOdds
}

func sportsCompatible(a, b string) bool {
	return a == b || a == catalog.All || b == catalog.All
}

func strategiesCompatible(a, b []string) bool {
	for _, s := range a {
		if s == catalog.All {
			return true
		}
	}
	for _, s := range b {
		if s == catalog.All {
			return true
		}
	}
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// CheckAgainst rejects r when it overlaps any existing rule.
func CheckAgainst(existing []models.StakeRule, r models.StakeRule) error {
	for _, e := range existing {
		if Overlaps(e, r) {
			return ErrOverlap
		}
	}
	return nil
}

// Select picks the rule applying to (sport, strategy, odds), scanning in
// insertion order. The non-overlap invariant makes the match unique.
func Select(rules []models.StakeRule, sport, strategy string, odds int64) (models.StakeRule, bool) {
	for _, r := range rules {
		if r.Sport != catalog.All && r.Sport != sport {
			continue
		}
		if !containsStrategy(r.StrategySet(), strategy) {
			continue
		}
		if odds < r.MinOdds || odds > r.MaxOdds {
			continue
		}
		return r, true
	}
	return models.StakeRule{}, false
}

func containsStrategy(set []string, strategy string) bool {
	for _, s := range set {
		if s == catalog.All || s == strategy {
			return true
		}
	}
	return false
}
