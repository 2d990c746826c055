package stake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotbot/internal/models"
)

func mustRule(t *testing.T, min, max, pct, sport string, strategies ...string) models.StakeRule {
	t.Helper()
	r, err := NewRule(min, max, pct, sport, strategies)
	require.NoError(t, err)
	return r
}

func TestNewRuleValid(t *testing.T) {
	r := mustRule(t, "1,50", "2.50", "5", "calcio", "Produzione", "produzione", "recupero")
	assert.Equal(t, int64(150), r.MinOdds)
	assert.Equal(t, int64(250), r.MaxOdds)
	assert.Equal(t, int64(500), r.StakePct)
	assert.Equal(t, "calcio", r.Sport)
	// duplicates collapse
	assert.Equal(t, []string{"produzione", "recupero"}, r.StrategySet())
}

func TestNewRuleAllCollapses(t *testing.T) {
	r := mustRule(t, "1,01", "10", "1", "all", "produzione", "all")
	assert.Equal(t, []string{"all"}, r.StrategySet())
}

func TestNewRuleBoundaries(t *testing.T) {
	// 100% is the ceiling.
	_, err := NewRule("1,50", "2,50", "100", "all", []string{"all"})
	assert.NoError(t, err)
	_, err = NewRule("1,50", "2,50", "100,01", "all", []string{"all"})
	assert.Error(t, err)

	// min == max is rejected.
	_, err = NewRule("2,00", "2,00", "5", "all", []string{"all"})
	assert.Error(t, err)

	_, err = NewRule("0", "2,00", "5", "all", []string{"all"})
	assert.Error(t, err)
	_, err = NewRule("1,50", "2,50", "0", "all", []string{"all"})
	assert.Error(t, err)
	_, err = NewRule("1,50", "2,50", "5", "cricket", []string{"all"})
	assert.Error(t, err)
	_, err = NewRule("1,50", "2,50", "5", "tennis", []string{"multipla"})
	assert.Error(t, err, "multipla is not a tennis strategy")
	_, err = NewRule("1,50", "2,50", "5", "calcio", nil)
	assert.Error(t, err)
}

func TestOverlapPredicate(t *testing.T) {
	base := mustRule(t, "1,50", "2,50", "5", "calcio", "produzione")

	// Scenario: (200, 300, 2%, all, all) overlaps the base rule.
	wild := mustRule(t, "2,00", "3,00", "2", "all", "all")
	assert.True(t, Overlaps(base, wild))
	assert.Error(t, CheckAgainst([]models.StakeRule{base}, wild))

	// Disjoint interval: no overlap.
	higher := mustRule(t, "2,51", "3,00", "2", "calcio", "produzione")
	assert.False(t, Overlaps(base, higher))
	assert.NoError(t, CheckAgainst([]models.StakeRule{base}, higher))

	// Same interval, different sport: no overlap.
	tennis := mustRule(t, "1,50", "2,50", "2", "tennis", "produzione")
	assert.False(t, Overlaps(base, tennis))

	// Same interval and sport, disjoint strategies: no overlap.
	recupero := mustRule(t, "1,50", "2,50", "2", "calcio", "recupero")
	assert.False(t, Overlaps(base, recupero))

	// Touching endpoints intersect.
	touching := mustRule(t, "2,50", "3,00", "2", "calcio", "produzione")
	assert.True(t, Overlaps(base, touching))
}

func TestSelect(t *testing.T) {
	rules := []models.StakeRule{
		mustRule(t, "1,50", "2,50", "5", "calcio", "produzione"),
		mustRule(t, "2,51", "4,00", "3", "all", "all"),
	}

	r, ok := Select(rules, "calcio", "produzione", 220)
	require.True(t, ok)
	assert.Equal(t, int64(500), r.StakePct)

	r, ok = Select(rules, "tennis", "recupero", 300)
	require.True(t, ok)
	assert.Equal(t, int64(300), r.StakePct)

	// Outside every interval.
	_, ok = Select(rules, "calcio", "produzione", 500)
	assert.False(t, ok)

	// Strategy not covered by the calcio rule, odds outside the wildcard.
	_, ok = Select(rules, "calcio", "recupero", 220)
	assert.False(t, ok)
}
