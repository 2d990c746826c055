package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindSportIsCaseAndSeparatorInsensitive(t *testing.T) {
	for _, token := range []string{"calcio", "CALCIO", " Calcio ", "cal_cio", "Cal-Cio"} {
		s, ok := FindSport(token)
		require.True(t, ok, "token %q", token)
		assert.Equal(t, "calcio", s.Name)
	}

	s, ok := FindSport("Max Exchange")
	require.True(t, ok)
	assert.Equal(t, "maxexchange", s.Name)

	s, ok = FindSport("max_exchange")
	require.True(t, ok)
	assert.Equal(t, "maxexchange", s.Name)
}

func TestFindSportByEmoji(t *testing.T) {
	s, ok := FindSport("⚽")
	require.True(t, ok)
	assert.Equal(t, "calcio", s.Name)
}

func TestFindSportUnknown(t *testing.T) {
	_, ok := FindSport("cricket")
	assert.False(t, ok)
	_, ok = FindSport("")
	assert.False(t, ok)
}

func TestSportEqualityIsByNameOnly(t *testing.T) {
	a := Sport{Name: "calcio", Strategies: []string{StrategyProduzione}}
	b := Sport{Name: "calcio", Strategies: nil}
	assert.True(t, a.Equal(b))
}

func TestStrategyMembership(t *testing.T) {
	calcio, ok := FindSport("calcio")
	require.True(t, ok)
	assert.True(t, calcio.HasStrategy("Produzione"))
	assert.True(t, calcio.HasStrategy("multipla"))

	tennis, ok := FindSport("tennis")
	require.True(t, ok)
	assert.False(t, tennis.HasStrategy("multipla"))

	st, ok := FindStrategy(calcio, " PRODUZIONE ")
	require.True(t, ok)
	assert.Equal(t, StrategyProduzione, st)
}

func TestFindPlanCanonicalBeforeAlias(t *testing.T) {
	// "calcio" is both a plan name and could collide with aliases; the
	// canonical table wins.
	p, ok := FindPlan("calcio")
	require.True(t, ok)
	assert.Equal(t, "calcio", p.Name)

	p, ok = FindPlan("tennis")
	require.True(t, ok)
	assert.Equal(t, "racchetta", p.Name)

	p, ok = FindPlan("VIP")
	require.True(t, ok)
	assert.Equal(t, "completo", p.Name)

	_, ok = FindPlan("oro")
	assert.False(t, ok)
}

func TestPlanCoverage(t *testing.T) {
	completo, _ := FindPlan("completo")
	assert.True(t, completo.Universal())
	assert.True(t, completo.Covers("basket"))

	exchange, _ := FindPlan("exchange")
	assert.False(t, exchange.Universal())
	assert.True(t, exchange.Covers("maxexchange"))
	assert.False(t, exchange.Covers("calcio"))
}
