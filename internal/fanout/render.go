package fanout

import (
	"fmt"
	"regexp"
	"strings"

	"lotbot/internal/catalog"
	"lotbot/internal/models"
	"lotbot/internal/money"
	"lotbot/internal/parser"
	"lotbot/internal/stake"
)

var stakeLineRe = regexp.MustCompile(`(?im)^.*\bstake\s+\d+(?:[.,]\d+)?\s*%.*$`)

// RenderPlay reproduces the canonical authored form of a play. Parsing the
// result recovers the same sport, strategy, number, stake and odds.
func RenderPlay(p *models.Play) string {
	sport, _ := catalog.FindSport(p.Sport)
	return fmt.Sprintf("%s %s\n%s %s\n@%s\nStake %s\nLoT #%d",
		sport.Emoji, sport.Display,
		parser.StrategyMarker, capitalize(p.Strategy),
		money.FormatFixed(p.BaseOdds),
		money.FormatPct(p.BaseStakePct),
		p.Number)
}

// personalize rewrites the stake line of the authored text for one
// recipient: their personal stake percent when a rule applies, and the
// absolute amount when they keep a default bankroll.
func personalize(p *models.Play, u *models.User) string {
	stakePct := p.BaseStakePct
	if rule, ok := selectRule(u, p); ok {
		stakePct = rule.StakePct
	}

	line := "Stake " + money.FormatPct(stakePct)
	if br := u.DefaultBankroll(); br != nil {
		amount := money.DivRound(br.StakeBase()*stakePct, 10_000)
		line += fmt.Sprintf(" (%s)", money.FormatEuro(amount))
	}

	text := p.RawText
	if text == "" {
		text = RenderPlay(p)
	}
	if stakeLineRe.MatchString(text) {
		return stakeLineRe.ReplaceAllString(text, line)
	}
	return text + "\n" + line
}

func selectRule(u *models.User, p *models.Play) (models.StakeRule, bool) {
	return stake.Select(u.StakeRules, p.Sport, p.Strategy, p.BaseOdds)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// PersonalStake returns the stake percent a rule assigns this recipient
// for the play, or 0 when the base stake applies. The acceptance handler
// records it so settlement sees the stake that was current at accept time.
func PersonalStake(u *models.User, p *models.Play) int64 {
	if rule, ok := selectRule(u, p); ok {
		return rule.StakePct
	}
	return 0
}

func renderCashout(p *models.Play, pct int64) string {
	sport, _ := catalog.FindSport(p.Sport)
	return fmt.Sprintf("%s %s #%d\n💰 Cashout %s",
		sport.Emoji, sport.Display, p.Number, money.FormatSignedPct(pct))
}
