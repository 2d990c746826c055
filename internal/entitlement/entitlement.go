// Package entitlement decides whether a recipient may receive a play at a
// given instant, based on block state and plan subscriptions.
package entitlement

import (
	"lotbot/internal/catalog"
	"lotbot/internal/models"
)

// AllowedSports unions the available sports of every unexpired plan
// subscription at instant t. universal is true when any active plan covers
// all sports.
func AllowedSports(subs []models.PlanSubscription, t float64) (sports []string, universal bool) {
	seen := map[string]bool{}
	for _, s := range subs {
		if s.ExpirationTimestamp <= t {
			continue
		}
		plan, ok := catalog.FindPlan(s.PlanName)
		if !ok {
			continue
		}
		if plan.Universal() {
			return nil, true
		}
		for _, sport := range plan.AvailableSports {
			if !seen[sport] {
				seen[sport] = true
				sports = append(sports, sport)
			}
		}
	}
	return sports, false
}

// Entitled reports whether the user may receive a play on sport at t.
// Blocked users are never entitled.
func Entitled(u *models.User, sport string, t float64) bool {
	if u == nil || u.Blocked {
		return false
	}
	allowed, universal := AllowedSports(u.PlanSubscriptions, t)
	// An empty allowed set is universal: plan gating only restricts users
	// who actually hold restricted plans. Sport-level filtering happens at
	// subscriber resolution, not here.
	if universal || len(allowed) == 0 {
		return true
	}
	n := catalog.Normalize(sport)
	for _, s := range allowed {
		if s == n {
			return true
		}
	}
	return false
}

// RoleIn is the allow-list role check for operator commands.
func RoleIn(role string, allowed ...string) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}
