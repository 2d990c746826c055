package entitlement

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lotbot/internal/models"
)

func user(subs ...models.PlanSubscription) *models.User {
	return &models.User{PlanSubscriptions: subs}
}

func TestBlockedIsNeverEntitled(t *testing.T) {
	u := user(models.PlanSubscription{PlanName: "completo", ExpirationTimestamp: 2000})
	u.Blocked = true
	assert.False(t, Entitled(u, "calcio", 1000))
	assert.False(t, Entitled(nil, "calcio", 1000))
}

func TestUniversalPlan(t *testing.T) {
	u := user(models.PlanSubscription{PlanName: "completo", ExpirationTimestamp: 2000})
	assert.True(t, Entitled(u, "calcio", 1000))
	assert.True(t, Entitled(u, "maxexchange", 1000))
}

func TestRestrictedPlan(t *testing.T) {
	u := user(models.PlanSubscription{PlanName: "exchange", ExpirationTimestamp: 2000})
	assert.True(t, Entitled(u, "exchange", 1000))
	assert.True(t, Entitled(u, "Max Exchange", 1000))
	assert.False(t, Entitled(u, "calcio", 1000))
}

func TestExpiredPlanDoesNotCount(t *testing.T) {
	u := user(models.PlanSubscription{PlanName: "exchange", ExpirationTimestamp: 500})
	// With no active restricted plan the gate is open; sport filtering is
	// done by subscriber resolution.
	assert.True(t, Entitled(u, "calcio", 1000))

	allowed, universal := AllowedSports(u.PlanSubscriptions, 1000)
	assert.False(t, universal)
	assert.Empty(t, allowed)
}

func TestAddingSubscriptionNeverReducesEntitlements(t *testing.T) {
	base := []models.PlanSubscription{{PlanName: "calcio", ExpirationTimestamp: 2000}}
	more := append([]models.PlanSubscription{{PlanName: "exchange", ExpirationTimestamp: 2000}}, base...)

	for _, sport := range []string{"calcio", "exchange", "maxexchange"} {
		if Entitled(user(base...), sport, 1000) {
			assert.True(t, Entitled(user(more...), sport, 1000), "sport %s", sport)
		}
	}
}

func TestRoleIn(t *testing.T) {
	assert.True(t, RoleIn(models.RoleAdmin, models.RoleAdmin, models.RoleAnalyst))
	assert.False(t, RoleIn(models.RoleUser, models.RoleAdmin, models.RoleAnalyst))
}
