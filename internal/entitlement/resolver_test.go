package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"rinknet/pkg/domain"
)

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func freshAccount(plan domain.PlanID, status domain.SubscriptionStatus) Account {
	return Account{
		CreatedAt: now.Add(-10 * 24 * time.Hour),
		HasPlan:   plan != "",
		Plan:      plan,
		Status:    status,
	}
}

func agedAccount(plan domain.PlanID, status domain.SubscriptionStatus) Account {
	a := freshAccount(plan, status)
	a.CreatedAt = now.Add(-90 * 24 * time.Hour)
	return a
}

func TestResolve_FreeFloor(t *testing.T) {
	free := agedAccount("", "")

	assert.True(t, Resolve(free, FeatureSubmitFacilities, now))
	assert.False(t, Resolve(free, FeatureContactRequests, now))
	assert.False(t, Resolve(free, FeatureHigherStats, now))
}

func TestResolve_TierContainment(t *testing.T) {
	gold := agedAccount(domain.PlanGold, domain.SubStatusActive)
	elite := agedAccount(domain.PlanElite, domain.SubStatusActive)

	// Every gold feature is also an elite feature.
	for f := range minimumTier {
		if Resolve(gold, f, now) {
			assert.True(t, Resolve(elite, f, now), "elite must include gold feature %s", f)
		}
	}

	assert.True(t, Resolve(gold, FeatureContactRequests, now))
	assert.False(t, Resolve(gold, FeatureSocialMediaLinks, now))
	assert.True(t, Resolve(elite, FeatureSocialMediaLinks, now))
}

func TestResolve_FamilyPlansMatchBaseTier(t *testing.T) {
	gold := agedAccount(domain.PlanGold, domain.SubStatusActive)
	famGold := agedAccount(domain.PlanFamilyGold, domain.SubStatusActive)
	elite := agedAccount(domain.PlanElite, domain.SubStatusActive)
	famElite := agedAccount(domain.PlanFamilyElite, domain.SubStatusActive)

	for f := range minimumTier {
		assert.Equal(t, Resolve(gold, f, now), Resolve(famGold, f, now),
			"familyGold must match gold for %s", f)
		assert.Equal(t, Resolve(elite, f, now), Resolve(famElite, f, now),
			"familyElite must match elite for %s", f)
	}
}

func TestResolve_TrialIsFloorNotCeiling(t *testing.T) {
	freeBaseline := agedAccount("", "")
	trialNoPlan := Account{CreatedAt: now.Add(-5 * 24 * time.Hour)}
	trialWithPaid := freshAccount(domain.PlanElite, domain.SubStatusActive)

	// Within 30 days with no plan: exactly the free feature set.
	for f := range minimumTier {
		assert.Equal(t, Resolve(freeBaseline, f, now), Resolve(trialNoPlan, f, now),
			"trial account must match free for %s", f)
	}

	// An active paid plan wins over the trial floor.
	assert.True(t, Resolve(trialWithPaid, FeatureHigherStats, now))
}

func TestResolve_InactiveStatusRevokesImmediately(t *testing.T) {
	for _, status := range []domain.SubscriptionStatus{domain.SubStatusCanceled, domain.SubStatusPastDue} {
		acct := agedAccount(domain.PlanElite, status)
		assert.False(t, Resolve(acct, FeatureContactRequests, now), string(status))
		assert.Equal(t, domain.PlanFree, EffectivePlan(acct, now), string(status))
	}

	// trialing still entitles.
	trialing := agedAccount(domain.PlanGold, domain.SubStatusTrialing)
	assert.True(t, Resolve(trialing, FeatureContactRequests, now))
}

func TestResolve_UnknownFeatureDenied(t *testing.T) {
	elite := agedAccount(domain.PlanElite, domain.SubStatusActive)
	assert.False(t, Resolve(elite, Feature("teleportation"), now))
	assert.False(t, Known(Feature("teleportation")))
	assert.True(t, Known(FeatureContactRequests))
}

func TestInTrial(t *testing.T) {
	assert.True(t, InTrial(Account{CreatedAt: now.Add(-29 * 24 * time.Hour)}, now))
	assert.False(t, InTrial(Account{CreatedAt: now.Add(-31 * 24 * time.Hour)}, now))
}
