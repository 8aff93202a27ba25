package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rinknet/internal/entitlement"
	"rinknet/internal/player"
	"rinknet/pkg/domain"
)

type fixture struct {
	subs    *MemoryStore
	players *player.MemoryStore
	svc     *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	subs := NewMemoryStore()
	players := player.NewMemoryStore()
	svc := NewService(subs, players, &StubProvider{})
	return &fixture{subs: subs, players: players, svc: svc}
}

func (f *fixture) addOwnedPlayer(t *testing.T, parentID domain.ParentID) domain.PlayerID {
	t.Helper()
	id := domain.NewPlayerID()
	err := f.players.Create(context.Background(), &player.Player{
		ID:        id,
		ParentID:  parentID,
		FirstName: "Alex",
		LastName:  "Tremblay",
		BirthYear: 2012,
		Status:    player.StatusUnverified,
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) activeSubscription(t *testing.T, parentID domain.ParentID, plan domain.PlanID, slots int) *Subscription {
	t.Helper()
	sub := &Subscription{
		ID:            domain.NewSubscriptionID(),
		ParentID:      parentID,
		Plan:          plan,
		Status:        domain.SubStatusActive,
		BillingPeriod: BillingMonthly,
		Slots:         slots,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	require.NoError(t, f.subs.Upsert(context.Background(), sub))
	return sub
}

func TestCanAdd_FirstPlayerRidesFree(t *testing.T) {
	f := newFixture(t)
	parentID := domain.NewParentID()

	decision, err := f.svc.CanAdd(context.Background(), parentID)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 1, decision.Limit)
	assert.Equal(t, 0, decision.Current)
}

func TestCanAdd_SecondPlayerWithoutPlanRequiresCheckout(t *testing.T) {
	f := newFixture(t)
	parentID := domain.NewParentID()
	f.addOwnedPlayer(t, parentID)

	decision, err := f.svc.CanAdd(context.Background(), parentID)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.True(t, decision.CheckoutRequired)
	assert.False(t, decision.UpgradeRequired)
	assert.Equal(t, []string{"gold", "elite"}, decision.CheckoutPlanOptions)
}

func TestCanAdd_InactivePlanCountsAsNoPlan(t *testing.T) {
	f := newFixture(t)
	parentID := domain.NewParentID()
	f.addOwnedPlayer(t, parentID)
	sub := f.activeSubscription(t, parentID, domain.PlanGold, 1)
	sub.Status = domain.SubStatusPastDue
	require.NoError(t, f.subs.Upsert(context.Background(), sub))

	decision, err := f.svc.CanAdd(context.Background(), parentID)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.True(t, decision.CheckoutRequired)
}

func TestClaim_PerChildPlanCoversOnePlayerPerPurchase(t *testing.T) {
	f := newFixture(t)
	parentID := domain.NewParentID()
	f.activeSubscription(t, parentID, domain.PlanGold, 1)

	first, err := f.svc.Claim(context.Background(), parentID, domain.NewPlayerID())
	require.NoError(t, err)
	assert.True(t, first.Allowed)

	second, err := f.svc.Claim(context.Background(), parentID, domain.NewPlayerID())
	require.NoError(t, err)
	assert.False(t, second.Allowed)
	assert.True(t, second.CheckoutRequired)
}

func TestClaim_FamilyPlanHardCapsAtSix(t *testing.T) {
	f := newFixture(t)
	parentID := domain.NewParentID()
	f.activeSubscription(t, parentID, domain.PlanFamilyElite, FamilyPlayerLimit)

	for i := 0; i < FamilyPlayerLimit; i++ {
		decision, err := f.svc.Claim(context.Background(), parentID, domain.NewPlayerID())
		require.NoError(t, err)
		require.True(t, decision.Allowed, "player %d should be covered", i+1)
	}

	seventh, err := f.svc.Claim(context.Background(), parentID, domain.NewPlayerID())
	require.NoError(t, err)
	assert.False(t, seventh.Allowed)
	assert.True(t, seventh.UpgradeRequired)
	assert.False(t, seventh.CheckoutRequired)
	assert.Equal(t, FamilyPlayerLimit, seventh.Current)
}

func TestRelease_FreesTheSlot(t *testing.T) {
	f := newFixture(t)
	parentID := domain.NewParentID()
	f.activeSubscription(t, parentID, domain.PlanGold, 1)

	playerID := domain.NewPlayerID()
	decision, err := f.svc.Claim(context.Background(), parentID, playerID)
	require.NoError(t, err)
	require.True(t, decision.Allowed)

	require.NoError(t, f.svc.Release(context.Background(), playerID))

	decision, err = f.svc.Claim(context.Background(), parentID, domain.NewPlayerID())
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestApplyWebhook_ActivatesSubscription(t *testing.T) {
	f := newFixture(t)
	parentID := domain.NewParentID()

	err := f.svc.ApplyWebhook(context.Background(), WebhookEvent{
		Type:          WebhookSubscriptionActive,
		ProviderSubID: "prov-1",
		ParentID:      parentID.String(),
		PlanID:        "gold",
		Status:        "active",
		BillingPeriod: "monthly",
	})
	require.NoError(t, err)

	sub, err := f.subs.GetByParent(context.Background(), parentID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanGold, sub.Plan)
	assert.Equal(t, 1, sub.Slots)
}

func TestApplyWebhook_AddChildCoversNamedPlayer(t *testing.T) {
	f := newFixture(t)
	parentID := domain.NewParentID()
	f.activeSubscription(t, parentID, domain.PlanGold, 1)
	playerID := f.addOwnedPlayer(t, parentID)

	event := WebhookEvent{
		Type:          WebhookSubscriptionUpdated,
		ProviderSubID: "prov-2",
		ParentID:      parentID.String(),
		PlanID:        "gold",
		Status:        "active",
		BillingPeriod: "monthly",
		Intent:        "addChild",
		PlayerID:      playerID.String(),
	}
	require.NoError(t, f.svc.ApplyWebhook(context.Background(), event))

	sub, err := f.subs.GetByParent(context.Background(), parentID)
	require.NoError(t, err)
	assert.Equal(t, 2, sub.Slots)
	assert.True(t, sub.Covers(playerID))

	// Replaying the same signal must not mint another slot.
	require.NoError(t, f.svc.ApplyWebhook(context.Background(), event))
	sub, err = f.subs.GetByParent(context.Background(), parentID)
	require.NoError(t, err)
	assert.Equal(t, 2, sub.Slots)
}

func TestApplyWebhook_DeletedRevokesEntitlements(t *testing.T) {
	f := newFixture(t)
	parentID := domain.NewParentID()
	f.activeSubscription(t, parentID, domain.PlanElite, 1)

	actor := domain.AccountContext{
		AccountID: domain.NewAccountID(),
		Role:      domain.RoleParent,
		ParentID:  parentID,
		CreatedAt: time.Now().Add(-90 * 24 * time.Hour),
	}
	ok, err := f.svc.Allows(context.Background(), actor, entitlement.FeatureSocialMediaLinks)
	require.NoError(t, err)
	require.True(t, ok)

	err = f.svc.ApplyWebhook(context.Background(), WebhookEvent{
		Type:     WebhookSubscriptionDeleted,
		ParentID: parentID.String(),
	})
	require.NoError(t, err)

	ok, err = f.svc.Allows(context.Background(), actor, entitlement.FeatureSocialMediaLinks)
	require.NoError(t, err)
	assert.False(t, ok, "canceled plan must revoke paid features immediately")
}

func TestAllows_AdminBypasses(t *testing.T) {
	f := newFixture(t)
	ok, err := f.svc.Allows(context.Background(), domain.AccountContext{
		AccountID: domain.NewAccountID(),
		Role:      domain.RoleAdmin,
	}, entitlement.FeatureContactRequests)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAllows_CoachHoldsFreeSet(t *testing.T) {
	f := newFixture(t)
	actor := domain.AccountContext{
		AccountID: domain.NewAccountID(),
		Role:      domain.RoleCoach,
		CoachID:   domain.NewCoachID(),
		CreatedAt: time.Now().Add(-90 * 24 * time.Hour),
	}

	ok, err := f.svc.Allows(context.Background(), actor, entitlement.FeatureSubmitFacilities)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.Allows(context.Background(), actor, entitlement.FeatureContactRequests)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckout_BuildsSession(t *testing.T) {
	f := newFixture(t)
	actor := domain.AccountContext{
		AccountID: domain.NewAccountID(),
		Role:      domain.RoleParent,
		ParentID:  domain.NewParentID(),
	}

	url, err := f.svc.Checkout(context.Background(), actor, CheckoutRequest{
		PlanID: "familyGold",
	})
	require.NoError(t, err)
	assert.Contains(t, url, "plan=familyGold")
	assert.Contains(t, url, "period=monthly")
}

func TestCheckout_Validation(t *testing.T) {
	f := newFixture(t)
	actor := domain.AccountContext{
		AccountID: domain.NewAccountID(),
		Role:      domain.RoleParent,
		ParentID:  domain.NewParentID(),
	}

	_, err := f.svc.Checkout(context.Background(), actor, CheckoutRequest{PlanID: "free"})
	assert.Error(t, err)

	_, err = f.svc.Checkout(context.Background(), actor, CheckoutRequest{PlanID: "gold", Intent: "addChild"})
	assert.Error(t, err, "addChild requires a playerId")

	_, err = f.svc.Checkout(context.Background(), actor, CheckoutRequest{
		PlanID: "familyGold", Intent: "addChild", PlayerID: domain.NewPlayerID().String(),
	})
	assert.Error(t, err, "family plans do not bill per child")
}
