//go:build integration

package subscription

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rinknet/pkg/domain"
	"rinknet/pkg/platform/sentinel"
	"rinknet/pkg/testutil/containers"
)

func newStoreFixture(t *testing.T) (*PostgresStore, context.Context) {
	t.Helper()
	pg := containers.NewPostgresContainer(t, "../../migrations/schema.sql")
	return NewPostgresStore(pg.DB), context.Background()
}

func seedSubscription(t *testing.T, store *PostgresStore, ctx context.Context, plan domain.PlanID, slots int) *Subscription {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	sub := &Subscription{
		ID:            domain.NewSubscriptionID(),
		ParentID:      domain.NewParentID(),
		Plan:          plan,
		Status:        domain.SubStatusActive,
		BillingPeriod: BillingMonthly,
		ProviderSubID: "sub_" + providerRef(),
		Slots:         slots,
		PeriodEnd:     now.AddDate(0, 1, 0),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, store.Upsert(ctx, sub))
	return sub
}

func providerRef() string { return domain.NewSubscriptionID().String()[:8] }

func TestPostgresStore_ClaimSlotEnforcesLimit(t *testing.T) {
	store, ctx := newStoreFixture(t)
	sub := seedSubscription(t, store, ctx, domain.PlanGold, 2)

	require.NoError(t, store.ClaimSlot(ctx, sub.ID, domain.NewPlayerID(), 2))
	require.NoError(t, store.ClaimSlot(ctx, sub.ID, domain.NewPlayerID(), 2))

	err := store.ClaimSlot(ctx, sub.ID, domain.NewPlayerID(), 2)
	assert.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestPostgresStore_ClaimSlotRejectsDoubleClaim(t *testing.T) {
	store, ctx := newStoreFixture(t)
	sub := seedSubscription(t, store, ctx, domain.PlanGold, 2)

	playerID := domain.NewPlayerID()
	require.NoError(t, store.ClaimSlot(ctx, sub.ID, playerID, 2))

	err := store.ClaimSlot(ctx, sub.ID, playerID, 2)
	assert.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestPostgresStore_ClaimSlotUnknownSubscription(t *testing.T) {
	store, ctx := newStoreFixture(t)

	err := store.ClaimSlot(ctx, domain.NewSubscriptionID(), domain.NewPlayerID(), 2)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

// Concurrent claims for distinct players must serialize on the subscription
// row; without the row lock each statement snapshots the same count and the
// cap is breached.
func TestPostgresStore_ClaimSlotConcurrentClaimsHoldTheCap(t *testing.T) {
	store, ctx := newStoreFixture(t)

	const limit = 6
	const claimers = 12
	sub := seedSubscription(t, store, ctx, domain.PlanFamilyGold, limit)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		claimed int
	)
	start := make(chan struct{})
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if err := store.ClaimSlot(ctx, sub.ID, domain.NewPlayerID(), limit); err == nil {
				mu.Lock()
				claimed++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, limit, claimed)

	got, err := store.GetByParent(ctx, sub.ParentID)
	require.NoError(t, err)
	assert.Len(t, got.CoveredPlayerIDs, limit)
}

func TestPostgresStore_ReleaseSlotFreesTheCap(t *testing.T) {
	store, ctx := newStoreFixture(t)
	sub := seedSubscription(t, store, ctx, domain.PlanGold, 1)

	playerID := domain.NewPlayerID()
	require.NoError(t, store.ClaimSlot(ctx, sub.ID, playerID, 1))
	assert.ErrorIs(t, store.ClaimSlot(ctx, sub.ID, domain.NewPlayerID(), 1), sentinel.ErrConflict)

	require.NoError(t, store.ReleaseSlot(ctx, playerID))
	assert.NoError(t, store.ClaimSlot(ctx, sub.ID, domain.NewPlayerID(), 1))

	assert.ErrorIs(t, store.ReleaseSlot(ctx, playerID), sentinel.ErrNotFound)
}
