//go:build integration

package contact

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rinknet/pkg/domain"
	"rinknet/pkg/platform/sentinel"
	"rinknet/pkg/testutil/containers"
)

func newPostgresFixture(t *testing.T) (*PostgresStore, context.Context) {
	t.Helper()
	pg := containers.NewPostgresContainer(t, "../../migrations/schema.sql")
	return NewPostgresStore(pg.DB), context.Background()
}

func newRequest(kind Kind, requester, target domain.AccountID, playerID domain.PlayerID) *ContactRequest {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &ContactRequest{
		ID:                 domain.NewContactRequestID(),
		Kind:               kind,
		RequesterAccountID: requester,
		TargetAccountID:    target,
		PlayerID:           playerID,
		Status:             StatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func TestPostgresStore_PairUniquenessIsDirectionInsensitive(t *testing.T) {
	store, ctx := newPostgresFixture(t)

	a, b := domain.NewAccountID(), domain.NewAccountID()
	playerID := domain.NewPlayerID()

	require.NoError(t, store.Create(ctx, newRequest(KindCoachParent, a, b, playerID)))

	// Same pair, either direction, is rejected while a live request exists.
	err := store.Create(ctx, newRequest(KindCoachParent, a, b, playerID))
	assert.ErrorIs(t, err, sentinel.ErrConflict)
	err = store.Create(ctx, newRequest(KindCoachParent, b, a, playerID))
	assert.ErrorIs(t, err, sentinel.ErrConflict)

	// A different player subject is a different pair.
	require.NoError(t, store.Create(ctx, newRequest(KindCoachParent, a, b, domain.NewPlayerID())))
}

func TestPostgresStore_FindBetweenSeesBothDirections(t *testing.T) {
	store, ctx := newPostgresFixture(t)

	a, b := domain.NewAccountID(), domain.NewAccountID()
	playerID := domain.NewPlayerID()
	req := newRequest(KindCoachParent, a, b, playerID)
	require.NoError(t, store.Create(ctx, req))

	found, err := store.FindBetween(ctx, KindCoachParent, b, a, playerID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, found.ID)

	_, err = store.FindBetween(ctx, KindCoachParent, a, domain.NewAccountID(), playerID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgresStore_RejectedRowFreesThePair(t *testing.T) {
	store, ctx := newPostgresFixture(t)

	a, b := domain.NewAccountID(), domain.NewAccountID()
	playerID := domain.NewPlayerID()
	first := newRequest(KindCoachParent, a, b, playerID)
	require.NoError(t, store.Create(ctx, first))

	require.NoError(t, store.UpdateStatus(ctx, first.ID, StatusPending, StatusRejected, time.Now().UTC()))

	// The partial index ignores rejected rows, so a fresh request fits.
	require.NoError(t, store.Create(ctx, newRequest(KindCoachParent, a, b, playerID)))

	// FindBetween still surfaces the newest row including rejected history.
	found, err := store.FindBetween(ctx, KindCoachParent, a, b, playerID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, found.Status)
}

func TestPostgresStore_UpdateStatusIsCompareAndSwap(t *testing.T) {
	store, ctx := newPostgresFixture(t)

	req := newRequest(KindParentParent, domain.NewAccountID(), domain.NewAccountID(), domain.PlayerID{})
	require.NoError(t, store.Create(ctx, req))

	require.NoError(t, store.UpdateStatus(ctx, req.ID, StatusPending, StatusApproved, time.Now().UTC()))

	err := store.UpdateStatus(ctx, req.ID, StatusPending, StatusRejected, time.Now().UTC())
	assert.ErrorIs(t, err, sentinel.ErrInvalidState)

	err = store.UpdateStatus(ctx, domain.NewContactRequestID(), StatusPending, StatusApproved, time.Now().UTC())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgresStore_HasApprovedBetweenSpansKinds(t *testing.T) {
	store, ctx := newPostgresFixture(t)

	a, b := domain.NewAccountID(), domain.NewAccountID()
	req := newRequest(KindParentParent, a, b, domain.PlayerID{})
	require.NoError(t, store.Create(ctx, req))

	ok, err := store.HasApprovedBetween(ctx, a, b)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.UpdateStatus(ctx, req.ID, StatusPending, StatusApproved, time.Now().UTC()))

	ok, err = store.HasApprovedBetween(ctx, b, a)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPostgresStore_ListForAccountFiltersByKind(t *testing.T) {
	store, ctx := newPostgresFixture(t)

	me := domain.NewAccountID()
	require.NoError(t, store.Create(ctx, newRequest(KindCoachParent, me, domain.NewAccountID(), domain.NewPlayerID())))
	require.NoError(t, store.Create(ctx, newRequest(KindParentParent, domain.NewAccountID(), me, domain.PlayerID{})))
	require.NoError(t, store.Create(ctx, newRequest(KindCoachParent, domain.NewAccountID(), domain.NewAccountID(), domain.NewPlayerID())))

	all, err := store.ListForAccount(ctx, me, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	coachOnly, err := store.ListForAccount(ctx, me, KindCoachParent)
	require.NoError(t, err)
	require.Len(t, coachOnly, 1)
	assert.Equal(t, KindCoachParent, coachOnly[0].Kind)
}
