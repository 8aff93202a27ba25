//go:build integration

package moderation

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

func newPostgresFixture(t *testing.T) (*PostgresStore, *PostgresThreadStore, context.Context) {
	t.Helper()
	pg := containers.NewPostgresContainer(t, "../../migrations/schema.sql")
	return NewPostgresStore(pg.DB), NewPostgresThreadStore(pg.DB, "dispute_messages"), context.Background()
}

func seedReview(t *testing.T, store *PostgresStore, ctx context.Context, rating int) *Review {
	t.Helper()
	r := &Review{
		ID:         domain.NewReviewID(),
		Kind:       KindCoach,
		AuthorID:   domain.NewAccountID(),
		SubjectID:  domain.NewCoachID().String(),
		Rating:     rating,
		Text:       "solid practices, good communication",
		Visibility: VisibilityVisible,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, store.CreateReview(ctx, r))
	return r
}

func TestPostgresStore_VisibleSummaryExcludesHidden(t *testing.T) {
	store, _, ctx := newPostgresFixture(t)

	first := seedReview(t, store, ctx, 4)
	second := seedReview(t, store, ctx, 2)
	second.SubjectID = first.SubjectID

	// Reinsert the second review against the first subject.
	second.ID = domain.NewReviewID()
	require.NoError(t, store.CreateReview(ctx, second))

	avg, count, err := store.VisibleSummary(ctx, KindCoach, first.SubjectID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.InDelta(t, 3.0, avg, 0.001)

	require.NoError(t, store.SetReviewVisibility(ctx, second.ID, VisibilityHidden))

	avg, count, err = store.VisibleSummary(ctx, KindCoach, first.SubjectID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.InDelta(t, 4.0, avg, 0.001)

	// A subject with no reviews aggregates to zero, not an error.
	avg, count, err = store.VisibleSummary(ctx, KindCoach, domain.NewCoachID().String())
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, avg)
}

func TestPostgresStore_OpenDisputeHidesReviewAtomically(t *testing.T) {
	store, _, ctx := newPostgresFixture(t)

	review := seedReview(t, store, ctx, 5)
	now := time.Now().UTC().Truncate(time.Microsecond)
	dispute := &Dispute{
		ID:          domain.NewDisputeID(),
		Kind:        KindCoach,
		ReviewID:    review.ID,
		DisputantID: domain.NewAccountID(),
		Reason:      "never coached this team",
		Status:      DisputePending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, store.OpenDispute(ctx, dispute))

	got, err := store.GetReview(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, VisibilityHidden, got.Visibility)

	// Second pending dispute against the same review hits the partial index.
	second := *dispute
	second.ID = domain.NewDisputeID()
	assert.ErrorIs(t, store.OpenDispute(ctx, &second), sentinel.ErrConflict)

	// Unknown review rolls back without inserting anything.
	third := *dispute
	third.ID = domain.NewDisputeID()
	third.ReviewID = domain.NewReviewID()
	assert.ErrorIs(t, store.OpenDispute(ctx, &third), sentinel.ErrNotFound)
}

func TestPostgresStore_DisputeStatusIsCompareAndSwap(t *testing.T) {
	store, _, ctx := newPostgresFixture(t)

	review := seedReview(t, store, ctx, 1)
	now := time.Now().UTC().Truncate(time.Microsecond)
	dispute := &Dispute{
		ID:          domain.NewDisputeID(),
		Kind:        KindCoach,
		ReviewID:    review.ID,
		DisputantID: domain.NewAccountID(),
		Reason:      "rating does not match the text",
		Status:      DisputePending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, store.OpenDispute(ctx, dispute))

	require.NoError(t, store.UpdateDisputeStatus(ctx, dispute.ID, DisputePending, DisputeResolved, time.Now().UTC()))

	err := store.UpdateDisputeStatus(ctx, dispute.ID, DisputePending, DisputeDismissed, time.Now().UTC())
	assert.ErrorIs(t, err, sentinel.ErrInvalidState)

	// Once the pending dispute closes, the review can be disputed again.
	reopened := *dispute
	reopened.ID = domain.NewDisputeID()
	require.NoError(t, store.OpenDispute(ctx, &reopened))
}

func TestPostgresThreadStore_AppendAndListInOrder(t *testing.T) {
	_, threads, ctx := newPostgresFixture(t)

	owner := domain.NewDisputeID().String()
	base := time.Now().UTC().Truncate(time.Microsecond)
	for i, text := range []string{"first", "second", "third"} {
		msg := &ThreadMessage{
			ID:        domain.NewMessageID(),
			OwnerID:   owner,
			Role:      RoleDisputant,
			AuthorID:  domain.NewAccountID(),
			Text:      text,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, threads.Append(ctx, msg))
	}

	got, err := threads.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Text)
	assert.Equal(t, "third", got[2].Text)

	other, err := threads.List(ctx, domain.NewDisputeID().String())
	require.NoError(t, err)
	assert.Empty(t, other)
}
