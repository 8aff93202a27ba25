package moderation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rinknet/internal/entitlement"
	"rinknet/pkg/domain"
	dErrors "rinknet/pkg/domain-errors"
)

// directory is an in-memory stand-in for the coach and player services.
type directory struct {
	coaches map[domain.CoachID]domain.AccountID
	owners  map[domain.PlayerID]domain.ParentID
}

func newDirectory() *directory {
	return &directory{
		coaches: make(map[domain.CoachID]domain.AccountID),
		owners:  make(map[domain.PlayerID]domain.ParentID),
	}
}

func (d *directory) CoachAccountID(_ context.Context, id domain.CoachID) (domain.AccountID, error) {
	acct, ok := d.coaches[id]
	if !ok {
		return domain.AccountID{}, dErrors.New(dErrors.CodeNotFound, "coach profile not found")
	}
	return acct, nil
}

func (d *directory) OwnerOf(_ context.Context, id domain.PlayerID) (domain.ParentID, error) {
	owner, ok := d.owners[id]
	if !ok {
		return domain.ParentID{}, dErrors.New(dErrors.CodeNotFound, "player not found")
	}
	return owner, nil
}

// stubEntitlements grants exactly the listed features to every actor.
type stubEntitlements struct {
	granted map[entitlement.Feature]bool
}

func (e *stubEntitlements) Allows(_ context.Context, _ domain.AccountContext, f entitlement.Feature) (bool, error) {
	return e.granted[f], nil
}

func grants(features ...entitlement.Feature) *stubEntitlements {
	m := make(map[entitlement.Feature]bool, len(features))
	for _, f := range features {
		m[f] = true
	}
	return &stubEntitlements{granted: m}
}

type fixture struct {
	svc *Service

	coachB   domain.AccountContext
	parentA  domain.AccountContext
	author   domain.AccountContext
	admin    domain.AccountContext
	playerID domain.PlayerID
}

func newFixture(t *testing.T, ents Entitlements) *fixture {
	t.Helper()
	dir := newDirectory()

	coachB := domain.AccountContext{AccountID: domain.NewAccountID(), Role: domain.RoleCoach, CoachID: domain.NewCoachID()}
	parentA := domain.AccountContext{AccountID: domain.NewAccountID(), Role: domain.RoleParent, ParentID: domain.NewParentID()}
	author := domain.AccountContext{AccountID: domain.NewAccountID(), Role: domain.RoleParent, ParentID: domain.NewParentID()}
	admin := domain.AccountContext{AccountID: domain.NewAccountID(), Role: domain.RoleAdmin}

	dir.coaches[coachB.CoachID] = coachB.AccountID
	playerID := domain.NewPlayerID()
	dir.owners[playerID] = parentA.ParentID

	svc := NewService(NewMemoryStore(), NewMemoryThreadStore(), dir, dir, ents)
	return &fixture{svc: svc, coachB: coachB, parentA: parentA, author: author, admin: admin, playerID: playerID}
}

func (f *fixture) submitCoachReview(t *testing.T, rating int) *Review {
	t.Helper()
	r, err := f.svc.SubmitReview(context.Background(), f.author, KindCoach, f.coachB.CoachID.String(),
		ReviewCreateRequest{Rating: rating, Text: "ran a disorganized bench"})
	require.NoError(t, err)
	return r
}

func TestSubmitReview_CoachRatingEntitlementGated(t *testing.T) {
	f := newFixture(t, grants())

	_, err := f.svc.SubmitReview(context.Background(), f.author, KindCoach, f.coachB.CoachID.String(),
		ReviewCreateRequest{Rating: 2})
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))

	f = newFixture(t, grants(entitlement.FeatureCoachRatings))
	r := f.submitCoachReview(t, 2)
	assert.Equal(t, VisibilityVisible, r.Visibility)

	avg, count, err := f.svc.VisibleSummary(context.Background(), "coach", f.coachB.CoachID.String())
	require.NoError(t, err)
	assert.Equal(t, 2.0, avg)
	assert.Equal(t, 1, count)
}

func TestSubmitReview_UnknownSubject(t *testing.T) {
	f := newFixture(t, grants(entitlement.FeatureCoachRatings))

	_, err := f.svc.SubmitReview(context.Background(), f.author, KindCoach, domain.NewCoachID().String(),
		ReviewCreateRequest{Rating: 3})
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))

	_, err = f.svc.SubmitReview(context.Background(), f.author, KindPlayer, domain.NewPlayerID().String(),
		ReviewCreateRequest{Rating: 3})
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestSubmitReview_RatingBounds(t *testing.T) {
	f := newFixture(t, grants(entitlement.FeatureCoachRatings))

	for _, rating := range []int{0, 6, -1} {
		_, err := f.svc.SubmitReview(context.Background(), f.author, KindCoach, f.coachB.CoachID.String(),
			ReviewCreateRequest{Rating: rating})
		assert.True(t, dErrors.Is(err, dErrors.CodeValidation), "rating %d", rating)
	}
}

func TestOpenDispute_HidesReviewAtomically(t *testing.T) {
	f := newFixture(t, grants(entitlement.FeatureCoachRatings))
	ctx := context.Background()
	r := f.submitCoachReview(t, 1)

	d, err := f.svc.OpenDispute(ctx, f.coachB, KindCoach, r.ID, DisputeCreateRequest{Reason: "never coached this team"})
	require.NoError(t, err)
	assert.Equal(t, DisputePending, d.Status)

	// The hidden review drops out of the aggregate immediately.
	avg, count, err := f.svc.VisibleSummary(ctx, "coach", f.coachB.CoachID.String())
	require.NoError(t, err)
	assert.Zero(t, avg)
	assert.Zero(t, count)

	// One pending dispute per review.
	_, err = f.svc.OpenDispute(ctx, f.coachB, KindCoach, r.ID, DisputeCreateRequest{Reason: "again"})
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
}

func TestOpenDispute_OnlySubjectMayOpen(t *testing.T) {
	f := newFixture(t, grants(entitlement.FeatureCoachRatings))
	ctx := context.Background()
	r := f.submitCoachReview(t, 1)

	_, err := f.svc.OpenDispute(ctx, f.parentA, KindCoach, r.ID, DisputeCreateRequest{Reason: "not mine to dispute"})
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))

	otherCoach := domain.AccountContext{AccountID: domain.NewAccountID(), Role: domain.RoleCoach, CoachID: domain.NewCoachID()}
	_, err = f.svc.OpenDispute(ctx, otherCoach, KindCoach, r.ID, DisputeCreateRequest{Reason: "wrong coach"})
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
}

func TestOpenDispute_PlayerReviewByOwningParent(t *testing.T) {
	f := newFixture(t, grants())
	ctx := context.Background()

	r, err := f.svc.SubmitReview(ctx, f.author, KindPlayer, f.playerID.String(), ReviewCreateRequest{Rating: 1})
	require.NoError(t, err)

	_, err = f.svc.OpenDispute(ctx, f.author, KindPlayer, r.ID, DisputeCreateRequest{Reason: "not their player"})
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))

	d, err := f.svc.OpenDispute(ctx, f.parentA, KindPlayer, r.ID, DisputeCreateRequest{Reason: "unfair rating"})
	require.NoError(t, err)
	assert.Equal(t, KindPlayer, d.Kind)
}

func TestReply_DisputantAndAdminOnly(t *testing.T) {
	f := newFixture(t, grants(entitlement.FeatureCoachRatings))
	ctx := context.Background()
	r := f.submitCoachReview(t, 1)
	d, err := f.svc.OpenDispute(ctx, f.coachB, KindCoach, r.ID, DisputeCreateRequest{Reason: "never coached this team"})
	require.NoError(t, err)

	msg, err := f.svc.Reply(ctx, f.coachB, KindCoach, d.ID, ReplyRequest{Text: "roster attached"})
	require.NoError(t, err)
	assert.Equal(t, RoleDisputant, msg.Role)

	msg, err = f.svc.Reply(ctx, f.admin, KindCoach, d.ID, ReplyRequest{Text: "reviewing now"})
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, msg.Role)

	_, err = f.svc.Reply(ctx, f.author, KindCoach, d.ID, ReplyRequest{Text: "stay out of it"})
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))

	views, err := f.svc.MyDisputes(ctx, f.coachB)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Len(t, views[0].Messages, 2)
	assert.Equal(t, "roster attached", views[0].Messages[0].Text)
}

func TestClose_TerminalAndLeavesReviewHidden(t *testing.T) {
	f := newFixture(t, grants(entitlement.FeatureCoachRatings))
	ctx := context.Background()
	r := f.submitCoachReview(t, 1)
	d, err := f.svc.OpenDispute(ctx, f.coachB, KindCoach, r.ID, DisputeCreateRequest{Reason: "never coached this team"})
	require.NoError(t, err)

	_, err = f.svc.Close(ctx, f.coachB, KindCoach, d.ID, DisputeResolved)
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden), "disputant cannot close")

	closed, err := f.svc.Close(ctx, f.admin, KindCoach, d.ID, DisputeResolved)
	require.NoError(t, err)
	assert.Equal(t, DisputeResolved, closed.Status)

	// Closing does not restore the review.
	_, count, err := f.svc.VisibleSummary(ctx, "coach", f.coachB.CoachID.String())
	require.NoError(t, err)
	assert.Zero(t, count)

	// No further transitions or replies.
	_, err = f.svc.Close(ctx, f.admin, KindCoach, d.ID, DisputeDismissed)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
	_, err = f.svc.Reply(ctx, f.coachB, KindCoach, d.ID, ReplyRequest{Text: "too late"})
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
}

func TestRestoreReview_SeparateAdminAction(t *testing.T) {
	f := newFixture(t, grants(entitlement.FeatureCoachRatings))
	ctx := context.Background()
	r := f.submitCoachReview(t, 4)
	d, err := f.svc.OpenDispute(ctx, f.coachB, KindCoach, r.ID, DisputeCreateRequest{Reason: "too harsh"})
	require.NoError(t, err)
	_, err = f.svc.Close(ctx, f.admin, KindCoach, d.ID, DisputeDismissed)
	require.NoError(t, err)

	_, err = f.svc.RestoreReview(ctx, f.coachB, KindCoach, r.ID)
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))

	restored, err := f.svc.RestoreReview(ctx, f.admin, KindCoach, r.ID)
	require.NoError(t, err)
	assert.Equal(t, VisibilityVisible, restored.Visibility)

	avg, count, err := f.svc.VisibleSummary(ctx, "coach", f.coachB.CoachID.String())
	require.NoError(t, err)
	assert.Equal(t, 4.0, avg)
	assert.Equal(t, 1, count)
}

func TestAdminFeed_FiltersByKindAndStatus(t *testing.T) {
	f := newFixture(t, grants(entitlement.FeatureCoachRatings))
	ctx := context.Background()

	coachReview := f.submitCoachReview(t, 1)
	_, err := f.svc.OpenDispute(ctx, f.coachB, KindCoach, coachReview.ID, DisputeCreateRequest{Reason: "wrong team"})
	require.NoError(t, err)

	playerReview, err := f.svc.SubmitReview(ctx, f.author, KindPlayer, f.playerID.String(), ReviewCreateRequest{Rating: 1})
	require.NoError(t, err)
	playerDispute, err := f.svc.OpenDispute(ctx, f.parentA, KindPlayer, playerReview.ID, DisputeCreateRequest{Reason: "unfair"})
	require.NoError(t, err)
	_, err = f.svc.Close(ctx, f.admin, KindPlayer, playerDispute.ID, DisputeResolved)
	require.NoError(t, err)

	all, err := f.svc.AdminFeed(ctx, f.admin, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	coachOnly, err := f.svc.AdminFeed(ctx, f.admin, KindCoach, "")
	require.NoError(t, err)
	require.Len(t, coachOnly, 1)
	assert.Equal(t, KindCoach, coachOnly[0].Dispute.Kind)

	resolved, err := f.svc.AdminFeed(ctx, f.admin, "", DisputeResolved)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, playerDispute.ID, resolved[0].Dispute.ID)

	_, err = f.svc.AdminFeed(ctx, f.coachB, "", "")
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
}
