package player

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rinknet/internal/entitlement"
	"rinknet/pkg/domain"
	dErrors "rinknet/pkg/domain-errors"
)

// stubGate allows everything and records claims.
type stubGate struct {
	denied   *CoverageDecision
	claimed  []domain.PlayerID
	released []domain.PlayerID
}

func (g *stubGate) CanAdd(_ context.Context, _ domain.ParentID) (CoverageDecision, error) {
	if g.denied != nil {
		return *g.denied, nil
	}
	return CoverageDecision{Allowed: true, Limit: 1}, nil
}

func (g *stubGate) Claim(_ context.Context, _ domain.ParentID, playerID domain.PlayerID) (CoverageDecision, error) {
	if g.denied != nil {
		return *g.denied, nil
	}
	g.claimed = append(g.claimed, playerID)
	return CoverageDecision{Allowed: true, Limit: 1, Current: 1}, nil
}

func (g *stubGate) Release(_ context.Context, playerID domain.PlayerID) error {
	g.released = append(g.released, playerID)
	return nil
}

// stubEntitlements grants exactly the listed features.
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

func parentActor() domain.AccountContext {
	return domain.AccountContext{
		AccountID: domain.NewAccountID(),
		Role:      domain.RoleParent,
		ParentID:  domain.NewParentID(),
	}
}

func viewerActor() domain.AccountContext {
	return parentActor()
}

func validCreate() CreateRequest {
	return CreateRequest{
		FirstName:   "Alex",
		LastName:    "Tremblay",
		BirthYear:   2012,
		Position:    "C",
		Level:       "AAA",
		City:        "Ottawa",
		Region:      "ON",
		SocialLinks: []string{"https://example.com/alex"},
	}
}

func seedPlayer(t *testing.T, svc *Service, owner domain.AccountContext) *Player {
	t.Helper()
	p, decision, err := svc.Add(context.Background(), owner, validCreate())
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.NotNil(t, p)
	return p
}

func TestAdd_ClaimsCoverageBeforeInsert(t *testing.T) {
	gate := &stubGate{}
	svc := NewService(NewMemoryStore(), gate, grants())

	p, decision, err := svc.Add(context.Background(), parentActor(), validCreate())
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	require.Len(t, gate.claimed, 1)
	assert.Equal(t, p.ID, gate.claimed[0])
	assert.Equal(t, StatusUnverified, p.Status)
}

func TestAdd_GateRefusalReturnsDecision(t *testing.T) {
	gate := &stubGate{denied: &CoverageDecision{
		Reason:           "additional players require a plan",
		CheckoutRequired: true,
		Limit:            1,
		Current:          1,
	}}
	svc := NewService(NewMemoryStore(), gate, grants())

	p, decision, err := svc.Add(context.Background(), parentActor(), validCreate())
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.False(t, decision.Allowed)
	assert.True(t, decision.CheckoutRequired)
}

// failingStore rejects every create.
type failingStore struct {
	Store
}

func (failingStore) Create(_ context.Context, _ *Player) error {
	return errors.New("insert failed")
}

func TestAdd_InsertFailureReleasesClaimedSlot(t *testing.T) {
	gate := &stubGate{}
	svc := NewService(failingStore{Store: NewMemoryStore()}, gate, grants())

	_, _, err := svc.Add(context.Background(), parentActor(), validCreate())
	assert.True(t, dErrors.Is(err, dErrors.CodeInternal))

	require.Len(t, gate.claimed, 1)
	require.Len(t, gate.released, 1)
	assert.Equal(t, gate.claimed[0], gate.released[0])
}

func TestAdd_NonParentForbidden(t *testing.T) {
	svc := NewService(NewMemoryStore(), &stubGate{}, grants())

	coach := domain.AccountContext{AccountID: domain.NewAccountID(), Role: domain.RoleCoach, CoachID: domain.NewCoachID()}
	_, _, err := svc.Add(context.Background(), coach, validCreate())
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
}

func TestView_FreeViewerSeesMaskedProfile(t *testing.T) {
	svc := NewService(NewMemoryStore(), &stubGate{}, grants())
	owner := parentActor()
	p := seedPlayer(t, svc, owner)

	view, err := svc.View(context.Background(), viewerActor(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alex T.", view.Name)
	assert.Empty(t, view.Level)
	assert.Empty(t, view.City)
	assert.Empty(t, view.Region)
	assert.Empty(t, view.SocialLinks)
	assert.Nil(t, view.Advanced)
	assert.Nil(t, view.Contact)
}

func TestView_GoldViewerSeesLevelOnly(t *testing.T) {
	svc := NewService(NewMemoryStore(), &stubGate{}, grants(entitlement.FeatureLevelVisibility))
	owner := parentActor()
	p := seedPlayer(t, svc, owner)

	view, err := svc.View(context.Background(), viewerActor(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alex T.", view.Name)
	assert.Equal(t, "AAA", view.Level)
	assert.Empty(t, view.City)
	assert.Nil(t, view.Advanced)
}

func TestView_EliteViewerSeesEverythingButContact(t *testing.T) {
	svc := NewService(NewMemoryStore(), &stubGate{}, grants(
		entitlement.FeatureFullLastName,
		entitlement.FeatureLevelVisibility,
		entitlement.FeatureLocationVisibility,
		entitlement.FeatureSocialMediaLinks,
		entitlement.FeatureHigherStats,
	))
	owner := parentActor()
	p := seedPlayer(t, svc, owner)

	view, err := svc.View(context.Background(), viewerActor(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alex Tremblay", view.Name)
	assert.Equal(t, "AAA", view.Level)
	assert.Equal(t, "Ottawa", view.City)
	assert.NotEmpty(t, view.SocialLinks)
	assert.NotNil(t, view.Advanced)
	assert.Nil(t, view.Contact, "contact is pair-gated, not plan-gated")
}

type stubPairs struct {
	approved bool
}

func (s *stubPairs) IsApprovedPair(_ context.Context, _ domain.AccountContext, _ domain.ParentID) (bool, error) {
	return s.approved, nil
}

type stubContacts struct{}

func (stubContacts) ParentContact(_ context.Context, _ domain.ParentID) (string, string, error) {
	return "Pat Tremblay", "pat@example.com", nil
}

func TestView_ApprovedPairBypassesMasking(t *testing.T) {
	svc := NewService(NewMemoryStore(), &stubGate{}, grants(),
		WithPairChecker(&stubPairs{approved: true}),
		WithContactResolver(stubContacts{}))
	owner := parentActor()
	p := seedPlayer(t, svc, owner)

	view, err := svc.View(context.Background(), viewerActor(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alex Tremblay", view.Name)
	assert.Equal(t, "AAA", view.Level)
	require.NotNil(t, view.Contact)
	assert.Equal(t, "pat@example.com", view.Contact.Email)
}

func TestView_PairApprovalDoesNotLeakToOthers(t *testing.T) {
	svc := NewService(NewMemoryStore(), &stubGate{}, grants(),
		WithPairChecker(&stubPairs{approved: false}),
		WithContactResolver(stubContacts{}))
	owner := parentActor()
	p := seedPlayer(t, svc, owner)

	view, err := svc.View(context.Background(), viewerActor(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alex T.", view.Name)
	assert.Nil(t, view.Contact)
}

func TestView_OwnerSeesFullRecordWithoutContactCard(t *testing.T) {
	svc := NewService(NewMemoryStore(), &stubGate{}, grants(), WithContactResolver(stubContacts{}))
	owner := parentActor()
	p := seedPlayer(t, svc, owner)

	view, err := svc.View(context.Background(), owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alex Tremblay", view.Name)
	assert.Nil(t, view.Contact, "owners already know their own contact info")
}

func TestView_UnknownPlayer(t *testing.T) {
	svc := NewService(NewMemoryStore(), &stubGate{}, grants())

	_, err := svc.View(context.Background(), viewerActor(), domain.NewPlayerID())
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}
