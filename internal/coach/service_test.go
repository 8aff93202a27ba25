package coach

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rinknet/pkg/domain"
	dErrors "rinknet/pkg/domain-errors"
	"rinknet/pkg/platform/audit"
)

func coachActor() domain.AccountContext {
	return domain.AccountContext{
		AccountID: domain.NewAccountID(),
		Role:      domain.RoleCoach,
	}
}

func validRequest() CreateRequest {
	return CreateRequest{
		Name:      "Casey Doe",
		League:    "GTHL",
		Team:      "Marlboros",
		Level:     "AAA",
		BirthYear: 2012,
		CoachRole: "HEAD_COACH",
	}
}

func TestRegister_HeadCoachSlotIsExclusive(t *testing.T) {
	svc := NewService(NewMemoryStore())

	_, err := svc.Register(context.Background(), coachActor(), validRequest())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), coachActor(), validRequest())
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
}

func TestRegister_SlotComparisonIsCaseInsensitive(t *testing.T) {
	svc := NewService(NewMemoryStore())

	_, err := svc.Register(context.Background(), coachActor(), validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.League = "gthl"
	req.Team = "MARLBOROS"
	_, err = svc.Register(context.Background(), coachActor(), req)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
}

func TestRegister_AssistantsShareSlot(t *testing.T) {
	svc := NewService(NewMemoryStore())

	_, err := svc.Register(context.Background(), coachActor(), validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.CoachRole = "ASSISTANT_COACH"
	_, err = svc.Register(context.Background(), coachActor(), req)
	require.NoError(t, err)

	req2 := validRequest()
	req2.CoachRole = "ASSISTANT_COACH"
	_, err = svc.Register(context.Background(), coachActor(), req2)
	require.NoError(t, err)
}

func TestRegister_DifferentBirthYearIsDifferentSlot(t *testing.T) {
	svc := NewService(NewMemoryStore())

	_, err := svc.Register(context.Background(), coachActor(), validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.BirthYear = 2013
	_, err = svc.Register(context.Background(), coachActor(), req)
	require.NoError(t, err)
}

func TestRegister_ConflictIsAudited(t *testing.T) {
	store := audit.NewInMemoryStore()
	pub := audit.NewPublisher(store)
	svc := NewService(NewMemoryStore(), WithAuditPublisher(pub))

	_, err := svc.Register(context.Background(), coachActor(), validRequest())
	require.NoError(t, err)

	loser := coachActor()
	_, err = svc.Register(context.Background(), loser, validRequest())
	require.Error(t, err)

	events, err := store.ListByAccount(context.Background(), loser.AccountID.String())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventHeadCoachConflict), events[0].Action)
}

func TestRegister_Validation(t *testing.T) {
	svc := NewService(NewMemoryStore())

	req := validRequest()
	req.Team = ""
	_, err := svc.Register(context.Background(), coachActor(), req)
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))

	req = validRequest()
	req.CoachRole = "MANAGER"
	_, err = svc.Register(context.Background(), coachActor(), req)
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))

	req = validRequest()
	req.BirthYear = 1850
	_, err = svc.Register(context.Background(), coachActor(), req)
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
}

func TestGet_UnknownProfile(t *testing.T) {
	svc := NewService(NewMemoryStore())

	_, err := svc.Get(context.Background(), domain.NewCoachID())
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}
