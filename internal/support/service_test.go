package support

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rinknet/internal/moderation"
	"rinknet/pkg/domain"
	dErrors "rinknet/pkg/domain-errors"
)

func newService() *Service {
	return NewService(NewMemoryStore(), moderation.NewMemoryThreadStore())
}

func coachActor() domain.AccountContext {
	return domain.AccountContext{AccountID: domain.NewAccountID(), Role: domain.RoleCoach, CoachID: domain.NewCoachID()}
}

func adminActor() domain.AccountContext {
	return domain.AccountContext{AccountID: domain.NewAccountID(), Role: domain.RoleAdmin}
}

func TestOpen_CreatesTicketWithFirstMessage(t *testing.T) {
	svc := newService()
	owner := coachActor()

	ticket, err := svc.Open(context.Background(), owner, CreateRequest{
		Subject: "Head coach slot taken",
		Text:    "Someone registered as head coach for my team.",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, ticket.Status)

	views, err := svc.Mine(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Len(t, views[0].Messages, 1)
	assert.Equal(t, moderation.RoleUser, views[0].Messages[0].Role)
}

func TestOpen_Validation(t *testing.T) {
	svc := newService()

	_, err := svc.Open(context.Background(), coachActor(), CreateRequest{Subject: "", Text: "hi"})
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))

	_, err = svc.Open(context.Background(), coachActor(), CreateRequest{Subject: "hi", Text: ""})
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
}

func TestReply_RolesAndClosedTicket(t *testing.T) {
	svc := newService()
	owner := coachActor()
	admin := adminActor()
	ctx := context.Background()

	ticket, err := svc.Open(ctx, owner, CreateRequest{Subject: "slot conflict", Text: "details"})
	require.NoError(t, err)

	msg, err := svc.Reply(ctx, admin, ticket.ID, ReplyRequest{Text: "looking into it"})
	require.NoError(t, err)
	assert.Equal(t, moderation.RoleSupport, msg.Role)

	msg, err = svc.Reply(ctx, owner, ticket.ID, ReplyRequest{Text: "thanks"})
	require.NoError(t, err)
	assert.Equal(t, moderation.RoleUser, msg.Role)

	_, err = svc.Reply(ctx, coachActor(), ticket.ID, ReplyRequest{Text: "me too"})
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))

	_, err = svc.SetStatus(ctx, admin, ticket.ID, StatusClosed)
	require.NoError(t, err)
	_, err = svc.Reply(ctx, owner, ticket.ID, ReplyRequest{Text: "one more thing"})
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
}

func TestSetStatus_AdminOnlyAndReopens(t *testing.T) {
	svc := newService()
	owner := coachActor()
	admin := adminActor()
	ctx := context.Background()

	ticket, err := svc.Open(ctx, owner, CreateRequest{Subject: "slot conflict", Text: "details"})
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, owner, ticket.ID, StatusClosed)
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))

	closed, err := svc.SetStatus(ctx, admin, ticket.ID, StatusClosed)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, closed.Status)

	reopened, err := svc.SetStatus(ctx, admin, ticket.ID, StatusOpen)
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, reopened.Status)
}

func TestAdminList_FiltersByStatus(t *testing.T) {
	svc := newService()
	admin := adminActor()
	ctx := context.Background()

	first, err := svc.Open(ctx, coachActor(), CreateRequest{Subject: "a", Text: "a"})
	require.NoError(t, err)
	_, err = svc.Open(ctx, coachActor(), CreateRequest{Subject: "b", Text: "b"})
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, admin, first.ID, StatusClosed)
	require.NoError(t, err)

	all, err := svc.AdminList(ctx, admin, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	open, err := svc.AdminList(ctx, admin, StatusOpen)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "b", open[0].Ticket.Subject)

	_, err = svc.AdminList(ctx, coachActor(), "")
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
}
