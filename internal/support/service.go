package support

import (
	"context"
	"errors"
	"log/slog"

	"rinknet/internal/moderation"
	"rinknet/pkg/domain"
	dErrors "rinknet/pkg/domain-errors"
	"rinknet/pkg/platform/sentinel"
	"rinknet/pkg/requestcontext"
)

// TicketView is a ticket with its message thread.
type TicketView struct {
	Ticket   *Ticket
	Messages []*moderation.ThreadMessage
}

// Service runs the support workflow. Tickets carry an append-only message
// thread on the shared thread primitive; head-coach slot conflicts land here
// as ordinary tickets.
type Service struct {
	store   Store
	threads moderation.ThreadStore
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(store Store, threads moderation.ThreadStore, opts ...Option) *Service {
	s := &Service{
		store:   store,
		threads: threads,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Open creates a ticket with its first message.
func (s *Service) Open(ctx context.Context, actor domain.AccountContext, req CreateRequest) (*Ticket, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	t := &Ticket{
		ID:        domain.NewTicketID(),
		AccountID: actor.AccountID,
		Subject:   req.Subject,
		Status:    StatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create support ticket")
	}

	msg := &moderation.ThreadMessage{
		ID:        domain.NewMessageID(),
		OwnerID:   t.ID.String(),
		Role:      moderation.RoleUser,
		AuthorID:  actor.AccountID,
		Text:      req.Text,
		CreatedAt: now,
	}
	if err := s.threads.Append(ctx, msg); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to write support message")
	}
	return t, nil
}

// Mine returns the actor's tickets with their threads.
func (s *Service) Mine(ctx context.Context, actor domain.AccountContext) ([]*TicketView, error) {
	tickets, err := s.store.ListByAccount(ctx, actor.AccountID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list support tickets")
	}
	return s.withThreads(ctx, tickets)
}

// AdminList returns all tickets, filtered by status when given. Admin only.
func (s *Service) AdminList(ctx context.Context, actor domain.AccountContext, status TicketStatus) ([]*TicketView, error) {
	if !actor.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only admins can list all support tickets")
	}
	tickets, err := s.store.List(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list support tickets")
	}
	return s.withThreads(ctx, tickets)
}

// Reply appends a message to an open ticket. The ticket owner writes as
// user; admins write as support. Closed tickets accept no replies.
func (s *Service) Reply(ctx context.Context, actor domain.AccountContext, id domain.TicketID, req ReplyRequest) (*moderation.ThreadMessage, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	var role moderation.AuthorRole
	switch {
	case actor.IsAdmin():
		role = moderation.RoleSupport
	case actor.AccountID == t.AccountID:
		role = moderation.RoleUser
	default:
		return nil, dErrors.New(dErrors.CodeForbidden, "only the ticket owner or support can reply")
	}
	if t.Status == StatusClosed {
		return nil, dErrors.New(dErrors.CodeConflict, "ticket is closed")
	}

	msg := &moderation.ThreadMessage{
		ID:        domain.NewMessageID(),
		OwnerID:   t.ID.String(),
		Role:      role,
		AuthorID:  actor.AccountID,
		Text:      req.Text,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.threads.Append(ctx, msg); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to write support message")
	}
	return msg, nil
}

// SetStatus opens or closes a ticket. Admin only.
func (s *Service) SetStatus(ctx context.Context, actor domain.AccountContext, id domain.TicketID, status TicketStatus) (*Ticket, error) {
	if !actor.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only admins can change ticket status")
	}

	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	if err := s.store.SetStatus(ctx, id, status, now); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update ticket status")
	}
	t.Status = status
	t.UpdatedAt = now
	return t, nil
}

func (s *Service) get(ctx context.Context, id domain.TicketID) (*Ticket, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "support ticket not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load support ticket")
	}
	return t, nil
}

func (s *Service) withThreads(ctx context.Context, tickets []*Ticket) ([]*TicketView, error) {
	out := make([]*TicketView, 0, len(tickets))
	for _, t := range tickets {
		msgs, err := s.threads.List(ctx, t.ID.String())
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load ticket thread")
		}
		out = append(out, &TicketView{Ticket: t, Messages: msgs})
	}
	return out, nil
}
