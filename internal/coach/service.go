package coach

import (
	"context"
	"errors"
	"log/slog"

	"rinknet/pkg/domain"
	dErrors "rinknet/pkg/domain-errors"
	"rinknet/pkg/platform/audit"
	"rinknet/pkg/platform/sentinel"
	"rinknet/pkg/requestcontext"
)

// Auditor is the slice of the audit publisher this service emits through.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service registers coach profiles and enforces the head-coach rule.
type Service struct {
	store  Store
	logger *slog.Logger
	audit  Auditor
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

// WithAuditPublisher wires audit emission into profile registration.
func WithAuditPublisher(auditor Auditor) Option {
	return func(s *Service) { s.audit = auditor }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Register creates the acting account's coach profile. A head-coach claim on
// an occupied roster slot fails with a conflict directing the caller to the
// support pathway; it never displaces the incumbent.
func (s *Service) Register(ctx context.Context, actor domain.AccountContext, req CreateRequest) (*Profile, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	role, _ := ParseCoachRole(req.CoachRole)
	profile := &Profile{
		ID:        domain.NewCoachID(),
		AccountID: actor.AccountID,
		Name:      req.Name,
		League:    req.League,
		Team:      req.Team,
		Level:     req.Level,
		BirthYear: req.BirthYear,
		CoachRole: role,
		CreatedAt: requestcontext.Now(ctx),
	}

	if err := s.store.Create(ctx, profile); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			s.emit(ctx, actor, audit.EventHeadCoachConflict, profile.SlotKey(), "denied")
			return nil, dErrors.New(dErrors.CodeConflict,
				"a head coach is already registered for this team; open a support request if you believe this is an error")
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "this account already has a coach profile")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register coach profile")
		}
	}

	s.emit(ctx, actor, audit.EventCoachRegistered, profile.ID.String(), "")
	return profile, nil
}

// Get returns one coach profile.
func (s *Service) Get(ctx context.Context, id domain.CoachID) (*Profile, error) {
	profile, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "coach profile not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load coach profile")
	}
	return profile, nil
}

// CoachAccountID resolves the account owning a coach profile.
func (s *Service) CoachAccountID(ctx context.Context, coachID domain.CoachID) (domain.AccountID, error) {
	profile, err := s.Get(ctx, coachID)
	if err != nil {
		return domain.AccountID{}, err
	}
	return profile.AccountID, nil
}

func (s *Service) emit(ctx context.Context, actor domain.AccountContext, action audit.AuditEvent, subject, decision string) {
	if s.audit == nil {
		return
	}
	err := s.audit.Emit(ctx, audit.Event{
		AccountID: actor.AccountID.String(),
		Subject:   subject,
		Action:    string(action),
		Decision:  decision,
		RequestID: requestcontext.RequestID(ctx),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", string(action), "error", err)
	}
}
