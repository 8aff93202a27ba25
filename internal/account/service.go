package account

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"rinknet/pkg/domain"
	dErrors "rinknet/pkg/domain-errors"
	"rinknet/pkg/email"
	"rinknet/pkg/platform/sentinel"
	"rinknet/pkg/requestcontext"
)

// CoachLookup resolves the coach profile an account owns, if any. Implemented
// by the coach store; kept as an interface so this package stays independent
// of the coach package.
type CoachLookup interface {
	CoachIDByAccount(ctx context.Context, accountID domain.AccountID) (domain.CoachID, error)
}

// Service registers accounts and builds the per-request account context the
// auth middleware attaches.
type Service struct {
	store   Store
	coaches CoachLookup
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

// WithCoachLookup wires coach profile resolution into context building.
func WithCoachLookup(coaches CoachLookup) Option {
	return func(s *Service) { s.coaches = coaches }
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

// Register creates an account and, for parents, its parent profile. A missing
// name is derived from the email local part; identity providers do not always
// supply one.
func (s *Service) Register(ctx context.Context, addr, name string, role domain.Role) (*Account, error) {
	addr = strings.TrimSpace(strings.ToLower(addr))
	name = strings.TrimSpace(name)
	if addr == "" || !strings.Contains(addr, "@") {
		return nil, dErrors.New(dErrors.CodeValidation, "a valid email is required")
	}
	if name == "" {
		first, last := email.DeriveNameFromEmail(addr)
		name = first + " " + last
	}
	if _, ok := domain.ParseRole(string(role)); !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown role")
	}

	now := requestcontext.Now(ctx)
	acct := &Account{
		ID:        domain.NewAccountID(),
		Email:     addr,
		Name:      name,
		Role:      role,
		CreatedAt: now,
	}
	if err := s.store.CreateAccount(ctx, acct); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an account with this email already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}

	if role == domain.RoleParent {
		profile := &ParentProfile{
			ID:        domain.NewParentID(),
			AccountID: acct.ID,
			CreatedAt: now,
		}
		if err := s.store.CreateParentProfile(ctx, profile); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create parent profile")
		}
	}
	return acct, nil
}

// ParentAccountID resolves the account owning a parent profile.
func (s *Service) ParentAccountID(ctx context.Context, parentID domain.ParentID) (domain.AccountID, error) {
	profile, err := s.store.GetParentProfile(ctx, parentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.AccountID{}, dErrors.New(dErrors.CodeNotFound, "parent profile not found")
		}
		return domain.AccountID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load parent profile")
	}
	return profile.AccountID, nil
}

// ParentContact resolves the contact card revealed to an approved pair.
func (s *Service) ParentContact(ctx context.Context, parentID domain.ParentID) (name, email string, err error) {
	accountID, err := s.ParentAccountID(ctx, parentID)
	if err != nil {
		return "", "", err
	}
	acct, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return "", "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return acct.Name, acct.Email, nil
}

// AccountContext loads the account and its profile ids for the auth
// middleware. Unknown accounts surface as unauthorized, not not-found, so a
// stale token never confirms whether an account existed.
func (s *Service) AccountContext(ctx context.Context, accountID domain.AccountID) (domain.AccountContext, error) {
	acct, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.AccountContext{}, dErrors.New(dErrors.CodeUnauthorized, "unknown account")
		}
		return domain.AccountContext{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}

	actx := domain.AccountContext{
		AccountID: acct.ID,
		Role:      acct.Role,
		CreatedAt: acct.CreatedAt,
	}

	if profile, err := s.store.GetParentProfileByAccount(ctx, accountID); err == nil {
		actx.ParentID = profile.ID
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return domain.AccountContext{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load parent profile")
	}

	if s.coaches != nil {
		if coachID, err := s.coaches.CoachIDByAccount(ctx, accountID); err == nil {
			actx.CoachID = coachID
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return domain.AccountContext{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load coach profile")
		}
	}

	return actx, nil
}
