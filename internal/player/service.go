package player

import (
	"context"
	"errors"
	"log/slog"

	"rinknet/internal/entitlement"
	"rinknet/pkg/domain"
	dErrors "rinknet/pkg/domain-errors"
	"rinknet/pkg/platform/audit"
	"rinknet/pkg/platform/sentinel"
	"rinknet/pkg/requestcontext"
)

// CoverageDecision mirrors the gate's answer so handlers can surface why an
// add was refused and which checkout path fixes it.
type CoverageDecision struct {
	Allowed             bool     `json:"allowed"`
	Reason              string   `json:"reason,omitempty"`
	CheckoutRequired    bool     `json:"checkoutRequired"`
	CheckoutPlanOptions []string `json:"checkoutPlanOptions,omitempty"`
	UpgradeRequired     bool     `json:"upgradeRequired"`
	Limit               int      `json:"limit"`
	Current             int      `json:"current"`
}

// Gate is the player-coverage gate, implemented by the subscription service.
// Claim atomically re-checks the decision and claims a coverage slot; a
// decision from CanAdd must never be trusted across requests.
type Gate interface {
	CanAdd(ctx context.Context, parentID domain.ParentID) (CoverageDecision, error)
	Claim(ctx context.Context, parentID domain.ParentID, playerID domain.PlayerID) (CoverageDecision, error)
	Release(ctx context.Context, playerID domain.PlayerID) error
}

// Entitlements answers feature checks for the acting account, implemented by
// the subscription service on top of the pure resolver.
type Entitlements interface {
	Allows(ctx context.Context, actor domain.AccountContext, f entitlement.Feature) (bool, error)
}

// PairChecker reports whether the viewer holds an approved contact request
// with the player's parent, implemented by the contact service.
type PairChecker interface {
	IsApprovedPair(ctx context.Context, viewer domain.AccountContext, parentID domain.ParentID) (bool, error)
}

// ContactResolver resolves the parent contact card revealed to approved
// pairs, implemented by the account service.
type ContactResolver interface {
	ParentContact(ctx context.Context, parentID domain.ParentID) (name, email string, err error)
}

// Auditor is the slice of the audit publisher this service emits through.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service adds players through the coverage gate and renders masked views.
type Service struct {
	store        Store
	gate         Gate
	entitlements Entitlements
	pairs        PairChecker
	contacts     ContactResolver
	logger       *slog.Logger
	audit        Auditor
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

// WithAuditPublisher wires audit emission into player adds.
func WithAuditPublisher(auditor Auditor) Option {
	return func(s *Service) { s.audit = auditor }
}

// WithPairChecker wires approved-pair masking bypass.
func WithPairChecker(pairs PairChecker) Option {
	return func(s *Service) { s.pairs = pairs }
}

// WithContactResolver wires parent contact resolution for approved pairs.
func WithContactResolver(contacts ContactResolver) Option {
	return func(s *Service) { s.contacts = contacts }
}

func NewService(store Store, gate Gate, entitlements Entitlements, opts ...Option) *Service {
	s := &Service{
		store:        store,
		gate:         gate,
		entitlements: entitlements,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// CanAdd reports the coverage gate decision without claiming anything.
func (s *Service) CanAdd(ctx context.Context, actor domain.AccountContext) (CoverageDecision, error) {
	if !actor.IsParent() {
		return CoverageDecision{}, dErrors.New(dErrors.CodeForbidden, "only parents can add players")
	}
	return s.gate.CanAdd(ctx, actor.ParentID)
}

// Add claims a coverage slot and creates the player. The claim happens first
// so the cap is enforced atomically; a failed insert releases the slot.
func (s *Service) Add(ctx context.Context, actor domain.AccountContext, req CreateRequest) (*Player, CoverageDecision, error) {
	if !actor.IsParent() {
		return nil, CoverageDecision{}, dErrors.New(dErrors.CodeForbidden, "only parents can add players")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, CoverageDecision{}, err
	}

	playerID := domain.NewPlayerID()
	decision, err := s.gate.Claim(ctx, actor.ParentID, playerID)
	if err != nil {
		return nil, CoverageDecision{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to evaluate coverage")
	}
	if !decision.Allowed {
		s.emit(ctx, actor, audit.EventCoverageDenied, playerID.String(), decision.Reason)
		return nil, decision, nil
	}

	p := &Player{
		ID:          playerID,
		ParentID:    actor.ParentID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		BirthYear:   req.BirthYear,
		Position:    req.Position,
		Level:       req.Level,
		City:        req.City,
		Region:      req.Region,
		SocialLinks: req.SocialLinks,
		Status:      StatusUnverified,
		CreatedAt:   requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, p); err != nil {
		if relErr := s.gate.Release(ctx, playerID); relErr != nil {
			s.logger.ErrorContext(ctx, "failed to release coverage slot after insert failure",
				"player_id", playerID.String(), "error", relErr)
		}
		return nil, CoverageDecision{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create player")
	}

	s.emit(ctx, actor, audit.EventPlayerAdded, playerID.String(), "")
	return p, decision, nil
}

// View renders the masked profile for the viewer. The viewer's entitlements
// decide each field; owners, admins, and approved contact pairs see the full
// record.
func (s *Service) View(ctx context.Context, viewer domain.AccountContext, id domain.PlayerID) (*View, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "player not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load player")
	}

	owner := viewer.IsParent() && viewer.ParentID == p.ParentID
	bypass := owner || viewer.IsAdmin()
	if !bypass && s.pairs != nil {
		bypass, err = s.pairs.IsApprovedPair(ctx, viewer, p.ParentID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check contact approval")
		}
	}

	view := &View{
		ID:        p.ID.String(),
		BirthYear: p.BirthYear,
		Position:  p.Position,
		Status:    string(p.Status),
		Stats:     p.Stats,
	}

	if bypass {
		view.Name = p.FullName()
		view.Level = p.Level
		view.City = p.City
		view.Region = p.Region
		view.SocialLinks = p.SocialLinks
		adv := p.Advanced
		view.Advanced = &adv
		if !owner && s.contacts != nil {
			name, email, err := s.contacts.ParentContact(ctx, p.ParentID)
			if err == nil {
				view.Contact = &ParentContact{Name: name, Email: email}
			}
		}
		return view, nil
	}

	view.Name = p.MaskedName()
	if ok, err := s.allows(ctx, viewer, entitlement.FeatureFullLastName); err != nil {
		return nil, err
	} else if ok {
		view.Name = p.FullName()
	}
	if ok, err := s.allows(ctx, viewer, entitlement.FeatureLevelVisibility); err != nil {
		return nil, err
	} else if ok {
		view.Level = p.Level
	}
	if ok, err := s.allows(ctx, viewer, entitlement.FeatureLocationVisibility); err != nil {
		return nil, err
	} else if ok {
		view.City = p.City
		view.Region = p.Region
	}
	if ok, err := s.allows(ctx, viewer, entitlement.FeatureSocialMediaLinks); err != nil {
		return nil, err
	} else if ok {
		view.SocialLinks = p.SocialLinks
	}
	if ok, err := s.allows(ctx, viewer, entitlement.FeatureHigherStats); err != nil {
		return nil, err
	} else if ok {
		adv := p.Advanced
		view.Advanced = &adv
	}
	return view, nil
}

// Owned returns the players owned by the acting parent, unmasked.
func (s *Service) Owned(ctx context.Context, actor domain.AccountContext) ([]*Player, error) {
	if !actor.IsParent() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only parents own players")
	}
	players, err := s.store.ListByParent(ctx, actor.ParentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list players")
	}
	return players, nil
}

// OwnerOf resolves the parent owning a player.
func (s *Service) OwnerOf(ctx context.Context, id domain.PlayerID) (domain.ParentID, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.ParentID{}, dErrors.New(dErrors.CodeNotFound, "player not found")
		}
		return domain.ParentID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load player")
	}
	return p.ParentID, nil
}

func (s *Service) allows(ctx context.Context, viewer domain.AccountContext, f entitlement.Feature) (bool, error) {
	ok, err := s.entitlements.Allows(ctx, viewer, f)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve entitlement")
	}
	return ok, nil
}

func (s *Service) emit(ctx context.Context, actor domain.AccountContext, action audit.AuditEvent, subject, reason string) {
	if s.audit == nil {
		return
	}
	err := s.audit.Emit(ctx, audit.Event{
		AccountID: actor.AccountID.String(),
		Subject:   subject,
		Action:    string(action),
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", string(action), "error", err)
	}
}
