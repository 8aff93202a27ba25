package contact

import (
	"context"
	"errors"
	"log/slog"

	"rinknet/internal/entitlement"
	"rinknet/internal/platform/metrics"
	"rinknet/pkg/domain"
	dErrors "rinknet/pkg/domain-errors"
	"rinknet/pkg/platform/audit"
	"rinknet/pkg/platform/sentinel"
	"rinknet/pkg/requestcontext"
)

// ParentDirectory resolves parent profiles to accounts, implemented by the
// account service.
type ParentDirectory interface {
	ParentAccountID(ctx context.Context, parentID domain.ParentID) (domain.AccountID, error)
}

// CoachDirectory resolves coach profiles to accounts, implemented by the
// coach service.
type CoachDirectory interface {
	CoachAccountID(ctx context.Context, coachID domain.CoachID) (domain.AccountID, error)
}

// PlayerDirectory resolves player ownership, implemented by the player
// service.
type PlayerDirectory interface {
	OwnerOf(ctx context.Context, id domain.PlayerID) (domain.ParentID, error)
}

// Entitlements answers feature checks, implemented by the subscription
// service.
type Entitlements interface {
	Allows(ctx context.Context, actor domain.AccountContext, f entitlement.Feature) (bool, error)
}

// Auditor is the slice of the audit publisher this service emits through.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Notifier delivers broker events to interested parties. Delivery is best
// effort; failures are logged and never fail the request.
type Notifier interface {
	Publish(ctx context.Context, routingKey string, body any) error
}

// Routing keys for broker notifications.
const (
	NotifyRequested = "contact.requested"
	NotifyApproved  = "contact.approved"
	NotifyRejected  = "contact.rejected"
)

// Service mediates contact between parties. Identities stay hidden behind
// masked profiles until the recipient approves; only then does either side
// see the other's contact card.
type Service struct {
	store          Store
	parents        ParentDirectory
	coaches        CoachDirectory
	players        PlayerDirectory
	entitlements   Entitlements
	allowReRequest bool
	logger         *slog.Logger
	metrics        *metrics.Metrics
	audit          Auditor
	notifier       Notifier
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

// WithMetrics wires Prometheus counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAuditPublisher wires audit emission into broker transitions.
func WithAuditPublisher(auditor Auditor) Option {
	return func(s *Service) { s.audit = auditor }
}

// WithNotifier wires event delivery for requested and decided requests.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithReRequests controls whether a rejected request may be re-sent.
func WithReRequests(allowed bool) Option {
	return func(s *Service) { s.allowReRequest = allowed }
}

func NewService(store Store, parents ParentDirectory, coaches CoachDirectory, players PlayerDirectory, entitlements Entitlements, opts ...Option) *Service {
	s := &Service{
		store:          store,
		parents:        parents,
		coaches:        coaches,
		players:        players,
		entitlements:   entitlements,
		allowReRequest: true,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Request creates a coach-parent contact request. Either side may initiate;
// the request lands on the other side's incoming list. Parent requesters
// need the contact entitlement. Creation is idempotent: an existing
// non-rejected request for the same pair is returned unchanged.
func (s *Service) Request(ctx context.Context, actor domain.AccountContext, req CreateRequest) (*ContactRequest, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	coachID, err := domain.ParseCoachID(req.CoachProfileID)
	if err != nil {
		return nil, err
	}
	parentID, err := domain.ParseParentID(req.ParentProfileID)
	if err != nil {
		return nil, err
	}
	var playerID domain.PlayerID
	if req.PlayerID != "" {
		if playerID, err = domain.ParsePlayerID(req.PlayerID); err != nil {
			return nil, err
		}
	}

	coachAcct, err := s.coaches.CoachAccountID(ctx, coachID)
	if err != nil {
		return nil, err
	}
	parentAcct, err := s.parents.ParentAccountID(ctx, parentID)
	if err != nil {
		return nil, err
	}

	cr := &ContactRequest{
		Kind:     KindCoachParent,
		CoachID:  coachID,
		ParentID: parentID,
		PlayerID: playerID,
	}
	switch Side(req.RequestedBy) {
	case SideCoach:
		cr.RequesterAccountID, cr.TargetAccountID = coachAcct, parentAcct
	default:
		cr.RequesterAccountID, cr.TargetAccountID = parentAcct, coachAcct
	}
	if actor.AccountID != cr.RequesterAccountID && !actor.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "contact requests must be sent from your own profile")
	}

	// A coach reaching out must name a player belonging to the parent they
	// are contacting.
	if !playerID.IsNil() {
		owner, err := s.players.OwnerOf(ctx, playerID)
		if err != nil {
			return nil, err
		}
		if owner != parentID {
			return nil, dErrors.New(dErrors.CodeValidation, "player does not belong to the named parent")
		}
	}

	if Side(req.RequestedBy) == SideParent {
		if err := s.requireEntitlement(ctx, actor, entitlement.FeatureContactRequests); err != nil {
			return nil, err
		}
	}

	return s.create(ctx, actor, cr)
}

// RequestParent creates a parent-parent contact request about a player. The
// requester needs the parent-contact entitlement and the player must belong
// to the target parent.
func (s *Service) RequestParent(ctx context.Context, actor domain.AccountContext, req ParentCreateRequest) (*ContactRequest, error) {
	if !actor.IsParent() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only parents can send parent contact requests")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	targetParentID, err := domain.ParseParentID(req.TargetParentID)
	if err != nil {
		return nil, err
	}
	playerID, err := domain.ParsePlayerID(req.PlayerID)
	if err != nil {
		return nil, err
	}
	if targetParentID == actor.ParentID {
		return nil, dErrors.New(dErrors.CodeValidation, "cannot request contact with yourself")
	}

	owner, err := s.players.OwnerOf(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if owner != targetParentID {
		return nil, dErrors.New(dErrors.CodeValidation, "player does not belong to the named parent")
	}

	targetAcct, err := s.parents.ParentAccountID(ctx, targetParentID)
	if err != nil {
		return nil, err
	}

	if err := s.requireEntitlement(ctx, actor, entitlement.FeatureParentContactRequests); err != nil {
		return nil, err
	}

	return s.create(ctx, actor, &ContactRequest{
		Kind:               KindParentParent,
		RequesterAccountID: actor.AccountID,
		TargetAccountID:    targetAcct,
		ParentID:           targetParentID,
		RequesterParentID:  actor.ParentID,
		PlayerID:           playerID,
	})
}

// create runs the idempotent insert shared by both kinds. cr carries
// everything but id, status, and timestamps.
func (s *Service) create(ctx context.Context, actor domain.AccountContext, cr *ContactRequest) (*ContactRequest, error) {
	existing, err := s.store.FindBetween(ctx, cr.Kind, cr.RequesterAccountID, cr.TargetAccountID, cr.PlayerID)
	switch {
	case err == nil && existing.Status != StatusRejected:
		return existing, nil
	case err == nil && !s.allowReRequest:
		return nil, dErrors.New(dErrors.CodeConflict, "a rejected contact request cannot be re-sent")
	case err != nil && !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up contact request")
	}

	now := requestcontext.Now(ctx)
	cr.ID = domain.NewContactRequestID()
	cr.Status = StatusPending
	cr.CreatedAt = now
	cr.UpdatedAt = now

	if err := s.store.Create(ctx, cr); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost a race with a concurrent identical request; surface the
			// winner to keep creation idempotent.
			if winner, findErr := s.store.FindBetween(ctx, cr.Kind, cr.RequesterAccountID, cr.TargetAccountID, cr.PlayerID); findErr == nil && winner.Status != StatusRejected {
				return winner, nil
			}
			return nil, dErrors.New(dErrors.CodeConflict, "a contact request already exists for this pair")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create contact request")
	}

	s.metrics.IncrementContactRequest(string(cr.Kind), string(StatusPending))
	s.emit(ctx, actor, audit.EventContactRequested, cr.ID.String(), "")
	s.notify(ctx, NotifyRequested, cr)
	return cr, nil
}

// Check answers the status between the actor and the named parties. Only a
// party to the request (or an admin) sees its status; anyone else gets none.
func (s *Service) Check(ctx context.Context, actor domain.AccountContext, kind Kind, a, b domain.AccountID, playerID domain.PlayerID) (Status, error) {
	req, err := s.store.FindBetween(ctx, kind, a, b, playerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return StatusNone, nil
		}
		return StatusNone, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up contact request")
	}
	if !req.IsParty(actor.AccountID) && !actor.IsAdmin() {
		return StatusNone, nil
	}
	return req.Status, nil
}

// Decide approves or rejects a pending request. Only the recipient or an
// admin may decide; a decided request never transitions again.
func (s *Service) Decide(ctx context.Context, actor domain.AccountContext, id domain.ContactRequestID, to Status) (*ContactRequest, error) {
	if to != StatusApproved && to != StatusRejected {
		return nil, dErrors.New(dErrors.CodeValidation, "status must be approved or rejected")
	}

	req, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "contact request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load contact request")
	}
	if actor.AccountID != req.TargetAccountID && !actor.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the recipient can decide a contact request")
	}

	now := requestcontext.Now(ctx)
	if err := s.store.UpdateStatus(ctx, id, StatusPending, to, now); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrInvalidState):
			return nil, dErrors.New(dErrors.CodeConflict, "contact request has already been decided")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "contact request not found")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update contact request")
		}
	}
	req.Status = to
	req.UpdatedAt = now

	s.metrics.IncrementContactRequest(string(req.Kind), string(to))
	if to == StatusApproved {
		s.emit(ctx, actor, audit.EventContactApproved, req.ID.String(), "approved")
		s.notify(ctx, NotifyApproved, req)
	} else {
		s.emit(ctx, actor, audit.EventContactRejected, req.ID.String(), "rejected")
		s.notify(ctx, NotifyRejected, req)
	}
	return req, nil
}

// Get returns one request to a party or an admin. Non-parties get not-found
// so request existence never leaks.
func (s *Service) Get(ctx context.Context, actor domain.AccountContext, id domain.ContactRequestID) (*ContactRequest, error) {
	req, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "contact request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load contact request")
	}
	if !req.IsParty(actor.AccountID) && !actor.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeNotFound, "contact request not found")
	}
	return req, nil
}

// List returns the actor's requests for one kind, optionally narrowed to a
// direction.
func (s *Service) List(ctx context.Context, actor domain.AccountContext, kind Kind, filter ListFilter) ([]*ContactRequest, error) {
	all, err := s.store.ListForAccount(ctx, actor.AccountID, kind)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list contact requests")
	}
	if filter == FilterAll || filter == "" {
		return all, nil
	}
	out := make([]*ContactRequest, 0, len(all))
	for _, req := range all {
		incoming := req.TargetAccountID == actor.AccountID
		if (filter == FilterIncoming) == incoming {
			out = append(out, req)
		}
	}
	return out, nil
}

// IsApprovedPair reports whether the viewer holds an approved request with
// the parent, in either direction. Used by profile masking to reveal the
// full record to approved contacts.
func (s *Service) IsApprovedPair(ctx context.Context, viewer domain.AccountContext, parentID domain.ParentID) (bool, error) {
	parentAcct, err := s.parents.ParentAccountID(ctx, parentID)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return s.store.HasApprovedBetween(ctx, viewer.AccountID, parentAcct)
}

// ResolveParties maps coach and parent profile ids to their accounts for the
// check endpoint.
func (s *Service) ResolveParties(ctx context.Context, coachID domain.CoachID, parentID domain.ParentID) (coachAcct, parentAcct domain.AccountID, err error) {
	if coachAcct, err = s.coaches.CoachAccountID(ctx, coachID); err != nil {
		return domain.AccountID{}, domain.AccountID{}, err
	}
	if parentAcct, err = s.parents.ParentAccountID(ctx, parentID); err != nil {
		return domain.AccountID{}, domain.AccountID{}, err
	}
	return coachAcct, parentAcct, nil
}

// ResolveParent maps a parent profile id to its account.
func (s *Service) ResolveParent(ctx context.Context, parentID domain.ParentID) (domain.AccountID, error) {
	return s.parents.ParentAccountID(ctx, parentID)
}

func (s *Service) requireEntitlement(ctx context.Context, actor domain.AccountContext, f entitlement.Feature) error {
	ok, err := s.entitlements.Allows(ctx, actor, f)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve entitlement")
	}
	if !ok {
		s.emit(ctx, actor, audit.EventContactDenied, string(f), "denied")
		return dErrors.New(dErrors.CodeForbidden, "a gold or elite plan is required to send contact requests")
	}
	return nil
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

func (s *Service) notify(ctx context.Context, key string, req *ContactRequest) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, key, req); err != nil {
		s.logger.WarnContext(ctx, "notification publish failed", "routing_key", key, "error", err)
	}
}
