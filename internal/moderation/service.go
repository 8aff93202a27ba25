package moderation

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

// CoachDirectory verifies coach profiles exist, implemented by the coach
// service.
type CoachDirectory interface {
	CoachAccountID(ctx context.Context, coachID domain.CoachID) (domain.AccountID, error)
}

// PlayerDirectory resolves player ownership, implemented by the player
// service. Used both to verify review subjects and to decide who may open a
// player-review dispute.
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

// Notifier delivers dispute events. Best effort; failures never fail the
// request.
type Notifier interface {
	Publish(ctx context.Context, routingKey string, body any) error
}

// Routing keys for dispute notifications.
const (
	NotifyDisputeOpened  = "dispute.opened"
	NotifyDisputeReplied = "dispute.replied"
	NotifyDisputeClosed  = "dispute.closed"
)

// DisputeView is a dispute with its message thread.
type DisputeView struct {
	Dispute  *Dispute
	Messages []*ThreadMessage
}

// Service runs the review and dispute workflow. Opening a dispute hides the
// challenged review immediately; visibility only ever comes back through an
// explicit admin restore.
type Service struct {
	store        Store
	threads      ThreadStore
	coaches      CoachDirectory
	players      PlayerDirectory
	entitlements Entitlements
	logger       *slog.Logger
	metrics      *metrics.Metrics
	audit        Auditor
	notifier     Notifier
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

// WithAuditPublisher wires audit emission into moderation transitions.
func WithAuditPublisher(auditor Auditor) Option {
	return func(s *Service) { s.audit = auditor }
}

// WithNotifier wires event delivery for dispute transitions.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func NewService(store Store, threads ThreadStore, coaches CoachDirectory, players PlayerDirectory, entitlements Entitlements, opts ...Option) *Service {
	s := &Service{
		store:        store,
		threads:      threads,
		coaches:      coaches,
		players:      players,
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

// SubmitReview creates a visible review on a coach or player profile. Coach
// reviews require the coach-ratings entitlement.
func (s *Service) SubmitReview(ctx context.Context, actor domain.AccountContext, kind ReviewKind, subjectID string, req ReviewCreateRequest) (*Review, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	switch kind {
	case KindCoach:
		coachID, err := domain.ParseCoachID(subjectID)
		if err != nil {
			return nil, err
		}
		if _, err := s.coaches.CoachAccountID(ctx, coachID); err != nil {
			return nil, err
		}
		ok, err := s.entitlements.Allows(ctx, actor, entitlement.FeatureCoachRatings)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve entitlement")
		}
		if !ok {
			return nil, dErrors.New(dErrors.CodeForbidden, "an elite plan is required to rate coaches")
		}
	case KindPlayer:
		playerID, err := domain.ParsePlayerID(subjectID)
		if err != nil {
			return nil, err
		}
		if _, err := s.players.OwnerOf(ctx, playerID); err != nil {
			return nil, err
		}
	default:
		return nil, dErrors.New(dErrors.CodeValidation, "unknown review kind")
	}

	r := &Review{
		ID:         domain.NewReviewID(),
		Kind:       kind,
		AuthorID:   actor.AccountID,
		SubjectID:  subjectID,
		Rating:     req.Rating,
		Text:       req.Text,
		Visibility: VisibilityVisible,
		CreatedAt:  requestcontext.Now(ctx),
	}
	if err := s.store.CreateReview(ctx, r); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create review")
	}

	s.emit(ctx, actor, audit.EventReviewSubmitted, r.ID.String(), "")
	return r, nil
}

// VisibleSummary aggregates a subject's visible reviews. Hidden reviews
// never count. Implements the profile handlers' summarizer.
func (s *Service) VisibleSummary(ctx context.Context, kind string, subjectID string) (float64, int, error) {
	k, ok := ParseReviewKind(kind)
	if !ok {
		return 0, 0, dErrors.New(dErrors.CodeValidation, "unknown review kind")
	}
	avg, count, err := s.store.VisibleSummary(ctx, k, subjectID)
	if err != nil {
		return 0, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to summarize reviews")
	}
	return avg, count, nil
}

// VisibleReviews lists a subject's reviews, excluding hidden ones.
func (s *Service) VisibleReviews(ctx context.Context, kind ReviewKind, subjectID string) ([]*Review, error) {
	reviews, err := s.store.ListReviews(ctx, kind, subjectID, false)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list reviews")
	}
	return reviews, nil
}

// OpenDispute challenges a review. Only the review's subject may open: the
// coach for a coach review, the player's parent for a player review. The
// review is hidden and the pending dispute created in one atomic step; a
// second pending dispute on the same review conflicts.
func (s *Service) OpenDispute(ctx context.Context, actor domain.AccountContext, kind ReviewKind, reviewID domain.ReviewID, req DisputeCreateRequest) (*Dispute, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "review not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load review")
	}
	if review.Kind != kind {
		return nil, dErrors.New(dErrors.CodeNotFound, "review not found")
	}
	if err := s.requireSubject(ctx, actor, review); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	d := &Dispute{
		ID:          domain.NewDisputeID(),
		Kind:        kind,
		ReviewID:    reviewID,
		DisputantID: actor.AccountID,
		Reason:      req.Reason,
		Status:      DisputePending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.OpenDispute(ctx, d); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "a pending dispute already exists for this review")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "review not found")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to open dispute")
		}
	}

	s.metrics.IncrementDispute(string(kind), string(DisputePending))
	s.emit(ctx, actor, audit.EventReviewHidden, reviewID.String(), "")
	s.emit(ctx, actor, audit.EventDisputeOpened, d.ID.String(), "")
	s.notify(ctx, NotifyDisputeOpened, d)
	return d, nil
}

// Reply appends a message to a pending dispute's thread. The disputant
// writes as disputant; admins write as admin. Terminal disputes accept no
// further messages.
func (s *Service) Reply(ctx context.Context, actor domain.AccountContext, kind ReviewKind, disputeID domain.DisputeID, req ReplyRequest) (*ThreadMessage, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	d, err := s.getDispute(ctx, kind, disputeID)
	if err != nil {
		return nil, err
	}

	var role AuthorRole
	switch {
	case actor.IsAdmin():
		role = RoleAdmin
	case actor.AccountID == d.DisputantID:
		role = RoleDisputant
	default:
		return nil, dErrors.New(dErrors.CodeForbidden, "only the disputant or an admin can reply")
	}
	if d.Terminal() {
		return nil, dErrors.New(dErrors.CodeConflict, "dispute has been closed")
	}

	msg := &ThreadMessage{
		ID:        domain.NewMessageID(),
		OwnerID:   d.ID.String(),
		Role:      role,
		AuthorID:  actor.AccountID,
		Text:      req.Text,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.threads.Append(ctx, msg); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append reply")
	}

	s.emit(ctx, actor, audit.EventDisputeReplied, d.ID.String(), "")
	s.notify(ctx, NotifyDisputeReplied, d)
	return msg, nil
}

// Close resolves or dismisses a pending dispute. Admin only and terminal;
// the hidden review stays hidden until an explicit restore.
func (s *Service) Close(ctx context.Context, actor domain.AccountContext, kind ReviewKind, disputeID domain.DisputeID, to DisputeStatus) (*Dispute, error) {
	if !actor.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only admins can close disputes")
	}
	if to != DisputeResolved && to != DisputeDismissed {
		return nil, dErrors.New(dErrors.CodeValidation, "status must be resolved or dismissed")
	}

	d, err := s.getDispute(ctx, kind, disputeID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	if err := s.store.UpdateDisputeStatus(ctx, disputeID, DisputePending, to, now); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrInvalidState):
			return nil, dErrors.New(dErrors.CodeConflict, "dispute has already been closed")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "dispute not found")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to close dispute")
		}
	}
	d.Status = to
	d.UpdatedAt = now

	s.metrics.IncrementDispute(string(d.Kind), string(to))
	s.emit(ctx, actor, audit.EventDisputeClosed, d.ID.String(), string(to))
	s.notify(ctx, NotifyDisputeClosed, d)
	return d, nil
}

// RestoreReview makes a hidden review visible again. Admin only; this is the
// only path back to visibility.
func (s *Service) RestoreReview(ctx context.Context, actor domain.AccountContext, kind ReviewKind, reviewID domain.ReviewID) (*Review, error) {
	if !actor.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only admins can restore reviews")
	}

	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "review not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load review")
	}
	if review.Kind != kind {
		return nil, dErrors.New(dErrors.CodeNotFound, "review not found")
	}

	if err := s.store.SetReviewVisibility(ctx, reviewID, VisibilityVisible); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to restore review")
	}
	review.Visibility = VisibilityVisible

	s.emit(ctx, actor, audit.EventReviewRestored, reviewID.String(), "")
	return review, nil
}

// MyDisputes returns the actor's disputes with their threads.
func (s *Service) MyDisputes(ctx context.Context, actor domain.AccountContext) ([]*DisputeView, error) {
	disputes, err := s.store.ListDisputesByAccount(ctx, actor.AccountID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list disputes")
	}
	return s.withThreads(ctx, disputes)
}

// AdminFeed returns the unified moderation feed, filtered by kind and
// status when given.
func (s *Service) AdminFeed(ctx context.Context, actor domain.AccountContext, kind ReviewKind, status DisputeStatus) ([]*DisputeView, error) {
	if !actor.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only admins can list all disputes")
	}
	disputes, err := s.store.ListDisputes(ctx, kind, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list disputes")
	}
	return s.withThreads(ctx, disputes)
}

func (s *Service) withThreads(ctx context.Context, disputes []*Dispute) ([]*DisputeView, error) {
	out := make([]*DisputeView, 0, len(disputes))
	for _, d := range disputes {
		msgs, err := s.threads.List(ctx, d.ID.String())
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load dispute thread")
		}
		out = append(out, &DisputeView{Dispute: d, Messages: msgs})
	}
	return out, nil
}

func (s *Service) getDispute(ctx context.Context, kind ReviewKind, id domain.DisputeID) (*Dispute, error) {
	d, err := s.store.GetDispute(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "dispute not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load dispute")
	}
	if d.Kind != kind {
		return nil, dErrors.New(dErrors.CodeNotFound, "dispute not found")
	}
	return d, nil
}

// requireSubject checks the actor is who the review is about.
func (s *Service) requireSubject(ctx context.Context, actor domain.AccountContext, review *Review) error {
	switch review.Kind {
	case KindCoach:
		if actor.IsCoach() && actor.CoachID.String() == review.SubjectID {
			return nil
		}
	case KindPlayer:
		if actor.IsParent() {
			playerID, err := domain.ParsePlayerID(review.SubjectID)
			if err != nil {
				return err
			}
			owner, err := s.players.OwnerOf(ctx, playerID)
			if err != nil {
				return err
			}
			if owner == actor.ParentID {
				return nil
			}
		}
	}
	return dErrors.New(dErrors.CodeForbidden, "only the review's subject can open a dispute")
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

func (s *Service) notify(ctx context.Context, key string, d *Dispute) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, key, d); err != nil {
		s.logger.WarnContext(ctx, "notification publish failed", "routing_key", key, "error", err)
	}
}
