package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rinknet/internal/entitlement"
	"rinknet/internal/platform/metrics"
	"rinknet/internal/player"
	"rinknet/pkg/domain"
	dErrors "rinknet/pkg/domain-errors"
	"rinknet/pkg/platform/audit"
	"rinknet/pkg/platform/sentinel"
	"rinknet/pkg/requestcontext"
)

// PlayerCounter reports how many players a parent owns, implemented by the
// player store.
type PlayerCounter interface {
	CountByParent(ctx context.Context, parentID domain.ParentID) (int, error)
}

// Auditor is the slice of the audit publisher this service emits through.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns the subscription lifecycle, the coverage gate, and the
// entitlement facade.
type Service struct {
	store    Store
	players  PlayerCounter
	provider CheckoutProvider
	cache    *PlanCache
	logger   *slog.Logger
	metrics  *metrics.Metrics
	audit    Auditor

	successURL string
	cancelURL  string
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

// WithMetrics wires entitlement and coverage counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAuditPublisher wires audit emission into webhook application.
func WithAuditPublisher(auditor Auditor) Option {
	return func(s *Service) { s.audit = auditor }
}

// WithPlanCache enables the redis read-through plan cache.
func WithPlanCache(cache *PlanCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithCheckoutURLs sets the redirect targets handed to the provider.
func WithCheckoutURLs(success, cancel string) Option {
	return func(s *Service) {
		s.successURL = success
		s.cancelURL = cancel
	}
}

func NewService(store Store, players PlayerCounter, provider CheckoutProvider, opts ...Option) *Service {
	s := &Service{
		store:    store,
		players:  players,
		provider: provider,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// snapshot loads the plan slice for one parent, read-through cached.
func (s *Service) snapshot(ctx context.Context, parentID domain.ParentID) (planSnapshot, error) {
	if snap, ok := s.cache.Get(ctx, parentID); ok {
		return snap, nil
	}
	sub, err := s.store.GetByParent(ctx, parentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			snap := planSnapshot{}
			s.cache.Set(ctx, parentID, snap)
			return snap, nil
		}
		return planSnapshot{}, err
	}
	snap := planSnapshot{HasPlan: true, Plan: sub.Plan, Status: sub.Status}
	s.cache.Set(ctx, parentID, snap)
	return snap, nil
}

// Allows answers a feature check for the acting account. Admins bypass;
// accounts without a parent profile (coaches) hold the free set.
func (s *Service) Allows(ctx context.Context, actor domain.AccountContext, f entitlement.Feature) (bool, error) {
	if actor.IsAdmin() {
		return true, nil
	}
	acct := entitlement.Account{CreatedAt: actor.CreatedAt}
	if actor.IsParent() {
		snap, err := s.snapshot(ctx, actor.ParentID)
		if err != nil {
			return false, err
		}
		acct.HasPlan = snap.HasPlan
		acct.Plan = snap.Plan
		acct.Status = snap.Status
	}
	allowed := entitlement.Resolve(acct, f, requestcontext.Now(ctx))
	s.metrics.IncrementEntitlementCheck(string(f), allowed)
	return allowed, nil
}

// activeSub returns the parent's subscription when it is paid and entitling,
// else nil.
func (s *Service) activeSub(ctx context.Context, parentID domain.ParentID) (*Subscription, error) {
	sub, err := s.store.GetByParent(ctx, parentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !sub.Plan.IsPaid() || !sub.Status.Entitles() {
		return nil, nil
	}
	return sub, nil
}

// CanAdd evaluates the coverage gate without claiming anything. The answer
// is advisory; Claim re-evaluates atomically.
func (s *Service) CanAdd(ctx context.Context, parentID domain.ParentID) (player.CoverageDecision, error) {
	decision, _, err := s.evaluate(ctx, parentID)
	if err != nil {
		return player.CoverageDecision{}, err
	}
	s.recordDecision(decision)
	return decision, nil
}

func (s *Service) evaluate(ctx context.Context, parentID domain.ParentID) (player.CoverageDecision, *Subscription, error) {
	count, err := s.players.CountByParent(ctx, parentID)
	if err != nil {
		return player.CoverageDecision{}, nil, err
	}
	sub, err := s.activeSub(ctx, parentID)
	if err != nil {
		return player.CoverageDecision{}, nil, err
	}

	// Rule 1: no active paid plan. The first player rides free.
	if sub == nil {
		if count >= 1 {
			return player.CoverageDecision{
				Reason:              "additional players require a plan",
				CheckoutRequired:    true,
				CheckoutPlanOptions: []string{string(domain.PlanGold), string(domain.PlanElite)},
				Limit:               1,
				Current:             count,
			}, nil, nil
		}
		return player.CoverageDecision{Allowed: true, Limit: 1, Current: count}, nil, nil
	}

	covered := len(sub.CoveredPlayerIDs)
	limit := sub.Slots

	// Rule 3: family plans hit a hard cap with no checkout path above it.
	if sub.Plan.IsFamily() {
		if covered >= FamilyPlayerLimit {
			return player.CoverageDecision{
				Reason:          "family plan player limit reached",
				UpgradeRequired: true,
				Limit:           FamilyPlayerLimit,
				Current:         covered,
			}, sub, nil
		}
		return player.CoverageDecision{Allowed: true, Limit: FamilyPlayerLimit, Current: covered}, sub, nil
	}

	// Rule 2: per-child plans bill one checkout per covered player.
	if covered >= limit {
		return player.CoverageDecision{
			Reason:              "this plan covers one player per purchase",
			CheckoutRequired:    true,
			CheckoutPlanOptions: []string{string(domain.PlanGold), string(domain.PlanElite)},
			Limit:               limit,
			Current:             covered,
		}, sub, nil
	}
	return player.CoverageDecision{Allowed: true, Limit: limit, Current: covered}, sub, nil
}

// Claim re-evaluates the gate and claims a coverage slot for the new player.
// The store enforces the cap atomically; a lost race comes back as a denial,
// not an error.
func (s *Service) Claim(ctx context.Context, parentID domain.ParentID, playerID domain.PlayerID) (player.CoverageDecision, error) {
	decision, sub, err := s.evaluate(ctx, parentID)
	if err != nil {
		return player.CoverageDecision{}, err
	}
	if !decision.Allowed || sub == nil {
		// Free-tier starter players hold no coverage slot.
		s.recordDecision(decision)
		return decision, nil
	}

	limit := sub.Slots
	if sub.Plan.IsFamily() {
		limit = FamilyPlayerLimit
	}
	if err := s.store.ClaimSlot(ctx, sub.ID, playerID, limit); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost the race for the last slot; re-evaluate for the denial shape.
			decision, _, err = s.evaluate(ctx, parentID)
			if err != nil {
				return player.CoverageDecision{}, err
			}
			decision.Allowed = false
			if decision.Reason == "" {
				decision.Reason = "coverage slot no longer available"
				decision.CheckoutRequired = !sub.Plan.IsFamily()
				decision.UpgradeRequired = sub.Plan.IsFamily()
			}
			s.recordDecision(decision)
			return decision, nil
		}
		return player.CoverageDecision{}, err
	}
	decision.Current++
	s.recordDecision(decision)
	return decision, nil
}

// Release frees the coverage slot claimed for a player whose insert failed.
func (s *Service) Release(ctx context.Context, playerID domain.PlayerID) error {
	err := s.store.ReleaseSlot(ctx, playerID)
	if errors.Is(err, sentinel.ErrNotFound) {
		// Starter players never held a slot.
		return nil
	}
	return err
}

// Checkout builds a provider session for the requested plan change.
func (s *Service) Checkout(ctx context.Context, actor domain.AccountContext, req CheckoutRequest) (string, error) {
	if !actor.IsParent() {
		return "", dErrors.New(dErrors.CodeForbidden, "only parents can subscribe")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return "", err
	}

	plan, _ := domain.ParsePlanID(req.PlanID)
	period, _ := ParseBillingPeriod(req.BillingPeriod)
	intent, _ := ParseCheckoutIntent(req.Intent)

	session := CheckoutSession{
		ParentID:      actor.ParentID,
		Plan:          plan,
		BillingPeriod: period,
		Intent:        intent,
		SuccessURL:    s.successURL,
		CancelURL:     s.cancelURL,
	}
	info := Plans[plan]
	session.PriceCents = info.MonthlyPriceCents
	if period == BillingAnnual {
		session.PriceCents = info.AnnualPriceCents
	}
	if intent == IntentAddChild {
		playerID, err := domain.ParsePlayerID(req.PlayerID)
		if err != nil {
			return "", err
		}
		session.PlayerID = playerID
	}

	url, err := s.provider.CreateSession(ctx, session)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to create checkout session")
	}
	return url, nil
}

// ApplyWebhook consumes a provider state signal and makes the store agree
// with it. Signals are idempotent: replaying one converges on the same state.
func (s *Service) ApplyWebhook(ctx context.Context, event WebhookEvent) error {
	parentID, err := domain.ParseParentID(event.ParentID)
	if err != nil {
		return err
	}

	switch event.Type {
	case WebhookSubscriptionActive, WebhookSubscriptionUpdated:
		return s.applyUpsert(ctx, parentID, event)
	case WebhookSubscriptionDeleted:
		return s.applyDelete(ctx, parentID, event)
	default:
		return dErrors.New(dErrors.CodeBadRequest, "unknown webhook event type")
	}
}

func (s *Service) applyUpsert(ctx context.Context, parentID domain.ParentID, event WebhookEvent) error {
	plan, ok := domain.ParsePlanID(event.PlanID)
	if !ok {
		return dErrors.New(dErrors.CodeBadRequest, "unknown planId in webhook")
	}
	status, ok := domain.ParseSubscriptionStatus(event.Status)
	if !ok {
		return dErrors.New(dErrors.CodeBadRequest, "unknown status in webhook")
	}
	period, ok := ParseBillingPeriod(event.BillingPeriod)
	if !ok {
		period = BillingMonthly
	}
	var periodEnd time.Time
	if event.PeriodEnd != "" {
		periodEnd, _ = time.Parse(time.RFC3339, event.PeriodEnd)
	}

	now := requestcontext.Now(ctx)
	sub, err := s.store.GetByParent(ctx, parentID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load subscription")
	}
	if sub == nil {
		sub = &Subscription{
			ID:        domain.NewSubscriptionID(),
			ParentID:  parentID,
			CreatedAt: now,
		}
	}
	sub.Plan = plan
	sub.Status = status
	sub.BillingPeriod = period
	sub.ProviderSubID = event.ProviderSubID
	sub.PeriodEnd = periodEnd
	sub.UpdatedAt = now

	intent, _ := ParseCheckoutIntent(event.Intent)
	var addedPlayer domain.PlayerID
	if intent == IntentAddChild && event.PlayerID != "" {
		addedPlayer, _ = domain.ParsePlayerID(event.PlayerID)
	}
	switch {
	case plan.IsFamily():
		sub.Slots = FamilyPlayerLimit
	case intent == IntentAddChild && !sub.Covers(addedPlayer):
		// Replayed signals for an already covered player must not mint slots.
		sub.Slots++
	case sub.Slots == 0:
		sub.Slots = 1
	}

	if err := s.store.Upsert(ctx, sub); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store subscription")
	}

	// An addChild purchase covers the named player immediately. A conflict
	// means the slot already exists, which is the idempotent outcome.
	if !addedPlayer.IsNil() {
		if err := s.store.ClaimSlot(ctx, sub.ID, addedPlayer, sub.Slots); err != nil &&
			!errors.Is(err, sentinel.ErrConflict) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to cover player")
		}
	}

	s.cache.Invalidate(ctx, parentID)
	s.emit(ctx, parentID, event.Type, string(plan))
	return nil
}

func (s *Service) applyDelete(ctx context.Context, parentID domain.ParentID, event WebhookEvent) error {
	sub, err := s.store.GetByParent(ctx, parentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load subscription")
	}
	sub.Status = domain.SubStatusCanceled
	sub.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Upsert(ctx, sub); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store subscription")
	}
	s.cache.Invalidate(ctx, parentID)
	s.emit(ctx, parentID, event.Type, string(sub.Plan))
	return nil
}

// Status reports the gate view for the acting parent.
func (s *Service) Status(ctx context.Context, actor domain.AccountContext) (StatusResponse, error) {
	if !actor.IsParent() {
		return StatusResponse{}, dErrors.New(dErrors.CodeForbidden, "only parents hold subscriptions")
	}
	now := requestcontext.Now(ctx)
	resp := StatusResponse{
		Plan:             string(domain.PlanFree),
		CoveredPlayerIDs: []string{},
		PlayerLimit:      Plans[domain.PlanFree].PlayerLimit,
		InTrial:          entitlement.InTrial(entitlement.Account{CreatedAt: actor.CreatedAt}, now),
	}
	sub, err := s.store.GetByParent(ctx, actor.ParentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return resp, nil
		}
		return StatusResponse{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load subscription")
	}
	resp.Plan = string(sub.Plan)
	resp.Status = string(sub.Status)
	resp.BillingPeriod = string(sub.BillingPeriod)
	if !sub.PeriodEnd.IsZero() {
		resp.PeriodEnd = sub.PeriodEnd.Format(time.RFC3339)
	}
	resp.PlayerLimit = sub.Slots
	for _, id := range sub.CoveredPlayerIDs {
		resp.CoveredPlayerIDs = append(resp.CoveredPlayerIDs, id.String())
	}
	return resp, nil
}

func (s *Service) recordDecision(decision player.CoverageDecision) {
	outcome := "allowed"
	switch {
	case decision.Allowed:
	case decision.CheckoutRequired:
		outcome = "checkout_required"
	case decision.UpgradeRequired:
		outcome = "upgrade_required"
	default:
		outcome = "denied"
	}
	s.metrics.IncrementCoverageDecision(outcome)
}

func (s *Service) emit(ctx context.Context, parentID domain.ParentID, eventType, plan string) {
	if s.audit == nil {
		return
	}
	err := s.audit.Emit(ctx, audit.Event{
		AccountID: parentID.String(),
		Subject:   plan,
		Action:    string(audit.EventSubscriptionApplied),
		Reason:    eventType,
		RequestID: requestcontext.RequestID(ctx),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", string(audit.EventSubscriptionApplied), "error", err)
	}
}
