package subscription

import (
	"strings"
	"time"

	"rinknet/pkg/domain"
	dErrors "rinknet/pkg/domain-errors"
)

// Subscription is one parent's billing state as last reported by the payment
// provider. CoveredPlayerIDs is the coverage set the gate enforces.
type Subscription struct {
	ID            domain.SubscriptionID
	ParentID      domain.ParentID
	Plan          domain.PlanID
	Status        domain.SubscriptionStatus
	BillingPeriod BillingPeriod
	ProviderSubID string
	// Slots is the number of coverage slots purchased. Per-child plans start
	// at 1 and grow by one per addChild checkout; family plans hold the hard
	// family cap.
	Slots            int
	PeriodEnd        time.Time
	CoveredPlayerIDs []domain.PlayerID
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Covers reports whether the player already holds a coverage slot.
func (s *Subscription) Covers(id domain.PlayerID) bool {
	for _, covered := range s.CoveredPlayerIDs {
		if covered == id {
			return true
		}
	}
	return false
}

// CheckoutRequest is the POST /subscription/checkout payload.
type CheckoutRequest struct {
	PlanID        string `json:"planId"`
	BillingPeriod string `json:"billingPeriod"`
	Intent        string `json:"intent"`
	// PlayerID names the child an addChild checkout will cover.
	PlayerID string `json:"playerId,omitempty"`
}

// Normalize trims fields and defaults the billing period and intent.
func (r *CheckoutRequest) Normalize() {
	r.PlanID = strings.TrimSpace(r.PlanID)
	r.BillingPeriod = strings.TrimSpace(r.BillingPeriod)
	r.Intent = strings.TrimSpace(r.Intent)
	r.PlayerID = strings.TrimSpace(r.PlayerID)
	if r.BillingPeriod == "" {
		r.BillingPeriod = string(BillingMonthly)
	}
	if r.Intent == "" {
		r.Intent = string(IntentSubscribe)
	}
}

// Validate checks required fields, then syntax, then cross-field semantics.
func (r *CheckoutRequest) Validate() error {
	if r.PlanID == "" {
		return dErrors.New(dErrors.CodeValidation, "planId is required")
	}
	plan, ok := domain.ParsePlanID(r.PlanID)
	if !ok {
		return dErrors.New(dErrors.CodeValidation, "unknown planId")
	}
	if !plan.IsPaid() {
		return dErrors.New(dErrors.CodeValidation, "the free plan has no checkout")
	}
	if _, ok := ParseBillingPeriod(r.BillingPeriod); !ok {
		return dErrors.New(dErrors.CodeValidation, "billingPeriod must be monthly or annual")
	}
	intent, ok := ParseCheckoutIntent(r.Intent)
	if !ok {
		return dErrors.New(dErrors.CodeValidation, "intent must be subscribe or addChild")
	}
	if intent == IntentAddChild {
		if r.PlayerID == "" {
			return dErrors.New(dErrors.CodeValidation, "playerId is required for addChild checkout")
		}
		if plan.IsFamily() {
			return dErrors.New(dErrors.CodeValidation, "family plans do not bill per child")
		}
	}
	return nil
}

// WebhookEvent is the provider's state signal, already verified and decoded
// by the transport. The core treats it as opaque truth about billing state.
type WebhookEvent struct {
	Type          string `json:"type"`
	ProviderSubID string `json:"providerSubscriptionId"`
	ParentID      string `json:"parentId"`
	PlanID        string `json:"planId"`
	Status        string `json:"status"`
	BillingPeriod string `json:"billingPeriod"`
	PeriodEnd     string `json:"periodEnd"`
	Intent        string `json:"intent,omitempty"`
	PlayerID      string `json:"playerId,omitempty"`
}

// Webhook event types the core consumes.
const (
	WebhookSubscriptionActive  = "subscription.active"
	WebhookSubscriptionUpdated = "subscription.updated"
	WebhookSubscriptionDeleted = "subscription.deleted"
)

// StatusResponse is the GET /subscription/status view.
type StatusResponse struct {
	Plan             string   `json:"plan"`
	Status           string   `json:"status,omitempty"`
	BillingPeriod    string   `json:"billingPeriod,omitempty"`
	PeriodEnd        string   `json:"periodEnd,omitempty"`
	CoveredPlayerIDs []string `json:"coveredPlayerIds"`
	PlayerLimit      int      `json:"playerLimit"`
	InTrial          bool     `json:"inTrial"`
}
