package subscription

import (
	"context"
	"net/url"

	"rinknet/pkg/domain"
)

// CheckoutSession is everything a payment provider needs to build a hosted
// checkout page. The core never talks to the provider beyond this.
type CheckoutSession struct {
	ParentID      domain.ParentID
	Plan          domain.PlanID
	BillingPeriod BillingPeriod
	Intent        CheckoutIntent
	PlayerID      domain.PlayerID
	PriceCents    int
	SuccessURL    string
	CancelURL     string
}

// CheckoutProvider creates hosted checkout sessions. Billing state flows back
// asynchronously through the webhook, never through this interface.
type CheckoutProvider interface {
	CreateSession(ctx context.Context, session CheckoutSession) (checkoutURL string, err error)
}

// StubProvider is the dev-mode provider. It returns a local URL carrying the
// session parameters so the flow is walkable without a payment account.
type StubProvider struct {
	BaseURL string
}

func (p *StubProvider) CreateSession(_ context.Context, session CheckoutSession) (string, error) {
	base := p.BaseURL
	if base == "" {
		base = "http://localhost:8080/dev/checkout"
	}
	q := url.Values{}
	q.Set("plan", string(session.Plan))
	q.Set("period", string(session.BillingPeriod))
	q.Set("intent", string(session.Intent))
	if !session.PlayerID.IsNil() {
		q.Set("playerId", session.PlayerID.String())
	}
	return base + "?" + q.Encode(), nil
}
