package entitlement

import (
	"time"

	"rinknet/pkg/domain"
)

// TrialWindow is how long a new account gets free-tier parity regardless of
// plan state. The trial is a floor, not a ceiling: an active paid plan always
// wins.
const TrialWindow = 30 * 24 * time.Hour

// Account is the snapshot the resolver needs. Callers assemble it from the
// account record and its subscription (if any); a missing subscription is the
// zero value with HasPlan=false.
type Account struct {
	CreatedAt time.Time
	HasPlan   bool
	Plan      domain.PlanID
	Status    domain.SubscriptionStatus
}

// EffectivePlan returns the plan whose feature set the account holds at the
// given instant.
//
// Rules, in order:
//  1. An active or trialing paid subscription grants its plan's set.
//  2. Otherwise (no plan, canceled, past_due) the account holds free.
//     Revocation is immediate, with no grace beyond the provider status.
//  3. Accounts inside the trial window hold at least free, which is already
//     the floor, so the window never lowers a paid result.
func EffectivePlan(acct Account, now time.Time) domain.PlanID {
	if acct.HasPlan && acct.Plan.IsPaid() && acct.Status.Entitles() {
		return acct.Plan
	}
	return domain.PlanFree
}

// Resolve reports whether the account may use the feature at the given
// instant. Unknown features are denied. Referentially transparent: same
// inputs, same answer.
func Resolve(acct Account, f Feature, now time.Time) bool {
	min, ok := minimumTier[f]
	if !ok {
		return false
	}
	return tierAtLeast(EffectivePlan(acct, now), min)
}

// InTrial reports whether the account is still inside its evaluation window.
// Exposed for UI copy ("X days left in trial"); Resolve itself only needs the
// free floor the window implies.
func InTrial(acct Account, now time.Time) bool {
	return now.Sub(acct.CreatedAt) <= TrialWindow
}
