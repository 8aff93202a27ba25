// Package subscription owns plan metadata, the subscription lifecycle driven
// by provider webhooks, the player-coverage gate, and the entitlement facade
// other services call for feature checks.
package subscription

import (
	"rinknet/pkg/domain"
)

// FamilyPlayerLimit is the hard cap on players covered by a family plan.
// There is no checkout path above it.
const FamilyPlayerLimit = 6

// PlanInfo is the billing metadata for one plan. Prices are cents; provider
// price ids come from env at wiring time.
type PlanInfo struct {
	ID                domain.PlanID
	Name              string
	MonthlyPriceCents int
	AnnualPriceCents  int
	// PerChild plans bill one checkout per covered player.
	PerChild bool
	// PlayerLimit is the coverage cap. Per-child plans cover one player per
	// purchase; family plans cover up to FamilyPlayerLimit.
	PlayerLimit int
}

// Plans is the closed plan catalog.
var Plans = map[domain.PlanID]PlanInfo{
	domain.PlanFree: {
		ID:          domain.PlanFree,
		Name:        "Starter",
		PlayerLimit: 1,
	},
	domain.PlanGold: {
		ID:                domain.PlanGold,
		Name:              "Gold",
		MonthlyPriceCents: 399,
		AnnualPriceCents:  3999,
		PerChild:          true,
		PlayerLimit:       1,
	},
	domain.PlanElite: {
		ID:                domain.PlanElite,
		Name:              "Elite",
		MonthlyPriceCents: 599,
		AnnualPriceCents:  5999,
		PerChild:          true,
		PlayerLimit:       1,
	},
	domain.PlanFamilyGold: {
		ID:                domain.PlanFamilyGold,
		Name:              "Family Gold",
		MonthlyPriceCents: 999,
		AnnualPriceCents:  9999,
		PlayerLimit:       FamilyPlayerLimit,
	},
	domain.PlanFamilyElite: {
		ID:                domain.PlanFamilyElite,
		Name:              "Family Elite",
		MonthlyPriceCents: 1499,
		AnnualPriceCents:  14999,
		PlayerLimit:       FamilyPlayerLimit,
	},
}

// BillingPeriod is the checkout cadence.
type BillingPeriod string

const (
	BillingMonthly BillingPeriod = "monthly"
	BillingAnnual  BillingPeriod = "annual"
)

// ParseBillingPeriod validates a billing period string.
func ParseBillingPeriod(s string) (BillingPeriod, bool) {
	switch BillingPeriod(s) {
	case BillingMonthly, BillingAnnual:
		return BillingPeriod(s), true
	}
	return "", false
}

// CheckoutIntent distinguishes a new subscription from covering another
// child on an existing per-child plan.
type CheckoutIntent string

const (
	IntentSubscribe CheckoutIntent = "subscribe"
	IntentAddChild  CheckoutIntent = "addChild"
)

// ParseCheckoutIntent validates a checkout intent string.
func ParseCheckoutIntent(s string) (CheckoutIntent, bool) {
	switch CheckoutIntent(s) {
	case IntentSubscribe, IntentAddChild:
		return CheckoutIntent(s), true
	}
	return "", false
}
