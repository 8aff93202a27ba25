package domain

// PlanID names a subscription tier. Family plans share their base tier's
// feature set and differ only in player coverage capacity.
type PlanID string

const (
	PlanFree        PlanID = "free"
	PlanGold        PlanID = "gold"
	PlanElite       PlanID = "elite"
	PlanFamilyGold  PlanID = "familyGold"
	PlanFamilyElite PlanID = "familyElite"
)

// ParsePlanID validates a plan identifier.
func ParsePlanID(s string) (PlanID, bool) {
	switch PlanID(s) {
	case PlanFree, PlanGold, PlanElite, PlanFamilyGold, PlanFamilyElite:
		return PlanID(s), true
	}
	return "", false
}

// IsFamily reports whether the plan covers multiple players under one billing.
func (p PlanID) IsFamily() bool {
	return p == PlanFamilyGold || p == PlanFamilyElite
}

// IsPaid reports whether the plan requires billing.
func (p PlanID) IsPaid() bool { return p != PlanFree && p != "" }

// BaseTier maps family plans to the tier whose feature set they carry.
func (p PlanID) BaseTier() PlanID {
	switch p {
	case PlanFamilyGold:
		return PlanGold
	case PlanFamilyElite:
		return PlanElite
	case PlanGold, PlanElite, PlanFree:
		return p
	}
	return PlanFree
}

// SubscriptionStatus tracks the billing state reported by the payment
// provider. Only trialing and active grant paid features.
type SubscriptionStatus string

const (
	SubStatusTrialing SubscriptionStatus = "trialing"
	SubStatusActive   SubscriptionStatus = "active"
	SubStatusCanceled SubscriptionStatus = "canceled"
	SubStatusPastDue  SubscriptionStatus = "past_due"
)

// ParseSubscriptionStatus validates a provider-reported status.
func ParseSubscriptionStatus(s string) (SubscriptionStatus, bool) {
	switch SubscriptionStatus(s) {
	case SubStatusTrialing, SubStatusActive, SubStatusCanceled, SubStatusPastDue:
		return SubscriptionStatus(s), true
	}
	return "", false
}

// Entitles reports whether the status keeps paid features switched on.
// past_due and canceled revoke immediately, with no grace period.
func (s SubscriptionStatus) Entitles() bool {
	return s == SubStatusTrialing || s == SubStatusActive
}
