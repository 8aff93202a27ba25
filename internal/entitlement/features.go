// Package entitlement resolves whether an account may use a named feature.
// Resolution is a pure function of the account's plan, billing status, and
// age; it has no side effects and touches no storage, so UI gating and
// service-level checks share one testable policy.
package entitlement

import "rinknet/pkg/domain"

// Feature is the closed set of plan-gated capabilities.
type Feature string

const (
	// Profile visibility (how a player appears to coaches and other parents).
	FeaturePublicSearchable   Feature = "public_searchable"
	FeatureFullLastName       Feature = "full_last_name"
	FeatureLevelVisibility    Feature = "level_visibility"
	FeatureLocationVisibility Feature = "location_visibility"
	FeatureSocialMediaLinks   Feature = "social_media_links"
	FeatureHigherStats        Feature = "higher_stats"

	// Contact and connection.
	FeatureContactRequests       Feature = "contact_requests"
	FeatureParentContactRequests Feature = "parent_contact_requests"
	FeatureCoachRatings          Feature = "coach_ratings"
	FeatureCoachEvaluations      Feature = "coach_evaluations"

	// Facilities.
	FeatureFacilityReviews  Feature = "facility_reviews"
	FeatureSubmitFacilities Feature = "submit_facilities"
)

// minimumTier maps each feature to the lowest plan tier that unlocks it.
// Family plans check against their base tier (familyGold -> gold).
var minimumTier = map[Feature]domain.PlanID{
	FeaturePublicSearchable:   domain.PlanGold,
	FeatureFullLastName:       domain.PlanElite,
	FeatureLevelVisibility:    domain.PlanGold,
	FeatureLocationVisibility: domain.PlanElite,
	FeatureSocialMediaLinks:   domain.PlanElite,
	FeatureHigherStats:        domain.PlanElite,

	FeatureContactRequests:       domain.PlanGold,
	FeatureParentContactRequests: domain.PlanGold,
	FeatureCoachRatings:          domain.PlanElite,
	FeatureCoachEvaluations:      domain.PlanElite,

	FeatureFacilityReviews:  domain.PlanGold,
	FeatureSubmitFacilities: domain.PlanFree,
}

// tierOrder ranks base tiers for minimum-tier comparison.
var tierOrder = map[domain.PlanID]int{
	domain.PlanFree:  0,
	domain.PlanGold:  1,
	domain.PlanElite: 2,
}

// Known reports whether f belongs to the closed feature set.
func Known(f Feature) bool {
	_, ok := minimumTier[f]
	return ok
}

// tierAtLeast reports whether plan's base tier meets the minimum tier.
func tierAtLeast(plan domain.PlanID, min domain.PlanID) bool {
	return tierOrder[plan.BaseTier()] >= tierOrder[min.BaseTier()]
}
