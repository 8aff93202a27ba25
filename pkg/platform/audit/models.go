// Package audit captures structured audit events for mediation and billing
// actions. Events are transport-agnostic so stores and sinks can fan out.
package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal significance for a platform
	// handling minors' data: consent decisions, visibility changes, billing.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to abuse monitoring.
	// Examples: entitlement denials, repeated rejected contact attempts.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. These can be sampled with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// AccountID is the acting account.
	AccountID string
	// Subject identifies the record acted on (request id, review id, player id).
	Subject string
	Action  string
	// Decision is the outcome where one exists (approved, rejected, denied).
	Decision string
	Reason   string
	// RequestID is the correlation ID from the HTTP request context.
	RequestID string
}

type AuditEvent string

const (
	// Account and profile events
	EventAccountCreated    AuditEvent = "account_created"
	EventCoachRegistered   AuditEvent = "coach_registered"
	EventHeadCoachConflict AuditEvent = "head_coach_conflict"
	EventPlayerAdded       AuditEvent = "player_added"

	// Contact mediation events
	EventContactRequested AuditEvent = "contact_requested"
	EventContactApproved  AuditEvent = "contact_approved"
	EventContactRejected  AuditEvent = "contact_rejected"
	EventContactDenied    AuditEvent = "contact_denied"

	// Moderation events
	EventReviewSubmitted AuditEvent = "review_submitted"
	EventReviewHidden    AuditEvent = "review_hidden"
	EventReviewRestored  AuditEvent = "review_restored"
	EventDisputeOpened   AuditEvent = "dispute_opened"
	EventDisputeReplied  AuditEvent = "dispute_replied"
	EventDisputeClosed   AuditEvent = "dispute_closed"

	// Billing and coverage events
	EventSubscriptionApplied AuditEvent = "subscription_applied"
	EventCoverageDenied      AuditEvent = "coverage_denied"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	// Compliance events: consent and visibility decisions over minors' data.
	EventContactRequested:    CategoryCompliance,
	EventContactApproved:     CategoryCompliance,
	EventContactRejected:     CategoryCompliance,
	EventReviewHidden:        CategoryCompliance,
	EventReviewRestored:      CategoryCompliance,
	EventDisputeOpened:       CategoryCompliance,
	EventDisputeClosed:       CategoryCompliance,
	EventSubscriptionApplied: CategoryCompliance,

	// Security events: denials worth watching for abuse patterns.
	EventContactDenied:     CategorySecurity,
	EventHeadCoachConflict: CategorySecurity,
	EventCoverageDenied:    CategorySecurity,

	// Operations events: routine activity.
	EventAccountCreated:  CategoryOperations,
	EventCoachRegistered: CategoryOperations,
	EventPlayerAdded:     CategoryOperations,
	EventReviewSubmitted: CategoryOperations,
	EventDisputeReplied:  CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByAccount(ctx context.Context, accountID string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
