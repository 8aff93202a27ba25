package moderation

import (
	"strings"
	"time"

	"rinknet/pkg/domain"
	dErrors "rinknet/pkg/domain-errors"
)

// ReviewKind separates coach reviews from player reviews. The two share
// storage and the dispute workflow; admin feeds tag each entry with its kind.
type ReviewKind string

const (
	KindCoach  ReviewKind = "coach"
	KindPlayer ReviewKind = "player"
)

// ParseReviewKind validates a kind string.
func ParseReviewKind(s string) (ReviewKind, bool) {
	switch ReviewKind(s) {
	case KindCoach, KindPlayer:
		return ReviewKind(s), true
	default:
		return "", false
	}
}

// Visibility controls whether a review appears in listings and aggregates.
type Visibility string

const (
	VisibilityVisible Visibility = "visible"
	VisibilityHidden  Visibility = "hidden"
)

// Review is one rating left on a coach or player profile. SubjectID is the
// profile id the review targets, stored as its string form since the two
// kinds use different id types.
type Review struct {
	ID         domain.ReviewID
	Kind       ReviewKind
	AuthorID   domain.AccountID
	SubjectID  string
	Rating     int
	Text       string
	Visibility Visibility
	CreatedAt  time.Time
}

// ReviewCreateRequest is the payload for submitting a review.
type ReviewCreateRequest struct {
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

func (r *ReviewCreateRequest) Normalize() {
	r.Text = strings.TrimSpace(r.Text)
}

func (r *ReviewCreateRequest) Validate() error {
	if len(r.Text) > 2000 {
		return dErrors.New(dErrors.CodeValidation, "review text must be at most 2000 characters")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return dErrors.New(dErrors.CodeValidation, "rating must be between 1 and 5")
	}
	return nil
}

// DisputeStatus is the dispute lifecycle. Resolved and dismissed are
// terminal; neither restores the review's visibility.
type DisputeStatus string

const (
	DisputePending   DisputeStatus = "pending"
	DisputeResolved  DisputeStatus = "resolved"
	DisputeDismissed DisputeStatus = "dismissed"
)

// ParseDisputeStatus validates a status string.
func ParseDisputeStatus(s string) (DisputeStatus, bool) {
	switch DisputeStatus(s) {
	case DisputePending, DisputeResolved, DisputeDismissed:
		return DisputeStatus(s), true
	default:
		return "", false
	}
}

// Dispute challenges one review. Opening it hides the review in the same
// transaction; at most one pending dispute exists per review.
type Dispute struct {
	ID          domain.DisputeID
	Kind        ReviewKind
	ReviewID    domain.ReviewID
	DisputantID domain.AccountID
	Reason      string
	Status      DisputeStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Terminal reports whether the dispute can still transition.
func (d *Dispute) Terminal() bool {
	return d.Status != DisputePending
}

// DisputeCreateRequest is the payload for opening a dispute.
type DisputeCreateRequest struct {
	Reason string `json:"reason"`
}

func (r *DisputeCreateRequest) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *DisputeCreateRequest) Validate() error {
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	if len(r.Reason) > 2000 {
		return dErrors.New(dErrors.CodeValidation, "reason must be at most 2000 characters")
	}
	return nil
}

// ReplyRequest is the payload for a thread reply.
type ReplyRequest struct {
	Text string `json:"text"`
}

func (r *ReplyRequest) Normalize() {
	r.Text = strings.TrimSpace(r.Text)
}

func (r *ReplyRequest) Validate() error {
	if r.Text == "" {
		return dErrors.New(dErrors.CodeValidation, "text is required")
	}
	if len(r.Text) > 4000 {
		return dErrors.New(dErrors.CodeValidation, "text must be at most 4000 characters")
	}
	return nil
}

// DisputeDecideRequest is the PATCH payload for closing a dispute.
type DisputeDecideRequest struct {
	Status string `json:"status"`
}

func (r *DisputeDecideRequest) Validate() (DisputeStatus, error) {
	switch DisputeStatus(strings.ToLower(strings.TrimSpace(r.Status))) {
	case DisputeResolved:
		return DisputeResolved, nil
	case DisputeDismissed:
		return DisputeDismissed, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "status must be resolved or dismissed")
	}
}
