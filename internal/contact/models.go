package contact

import (
	"strings"
	"time"

	"rinknet/pkg/domain"
	dErrors "rinknet/pkg/domain-errors"
)

// Kind separates the two mediation flows. Coach-parent requests connect a
// coach profile with a player's parent; parent-parent requests connect two
// parents over a specific player.
type Kind string

const (
	KindCoachParent  Kind = "coach_parent"
	KindParentParent Kind = "parent_parent"
)

// ParseKind validates a kind string.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindCoachParent, KindParentParent:
		return Kind(s), true
	default:
		return "", false
	}
}

// Status is the request lifecycle. StatusNone is never stored; it is the
// check answer when no request exists between the parties.
type Status string

const (
	StatusNone     Status = "none"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Side identifies which party initiated a coach-parent request.
type Side string

const (
	SideCoach  Side = "coach"
	SideParent Side = "parent"
)

// ContactRequest is one mediated introduction between two accounts. The
// profile ids are denormalized so listings render without extra lookups.
// PlayerID is the subject player; it is zero when a parent requests a coach
// about the coach's own profile.
type ContactRequest struct {
	ID                 domain.ContactRequestID
	Kind               Kind
	RequesterAccountID domain.AccountID
	TargetAccountID    domain.AccountID
	CoachID            domain.CoachID
	ParentID           domain.ParentID
	RequesterParentID  domain.ParentID
	PlayerID           domain.PlayerID
	Status             Status
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsParty reports whether the account is one of the two sides.
func (r *ContactRequest) IsParty(accountID domain.AccountID) bool {
	return r.RequesterAccountID == accountID || r.TargetAccountID == accountID
}

// CreateRequest is the payload for a coach-parent contact request. Either
// side may initiate; RequestedBy names the initiator.
type CreateRequest struct {
	CoachProfileID  string `json:"coachProfileId"`
	ParentProfileID string `json:"parentProfileId"`
	PlayerID        string `json:"playerId,omitempty"`
	RequestedBy     string `json:"requestedBy"`
}

func (r *CreateRequest) Normalize() {
	r.CoachProfileID = strings.TrimSpace(r.CoachProfileID)
	r.ParentProfileID = strings.TrimSpace(r.ParentProfileID)
	r.PlayerID = strings.TrimSpace(r.PlayerID)
	r.RequestedBy = strings.ToLower(strings.TrimSpace(r.RequestedBy))
}

func (r *CreateRequest) Validate() error {
	if r.CoachProfileID == "" {
		return dErrors.New(dErrors.CodeValidation, "coachProfileId is required")
	}
	if r.ParentProfileID == "" {
		return dErrors.New(dErrors.CodeValidation, "parentProfileId is required")
	}
	switch Side(r.RequestedBy) {
	case SideCoach, SideParent:
	default:
		return dErrors.New(dErrors.CodeValidation, "requestedBy must be coach or parent")
	}
	if Side(r.RequestedBy) == SideCoach && r.PlayerID == "" {
		return dErrors.New(dErrors.CodeValidation, "coach requests must name the player")
	}
	return nil
}

// ParentCreateRequest is the payload for a parent-parent contact request.
// The player subject is always required; it identifies whose parent is
// being contacted.
type ParentCreateRequest struct {
	TargetParentID string `json:"targetParentId"`
	PlayerID       string `json:"playerId"`
}

func (r *ParentCreateRequest) Normalize() {
	r.TargetParentID = strings.TrimSpace(r.TargetParentID)
	r.PlayerID = strings.TrimSpace(r.PlayerID)
}

func (r *ParentCreateRequest) Validate() error {
	if r.TargetParentID == "" {
		return dErrors.New(dErrors.CodeValidation, "targetParentId is required")
	}
	if r.PlayerID == "" {
		return dErrors.New(dErrors.CodeValidation, "playerId is required")
	}
	return nil
}

// DecideRequest is the PATCH payload for approving or rejecting.
type DecideRequest struct {
	Status string `json:"status"`
}

func (r *DecideRequest) Validate() (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(r.Status))) {
	case StatusApproved:
		return StatusApproved, nil
	case StatusRejected:
		return StatusRejected, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "status must be approved or rejected")
	}
}

// ListFilter narrows listings to one direction of travel.
type ListFilter string

const (
	FilterAll      ListFilter = "all"
	FilterIncoming ListFilter = "incoming"
	FilterOutgoing ListFilter = "outgoing"
)

// ParseListFilter defaults empty input to all.
func ParseListFilter(s string) (ListFilter, bool) {
	switch ListFilter(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return FilterAll, true
	case FilterAll, FilterIncoming, FilterOutgoing:
		return ListFilter(strings.ToLower(strings.TrimSpace(s))), true
	default:
		return "", false
	}
}
