// Package domain defines shared domain primitives: typed UUID identifiers and
// account roles. Typed IDs prevent cross-type assignment at compile time, so a
// PlayerID can never be passed where a CoachID is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "rinknet/pkg/domain-errors"
)

// Typed identifiers for every entity that crosses a trust boundary.
type (
	AccountID        uuid.UUID
	ParentID         uuid.UUID
	CoachID          uuid.UUID
	PlayerID         uuid.UUID
	SubscriptionID   uuid.UUID
	ContactRequestID uuid.UUID
	ReviewID         uuid.UUID
	DisputeID        uuid.UUID
	MessageID        uuid.UUID
	TicketID         uuid.UUID
)

func (id AccountID) String() string        { return uuid.UUID(id).String() }
func (id ParentID) String() string         { return uuid.UUID(id).String() }
func (id CoachID) String() string          { return uuid.UUID(id).String() }
func (id PlayerID) String() string         { return uuid.UUID(id).String() }
func (id SubscriptionID) String() string   { return uuid.UUID(id).String() }
func (id ContactRequestID) String() string { return uuid.UUID(id).String() }
func (id ReviewID) String() string         { return uuid.UUID(id).String() }
func (id DisputeID) String() string        { return uuid.UUID(id).String() }
func (id MessageID) String() string        { return uuid.UUID(id).String() }
func (id TicketID) String() string         { return uuid.UUID(id).String() }

func (id AccountID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id ParentID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id CoachID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id PlayerID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id SubscriptionID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ContactRequestID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ReviewID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id DisputeID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id MessageID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id TicketID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }

// parseUUID enforces the parsing invariant shared by all typed IDs:
// IDs must be valid, non-empty, non-nil UUIDs.
func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id must not be the nil UUID")
	}
	return u, nil
}

func ParseAccountID(s string) (AccountID, error) {
	u, err := parseUUID(s, "account")
	return AccountID(u), err
}

func ParseParentID(s string) (ParentID, error) {
	u, err := parseUUID(s, "parent profile")
	return ParentID(u), err
}

func ParseCoachID(s string) (CoachID, error) {
	u, err := parseUUID(s, "coach profile")
	return CoachID(u), err
}

func ParsePlayerID(s string) (PlayerID, error) {
	u, err := parseUUID(s, "player")
	return PlayerID(u), err
}

func ParseContactRequestID(s string) (ContactRequestID, error) {
	u, err := parseUUID(s, "contact request")
	return ContactRequestID(u), err
}

func ParseReviewID(s string) (ReviewID, error) {
	u, err := parseUUID(s, "review")
	return ReviewID(u), err
}

func ParseDisputeID(s string) (DisputeID, error) {
	u, err := parseUUID(s, "dispute")
	return DisputeID(u), err
}

func ParseTicketID(s string) (TicketID, error) {
	u, err := parseUUID(s, "ticket")
	return TicketID(u), err
}

// NewAccountID and friends mint fresh identifiers.
func NewAccountID() AccountID               { return AccountID(uuid.New()) }
func NewParentID() ParentID                 { return ParentID(uuid.New()) }
func NewCoachID() CoachID                   { return CoachID(uuid.New()) }
func NewPlayerID() PlayerID                 { return PlayerID(uuid.New()) }
func NewSubscriptionID() SubscriptionID     { return SubscriptionID(uuid.New()) }
func NewContactRequestID() ContactRequestID { return ContactRequestID(uuid.New()) }
func NewReviewID() ReviewID                 { return ReviewID(uuid.New()) }
func NewDisputeID() DisputeID               { return DisputeID(uuid.New()) }
func NewMessageID() MessageID               { return MessageID(uuid.New()) }
func NewTicketID() TicketID                 { return TicketID(uuid.New()) }
