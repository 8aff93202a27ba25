package domain

import "time"

// AccountContext identifies the acting account for a single request. It is
// built once by the auth middleware and passed explicitly into every service
// call; services never reach into ambient globals for the current user.
type AccountContext struct {
	AccountID AccountID
	Role      Role
	// ParentID is set when the account owns a parent profile.
	ParentID ParentID
	// CoachID is set when the account owns a coach profile.
	CoachID CoachID
	// CreatedAt drives the 30-day trial floor in entitlement resolution.
	CreatedAt time.Time
}

// IsParent reports whether the actor can take parent-side actions.
func (a AccountContext) IsParent() bool { return !a.ParentID.IsNil() }

// IsCoach reports whether the actor can take coach-side actions.
func (a AccountContext) IsCoach() bool { return !a.CoachID.IsNil() }

// IsAdmin reports whether the actor holds the admin role.
func (a AccountContext) IsAdmin() bool { return a.Role.IsAdmin() }
