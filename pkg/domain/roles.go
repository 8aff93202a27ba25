package domain

// Role classifies an account. Admins bypass entitlement checks and may act on
// any mediation record.
type Role string

const (
	RoleParent Role = "PARENT"
	RoleCoach  Role = "COACH"
	RoleAdmin  Role = "ADMIN"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleParent, RoleCoach, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

func (r Role) IsAdmin() bool { return r == RoleAdmin }
