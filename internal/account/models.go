// Package account holds accounts and parent profiles. Coach profiles live in
// the coach package; this package only resolves which profiles an account
// owns when building the per-request account context.
package account

import (
	"time"

	"rinknet/pkg/domain"
)

// Account is the authenticated principal. At most one parent profile or one
// coach profile hangs off it, depending on role.
type Account struct {
	ID        domain.AccountID
	Email     string
	Name      string
	Role      domain.Role
	CreatedAt time.Time
}

// ParentProfile links a parent account to the players it owns.
type ParentProfile struct {
	ID        domain.ParentID
	AccountID domain.AccountID
	CreatedAt time.Time
}
