package coach

import (
	"context"

	"rinknet/pkg/domain"
)

// Store persists coach profiles. Create returns sentinel.ErrAlreadyUsed when
// a head-coach claim collides with an existing head coach on the same roster
// slot, and sentinel.ErrConflict when the account already has a profile.
type Store interface {
	Create(ctx context.Context, profile *Profile) error
	Get(ctx context.Context, id domain.CoachID) (*Profile, error)
	CoachIDByAccount(ctx context.Context, accountID domain.AccountID) (domain.CoachID, error)
}
