package account

import (
	"context"

	"rinknet/pkg/domain"
)

// Store persists accounts and parent profiles. Implementations return
// sentinel.ErrNotFound for unknown ids and sentinel.ErrConflict for duplicate
// emails; the service layer translates these into coded domain errors.
type Store interface {
	CreateAccount(ctx context.Context, acct *Account) error
	GetAccount(ctx context.Context, id domain.AccountID) (*Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)

	CreateParentProfile(ctx context.Context, profile *ParentProfile) error
	GetParentProfile(ctx context.Context, id domain.ParentID) (*ParentProfile, error)
	GetParentProfileByAccount(ctx context.Context, accountID domain.AccountID) (*ParentProfile, error)
}
