package subscription

import (
	"context"

	"rinknet/pkg/domain"
)

// Store persists subscriptions and their coverage sets.
//
// ClaimSlot must enforce the limit atomically: of two concurrent claims on a
// subscription with one slot left, exactly one may succeed. Implementations
// return sentinel.ErrConflict when the limit is reached or the player is
// already covered, and sentinel.ErrNotFound for unknown subscriptions.
type Store interface {
	Upsert(ctx context.Context, sub *Subscription) error
	GetByParent(ctx context.Context, parentID domain.ParentID) (*Subscription, error)
	GetByProviderID(ctx context.Context, providerSubID string) (*Subscription, error)
	ClaimSlot(ctx context.Context, subID domain.SubscriptionID, playerID domain.PlayerID, limit int) error
	ReleaseSlot(ctx context.Context, playerID domain.PlayerID) error
}
