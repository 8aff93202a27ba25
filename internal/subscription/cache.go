package subscription

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	platformredis "rinknet/internal/platform/redis"
	"rinknet/pkg/domain"
)

// planSnapshot is the cached slice of a subscription that entitlement checks
// need. Profile reads hit this on every field, so it is the hot path.
type planSnapshot struct {
	HasPlan bool                      `json:"hasPlan"`
	Plan    domain.PlanID             `json:"plan"`
	Status  domain.SubscriptionStatus `json:"status"`
}

// PlanCache is a read-through redis cache for plan snapshots. A nil cache is
// valid and disables caching; every read then falls through to the store.
type PlanCache struct {
	client *platformredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewPlanCache builds the cache. Passing a nil client disables it.
func NewPlanCache(client *platformredis.Client, ttl time.Duration, logger *slog.Logger) *PlanCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PlanCache{client: client, ttl: ttl, logger: logger}
}

func planKey(parentID domain.ParentID) string {
	return "rinknet:plan:" + parentID.String()
}

// Get returns the cached snapshot, or false on miss or any redis failure.
// Cache errors never fail the caller; the store is the source of truth.
func (c *PlanCache) Get(ctx context.Context, parentID domain.ParentID) (planSnapshot, bool) {
	if c == nil {
		return planSnapshot{}, false
	}
	raw, err := c.client.Get(ctx, planKey(parentID)).Bytes()
	if err != nil {
		if err != goredis.Nil && c.logger != nil {
			c.logger.WarnContext(ctx, "plan cache read failed", "error", err)
		}
		return planSnapshot{}, false
	}
	var snap planSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return planSnapshot{}, false
	}
	return snap, true
}

// Set stores the snapshot with the cache TTL.
func (c *PlanCache) Set(ctx context.Context, parentID domain.ParentID, snap planSnapshot) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, planKey(parentID), raw, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.WarnContext(ctx, "plan cache write failed", "error", err)
	}
}

// Invalidate drops the snapshot after any subscription mutation.
func (c *PlanCache) Invalidate(ctx context.Context, parentID domain.ParentID) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, planKey(parentID)).Err(); err != nil && c.logger != nil {
		c.logger.WarnContext(ctx, "plan cache invalidate failed", "error", err)
	}
}
