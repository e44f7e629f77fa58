package plangate

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	id "taxcal/pkg/domain"
)

// RedisGate reads plan entitlements from the set the billing system
// maintains per organization.
type RedisGate struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed plan gate.
func NewRedis(client *redis.Client) *RedisGate {
	return &RedisGate{client: client}
}

func entitlementKey(orgID id.OrgID) string {
	return "plan:" + orgID.String() + ":features"
}

func (g *RedisGate) Allowed(ctx context.Context, orgID id.OrgID, feature Feature) (bool, error) {
	ok, err := g.client.SIsMember(ctx, entitlementKey(orgID), string(feature)).Result()
	if err != nil {
		return false, fmt.Errorf("read plan entitlements: %w", err)
	}
	return ok, nil
}
