// Package cache holds the Redis-backed token denylist. A logout revokes the
// token's jti until its natural expiry; the auth middleware checks membership
// on every request.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistKeyPrefix = "denylist:jti:"

// RedisTokenDenylist implements auth.Denylist and users.TokenDenylist.
type RedisTokenDenylist struct {
	client *redis.Client
}

// NewRedisTokenDenylist creates a new Redis token denylist
func NewRedisTokenDenylist(client *redis.Client) *RedisTokenDenylist {
	return &RedisTokenDenylist{client: client}
}

// Revoke marks the token id as revoked until its expiry. The key carries a
// TTL so revoked entries clean themselves up.
func (d *RedisTokenDenylist) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		// Token already expired, nothing to deny.
		return nil
	}
	if err := d.client.Set(ctx, denylistKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether the token id has been revoked.
func (d *RedisTokenDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := d.client.Exists(ctx, denylistKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}
